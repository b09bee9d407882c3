package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kjannette/maichez-backend/internal/config"
	"github.com/kjannette/maichez-backend/internal/transcript"
)

var errNoTranscriptTable = errors.New("transcript archive disabled: set TRANSCRIPT_TABLE")

func newHistoryCmd(cfg func() *config.Config) *cobra.Command {
	var (
		userID string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a student's archived assistant messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(userID); err != nil {
				return fmt.Errorf("--user must be a user id: %w", err)
			}
			c := cfg()
			if c.TranscriptTable == "" {
				return errNoTranscriptTable
			}
			ctx := cmd.Context()
			archive, err := transcript.NewDynamoArchive(ctx, transcript.DynamoOptions{
				Table:    c.TranscriptTable,
				Region:   c.AWSRegion,
				Endpoint: c.DynamoEndpoint,
			})
			if err != nil {
				return err
			}
			entries, err := archive.Recent(ctx, userID, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistory(entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Student user id")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of messages to show")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
