package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/kjannette/maichez-backend/internal/config"
	"github.com/kjannette/maichez-backend/internal/db"
	"github.com/kjannette/maichez-backend/internal/repository"
)

func newRulesCmd(cfg func() *config.Config) *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect trading rules",
	}

	var userID string
	list := &cobra.Command{
		Use:   "list",
		Short: "List a student's trading rules in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(userID); err != nil {
				return fmt.Errorf("--user must be a user id: %w", err)
			}
			ctx := cmd.Context()
			pool, err := openDB(ctx, cfg())
			if err != nil {
				return err
			}
			defer pool.Close()

			userRules, err := repository.NewRuleRepo(pool).ListByUser(ctx, userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRules(userRules))
			return nil
		},
	}
	list.Flags().StringVar(&userID, "user", "", "Student user id")
	_ = list.MarkFlagRequired("user")

	rulesCmd.AddCommand(list)
	return rulesCmd
}

func openDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
