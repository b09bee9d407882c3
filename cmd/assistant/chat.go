package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kjannette/maichez-backend/internal/assistant"
	"github.com/kjannette/maichez-backend/internal/config"
	"github.com/kjannette/maichez-backend/internal/conversation"
	"github.com/kjannette/maichez-backend/internal/dataurl"
	"github.com/kjannette/maichez-backend/internal/repository"
	"github.com/kjannette/maichez-backend/internal/rules"
	"github.com/kjannette/maichez-backend/internal/validator"
)

// staticRules serves rules given on the command line.
type staticRules []string

func (r staticRules) Texts(context.Context, string) []string { return r }
func (r staticRules) Status(string) rules.Status             { return rules.Status{Count: len(r)} }
func (r staticRules) Forget(string)                          {}

type chatOptions struct {
	userID    string
	imagePath string
	rules     []string
}

func newChatCmd(cfg func() *config.Config) *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Review a trade idea in the terminal",
		Long: `Start a conversation with the trade assistant.
Rules come from the database for --user, or from repeated --rule flags
when you want to try the assistant without a database.
Type /image <path> to attach a chart, /quit to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cmd.OutOrStdout(), cfg(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.userID, "user", "", "Student user id (rules and journal are read from the database)")
	cmd.Flags().StringVar(&opts.imagePath, "image", "", "Chart screenshot to attach to the analysis")
	cmd.Flags().StringArrayVar(&opts.rules, "rule", nil, "Trading rule to check against (repeatable, skips the database)")
	return cmd
}

func runChat(ctx context.Context, out io.Writer, cfg *config.Config, opts chatOptions) error {
	val, err := validator.New(validator.Options{
		Provider:     cfg.AIProvider,
		APIKey:       cfg.AIAPIKey,
		Model:        cfg.AIModel,
		BaseURL:      cfg.AIBaseURL,
		MaxTokens:    cfg.AIMaxTokens,
		Temperature:  cfg.AITemperature,
		Timeout:      cfg.AITimeout(),
		SystemPrompt: cfg.Prompts.SystemPrompt,
	})
	if err != nil {
		return err
	}

	var (
		source  assistant.RuleSource
		journal assistant.TradeLog
	)
	userID := opts.userID
	if len(opts.rules) > 0 {
		source = staticRules(opts.rules)
		if userID == "" {
			userID = uuid.Nil.String()
		}
	} else {
		if _, err := uuid.Parse(userID); err != nil {
			return errors.New("pass --user <id> or at least one --rule")
		}
		pool, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		source = rules.NewCache(repository.NewRuleRepo(pool))
		journal = repository.NewJournalRepo(pool)
	}

	svc := assistant.New(val, source, journal, nil, nil, assistant.Config{
		Prompts:         cfg.Prompts.Assistant,
		ValidateTimeout: cfg.AITimeout(),
	})
	snap := svc.Start(ctx, userID)
	defer svc.End(context.WithoutCancel(ctx), userID, snap.ID)

	fmt.Fprintln(out, renderHeader(val.Name(), source.Status(userID).Count))
	fmt.Fprintln(out, renderAssistant(snap.Greeting))

	if opts.imagePath != "" {
		if snap, err = attachFile(ctx, svc, userID, snap.ID, opts.imagePath, cfg.MaxImageBytes); err != nil {
			return err
		}
		fmt.Fprintln(out, renderNote("Chart attached: "+opts.imagePath))
	}

	shown := 0
	for {
		var input string
		err := survey.AskOne(&survey.Input{Message: snap.Placeholder}, &input)
		if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(input)
		switch {
		case trimmed == "/quit" || trimmed == "/exit":
			return nil
		case strings.HasPrefix(trimmed, "/image "):
			path := strings.TrimSpace(strings.TrimPrefix(trimmed, "/image "))
			next, err := attachFile(ctx, svc, userID, snap.ID, path, cfg.MaxImageBytes)
			if err != nil {
				fmt.Fprintln(out, renderError(err.Error()))
				continue
			}
			snap = next
			fmt.Fprintln(out, renderNote("Chart attached: "+path))
			continue
		}

		analyzing := snap.State == conversation.StateAwaitingDetails || snap.State == conversation.StateAnalysisComplete
		if analyzing && (trimmed != "" || snap.HasImage) {
			fmt.Fprintln(out, renderNote("Analyzing your trade..."))
		}
		next, err := svc.Send(ctx, userID, snap.ID, input)
		if err != nil {
			fmt.Fprintln(out, renderError(err.Error()))
			continue
		}
		snap = next

		// the user's own line is already on screen
		for _, m := range snap.Messages[shown:] {
			if m.Role == conversation.RoleModel {
				fmt.Fprintln(out, renderMessage(m))
			}
		}
		shown = len(snap.Messages)
		if snap.Error != "" {
			fmt.Fprintln(out, renderError(snap.Error))
		}

		if snap.Draft != nil && journal != nil {
			if err := offerLog(ctx, out, svc, userID, snap.ID); err != nil {
				return err
			}
		}
	}
}

func offerLog(ctx context.Context, out io.Writer, svc *assistant.Service, userID, sessionID string) error {
	keep := false
	err := survey.AskOne(&survey.Confirm{Message: "Log this trade to your journal?", Default: false}, &keep)
	if errors.Is(err, terminal.InterruptErr) {
		return nil
	}
	if err != nil || !keep {
		return err
	}
	entry, err := svc.LogDraft(ctx, userID, sessionID)
	if err != nil {
		fmt.Fprintln(out, renderError(err.Error()))
		return nil
	}
	fmt.Fprintln(out, renderNote("Logged to journal as "+entry.ID))
	return nil
}

// attachFile reads an image from disk and attaches it as a data URL.
func attachFile(ctx context.Context, svc *assistant.Service, userID, sessionID, path string, maxBytes int) (assistant.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return assistant.Snapshot{}, fmt.Errorf("read image: %w", err)
	}
	url := dataurl.Encode("", raw)
	if _, err := dataurl.ValidateImage(url, maxBytes); err != nil {
		return assistant.Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return svc.AttachImage(ctx, userID, sessionID, url)
}
