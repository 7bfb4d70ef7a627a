package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/preston-fay/televantage-copilot/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question-answering session",
	Long: `Start a conversation with the copilot. History is kept for the
session; type "history" to replay it and "exit" to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func newSessionStore() session.Store {
	if cfg.Session.RedisAddr != "" {
		return session.NewRedisStore(&session.RedisConfig{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
			TTL:      cfg.Session.TTL,
		})
	}
	return session.NewInMemoryStore()
}

func runChat(cmd *cobra.Command, args []string) error {
	service, err := newCopilot(cmd)
	if err != nil {
		return err
	}
	store := newSessionStore()
	sessionID := uuid.NewString()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Strategy Copilot. Ask about churn risk, drivers, ROI, ARPU, or CLTV. Type \"exit\" to leave.")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit", line == "quit":
			return nil
		case line == "history":
			turns, err := store.History(ctx, sessionID)
			if err != nil {
				fmt.Fprintf(out, "history unavailable: %v\n", err)
				continue
			}
			for _, turn := range turns {
				fmt.Fprintf(out, "Q: %s\nA: %s\n\n", turn.Question, turn.Answer.Text)
			}
			continue
		}

		answer := service.Ask(ctx, line)
		printAnswer(cmd, answer)
		if err := store.Append(ctx, sessionID, session.NewTurn(line, answer)); err != nil {
			fmt.Fprintf(out, "warning: could not record turn: %v\n", err)
		}
	}
}
