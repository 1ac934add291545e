package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"basegraph.app/intake/common/id"
	"basegraph.app/intake/common/llm"
	"basegraph.app/intake/common/logger"
	"basegraph.app/intake/core/config"
	"basegraph.app/intake/internal/intake"
	"basegraph.app/intake/internal/model"
	"basegraph.app/intake/internal/service"
	"basegraph.app/intake/internal/service/archive"
	"basegraph.app/intake/internal/service/issue_tracker"
	"basegraph.app/intake/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	sessionID  string
	userID     string
	logsFile   string
	archiveDir string
)

var rootCmd = &cobra.Command{
	Use:   "bugchat",
	Short: "Report a bug through the intake conversation from a terminal",
	Long: `Runs the bug intake interview on stdin/stdout.

Type your answers at the prompt. Special inputs:
  reset - forget the current report and start over
  quit  - exit (also: exit, q)`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&sessionID, "session", "", "Session id (default: random)")
	rootCmd.Flags().StringVar(&userID, "user", os.Getenv("USER"), "Reporter name used in the report id")
	rootCmd.Flags().StringVar(&logsFile, "logs", "", "File with console logs to attach")
	rootCmd.Flags().StringVar(&archiveDir, "archive-dir", "", "Store attachments under this directory instead of the configured archive")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return err
	}
	// Logs go to stderr so the conversation on stdout stays readable.
	logger.SetupWithWriter(cfg, os.Stderr)

	if err := id.Init(cfg.NodeID); err != nil {
		return fmt.Errorf("initializing id generator: %w", err)
	}

	client, err := llm.NewClient(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	processor := intake.NewFromConfig(client, cfg.LLM, cfg.Intake)

	if archiveDir != "" {
		cfg.Archive.Backend = "local"
		cfg.Archive.Dir = archiveDir
	}
	archiver, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("creating archiver: %w", err)
	}

	var logs string
	if logsFile != "" {
		data, err := os.ReadFile(logsFile)
		if err != nil {
			return fmt.Errorf("reading console logs: %w", err)
		}
		logs = string(data)
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	dispatcher := service.NewDispatcher(archiver, issue_tracker.NewResolver(cfg.Tickets), nil, id.SnowflakeGenerator{}, cfg.Tickets.Jira.Assignee)
	conversations := service.NewServices(store.NewMemorySessionStore(), processor, dispatcher).Conversation()

	fmt.Fprintf(os.Stderr, "Bug intake ready (session=%s, model=%s)\n", sessionID, client.Model())
	fmt.Fprintln(os.Stderr, "Describe the problem (or 'quit' to exit):")

	return chat(ctx, conversations, os.Stdin, os.Stdout, logs)
}

func chat(ctx context.Context, conversations service.ConversationService, in io.Reader, out io.Writer, logs string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "reset":
			if _, err := conversations.Reset(ctx, sessionID); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Session reset. Describe the problem:")
			continue
		}

		resp, err := conversations.Turn(ctx, service.TurnRequest{
			SessionID:   sessionID,
			UserID:      userID,
			Utterance:   text,
			ConsoleLogs: logs,
		})
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}

		fmt.Fprintln(out, resp.Reply)
		if resp.Complete {
			printReport(out, resp)
			return nil
		}
		fmt.Fprintln(out)
	}
	return scanner.Err()
}

func printReport(out io.Writer, resp *service.TurnResponse) {
	fmt.Fprintln(out, "\n--- Bug report ---")
	fmt.Fprintln(out, resp.Record.Summary())
	if resp.Dispatch == nil {
		return
	}

	d := resp.Dispatch
	fmt.Fprintf(out, "\nReport id: %s\n", d.ReportID)
	for _, name := range []string{model.AttachmentTranscript, model.AttachmentConsoleLogs, model.AttachmentScreenRecording} {
		loc, ok := d.Locations[name]
		switch {
		case !ok:
		case loc == nil:
			fmt.Fprintf(out, "  %s: not archived\n", name)
		default:
			fmt.Fprintf(out, "  %s: %s\n", name, *loc)
		}
	}
	switch {
	case d.Ticket != nil:
		fmt.Fprintf(out, "Ticket: %s %s\n", d.Ticket.Key, d.Ticket.URL)
	case d.TicketErr != nil:
		fmt.Fprintf(out, "Ticket not created: %v\n", d.TicketErr)
	}
}
