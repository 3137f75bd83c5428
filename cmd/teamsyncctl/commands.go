package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"teamsync-backend/internal/bootstrap"
	"teamsync-backend/internal/chatparse"
	"teamsync-backend/internal/extract"
	"teamsync-backend/internal/shared/config"
	"teamsync-backend/internal/shared/storage/db"
)

const maxLocalFile = 10 << 20

func newParseCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Decode a chat export and list its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readChat(args[0])
			if err != nil {
				return err
			}
			messages := chatparse.Parse(text)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), messages)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "messages: %d\n", chatparse.CountMessages(text))
			for _, m := range messages {
				if m.System {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s: %s\n", m.Timestamp, m.Author, m.Text)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print parsed messages as JSON")
	return cmd
}

type extractOutput struct {
	Reference string     `json:"reference"`
	Todos     []todoOut  `json:"todos"`
	Events    []eventOut `json:"events"`
	Errors    []string   `json:"errors,omitempty"`
}

type todoOut struct {
	Task     string `json:"task"`
	Priority string `json:"priority"`
}

type eventOut struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func newExtractCmd() *cobra.Command {
	var (
		refDate string
		scan    bool
	)
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Run todo and event extraction on a local chat export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text, err := readChat(args[0])
			if err != nil {
				return err
			}
			ref := time.Now().UTC()
			if refDate != "" {
				ref, err = time.Parse("2006-01-02", refDate)
				if err != nil {
					return fmt.Errorf("invalid --ref %q: use YYYY-MM-DD", refDate)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			client, err := newLLM(ctx, cfg)
			if err != nil {
				return err
			}
			p := extract.New(client)

			items := p.ActionItems(ctx, text)
			events := p.ScheduledEvents(ctx, text, ref)
			merged := events.Events
			if scan {
				merged = extract.MergeEvents(ref, extract.ScanTranscriptDates(text, ref), merged)
			}

			out := extractOutput{
				Reference: ref.Format("2006-01-02"),
				Todos:     make([]todoOut, 0, len(items.Items)),
				Events:    make([]eventOut, 0, len(merged)),
			}
			for _, it := range items.Items {
				out.Todos = append(out.Todos, todoOut{Task: it.Description, Priority: string(it.Priority)})
			}
			for _, ev := range merged {
				date := "TBD"
				if ev.Date != nil {
					date = ev.Date.Format("2006-01-02")
				}
				out.Events = append(out.Events, eventOut{Date: date, Title: ev.Title, Description: ev.Description})
			}
			if items.Err != nil {
				out.Errors = append(out.Errors, "action items: "+items.Err.Error())
			}
			if events.Err != nil {
				out.Errors = append(out.Errors, "scheduled events: "+events.Err.Error())
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&refDate, "ref", "", "Reference date (YYYY-MM-DD); defaults to today UTC")
	cmd.Flags().BoolVar(&scan, "scan", false, "Also scan message bodies for explicit dates")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	var (
		days    int
		enqueue bool
	)
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete transcripts older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if days <= 0 {
				days = cfg.RetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("retention is disabled; pass --days")
			}
			app, err := bootstrap.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if enqueue {
				if app.Asynq == nil {
					return fmt.Errorf("--enqueue needs a reachable REDIS_URL")
				}
				if err := app.Asynq.EnqueueCleanup(ctx, days); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleanup of transcripts older than %d day(s) queued\n", days)
				return nil
			}

			deleted, err := app.TranscriptsService.Cleanup(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d transcript(s) older than %d day(s)\n", deleted, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Age in days; defaults to RETENTION_DAYS")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue the sweep for the worker instead of running it here")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if !statusOnly {
				if err := db.RunMigrations(ctx, sqlDB); err != nil {
					return err
				}
			}
			version, err := db.MigrationStatus(ctx, sqlDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Only print the current schema version")
	return cmd
}

func readChat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, maxLocalFile+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) > maxLocalFile {
		return "", fmt.Errorf("%s exceeds %d bytes", path, maxLocalFile)
	}
	return chatparse.Decode(raw)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
