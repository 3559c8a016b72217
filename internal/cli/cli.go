package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/screening-watch/internal/config"
	"github.com/pfrederiksen/screening-watch/internal/logger"
	"github.com/pfrederiksen/screening-watch/internal/notifier"
	"github.com/pfrederiksen/screening-watch/internal/scheduler"
	"github.com/pfrederiksen/screening-watch/internal/scraper"
	"github.com/pfrederiksen/screening-watch/internal/storage"
	"github.com/pfrederiksen/screening-watch/internal/watcher"
)

const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitNewShowings = 2
)

// ExitCodeError carries a process exit code out of a command
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

type rootFlags struct {
	configFile string
	verbose    bool
	dryRun     bool
	format     string
	sort       string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "screening-watch",
		Short: "Watch a film screenings page for new showings",
		Long: `A CLI tool that watches an analog film screenings page.
Each run snapshots the listed showings, compares them with the previous
snapshot, and emails the new showings whose titles match your keywords.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Path to a TOML config file")
	pf.BoolVar(&flags.verbose, "verbose", false, "Enable verbose logging")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Print notifications instead of sending them")
	pf.StringVar(&flags.format, "format", "text", "Output format: text, json or ics (ics applies to check and parse)")
	pf.StringVar(&flags.sort, "sort", "document", "Order within a date: document, time, title or location")

	cmd.AddCommand(
		newRunCmd(flags),
		newCheckCmd(flags),
		newParseCmd(flags),
		newHistoryCmd(flags),
	)

	return cmd
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Check the page on an interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			job, err := newJob(cmd.Context(), cfg, log, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := scheduler.New(job, cfg.Interval, log)
			if err := sched.Start(true); err != nil {
				return err
			}

			log.Info("Watching for new showings", logger.Fields{
				"url":      cfg.URL,
				"interval": cfg.Interval.String(),
				"keywords": cfg.Keywords,
				"dry_run":  cfg.DryRun,
			})

			<-ctx.Done()
			log.Info("Shutting down", nil)
			sched.Stop()
			return nil
		},
	}
}

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run one check and report new matching showings",
		Long: `Run one check: fetch the page, snapshot it, diff against the previous
snapshot and notify about new showings matching the configured keywords.

Exit codes: 0 when nothing new matched, 2 when new matching showings were
found, 1 on error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, order, err := flags.output()
			if err != nil {
				return err
			}

			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if len(cfg.Keywords) == 0 {
				log.Warn("No keywords configured, nothing will be notified", nil)
			}

			// Dry-run messages go to stderr so JSON output stays parseable
			job, err := newJob(cmd.Context(), cfg, log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			result, err := job.Execute(cmd.Context())
			if err != nil {
				return err
			}

			if format == FormatICS {
				err = WriteCalendar(cmd.OutOrStdout(), result.Matched, cfg.URL)
			} else {
				err = WriteOutput(cmd.OutOrStdout(), newCheckOutput(cfg.URL, result, order), format, flags.verbose)
			}
			if err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if len(result.Matched) > 0 {
				return &ExitCodeError{Code: ExitNewShowings}
			}
			return nil
		},
	}
}

func newParseCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Fetch the page and print its showings without saving",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, order, err := flags.output()
			if err != nil {
				return err
			}

			cfg, _, err := flags.load(cmd)
			if err != nil {
				return err
			}

			current, err := scraper.New(nil, cfg.URL).FetchShowings(cmd.Context())
			if err != nil {
				return err
			}

			if format == FormatICS {
				err = WriteCalendar(cmd.OutOrStdout(), current, cfg.URL)
			} else {
				err = WriteOutput(cmd.OutOrStdout(), newListOutput(cfg.URL, time.Now().UTC(), current, order), format, flags.verbose)
			}
			if err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			return nil
		},
	}
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _, err := flags.output()
			if err != nil {
				return err
			}
			if format == FormatICS {
				return fmt.Errorf("history does not support the %s format", format)
			}

			cfg, log, err := flags.load(cmd)
			if err != nil {
				return err
			}

			store, err := storage.New(cfg.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}

			snapshots, err := store.List()
			if err != nil {
				return err
			}

			entries := make([]HistoryEntry, 0, len(snapshots))
			for _, snap := range snapshots {
				entry := HistoryEntry{Name: snap.Name, TakenAt: snap.TakenAt, Showings: -1}
				m, err := store.Load(snap.Path)
				if err != nil {
					log.WarnErr("Could not read snapshot", logger.Fields{"name": snap.Name}, err)
					entry.Error = err.Error()
				} else {
					entry.Showings = m.Count()
					entry.Dates = len(m)
				}
				entries = append(entries, entry)
			}

			return WriteHistory(cmd.OutOrStdout(), store.Dir(), entries, format)
		},
	}
}

// output validates the --format and --sort flags
func (f *rootFlags) output() (OutputFormat, SortOrder, error) {
	format := OutputFormat(strings.ToLower(f.format))
	if format != FormatText && format != FormatJSON && format != FormatICS {
		return "", "", fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'ics')", f.format)
	}

	order, err := ParseSortOrder(f.sort)
	if err != nil {
		return "", "", err
	}
	return format, order, nil
}

// load reads the configuration, applies flag overrides and sets up the
// logger on stderr
func (f *rootFlags) load(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	if f.dryRun {
		cfg.DryRun = true
	}
	if f.verbose {
		cfg.LogLevel = string(logger.LevelDebug)
	}

	log := logger.New(cfg.Level(), cmd.ErrOrStderr())
	logger.SetDefault(log)

	log.Debug("Configuration loaded", logger.Fields{
		"config_file": f.configFile,
		"url":         cfg.URL,
		"data_dir":    cfg.DataDir,
		"keywords":    cfg.Keywords,
		"interval":    cfg.Interval.String(),
		"dry_run":     cfg.DryRun,
	})

	return cfg, log, nil
}

// newJob wires a watcher job from cfg. Dry-run notifications are written to
// dryRunOut.
func newJob(ctx context.Context, cfg *config.Config, log *logger.Logger, dryRunOut io.Writer) (*watcher.Job, error) {
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	var n notifier.Notifier
	if cfg.DryRun {
		n = notifier.NewDryRunNotifier(dryRunOut)
	} else {
		gn, err := notifier.NewGmailNotifier(ctx, notifier.GmailOptions{
			CredentialsFile: cfg.Gmail.CredentialsFile,
			TokenFile:       cfg.Gmail.TokenFile,
			RefreshToken:    cfg.Gmail.RefreshToken,
			From:            cfg.Gmail.From,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing gmail notifier: %w", err)
		}
		n = gn
	}

	return watcher.New(watcher.Options{
		URL:              cfg.URL,
		DestinationEmail: cfg.DestinationEmail,
		Keywords:         cfg.Keywords,
	}, scraper.New(nil, cfg.URL), store, n, log), nil
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the root command and maps the outcome to an exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}
