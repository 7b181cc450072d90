package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/devgate/swagsync"
	"github.com/devgate/swagsync/aggregator"
	"github.com/devgate/swagsync/differ"
	"github.com/devgate/swagsync/internal/checker"
	"github.com/devgate/swagsync/internal/config"
	"github.com/devgate/swagsync/internal/mcpserver"
	"github.com/devgate/swagsync/internal/server"
	"github.com/devgate/swagsync/notify"
	"github.com/devgate/swagsync/registry"
	"github.com/devgate/swagsync/retention"
	"github.com/devgate/swagsync/syncer"
	"github.com/devgate/swagsync/synclog"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("swagsync v%s\n", swagsync.Version())
	case "help", "-h", "--help":
		printUsage()
	case "serve":
		if err := handleServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "merge":
		if err := handleMerge(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "diff":
		if err := handleDiff(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "cleanup":
		if err := handleCleanup(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := handleMCP(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`swagsync - swagger aggregation and sync service

Usage:
  swagsync <command> [flags]

Commands:
  serve     Run the HTTP service (merge, diff, sync webhook, logs)
  merge     Fetch and merge a service's swagger groups to stdout
  diff      Compare two swagger documents operation by operation
  cleanup   Trim sync-log history beyond the retention cap
  mcp       Run as an MCP server over stdio
  version   Print version information
  help      Show this help message

Use "swagsync <command> -h" for command flags. The serve, cleanup, and mcp
commands read SWAGSYNC_* environment variables for configuration.`)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func handleServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: swagsync serve [flags]\n\n")
		_, _ = fmt.Fprintf(output, "Run the HTTP service. All settings come from SWAGSYNC_* environment\nvariables, optionally overlaid by SWAGSYNC_CONFIG_FILE.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	fsys := afero.NewOsFs()
	cfg, err := config.Load(fsys)
	if err != nil {
		return err
	}

	store, err := synclog.NewFileStore(fsys, cfg.DataDir)
	if err != nil {
		return err
	}
	cleaner := retention.NewCleaner(store)
	cleaner.Keep = cfg.LogKeep
	cleaner.Logger = logger

	agg := aggregator.New(aggregator.Options{
		Cache:          aggregator.NewDocCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		DefaultTimeout: cfg.FetchTimeout,
		Logger:         logger,
		UserAgent:      swagsync.UserAgent(),
	})

	notifier := notify.New(cfg.WebhookURL, cfg.WebhookSecret)
	notifier.Logger = logger

	orch := syncer.New(syncer.Config{
		ApifoxBaseURL: cfg.ApifoxBaseURL,
		ApifoxToken:   cfg.ApifoxToken,
		APIVersion:    cfg.ApifoxAPIVersion,
		ExportBaseURL: cfg.ExportBaseURL,
		ExportToken:   cfg.ExportToken,
		LogKeep:       cfg.LogKeep,
	}, agg, store, cleaner, notifier, logger)

	if cfg.CleanupInterval > 0 {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go cleaner.RunPeriodic(ctx, cfg.CleanupInterval)
	}

	srv := server.New(server.Options{
		Config:     cfg,
		Aggregator: agg,
		Registry:   registry.New(fsys, cfg.RegistryFile),
		Syncer:     orch,
		Store:      store,
		Cleaner:    cleaner,
		Notifier:   notifier,
		Logger:     logger,
	})
	return srv.ListenAndServe()
}

// mergeFlags contains flags for the merge command
type mergeFlags struct {
	apiPrefix  string
	timeout    time.Duration
	debugLimit int
	check      bool
	output     string
}

func setupMergeFlags() (*flag.FlagSet, *mergeFlags) {
	fs := flag.NewFlagSet("merge", flag.ContinueOnError)
	flags := &mergeFlags{}

	fs.StringVar(&flags.apiPrefix, "api-prefix", "", "path prefix between the origin and its swagger endpoints")
	fs.DurationVar(&flags.timeout, "timeout", 0, "per-request upstream timeout (default 10s)")
	fs.IntVar(&flags.debugLimit, "debug-limit", 0, "process only the first N discovered groups")
	fs.BoolVar(&flags.check, "check", false, "run a structural check and print findings to stderr")
	fs.StringVar(&flags.output, "output", "", "write the merged document to a file instead of stdout")

	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: swagsync merge [flags] <targetUrl>\n\n")
		_, _ = fmt.Fprintf(output, "Fetch a service's swagger resource groups and merge them into one document.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
		_, _ = fmt.Fprintf(output, "\nExamples:\n")
		_, _ = fmt.Fprintf(output, "  swagsync merge http://orders.internal:8080/doc.html\n")
		_, _ = fmt.Fprintf(output, "  swagsync merge -check -output merged.json http://orders.internal:8080\n")
	}

	return fs, flags
}

func handleMerge(args []string) error {
	fs, flags := setupMergeFlags()
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("exactly one target URL is required")
	}

	agg := aggregator.New(aggregator.Options{Logger: slog.Default()})
	doc, err := agg.FetchMerged(context.Background(), aggregator.Request{
		TargetURL:  fs.Arg(0),
		APIPrefix:  flags.apiPrefix,
		Timeout:    flags.timeout,
		DebugLimit: flags.debugLimit,
	})
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("no swagger group could be fetched from %s", fs.Arg(0))
	}

	if flags.check {
		report, err := checker.Check(context.Background(), doc)
		if err != nil {
			return err
		}
		if report.Valid {
			fmt.Fprintln(os.Stderr, "Structural check: OK")
		} else {
			fmt.Fprintf(os.Stderr, "Structural check: %d finding(s)\n", len(report.Findings))
			for _, f := range report.Findings {
				fmt.Fprintf(os.Stderr, "  - %s\n", f)
			}
		}
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding merged document: %w", err)
	}
	if flags.output != "" {
		return os.WriteFile(flags.output, append(encoded, '\n'), 0o644)
	}
	fmt.Println(string(encoded))
	return nil
}

func handleDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: swagsync diff <before.json> <after.json>\n\n")
		_, _ = fmt.Fprintf(output, "Compare two swagger documents operation by operation and print the result.\n")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("exactly two document files are required")
	}

	before, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	after, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}

	result, err := differ.Diff(before, after)
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding diff result: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func handleCleanup(args []string) error {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	keep := fs.Int("keep", 0, "records to keep per project (default SWAGSYNC_LOG_KEEP or 20)")
	fs.Usage = func() {
		output := fs.Output()
		_, _ = fmt.Fprintf(output, "Usage: swagsync cleanup [flags]\n\n")
		_, _ = fmt.Fprintf(output, "Trim every project's sync-log history to the retention cap.\n\n")
		_, _ = fmt.Fprintf(output, "Flags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}

	fsys := afero.NewOsFs()
	cfg, err := config.Load(fsys)
	if err != nil {
		return err
	}
	if *keep <= 0 {
		*keep = cfg.LogKeep
	}

	store, err := synclog.NewFileStore(fsys, cfg.DataDir)
	if err != nil {
		return err
	}

	start := time.Now()
	report, err := retention.NewCleaner(store).CleanupAll(context.Background(), *keep)
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %d record(s) in %s\n", report.DeletedTotal, time.Since(start).Round(time.Millisecond))
	for project, count := range report.DeletedByProject {
		fmt.Printf("  project %s: %d\n", project, count)
	}
	return nil
}

func handleMCP() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return mcpserver.Run(ctx, newLogger("warn"))
}
