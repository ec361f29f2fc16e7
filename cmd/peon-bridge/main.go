package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/btouchard/peon-bridge/internal/bridge"
	"github.com/btouchard/peon-bridge/internal/config"
	"github.com/btouchard/peon-bridge/internal/notify"
	"github.com/btouchard/peon-bridge/internal/server"
	"github.com/btouchard/peon-bridge/internal/source"
	"github.com/btouchard/peon-bridge/internal/store"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "listen":
		cmdListen(os.Args[2:])
	case "serve":
		cmdServe(os.Args[2:])
	case "history":
		cmdHistory(os.Args[2:])
	case "check":
		cmdCheck(os.Args[2:])
	case "version":
		fmt.Printf("peon-bridge %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: peon-bridge <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run       Read events as JSON lines from stdin\n")
	fmt.Fprintf(os.Stderr, "  listen    Subscribe to an OpenCode server's event stream\n")
	fmt.Fprintf(os.Stderr, "  serve     Accept events over HTTP\n")
	fmt.Fprintf(os.Stderr, "  history   Show journaled notifications\n")
	fmt.Fprintf(os.Stderr, "  check     Validate configuration\n")
	fmt.Fprintf(os.Stderr, "  version   Print version\n")
}

type commonFlags struct {
	configPath *string
	dir        *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", "", "path to config file"),
		dir:        fs.String("dir", "", "working directory reported as cwd (default: current directory)"),
	}
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	common := addCommonFlags(fs)
	_ = fs.Parse(args) // ExitOnError handles errors

	runWith(*common.configPath, *common.dir, func(ctx context.Context, _ *config.Config, b *bridge.Bridge) error {
		return source.NewLineSource(os.Stdin).Run(ctx, b.Handle)
	})
}

func cmdListen(args []string) {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	common := addCommonFlags(fs)
	url := fs.String("url", "", "OpenCode server URL (overrides opencode.url)")
	_ = fs.Parse(args) // ExitOnError handles errors

	runWith(*common.configPath, *common.dir, func(ctx context.Context, cfg *config.Config, b *bridge.Bridge) error {
		target := cfg.OpenCode.URL
		if *url != "" {
			target = *url
		}
		return source.NewSSESource(target, cfg.OpenCode.ReconnectDelay).Run(ctx, b.Handle)
	})
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	common := addCommonFlags(fs)
	_ = fs.Parse(args) // ExitOnError handles errors

	runWith(*common.configPath, *common.dir, func(ctx context.Context, cfg *config.Config, b *bridge.Bridge) error {
		router := server.NewRouter(b, server.Options{
			Token:             cfg.Server.Token,
			RequestsPerMinute: cfg.Server.RequestsPerMinute,
		})
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		return server.Serve(ctx, addr, router)
	})
}

func cmdHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	session := fs.String("session", "", "only show this session")
	limit := fs.Int("limit", 50, "maximum number of entries")
	since := fs.Duration("since", 0, "only show entries newer than this (e.g. 1h)")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	filter := store.NotificationFilter{SessionID: *session, Limit: *limit}
	if *since > 0 {
		filter.Since = time.Now().Add(-*since)
	}

	if err := printHistory(os.Stdout, cfg, filter); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// printHistory writes the journaled notifications matching filter as a
// table. The journal file is never created when journaling is disabled.
func printHistory(out io.Writer, cfg *config.Config, filter store.NotificationFilter) error {
	if !cfg.Journal.Enabled {
		_, _ = fmt.Fprintln(out, "journal disabled")
		return nil
	}

	db, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	records, err := db.ListNotifications(filter)
	if err != nil {
		return fmt.Errorf("reading journal: %w", err)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tEVENT\tSESSION\tCWD")
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.HookEventName, r.SessionID, r.CWD)
	}
	return w.Flush()
}

func openJournal(cfg *config.Config) (store.Store, error) {
	db, err := store.NewSQLiteStore(cfg.Journal.Path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return db, nil
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	_ = fs.Parse(args) // ExitOnError handles errors

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	if _, err := os.Stat(cfg.ScriptPath()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: notification script not found at %s\n", cfg.ScriptPath())
	}

	fmt.Println("configuration is valid")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

type runFunc func(ctx context.Context, cfg *config.Config, b *bridge.Bridge) error

// runWith loads configuration, wires the bridge and its notifiers, and runs
// fn until it returns or a termination signal arrives.
func runWith(configPath, dir string, fn runFunc) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, dir, fn); err != nil {
		slog.Error("bridge error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dir string, fn runFunc) error {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolving working directory: %w", err)
		}
		dir = wd
	}

	notifiers := []notify.Notifier{
		&notify.ScriptNotifier{
			Interpreter: cfg.Script.Interpreter,
			Script:      cfg.ScriptPath(),
			Env:         cfg.ScriptEnv(),
		},
	}

	// --- Journal ---
	if cfg.Journal.Enabled {
		db, err := openJournal(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if removed, err := db.Cleanup(cfg.Journal.RetentionDays); err != nil {
			slog.Warn("journal cleanup failed", "error", err)
		} else if removed > 0 {
			slog.Info("journal cleaned", "removed", removed)
		}

		notifiers = append(notifiers, notify.NewJournalNotifier(db))
		slog.Info("journal opened", "path", cfg.Journal.Path)
	}

	b := bridge.New(notify.Instrumented(notify.NewHub(notifiers...)), dir)

	slog.Info("starting peon-bridge",
		"version", version,
		"cwd", dir,
		"script", cfg.ScriptPath(),
		"plugin_dir", cfg.PluginDir())

	if err := fn(ctx, cfg, b); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// stdout may carry data for the host, so logs go to stderr.
	handlers := []slog.Handler{
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			slog.Warn("failed to open log file, using stderr only", "path", cfg.Log.File, "error", err)
		} else {
			handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		}
	}

	logger := slog.New(slog.NewMultiHandler(handlers...))
	slog.SetDefault(logger)
}
