package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/statwalk/internal/config"
	"github.com/bamsammich/statwalk/internal/engine"
	"github.com/bamsammich/statwalk/internal/event"
	"github.com/bamsammich/statwalk/internal/filter"
	"github.com/bamsammich/statwalk/internal/stats"
	"github.com/bamsammich/statwalk/internal/ui"
)

var version = "dev"

// progressEvery is how often the plain presenter redraws its progress line.
const progressEvery = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// filterFlag is a custom pflag.Value that preserves CLI ordering of
// --exclude and --include rules by appending to a shared filter.Chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "string" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

// options holds every flag value of the root command.
type options struct {
	scorer      string
	workers     int
	scanWorkers int
	recursive   bool
	verify      bool
	verbose     bool
	quiet       bool
	showVersion bool
	filterFile  string
	minSize     string
	maxSize     string
	bwLimit     string
	logFile     string
	configFile  string
}

//nolint:gocyclo,revive // cyclomatic,cognitive-complexity: main CLI entry point orchestrates flag parsing and the run
func newRootCmd() *cobra.Command {
	var opts options
	cliRules := filter.NewChain()

	rootCmd := &cobra.Command{
		Use:   "statwalk [flags] <input_directory> <output_directory> <c>",
		Short: "Write a stat report per entry, gray out bitmaps and count sentences through a scorer",
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			if err := cobra.ExactArgs(3)(cmd, args); err != nil {
				return fmt.Errorf("%w\nUsage: %s", err, cmd.UseLine())
			}
			if _, err := parseTarget(args[2]); err != nil {
				return fmt.Errorf("%w\nUsage: %s", err, cmd.UseLine())
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "statwalk %s\n", version)
				return nil
			}

			src, dst := args[0], args[1]
			target, _ := parseTarget(args[2]) //nolint:errcheck // validated in Args

			cfg, err := loadConfig(opts.configFile)
			if err != nil {
				return err
			}
			applyConfigDefaults(cmd, cfg.Defaults, &opts)

			var bwLimit int64
			if opts.bwLimit != "" {
				bwLimit, err = filter.ParseSize(opts.bwLimit)
				if err != nil {
					return fmt.Errorf("invalid --bwlimit: %w", err)
				}
			}

			// Configure logging.
			logLevel := slog.LevelWarn
			if opts.verbose {
				logLevel = slog.LevelDebug
			} else if !opts.quiet {
				logLevel = slog.LevelInfo
			}
			textHandler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: logLevel,
			})
			var logHandler slog.Handler = textHandler
			if opts.logFile != "" {
				lf, lfErr := os.Create(opts.logFile)
				if lfErr != nil {
					return fmt.Errorf("open log file: %w", lfErr)
				}
				defer lf.Close()
				jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})
				logHandler = ui.NewMultiHandler(textHandler, jsonHandler)
			}
			logger := slog.New(logHandler).With("run_id", uuid.NewString())
			slog.SetDefault(logger)

			for _, key := range cfg.Unknown {
				slog.Warn("unknown config key", "key", key)
			}

			chain, err := buildFilter(cfg.Filter, cliRules, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			collector := stats.NewCollector()
			events := make(chan event.Event, 256)

			// When --log is set, tee events through a logging goroutine
			// that writes structured records before forwarding to the presenter.
			presenterEvents := (<-chan event.Event)(events)
			if opts.logFile != "" {
				teed := make(chan event.Event, 256)
				go func() {
					for ev := range events {
						logEvent(ev)
						teed <- ev
					}
					close(teed)
				}()
				presenterEvents = teed
			}

			isTTY := false
			if f, ok := cmd.ErrOrStderr().(*os.File); ok {
				isTTY = ui.IsTTY(f.Fd())
			}
			presenter := ui.NewPresenter(ui.Config{
				Writer:        cmd.OutOrStdout(),
				ErrWriter:     cmd.ErrOrStderr(),
				Stats:         collector,
				ProgressEvery: progressEvery,
				IsTTY:         isTTY,
				Quiet:         opts.quiet,
				Verbose:       opts.verbose,
			})

			engineCfg := engine.Config{
				Events:      events,
				Stats:       collector,
				Fs:          afero.NewOsFs(),
				Src:         src,
				Dst:         dst,
				Target:      string(target),
				Scorer:      opts.scorer,
				Workers:     opts.workers,
				ScanWorkers: opts.scanWorkers,
				BWLimit:     bwLimit,
				Recursive:   opts.recursive,
				Verify:      opts.verify,
			}
			if !chain.Empty() {
				engineCfg.Filter = chain
			}

			// Presenter runs in the background, engine in the foreground.
			var presenterErr error
			var presenterWg sync.WaitGroup
			presenterWg.Add(1)
			go func() {
				defer presenterWg.Done()
				presenterErr = presenter.Run(presenterEvents)
			}()

			result := engine.Run(ctx, engineCfg)
			stop()
			close(events)
			presenterWg.Wait()
			if presenterErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "presenter: %v\n", presenterErr)
			}

			if summary := presenter.Summary(); summary != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), summary)
			}

			if result.Err != nil {
				slog.Error("run failed", "error", result.Err)
				return &exitError{code: 2}
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Found a total of %d valid sentences containing the character %c\n",
				result.Total, target)

			if result.Failed() {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	flags := rootCmd.Flags()
	flags.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	flags.StringVar(&opts.scorer, "scorer", "",
		"scorer command line; the character is appended as its last argument (default \""+engine.DefaultScorer+"\")")
	flags.IntVarP(&opts.workers, "workers", "n", 0, "entries processed at once (default: min(NumCPU*2, 32))")
	flags.IntVar(&opts.scanWorkers, "scan-workers", 0, "directory listers in recursive mode (default: min(NumCPU, 8))")
	flags.BoolVarP(&opts.recursive, "recursive", "r", false, "descend into subdirectories")
	flags.BoolVar(&opts.verify, "verify", false, "re-read converted bitmap headers and compare BLAKE3 digests")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors and the final count")

	// Filter flags; a custom pflag.Value keeps CLI ordering.
	flags.Var(&filterFlag{chain: cliRules}, "exclude", "skip entries matching PATTERN (repeatable)")
	flags.Var(&filterFlag{chain: cliRules, include: true}, "include", "keep entries matching PATTERN (repeatable)")
	flags.StringVar(&opts.filterFile, "filter", "", "read filter rules from FILE")
	flags.StringVar(&opts.minSize, "min-size", "", "skip files smaller than SIZE (e.g. 1M, 100K)")
	flags.StringVar(&opts.maxSize, "max-size", "", "skip files larger than SIZE (e.g. 1G, 500M)")
	flags.StringVar(&opts.bwLimit, "bwlimit", "", "limit bytes fed to scorers (e.g. 10M)")
	flags.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	flags.StringVar(&opts.configFile, "config", "", "read defaults from FILE instead of "+config.Path())

	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "exclude" || f.Name == "include" {
			f.NoOptDefVal = ""
		}
	})

	rootCmd.AddCommand(newDocsCmd())
	return rootCmd
}

func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

// parseTarget validates the <c> argument: exactly one letter or digit.
func parseTarget(arg string) (rune, error) {
	r, size := utf8.DecodeRuneInString(arg)
	if size == 0 || size != len(arg) || r == utf8.RuneError {
		return 0, fmt.Errorf("character argument %q must be a single character", arg)
	}
	if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
		return 0, fmt.Errorf("character argument %q must be alphanumeric", arg)
	}
	return r, nil
}

// loadConfig reads path when given, the XDG config file otherwise. A
// broken XDG file is only a warning; a broken explicit file is an error.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
		return config.Config{}, nil
	}
	return cfg, nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, defaults config.DefaultsConfig, opts *options) {
	changed := cmd.Flags().Changed
	if !changed("workers") && defaults.Workers != nil {
		opts.workers = *defaults.Workers
	}
	if !changed("scorer") && defaults.Scorer != nil {
		opts.scorer = *defaults.Scorer
	}
	if !changed("recursive") && defaults.Recursive != nil {
		opts.recursive = *defaults.Recursive
	}
	if !changed("verify") && defaults.Verify != nil {
		opts.verify = *defaults.Verify
	}
	if !changed("bwlimit") && defaults.BWLimit != nil {
		opts.bwLimit = *defaults.BWLimit
	}
}

// buildFilter merges command-line rules, the filter file and config rules,
// in that order, and applies the size bounds. First match wins, so the
// command line overrides the config file.
func buildFilter(fc config.FilterConfig, cli *filter.Chain, opts options) (*filter.Chain, error) {
	chain := filter.NewChain()
	chain.Append(cli)

	file := opts.filterFile
	if file == "" && fc.File != nil {
		file = *fc.File
	}
	if file != "" {
		if err := chain.LoadFile(afero.NewOsFs(), file); err != nil {
			return nil, fmt.Errorf("load filter file: %w", err)
		}
	}

	for _, p := range fc.Exclude {
		if err := chain.AddExclude(p); err != nil {
			return nil, fmt.Errorf("config exclude %q: %w", p, err)
		}
	}
	for _, p := range fc.Include {
		if err := chain.AddInclude(p); err != nil {
			return nil, fmt.Errorf("config include %q: %w", p, err)
		}
	}

	if opts.minSize != "" {
		n, err := filter.ParseSize(opts.minSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --min-size: %w", err)
		}
		chain.SetMinSize(n)
	}
	if opts.maxSize != "" {
		n, err := filter.ParseSize(opts.maxSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --max-size: %w", err)
		}
		chain.SetMaxSize(n)
	}
	return chain, nil
}

func logEvent(ev event.Event) {
	attrs := []slog.Attr{
		slog.String("type", ev.Type.String()),
		slog.String("path", ev.Path),
		slog.Int64("size", ev.Size),
	}
	if ev.TaskID != 0 {
		attrs = append(attrs,
			slog.Uint64("task_id", ev.TaskID),
			slog.String("task", ev.Task),
			slog.Int("code", ev.Code),
		)
	}
	if ev.Error != nil {
		attrs = append(attrs, slog.String("error", ev.Error.Error()))
	}
	slog.LogAttrs(context.Background(), slog.LevelInfo, "statwalk.event", attrs...)
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
