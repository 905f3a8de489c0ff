// boardtop is a live terminal dashboard for host and board resource usage.
//
// It charts processor, memory, network and graphics utilization, and on
// Rockchip-style boards the NPU and RGA load, reading board-specific sysfs
// and debugfs sources when available and portable sources otherwise.
//
// Usage:
//
//	boardtop [flags]
//
// Flags:
//
//	-c, --config string     Path to configuration file (default: ~/.config/boardtop/config.toml)
//	    --platform          Enable board-specific collectors
//	    --no-platform       Disable board-specific collectors
//	    --gpu-path string   GPU devfreq directory (skips discovery)
//	    --npu-path string   NPU devfreq directory (skips discovery)
//	    --once              Print one snapshot and exit
//	-v, --verbose           Enable debug logging
//	    --version           Print version and exit
//	    --man               Print the man page in roff format
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/pflag"

	"gitlab.com/tinyland/lab/boardtop/collectors/compose"
	"gitlab.com/tinyland/lab/boardtop/collectors/generic"
	"gitlab.com/tinyland/lab/boardtop/config"
	"gitlab.com/tinyland/lab/boardtop/display/tui"
	"gitlab.com/tinyland/lab/boardtop/docs/manpage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "boardtop: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds the parsed command line.
type cliFlags struct {
	configPath  string
	platform    *bool // nil when neither --platform nor --no-platform was given
	gpuPath     string
	npuPath     string
	once        bool
	verbose     bool
	showVersion bool
	showMan     bool
}

func parseFlags(args []string) (cliFlags, error) {
	var f cliFlags
	var platformOn, platformOff bool

	fs := pflag.NewFlagSet("boardtop", pflag.ContinueOnError)
	fs.StringVarP(&f.configPath, "config", "c", "", "path to configuration file (default: ~/.config/boardtop/config.toml)")
	fs.BoolVar(&platformOn, "platform", false, "enable board-specific collectors")
	fs.BoolVar(&platformOff, "no-platform", false, "disable board-specific collectors")
	fs.StringVar(&f.gpuPath, "gpu-path", "", "GPU devfreq directory (skips discovery)")
	fs.StringVar(&f.npuPath, "npu-path", "", "NPU devfreq directory (skips discovery)")
	fs.BoolVar(&f.once, "once", false, "print one snapshot and exit")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	fs.BoolVar(&f.showVersion, "version", false, "print version and exit")
	fs.BoolVar(&f.showMan, "man", false, "print the man page in roff format")

	if err := fs.Parse(args); err != nil {
		return cliFlags{}, err
	}
	if fs.NArg() > 0 {
		return cliFlags{}, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	switch {
	case fs.Changed("platform") && fs.Changed("no-platform"):
		return cliFlags{}, errors.New("--platform and --no-platform are mutually exclusive")
	case fs.Changed("platform"):
		f.platform = &platformOn
	case fs.Changed("no-platform"):
		off := !platformOff
		f.platform = &off
	}
	return f, nil
}

// applyFlags overrides the loaded configuration with explicit flags.
func applyFlags(cfg config.Config, f cliFlags) config.Config {
	return cfg.With(func(c *config.Config) {
		if f.platform != nil {
			c.UsePlatformMetrics = *f.platform
		}
		if f.gpuPath != "" {
			c.Platform.GPUPath = f.gpuPath
		}
		if f.npuPath != "" {
			c.Platform.NPUPath = f.npuPath
		}
		if f.verbose {
			c.Log.Level = "debug"
		}
	})
}

func run(args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flags.showVersion {
		fmt.Printf("boardtop %s (%s) built %s\n", version, commit, date)
		return nil
	}
	if flags.showMan {
		fmt.Print(manpage.Generate(version, commit, date))
		return nil
	}

	var cfg config.Config
	if flags.configPath != "" {
		cfg, err = config.LoadFromFile(flags.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = applyFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	platformOpts, err := cfg.PlatformOptions()
	if err != nil {
		return err
	}

	once := flags.once || !term.IsTerminal(os.Stdout.Fd())

	logger, closeLog, err := newLogger(cfg, once)
	if err != nil {
		return err
	}
	defer closeLog()
	platformOpts.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comp := compose.New(ctx, compose.Options{
		UsePlatform: cfg.UsePlatformMetrics,
		Platform:    platformOpts,
		Generic: generic.Options{
			HistoryLength: cfg.HistoryLength,
			Logger:        logger,
		},
		Logger: logger,
	})
	defer comp.Close()
	logger.Info("metrics ready", "capabilities", comp.Capabilities(), "platform", cfg.UsePlatformMetrics)

	network := tui.NetworkOf(comp.Generic().Network())

	if once {
		return printOnce(ctx, os.Stdout, comp, network, cfg.RefreshRate.Duration)
	}

	model := tui.New(tui.Options{
		Metrics: comp,
		Network: network,
		Config:  cfg,
		Logger:  logger,
		Context: ctx,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// newLogger writes to the configured log file. Without one, logs are
// discarded while the TUI owns the terminal and warnings go to stderr in
// once mode.
func newLogger(cfg config.Config, once bool) (*slog.Logger, func(), error) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}

	if cfg.Log.File == "" {
		var w io.Writer = io.Discard
		if once {
			w = os.Stderr
			if cfg.LogLevel() > slog.LevelDebug {
				opts.Level = slog.LevelWarn
			}
		}
		return slog.New(slog.NewTextHandler(w, opts)), func() {}, nil
	}

	f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, opts)), func() { _ = f.Close() }, nil
}
