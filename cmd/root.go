package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/tracing"
)

var version = "dev"

// app carries state shared by every subcommand of one invocation.
type app struct {
	cfgFile string
	debug   bool

	v        *viper.Viper
	cfg      config.Config
	cfgPath  string
	provider *tracing.Provider
	cleanups []func()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "quill",
		Short: "Syntax highlighting and completion ranking for editors",
		Long: `quill tokenizes source text with declarative grammars, renders the token
tree as styled terminal text or HTML, and ranks completion candidates with
interchangeable fuzzy-match algorithms.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.init(cmd) },
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: .quill/config.yaml, then ~/.config/quill/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false,
		"write a debug log (also QUILL_DEBUG=1; QUILL_LOG sets the path, - for stderr)")

	root.AddCommand(
		newHighlightCmd(a),
		newHTMLCmd(a),
		newTokensCmd(a),
		newCompleteCmd(a),
		newLanguagesCmd(a),
		newThemesCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if err := a.initConfig(); err != nil {
		return err
	}
	if err := a.initLogging(cmd.ErrOrStderr()); err != nil {
		return err
	}
	return a.initTracing(cmd.Context())
}

func (a *app) initConfig() error {
	a.v = config.NewViper()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else {
		// Config lookup order:
		// 1. .quill/config.yaml (current directory)
		// 2. ~/.config/quill/config.yaml (user config)
		if _, err := os.Stat(filepath.Join(".quill", "config.yaml")); err == nil {
			a.v.SetConfigFile(filepath.Join(".quill", "config.yaml"))
		} else if dir := config.ConfigDir(); dir != "" {
			a.v.AddConfigPath(dir)
			a.v.SetConfigName("config")
			a.v.SetConfigType("yaml")
		}
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && a.cfgFile == "":
			// No config file anywhere: create the default user config.
			if dir := config.ConfigDir(); dir != "" {
				defaultPath := filepath.Join(dir, "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					a.v.SetConfigFile(defaultPath)
					_ = a.v.ReadInConfig()
				}
			}
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("config file %s not found", a.cfgFile)
		default:
			return fmt.Errorf("reading config: %w", err)
		}
	}

	a.cfgPath = a.v.ConfigFileUsed()
	if a.cfgPath == "" {
		if dir := config.ConfigDir(); dir != "" {
			a.cfgPath = filepath.Join(dir, "config.yaml")
		}
	}

	cfg, err := config.Decode(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// initLogging starts the debug log. QUILL_LOG names the log file, "-" sends
// it to stderr, and QUILL_LOG_LEVEL sets the minimum level.
func (a *app) initLogging(stderr io.Writer) error {
	if !a.debug && !a.cfg.Debug {
		return nil
	}
	logPath := os.Getenv("QUILL_LOG")
	level := os.Getenv("QUILL_LOG_LEVEL")
	switch logPath {
	case "-":
		log.InitWriter(stderr, log.ParseLevel(level))
		a.cleanups = append(a.cleanups, func() { log.SetEnabled(false) })
	default:
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		a.cleanups = append(a.cleanups, cleanup)
		if level != "" {
			log.SetMinLevel(log.ParseLevel(level))
		}
	}
	log.Info(log.CatConfig, "quill starting", "version", version, "config", a.cfgPath, "log", logPath)
	return nil
}

func (a *app) initTracing(_ context.Context) error {
	provider, err := tracing.NewProvider(a.cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	a.provider = provider
	a.cleanups = append(a.cleanups, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			log.ErrorErr(log.CatEditor, "tracing shutdown failed", err)
		}
	})
	return nil
}

// close runs cleanups in reverse order.
func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
}

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.close()
	return newRootCmd(a).ExecuteContext(ctx)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
