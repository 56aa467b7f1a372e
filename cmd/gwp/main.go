package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/swellcycle/surfboard-gwp/internal/config"
	"github.com/swellcycle/surfboard-gwp/model"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		slog.Error("gwp failed", "err", err)
		os.Exit(1)
	}
}

// options are shared by every command. cfg is loaded before any command runs.
type options struct {
	configPath  string
	logLevel    string
	logFormat   string
	factorsFile string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "gwp",
		Short: "SwellCycle surfboard global warming potential calculator",
		Long: `gwp computes the global warming potential (kg CO₂ eq) of manufacturing a
surfboard across raw materials, process energy and transportation.

Configuration is read from --config, secrets may be supplied with the
GWP_AUTH_USERNAME, GWP_AUTH_PASSWORD_HASH and GWP_AUTH_JWT_SECRET
environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path of the yaml configuration file")
	flags.StringVar(&opts.logLevel, "log.level", "", "log severity (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log.format", "", "log format (text, json)")
	flags.StringVar(&opts.factorsFile, "factors", "", "yaml emission factors file merged over the embedded defaults")

	root.AddCommand(
		newServeCmd(opts),
		newCalcCmd(opts),
		newHashPasswordCmd(),
		newTokenCmd(opts),
	)
	return root
}

// load reads the configuration file, applies the flags set on the command
// line and initializes logging.
func (opts *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log.level") {
		cfg.Log.Level = opts.logLevel
	}
	if flags.Changed("log.format") {
		cfg.Log.Format = opts.logFormat
	}
	if flags.Changed("factors") {
		cfg.Factors.File = opts.factorsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	initLogging(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	opts.cfg = cfg
	return nil
}

// evaluator builds the evaluator described by the configuration.
func (opts *options) evaluator() (*model.Evaluator, error) {
	defaults := model.LoadDefaults()
	if opts.cfg.Factors.File != "" {
		var err error
		defaults, err = model.LoadFactorsFile(opts.cfg.Factors.File)
		if err != nil {
			return nil, err
		}
		slog.Debug("emission factors loaded", "file", opts.cfg.Factors.File)
	}

	evaluator := model.NewEvaluator(defaults)
	evaluator.ShareTolerance = opts.cfg.Aggregation.ShareTolerance
	evaluator.SumRounded = opts.cfg.Aggregation.SumRounded
	return evaluator, nil
}

func initLogging(w io.Writer, logLevel string, logFormat string) {
	switch logFormat {
	case "text":
		noColor := true
		if f, ok := w.(*os.File); ok {
			noColor = !isatty.IsTerminal(f.Fd())
		}
		slog.SetDefault(slog.New(tint.NewHandler(w, &tint.Options{
			Level:   slogLevel(logLevel),
			NoColor: noColor,
		})))
	case "json":
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slogLevel(logLevel),
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				switch a.Key {
				case slog.LevelKey:
					a.Key = "severity"
					return a
				case slog.MessageKey:
					a.Key = "message"
					return a
				default:
					return a
				}
			},
		})))
	}
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	return slog.LevelInfo
}

// fprintln writes a line on the command output.
func fprintln(cmd *cobra.Command, a ...any) {
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), a...)
}
