package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ratetables/internal/config"
	"ratetables/internal/metrics"
)

// app carries the persistent flags and the state shared by every subcommand.
type app struct {
	out io.Writer

	cfgPath        string
	verbose        bool
	metricsBackend string
	pushGatewayURL string
	statsdAddr     string

	// newLogger is swapped out by tests.
	newLogger func(verbose bool) (*zap.Logger, error)

	logger *zap.Logger
	cfg    config.Build
}

func newApp(out io.Writer) *app {
	return &app{out: out, newLogger: buildLogger}
}

// buildLogger returns a development logger at debug level when verbose, the
// production JSON logger otherwise.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	return zap.NewProduction()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "ratetables",
		Short: "Build the actuarial rate-table store",
		Long: `ratetables reads the five source tables (rate descriptions, premium rates,
bands, modal profiles and cash values), keeps what the published products
reference, writes one JSON artifact per table and loads them into SQLite,
PostgreSQL or SQL Server with foreign-key checks in both directions.

A missing config file falls back to the built-in defaults.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := a.newLogger(a.verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.logger = logger

			cfg, found, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			if !found {
				a.logger.Info("config file not found, using defaults", zap.String("path", a.cfgPath))
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "ratetables.yaml", "build config (YAML or JSON by extension)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logs")
	pf.StringVar(&a.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway or datadog (env METRICS_BACKEND)")
	pf.StringVar(&a.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	pf.StringVar(&a.statsdAddr, "statsd-addr", "", "DogStatsD address (env DD_AGENT_ADDR)")

	root.AddCommand(
		newTransformCmd(a),
		newLoadCmd(a),
		newBuildCmd(a),
		newValidateCmd(a),
	)
	return root
}

// errInvalidConfig is returned when validation finds at least one error.
var errInvalidConfig = errors.New("configuration is invalid")

// checkConfig logs every validation issue and fails on errors.
func (a *app) checkConfig() error {
	issues := config.ValidateBuild(a.cfg)
	for _, iss := range issues {
		fields := []zap.Field{zap.String("path", iss.Path), zap.String("message", iss.Message)}
		if iss.Severity == config.SeverityError {
			a.logger.Error("config", fields...)
		} else {
			a.logger.Warn("config", fields...)
		}
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("%w: %s", errInvalidConfig, a.cfgPath)
	}
	return nil
}

// run validates the config, installs the metrics backend and runs fn. Metrics
// are flushed whether or not fn succeeds.
func (a *app) run(ctx context.Context, fn func(context.Context) error) error {
	if err := a.checkConfig(); err != nil {
		return err
	}
	if err := a.setupMetrics(); err != nil {
		a.logger.Warn("metrics disabled", zap.Error(err))
	}
	err := fn(ctx)
	if ferr := metrics.Flush(); ferr != nil {
		a.logger.Warn("metrics flush failed", zap.Error(ferr))
	}
	if err != nil {
		a.logger.Error("build failed", zap.Error(err))
	}
	return err
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func getenv(key string) string { return os.Getenv(key) }
