// Package cmd implements the jfrlens command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jerrinot/jfrlens/internal/config"
	"github.com/jerrinot/jfrlens/internal/jfr/analysis"
	"github.com/jerrinot/jfrlens/internal/report"
	"github.com/jerrinot/jfrlens/internal/session"
	"github.com/jerrinot/jfrlens/internal/telemetry"
)

// Set at build time with -ldflags "-X github.com/jerrinot/jfrlens/cmd.version=...".
var version = "dev"

// app is the state every subcommand shares. The root command fills it in
// before any subcommand runs.
type app struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	dims     analysis.Dimension
	cache    *session.Cache
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "jfrlens",
		Short: "Per-thread accounting and flame graphs for JFR recordings",
		Long: `jfrlens reads a Java Flight Recorder file (.jfr, .jfr.gz) or a JSON-lines
event dump (.jsonl, .ndjson, optionally gzipped; "-" reads a dump from stdin)
and breaks it down per thread along independent dimensions: CPU time, wall
clock, allocations, allocated memory, file and socket I/O, lock contention,
parking, sleeping and class loading.

Dimensions: ` + joinNames() + `, all`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" {
				return nil
			}
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides the config file)")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable styled output")

	root.AddCommand(
		newAnalyzeCmd(a),
		newLeavesCmd(a),
		newHotCmd(a),
		newTreeCmd(a),
		newCallersCmd(a),
		newTraceCmd(a),
		newThreadsCmd(a),
		newExportCmd(a),
		newDiffCmd(a),
		newEventsCmd(a),
		newConvertCmd(a),
		newScriptCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) setup() error {
	cfg := config.Default()
	if a.configPath != "" {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return err
		}
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	interval, err := cfg.Analysis.Interval()
	if err != nil {
		return err
	}
	dims, err := analysis.ParseDimensions(cfg.Analysis.Dimensions)
	if err != nil {
		return fmt.Errorf("analysis.dimensions: %w", err)
	}
	log, err := telemetry.NewLogger(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.dims = dims
	a.registry = prometheus.NewRegistry()
	a.metrics = telemetry.NewMetrics(cfg.Metrics.Namespace, a.registry)
	a.cache = session.New(session.Options{
		Size: cfg.Cache.Size,
		TTL:  cfg.Cache.TTL,
		Analysis: analysis.Options{
			Logger:                log,
			Metrics:               a.metrics,
			AsyncProfilerInterval: interval,
		},
	})
	return nil
}

func (a *app) printer(w io.Writer) *report.Printer {
	return report.New(w, !a.noColor && os.Getenv("NO_COLOR") == "")
}

// load analyzes path for dims through the session cache.
func (a *app) load(ctx context.Context, path string, dims analysis.Dimension) (*session.Session, error) {
	return a.cache.Get(ctx, path, dims)
}

// dimension loads path for a single dimension and returns its result.
func (a *app) dimension(ctx context.Context, path, name string) (*analysis.DimensionResult, error) {
	d, err := analysis.ParseDimension(name)
	if err != nil {
		return nil, err
	}
	s, err := a.load(ctx, path, d)
	if err != nil {
		return nil, err
	}
	dr, _ := s.Result.Get(d)
	if dr.Err != nil {
		return nil, dr.Err
	}
	return dr, nil
}

func joinNames() string {
	return strings.Join(analysis.Names(), ", ")
}
