package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alejandrodnm/pairscout/config"
	"github.com/alejandrodnm/pairscout/internal/adapters/dexscreener"
	"github.com/alejandrodnm/pairscout/internal/adapters/notify"
	"github.com/alejandrodnm/pairscout/internal/adapters/storage"
	"github.com/alejandrodnm/pairscout/internal/discovery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootFlags son los flags persistentes compartidos por todos los subcomandos.
type rootFlags struct {
	configPath string
	verbose    bool
	logFormat  string
	table      bool
	noHistory  bool
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		cfg   *config.Config
	)

	root := &cobra.Command{
		Use:          "pairscout",
		Short:        "Discover and score freshly created DEX trading pairs",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			if flags.verbose {
				loaded.Log.Level = "debug"
			}
			if flags.logFormat != "" {
				loaded.Log.Format = flags.logFormat
			}
			setupLogger(loaded.Log, cmd.ErrOrStderr())
			cfg = loaded
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "config/config.yaml", "path to config file")
	pf.BoolVar(&flags.verbose, "verbose", false, "set log level to debug")
	pf.StringVar(&flags.logFormat, "format", "", "log format: text|json (overrides config)")
	pf.BoolVar(&flags.table, "table", false, "print full tables (default: compact 1-line)")
	pf.BoolVar(&flags.noHistory, "no-history", false, "do not read or write the SQLite history")

	conf := func() *config.Config { return cfg }
	root.AddCommand(
		newScanCmd(conf, &flags),
		newWatchCmd(conf, &flags),
		newHistoryCmd(conf, &flags),
		newProfilesCmd(conf, &flags),
		newAnalyzeCmd(conf, &flags),
	)
	return root
}

// app agrupa las dependencias cableadas a partir de la configuración.
type app struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *discovery.Metrics
	store    *storage.SQLiteStorage
	history  *discovery.HistoryWriter
	client   *dexscreener.Client
	scorer   *discovery.Scorer
	agg      *discovery.Aggregator
	console  *notify.Console
}

// newApp construye fetcher, storage, history writer y agregador.
// Con withHistory=false no abre SQLite y los pases no se persisten.
func newApp(cfg *config.Config, out io.Writer, table, withHistory bool) (*app, error) {
	profiles, err := cfg.ProfileSet()
	if err != nil {
		return nil, fmt.Errorf("main.newApp: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := discovery.NewMetrics(reg)

	a := &app{
		cfg:      cfg,
		registry: reg,
		metrics:  metrics,
		console:  notify.NewConsoleWriter(out, table),
	}

	if withHistory {
		a.store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("main.newApp: %w", err)
		}
		a.history = discovery.NewHistoryWriter(a.store, cfg.Discovery.HistoryBuffer, metrics)
	}

	a.client = dexscreener.NewClient(dexscreener.Options{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.Timeout(),
		MinInterval: cfg.MinInterval(),
		Breaker: dexscreener.BreakerSettings{
			ConsecutiveFailures: cfg.API.Breaker.ConsecutiveFailures,
			OpenTimeout:         cfg.BreakerOpenTimeout(),
		},
	})

	a.scorer = discovery.NewScorer(cfg.Scoring.Weights, cfg.Scoring.Bands)
	a.agg = discovery.NewAggregator(discovery.Config{
		Strategies:        cfg.Discovery.Strategies,
		Workers:           cfg.Discovery.Workers,
		PassTimeout:       cfg.PassTimeout(),
		DefaultMaxResults: cfg.Discovery.DefaultMaxResults,
		Profiles:          profiles,
		Metrics:           metrics,
	}, a.client, a.scorer, a.history)

	return a, nil
}

// Close vacía la cola de histórico y cierra la base de datos.
func (a *app) Close() {
	a.history.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close storage", "err", err)
		}
	}
}

func setupLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
