package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/pairscout/config"
	"github.com/alejandrodnm/pairscout/internal/adapters/notify"
	"github.com/alejandrodnm/pairscout/internal/adapters/storage"
	"github.com/alejandrodnm/pairscout/internal/discovery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newScanCmd(conf func() *config.Config, flags *rootFlags) *cobra.Command {
	var (
		profile    string
		maxResults int
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one discovery pass and print the ranked pairs",
		Example: `  pairscout scan --profile gem
  pairscout scan --profile discovery --max 30 --table`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(conf(), cmd.OutOrStdout(), flags.table, !flags.noHistory)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			results, err := a.agg.RunProfile(ctx, profile, maxResults)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			a.console.PrintPass(profile, results)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "gem", "criteria profile (see `pairscout profiles`)")
	cmd.Flags().IntVar(&maxResults, "max", 0, "maximum results (0 = discovery.default_max_results)")
	return cmd
}

func newWatchCmd(conf func() *config.Config, flags *rootFlags) *cobra.Command {
	var (
		once        bool
		freshWindow time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll continuously and announce each new pair once",
		Example: `  pairscout watch
  pairscout watch --once --fresh-window 2h`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := conf()
			a, err := newApp(cfg, cmd.OutOrStdout(), flags.table, !flags.noHistory)
			if err != nil {
				return err
			}
			defer a.Close()

			profiles, err := cfg.ProfileSet()
			if err != nil {
				return err
			}
			profile, err := profiles.Get(cfg.Poller.Profile)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			registry := discovery.NewRegistry(cfg.Retention(), nil, a.metrics, discovery.WithScorer(a.scorer))
			poller := discovery.NewPoller(discovery.PollerConfig{
				Interval:      cfg.PollInterval(),
				SweepInterval: cfg.SweepInterval(),
				Profile:       profile,
				MaxResults:    cfg.Poller.MaxResults,
			}, a.agg, registry, a.console, a.metrics)

			if once {
				poller.Tick(ctx)
			} else {
				if cfg.Metrics.Addr != "" {
					go serveMetrics(ctx, cfg.Metrics.Addr, a.registry)
				}
				if err := poller.Run(ctx); err != nil {
					return fmt.Errorf("watch: %w", err)
				}
			}

			a.console.PrintFresh(freshWindow, registry.FreshSince(freshWindow))
			slog.Info("pairscout stopped cleanly", "tracked", registry.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single poll tick and exit")
	cmd.Flags().DurationVar(&freshWindow, "fresh-window", 24*time.Hour, "window of the fresh-pairs summary printed on exit")
	return cmd
}

func newHistoryCmd(conf func() *config.Config, flags *rootFlags) *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show pairs recorded by previous passes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.noHistory {
				return errors.New("history: --no-history leaves nothing to read")
			}
			cfg := conf()
			store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			defer store.Close()

			ctx := cmd.Context()
			now := time.Now()
			records, err := store.GetHistory(ctx, now.Add(-since), now)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			passes, err := store.PassCount(ctx)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			peaks := make(map[string]float64, len(records))
			for _, sc := range records {
				peak, err := store.PeakScore(ctx, sc.PairID)
				if err != nil {
					slog.Warn("peak score unavailable", "pair_id", sc.PairID, "err", err)
					continue
				}
				peaks[sc.PairID] = peak
			}
			console(cmd, flags).PrintHistory(since, passes, records, peaks)
			return nil
		},
	}
	cmd.Flags().DurationVar(&since, "since", 24*time.Hour, "how far back to look")
	return cmd
}

func newProfilesCmd(conf func() *config.Config, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the configured criteria profiles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := conf().ProfileSet()
			if err != nil {
				return err
			}
			console(cmd, flags).PrintProfiles(profiles.All())
			return nil
		},
	}
}

func newAnalyzeCmd(conf func() *config.Config, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <token-address>",
		Short: "Score one token's most liquid pair and list its red flags and good signs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(conf(), cmd.OutOrStdout(), flags.table, false)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			report, err := discovery.NewAnalyzer(a.client, a.scorer).Analyze(ctx, args[0])
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			a.console.PrintReport(report)
			return nil
		},
	}
}

func console(cmd *cobra.Command, flags *rootFlags) *notify.Console {
	return notify.NewConsoleWriter(cmd.OutOrStdout(), flags.table)
}

// serveMetrics expone /metrics hasta que ctx se cancele.
func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("metrics endpoint listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", "err", err)
	}
}
