package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"tenderwatch/db"
	"tenderwatch/db/migrations"
	"tenderwatch/internal/cleanup"
	"tenderwatch/internal/collab"
	"tenderwatch/internal/collector"
	"tenderwatch/internal/config"
	"tenderwatch/internal/handlers"
	"tenderwatch/internal/logging"
	"tenderwatch/internal/scheduler"
	"tenderwatch/internal/upstream"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tenderwatch",
	Short: "Collects, classifies and tracks public procurement tenders",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger = logging.New(cfg.Logging.Level)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with background collection, status and cleanup jobs",
	RunE:  runServe,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Fetch, classify and store tenders for the recent window",
	RunE:  runCollect,
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-evaluate active tenders and close the expired ones",
	RunE:  runSweep,
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete tenders past the grace period together with their dependents",
	RunE:  runCleanup,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrations.Run(cfg.Database.DSN)
	},
}

var (
	collectDays      int
	collectSkipKnown bool
	cleanupGrace     int
	cleanupDryRun    bool
)

func init() {
	collectCmd.Flags().IntVar(&collectDays, "days", 0, "collection window in days (default from config)")
	collectCmd.Flags().BoolVar(&collectSkipKnown, "skip-known", false, "skip records already stored instead of refreshing them")
	cleanupCmd.Flags().IntVar(&cleanupGrace, "grace", 0, "grace period in days (default from config)")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "report what would be deleted without deleting")

	rootCmd.AddCommand(serveCmd, collectCmd, sweepCmd, cleanupCmd, migrateCmd)
}

func openStorage() (*db.Storage, *sqlx.DB, error) {
	conn, err := sqlx.Connect("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to db: %w", err)
	}
	return db.NewStorage(conn), conn, nil
}

func newCollector(store *db.Storage) *collector.Collector {
	client := upstream.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.ServiceKey,
		&http.Client{Timeout: cfg.Upstream.Timeout()}, logger)

	return collector.New(collector.Deps{
		Fetcher:     client,
		Store:       store,
		Attachments: collab.NewMetadataCollector(store),
		Screener:    collab.NewRuleScreener(store, cfg.Collect.ExcludeKeywords),
		Logger:      logger,
		PageSize:    cfg.Upstream.PageSize,
		PageDelay:   cfg.Upstream.PageDelay(),
		SkipKnown:   cfg.Collect.SkipKnown || collectSkipKnown,
	})
}

func collectWindow(days int) (time.Time, time.Time) {
	if days <= 0 {
		days = cfg.Collect.WindowDays
	}
	end := time.Now()
	return end.AddDate(0, 0, -days), end
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := migrations.Run(cfg.Database.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	store, conn, err := openStorage()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	coll := newCollector(store)
	statuses := collector.NewStatusSweeper(store, logger)
	expiry := cleanup.NewSweeper(store, logger)

	sched := scheduler.New(logger,
		scheduler.Job{
			Name:     "collect",
			Interval: cfg.Scheduler.CollectInterval(),
			Run: func(ctx context.Context, now time.Time) error {
				start, end := collectWindow(0)
				_, err := coll.Collect(ctx, start, end)
				return err
			},
		},
		scheduler.Job{
			Name:     "status-sweep",
			Interval: cfg.Scheduler.StatusInterval(),
			Run: func(ctx context.Context, now time.Time) error {
				_, _, err := statuses.Run(ctx, now)
				return err
			},
		},
		scheduler.Job{
			Name:     "cleanup",
			Interval: cfg.Scheduler.CleanupInterval(),
			Run: func(ctx context.Context, now time.Time) error {
				_, err := expiry.Sweep(ctx, cfg.Cleanup.GraceDays, false, now)
				return err
			},
		},
	)
	sched.Start(ctx)
	defer sched.Stop()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Mount("/api", handlers.Routes(handlers.NewHandler(store)))

	srv := &http.Server{Addr: cfg.Server.Address, Handler: r}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "address", cfg.Server.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	store, conn, err := openStorage()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start, end := collectWindow(collectDays)
	stats, err := newCollector(store).Collect(ctx, start, end)
	if err != nil {
		return err
	}

	cmd.Printf("found=%d created=%d updated=%d filtered=%d skipped=%d errors=%d\n",
		stats.Found, stats.Created, stats.Updated, stats.Filtered, stats.Skipped, stats.Errors)
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	store, conn, err := openStorage()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checked, closed, err := collector.NewStatusSweeper(store, logger).Run(ctx, time.Now())
	if err != nil {
		return err
	}

	cmd.Printf("checked=%d closed=%d\n", checked, closed)
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	store, conn, err := openStorage()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	grace := cleanupGrace
	if grace <= 0 {
		grace = cfg.Cleanup.GraceDays
	}

	stats, err := cleanup.NewSweeper(store, logger).Sweep(ctx, grace, cleanupDryRun, time.Now())
	if err != nil {
		return err
	}

	out, _ := json.Marshal(stats)
	cmd.Println(string(out))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
