package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/payoff-engine/api"
	"github.com/warp/payoff-engine/cache"
	"github.com/warp/payoff-engine/config"
	"github.com/warp/payoff-engine/logging"
	"github.com/warp/payoff-engine/payoff"
	"github.com/warp/payoff-engine/store"
	"github.com/warp/payoff-engine/store/memory"
	"github.com/warp/payoff-engine/store/postgres"
	"github.com/warp/payoff-engine/store/sqlite"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to a TOML config file (defaults apply without one)")
}

// ─── serve ──────────────────────────────────────────────────────────────────

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Startup: config, logger, store, plan cache, handler, router, history pruner,
then serve until SIGINT/SIGTERM. Shutdown waits for active requests up to
server.shutdown_timeout, then closes the store.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	c, closeCache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	strategy, err := payoff.ParseStrategy(cfg.Plan.DefaultStrategy)
	if err != nil {
		return err
	}
	h := api.NewHandler(st, c, log.Named("api"))
	h.CacheTTL = cfg.Cache.TTL
	h.DefaultStrategy = strategy
	h.DefaultLanguage = cfg.Plan.Language

	pruner := api.NewHistoryPruner(st, c, cfg.History.Retention, cfg.History.PruneInterval, log.Named("pruner"))
	pruner.Start()
	defer pruner.Stop()

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(h, log.Named("http"), cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("cache", cfg.Cache.Driver),
			zap.String("version", Version),
		)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		st, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverSQLite:
		st, err := sqlite.New(cfg.DSN)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// openCache returns the configured plan cache and its close function.
func openCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.CacheNone:
		return cache.Nop{}, noop, nil
	case config.CacheMemory:
		return cache.NewMemory(), noop, nil
	case config.CacheRedis:
		r := cache.NewRedis(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			r.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return r, r.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown cache driver %q", cfg.Driver)
}
