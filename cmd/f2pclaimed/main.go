package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sdimarios-maker/f2p-claimed-bot/internal/clock"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/config"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/engine"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/history"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/notify"
	"github.com/sdimarios-maker/f2p-claimed-bot/internal/obs"
	transporthttp "github.com/sdimarios-maker/f2p-claimed-bot/internal/transport/http"
	"github.com/sdimarios-maker/f2p-claimed-bot/migrations"
)

const shutdownTimeout = 10 * time.Second

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "f2pclaimed",
	Short: "Exclusive slot reservation service with waitlists and confirmation turns",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reservation HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = obs.SetupLogger(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	slots, err := config.LoadSlots(cfg)
	if err != nil {
		return fmt.Errorf("load slot definitions: %w", err)
	}
	logger.Info().Int("slots", len(slots)).Msg("slot definitions loaded")

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(obs.NewMetrics()),
	}

	var recorder *history.Recorder
	if cfg.DatabaseURL != "" {
		pool, err := openHistoryPool(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		recorder = history.NewRecorder(history.NewStore(pool), logger)
		defer recorder.Close()
		opts = append(opts, engine.WithRecorder(recorder))
		logger.Info().Msg("history trail enabled")
	}

	var notifier engine.Notifier = notify.NewLogNotifier(logger)
	if cfg.RedisAddr != "" {
		redisNotifier := notify.NewRedisNotifier(notify.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.RedisChannel,
		}, logger, notifier)
		defer redisNotifier.Close()
		notifier = redisNotifier
	}
	opts = append(opts,
		engine.WithNotifier(notifier),
		engine.WithRenderer(notify.NewDedupRenderer(notify.NewLogRenderer(logger))),
	)

	registry := engine.NewRegistry(slots, clock.NewSystem(), opts...)

	handler := transporthttp.NewRouter(registry, transporthttp.RouterConfig{
		Logger:         logger,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
	return nil
}

func openHistoryPool(dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return pool, nil
}
