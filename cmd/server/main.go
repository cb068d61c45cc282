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

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/manpreetbhatti/roomsync/internal/api"
	"github.com/manpreetbhatti/roomsync/internal/app"
	"github.com/manpreetbhatti/roomsync/internal/compaction"
	"github.com/manpreetbhatti/roomsync/internal/db"
	"github.com/manpreetbhatti/roomsync/internal/metrics"
	"github.com/manpreetbhatti/roomsync/internal/ratelimit"
	"github.com/manpreetbhatti/roomsync/internal/room"
	"github.com/manpreetbhatti/roomsync/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	log, err := app.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	opts := room.Options{
		GracePeriod: cfg.GracePeriod,
		Dedup:       room.DedupPolicy{Window: cfg.DedupWindow, Depth: cfg.DedupDepth},
		Logger:      log.Named("room"),
	}

	var database *db.Database
	if cfg.DBPath != "" {
		database, err = db.New(cfg.DBPath, log.Named("db"))
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close()
		opts.Recorder = database

		compactor := compaction.New(database, compaction.Config{
			Interval:  cfg.CompactionInterval,
			Retention: cfg.JournalRetention,
			Keep:      cfg.JournalKeep,
		}, log.Named("compaction"))
		compactor.Start()
		defer compactor.Stop()
	}

	registry := room.NewRegistry(opts)
	router := room.NewRouter(registry, log.Named("router"))
	hub := ws.NewHub(router, log.Named("ws"), ws.Options{AllowedOrigins: cfg.AllowedOrigins()})
	apiHandler := api.New(registry, hub, database, log.Named("api"))

	apiLimiters := ratelimit.NewClientLimiters(cfg.APIRate, cfg.APIBurst)
	defer apiLimiters.Stop()

	apiMux := http.NewServeMux()
	apiHandler.Routes(apiMux)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWs)
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", ratelimit.Middleware(apiLimiters, log.Named("ratelimit"), apiMux))

	origins := cfg.AllowedOrigins()
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("db", cfg.DBPath),
			zap.Duration("grace_period", cfg.GracePeriod),
			zap.Strings("endpoints", []string{
				"WS /ws?room={roomId}&username={name}",
				"GET /health",
				"GET /metrics",
				"GET /api/stats",
				"GET /api/rooms",
				"GET /api/rooms/{id}",
				"GET /api/sessions?room_id={roomId}",
			}))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	// Websockets are hijacked, so Shutdown does not close them
	hub.Close()
	registry.Close()
	log.Info("shutdown complete")
	return nil
}
