package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/wooassist/internal/app"
	"github.com/xelth-com/wooassist/internal/config"
	"github.com/xelth-com/wooassist/internal/handlers"
	"github.com/xelth-com/wooassist/internal/logger"
	"github.com/xelth-com/wooassist/internal/websocket"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.NodeEnv)
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Wire database, sessions, tenants and the LLM clients
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start", "error", err)
	}
	defer a.Close()

	// 3. Set up HTTP router
	hub := websocket.NewHub(log.With("component", "ws"))
	router := handlers.NewRouter(handlers.Deps{
		Chat:    a.Chat,
		Tools:   a.Tools,
		Tenants: a.Tenants,
		Hub:     hub,
		DB:      a.DB,
		Debug:   cfg.Debug.ChatBlocks,
		Log:     log.With("component", "http"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Serve until a shutdown signal arrives
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("server starting", "port", cfg.Port, "env", cfg.NodeEnv, "sessions", cfg.Session.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
	}
	log.Info("shutdown complete")
}
