package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nirvana_backend/internal/bootstrap"
	apphttp "nirvana_backend/internal/http"
	"nirvana_backend/internal/http/router"
	"nirvana_backend/internal/scheduler"
	"nirvana_backend/internal/tracking"
	"nirvana_backend/internal/whatsapp"
	"nirvana_backend/platform/config"
	"nirvana_backend/platform/db"
	"nirvana_backend/platform/logger"
	"nirvana_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize runtime", "error", err)
		panic("failed to initialize runtime: " + err.Error())
	}
	defer rt.Close()

	if err := bootstrap.WithRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		applied, err := db.RunMigrations(ctx, rt.Pool)
		for _, m := range applied {
			log.Info("migration applied", "version", m.Version, "source", m.Source)
		}
		return err
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// ========================================================================
	// Message Processing
	// ========================================================================

	var (
		dispatcher whatsapp.Dispatcher
		inline     *scheduler.InlineDispatcher
	)
	if rt.Redis != nil {
		queue, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize queue client", "error", err)
			panic("failed to initialize queue client: " + err.Error())
		}
		defer func() { _ = queue.Close() }()
		dispatcher = queue
		log.Info("inbound messages are queued for the worker", "queue", cfg.GetAsynqQueueName())
	} else {
		inline = scheduler.NewInlineDispatcher(rt.Intake.Controller(), cfg.GetInlineWorkers(), 0, log)
		dispatcher = inline
		log.Info("inbound messages are processed in-process", "workers", cfg.GetInlineWorkers())
	}

	g, gctx := errgroup.WithContext(ctx)

	if sessions := rt.Intake.MemorySessions(); sessions != nil {
		sweep := scheduler.NewSessionSweep(sessions, log, 0)
		g.Go(func() error {
			sweep.Run(gctx)
			return nil
		})
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	modules := []apphttp.Module{
		whatsapp.NewModule(cfg, rt.WhatsApp, dispatcher, validator.New(), log),
	}
	if rt.Tracking != nil {
		var images tracking.ImageLinker
		if rt.Images != nil {
			images = rt.Images
		}
		modules = append(modules, tracking.NewModule(rt.Tracking, rt.Complaints, images, log))
	} else {
		log.Warn("TRACKING_SECRET not configured; tracking links disabled")
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   rt.Health(),
		EventBus: rt.Bus,
		Modules:  modules,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "error", err)
		}
		if inline != nil {
			if err := inline.Wait(shutdownCtx); err != nil {
				log.Warn("in-flight messages abandoned at shutdown", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
}
