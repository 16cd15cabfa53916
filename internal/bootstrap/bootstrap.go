// Package bootstrap opens the infrastructure shared by the API and the
// queue worker and assembles the intake on top of it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nirvana_backend/internal/adapters/storage"
	"nirvana_backend/internal/complaints"
	"nirvana_backend/internal/email"
	"nirvana_backend/internal/events"
	apphttp "nirvana_backend/internal/http"
	"nirvana_backend/internal/intake"
	"nirvana_backend/internal/notification"
	"nirvana_backend/internal/tracking"
	"nirvana_backend/internal/whatsapp"
	"nirvana_backend/platform/config"
	"nirvana_backend/platform/db"
	"nirvana_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Runtime holds everything a process needs to run the intake.
type Runtime struct {
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Bus        *events.InMemoryBus
	Complaints *complaints.Repository
	Images     *storage.ComplaintImageStore
	WhatsApp   *whatsapp.Client
	Tracking   *tracking.Issuer
	Intake     *intake.Module

	closers []func()
}

// Open connects to Postgres (and Redis, MinIO when configured) and wires the
// intake. Optional collaborators that are not configured are left out.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	rt := &Runtime{}

	if err := WithRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		rt.Pool = p
		return nil
	}); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	rt.closers = append(rt.closers, rt.Pool.Close)
	log.Info("database connection established")

	if cfg.GetRedisURL() != "" {
		if err := WithRetry(ctx, log, "redis connection", 5, 2*time.Second, func() error {
			c, err := db.NewRedisClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
			if err != nil {
				return err
			}
			rt.Redis = c
			return nil
		}); err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = rt.Redis.Close() })
		log.Info("redis connection established")
	} else {
		log.Warn("REDIS_URL not configured; sessions and message processing stay in-process")
	}

	rt.Bus = events.NewInMemoryBus(log)
	rt.Complaints = complaints.New(rt.Pool, cfg.GetDefaultRegion())

	if err := rt.registerNotifications(cfg, log); err != nil {
		rt.Close()
		return nil, err
	}

	if cfg.IsMinIOEnabled() {
		svc, err := storage.NewMinIOService(cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("initialize storage service: %w", err)
		}
		bucket := cfg.GetMinioBucketComplaintImages()
		if err := WithRetry(ctx, log, "ensure complaint-images bucket", 5, 2*time.Second, func() error {
			return svc.EnsureBucketExists(ctx, bucket)
		}); err != nil {
			rt.Close()
			return nil, fmt.Errorf("ensure storage bucket exists: %w", err)
		}
		rt.Images = storage.NewComplaintImageStore(svc, bucket)
		log.Info("storage service initialized", "complaintImagesBucket", bucket)
	} else {
		log.Warn("MinIO not configured; complaint images are referenced by media id only")
	}

	if cfg.IsTrackingEnabled() {
		issuer, err := tracking.NewIssuer(cfg.GetTrackingSecret(), cfg.GetTrackingTTL(), cfg.GetPublicBaseURL())
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("initialize tracking links: %w", err)
		}
		rt.Tracking = issuer
	}

	rt.WhatsApp = whatsapp.NewClient(cfg, log)
	if rt.WhatsApp == nil {
		log.Warn("WhatsApp Cloud API not configured; replies are dropped")
	}

	collab := intake.NewAICollaborators(ctx, cfg, log)
	collab.Sender = rt.WhatsApp
	collab.Media = rt.WhatsApp
	if rt.Images != nil {
		collab.Images = rt.Images
	}
	if rt.Tracking != nil {
		collab.Tracking = rt.Tracking
	}

	var rdb redis.UniversalClient
	if rt.Redis != nil {
		rdb = rt.Redis
	}
	rt.Intake = intake.NewModule(cfg, rt.Complaints, rdb, collab, rt.Bus, log)

	return rt, nil
}

func (rt *Runtime) registerNotifications(cfg *config.Config, log *logger.Logger) error {
	sender, err := email.NewSender(cfg)
	if err != nil {
		return fmt.Errorf("initialize email sender: %w", err)
	}
	directory, err := notification.LoadDirectory(cfg.GetDepartmentDirectoryPath())
	if err != nil {
		return fmt.Errorf("load department directory: %w", err)
	}
	if !cfg.GetEmailEnabled() {
		log.Warn("email disabled; department notifications are skipped")
	}

	notification.New(sender, directory, log).RegisterHandlers(rt.Bus)
	notification.NewAnalytics(log).RegisterHandlers(rt.Bus)
	return nil
}

// Health lists the readiness checks for the opened infrastructure.
func (rt *Runtime) Health() []apphttp.HealthChecker {
	checks := []apphttp.HealthChecker{rt.Complaints}
	if rt.Redis != nil {
		checks = append(checks, db.RedisHealth{Client: rt.Redis})
	}
	return checks
}

// Close waits for in-flight event handlers and releases connections in
// reverse order of opening.
func (rt *Runtime) Close() {
	if rt.Bus != nil {
		rt.Bus.Wait()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// WithRetry runs fn until it succeeds, backing off quadratically between
// attempts.
func WithRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
