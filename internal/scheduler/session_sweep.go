package scheduler

import (
	"context"
	"time"

	"nirvana_backend/platform/logger"
)

const defaultSessionSweepInterval = 10 * time.Minute

// Sweeper drops expired sessions. *session.MemoryStore satisfies it.
type Sweeper interface {
	Sweep() int
}

// SessionSweep periodically evicts idle in-memory sessions. Redis-backed
// sessions expire through key TTLs and need no sweep.
type SessionSweep struct {
	store    Sweeper
	log      *logger.Logger
	interval time.Duration
}

func NewSessionSweep(store Sweeper, log *logger.Logger, interval time.Duration) *SessionSweep {
	if interval <= 0 {
		interval = defaultSessionSweepInterval
	}
	return &SessionSweep{store: store, log: log, interval: interval}
}

func (s *SessionSweep) Run(ctx context.Context) {
	if s == nil || s.store == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionSweep) sweep() {
	if removed := s.store.Sweep(); removed > 0 {
		s.log.Info("expired sessions removed", "removed", removed)
	}
}
