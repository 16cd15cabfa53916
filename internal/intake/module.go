// Package intake assembles the complaint intake conversation: the
// classification, evidence and enhancement engines, session storage and the
// conversation controller that drives them.
package intake

import (
	"nirvana_backend/internal/events"
	"nirvana_backend/internal/intake/classify"
	"nirvana_backend/internal/intake/conversation"
	"nirvana_backend/internal/intake/enhance"
	"nirvana_backend/internal/intake/evidence"
	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/internal/intake/session"
	"nirvana_backend/platform/config"
	"nirvana_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// ModuleConfig combines the config interfaces the intake needs.
type ModuleConfig interface {
	config.IntakeConfig
	config.SessionConfig
}

// Collaborators are the outbound adapters. Any field may be nil; the
// conversation falls back accordingly.
type Collaborators struct {
	Completer   ports.Completer
	Labeler     ports.Labeler
	Transcriber ports.Transcriber
	Media       ports.MediaResolver
	Images      ports.ImageStore
	Sender      ports.ReplySender
	Tracking    conversation.TrackingLinker
}

// Module owns the conversation controller and its session storage.
type Module struct {
	controller *conversation.Controller
	memory     *session.MemoryStore
}

// NewModule wires the intake. With a Redis client, sessions and per-sender
// locks live in Redis so several processes can serve the same senders;
// otherwise both are in-process.
func NewModule(cfg ModuleConfig, store ports.ComplaintStore, rdb redis.UniversalClient, collab Collaborators, bus events.Bus, log *logger.Logger) *Module {
	m := &Module{}

	var (
		sessions session.Store
		locker   session.Locker
	)
	if rdb != nil {
		sessions = session.NewRedisStore(rdb, cfg.GetSessionTTL())
		locker = session.NewRedisLocker(rdb, cfg.GetSessionLockTTL())
		log.Info("intake sessions stored in redis")
	} else {
		m.memory = session.NewMemoryStore(cfg.GetSessionTTL())
		sessions = m.memory
		locker = session.NewKeyedMutex()
		log.Info("intake sessions stored in memory")
	}

	timeout := cfg.GetCollaboratorTimeout()
	m.controller = conversation.New(conversation.Deps{
		Store:       store,
		Sessions:    sessions,
		Locker:      locker,
		Sender:      collab.Sender,
		Media:       collab.Media,
		Images:      collab.Images,
		Labeler:     collab.Labeler,
		Transcriber: collab.Transcriber,
		Classifier:  classify.New(collab.Completer, timeout, log),
		Evidence:    evidence.New(collab.Completer, timeout, log),
		Enhancer:    enhance.New(collab.Completer, timeout, log),
		Tracking:    collab.Tracking,
		Bus:         bus,
		Log:         log,
		Timeouts: conversation.Timeouts{
			Collaborator: timeout,
			Media:        cfg.GetMediaTimeout(),
		},
	})

	return m
}

// Controller returns the conversation controller.
func (m *Module) Controller() *conversation.Controller {
	return m.controller
}

// MemorySessions returns the in-process session store, or nil when sessions
// live in Redis.
func (m *Module) MemorySessions() *session.MemoryStore {
	return m.memory
}
