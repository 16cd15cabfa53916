// Package session stores conversation sessions and serializes work per sender.
package session

import (
	"context"

	"nirvana_backend/internal/intake/domain"
)

// Store persists sessions keyed by sender ID.
type Store interface {
	// Load returns the sender's session, or a fresh Init session when none exists.
	Load(ctx context.Context, senderID string) (*domain.Session, error)
	Save(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, senderID string) error
}

// Locker grants exclusive access to one sender's session.
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned func
	// releases the lock and is safe to call once.
	Lock(ctx context.Context, key string) (func(), error)
}

func cloneSession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.UserID != nil {
		id := *s.UserID
		out.UserID = &id
	}
	if s.Draft.Department != nil {
		d := *s.Draft.Department
		out.Draft.Department = &d
	}
	if s.Draft.Location != nil {
		loc := *s.Draft.Location
		out.Draft.Location = &loc
	}
	return &out
}
