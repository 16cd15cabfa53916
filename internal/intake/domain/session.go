package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the per-sender conversation state. SenderID is the unique key.
type Session struct {
	SenderID  string     `json:"sender_id"`
	Stage     Stage      `json:"stage"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Draft     Draft      `json:"draft"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewSession returns a fresh session in StageInit.
func NewSession(senderID string, now time.Time) *Session {
	return &Session{SenderID: senderID, Stage: StageInit, UpdatedAt: now}
}

// Reset clears the draft and returns the session to StageInit.
// The resolved user is kept so the next complaint skips the lookup greeting.
func (s *Session) Reset(now time.Time) {
	s.Stage = StageInit
	s.Draft = Draft{}
	s.UpdatedAt = now
}

// Advance moves the session to next and returns the previous stage.
func (s *Session) Advance(next Stage, now time.Time) Stage {
	prev := s.Stage
	s.Stage = next
	s.UpdatedAt = now
	return prev
}

// Active reports whether a complaint is in progress.
func (s *Session) Active() bool {
	return s.Stage != StageInit && s.Stage != StageCompleted
}
