// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"nirvana_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Intake Conversation Events
// =============================================================================

// ComplaintStarted is published when a registered sender begins a new complaint.
type ComplaintStarted struct {
	BaseEvent
	SenderID string    `json:"senderId"`
	UserID   uuid.UUID `json:"userId"`
}

func (e ComplaintStarted) EventName() string { return "intake.complaint.started" }

// DepartmentInferred is published after a description has been classified.
type DepartmentInferred struct {
	BaseEvent
	SenderID      string  `json:"senderId"`
	Department    string  `json:"department"`
	SeverityScore float64 `json:"severityScore"`
	NeedsImage    bool    `json:"needsImage"`
	Source        string  `json:"source"`
}

func (e DepartmentInferred) EventName() string { return "intake.department.inferred" }

// ImageReceived is published for every image processed in the media stage.
type ImageReceived struct {
	BaseEvent
	SenderID string `json:"senderId"`
	Accepted bool   `json:"accepted"`
	Label    string `json:"label,omitempty"`
	Reason   string `json:"reason"`
}

func (e ImageReceived) EventName() string { return "intake.image.received" }

// StatusRequested is published when a sender asks for complaint status or history.
type StatusRequested struct {
	BaseEvent
	SenderID string `json:"senderId"`
	Mode     string `json:"mode"`
}

func (e StatusRequested) EventName() string { return "intake.status.requested" }

// IntakeCancelled is published when a sender abandons an in-progress complaint.
type IntakeCancelled struct {
	BaseEvent
	SenderID string `json:"senderId"`
	Stage    string `json:"stage"`
}

func (e IntakeCancelled) EventName() string { return "intake.cancelled" }

// =============================================================================
// Complaint Events
// =============================================================================

// ComplaintSubmitted is published after a complaint record has been persisted.
type ComplaintSubmitted struct {
	BaseEvent
	ComplaintID   uuid.UUID `json:"complaintId"`
	UserID        uuid.UUID `json:"userId"`
	SenderID      string    `json:"senderId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Department    string    `json:"department"`
	SeverityScore float64   `json:"severityScore"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	ImageRef      string    `json:"imageRef,omitempty"`
	TrackingURL   string    `json:"trackingUrl,omitempty"`
}

func (e ComplaintSubmitted) EventName() string { return "complaints.submitted" }
