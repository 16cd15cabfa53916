// Package ports defines the collaborators the intake conversation depends on.
// Adapters live in internal/whatsapp, internal/complaints, internal/adapters
// and platform/ai; the conversation only sees these interfaces.
package ports

import (
	"context"

	"nirvana_backend/internal/intake/domain"

	"github.com/google/uuid"
)

// ReplySender delivers a text reply to a sender.
type ReplySender interface {
	SendMessage(ctx context.Context, to, text string) error
}

// ComplaintStore is the persistent store for users and complaints.
type ComplaintStore interface {
	// LookupUser returns domain.ErrUserNotFound when the sender is unregistered.
	LookupUser(ctx context.Context, senderID string) (domain.User, error)
	CreateComplaint(ctx context.Context, c domain.NewComplaint) (domain.Complaint, error)
	// ListComplaints returns the user's complaints, newest first.
	ListComplaints(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Complaint, error)
	// GetComplaint returns domain.ErrComplaintNotFound for unknown IDs.
	GetComplaint(ctx context.Context, id uuid.UUID) (domain.Complaint, error)
}

// Media is a downloaded attachment.
type Media struct {
	Data     []byte
	MIMEType string
}

// MediaResolver downloads an attachment by its platform handle.
type MediaResolver interface {
	Resolve(ctx context.Context, mediaID string) (Media, error)
}

// ImageStore keeps accepted complaint images and returns an opaque reference.
type ImageStore interface {
	StoreImage(ctx context.Context, senderID string, data []byte, mimeType string) (string, error)
}

// Labeler describes the salient content of an image as a short label.
// An empty label means nothing recognisable was found.
type Labeler interface {
	Label(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Completer is a generative text model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Transcriber converts speech audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}
