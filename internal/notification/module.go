// Package notification reacts to intake domain events: submitted complaints
// are mailed to the responsible department, and every conversation event is
// recorded as a structured analytics log line.
package notification

import (
	"context"
	"log/slog"

	"nirvana_backend/internal/email"
	"nirvana_backend/internal/events"
	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/platform/logger"
)

// Module sends department notifications.
type Module struct {
	sender    email.Sender
	directory *Directory
	log       *logger.Logger
}

// New creates the notification module. A nil directory disables routing.
func New(sender email.Sender, directory *Directory, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:    sender,
		directory: directory,
		log:       log,
	}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ComplaintSubmitted{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ComplaintSubmitted:
		return m.handleComplaintSubmitted(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleComplaintSubmitted(ctx context.Context, e events.ComplaintSubmitted) error {
	dept, ok := domain.ParseDepartment(e.Department)
	if !ok {
		dept = domain.DepartmentGeneral
	}

	to, cc := m.directory.Recipients(dept, e.SeverityScore)
	if to == "" {
		m.log.Debug("no department address configured", slog.String("department", dept.String()))
		return nil
	}

	err := m.sender.SendComplaintEmail(ctx, to, cc, email.ComplaintEmail{
		ComplaintID:   e.ComplaintID.String(),
		Title:         e.Title,
		Description:   e.Description,
		Department:    dept.String(),
		SeverityBand:  domain.SeverityBand(e.SeverityScore),
		SeverityScore: e.SeverityScore,
		Latitude:      e.Latitude,
		Longitude:     e.Longitude,
		HasImage:      e.ImageRef != "",
		TrackingURL:   e.TrackingURL,
		SubmittedAt:   e.OccurredAt(),
	})
	if err != nil {
		m.log.Error("failed to send department notification",
			slog.String("complaint_id", e.ComplaintID.String()),
			slog.String("department", dept.String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	m.log.Info("department notified",
		slog.String("complaint_id", e.ComplaintID.String()),
		slog.String("department", dept.String()),
		slog.Int("cc", len(cc)),
	)
	return nil
}
