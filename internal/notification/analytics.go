package notification

import (
	"context"
	"log/slog"

	"nirvana_backend/internal/events"
	"nirvana_backend/platform/logger"
)

// Analytics records conversation milestones as structured log lines so they
// can be aggregated downstream. Sender identifiers are masked.
type Analytics struct {
	log *slog.Logger
}

func NewAnalytics(log *logger.Logger) *Analytics {
	return &Analytics{log: log.With(slog.String("stream", "analytics")).WithGroup("event")}
}

func (a *Analytics) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ComplaintStarted{}.EventName(), a)
	bus.Subscribe(events.DepartmentInferred{}.EventName(), a)
	bus.Subscribe(events.ImageReceived{}.EventName(), a)
	bus.Subscribe(events.StatusRequested{}.EventName(), a)
	bus.Subscribe(events.IntakeCancelled{}.EventName(), a)
	bus.Subscribe(events.ComplaintSubmitted{}.EventName(), a)
}

func (a *Analytics) Handle(_ context.Context, event events.Event) error {
	attrs := []any{
		slog.String("name", event.EventName()),
		slog.Time("at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case events.ComplaintStarted:
		attrs = append(attrs, sender(e.SenderID))
	case events.DepartmentInferred:
		attrs = append(attrs,
			sender(e.SenderID),
			slog.String("department", e.Department),
			slog.Float64("severity", e.SeverityScore),
			slog.Bool("needs_image", e.NeedsImage),
			slog.String("source", e.Source),
		)
	case events.ImageReceived:
		attrs = append(attrs,
			sender(e.SenderID),
			slog.Bool("accepted", e.Accepted),
			slog.String("label", e.Label),
			slog.String("reason", e.Reason),
		)
	case events.StatusRequested:
		attrs = append(attrs, sender(e.SenderID), slog.String("mode", e.Mode))
	case events.IntakeCancelled:
		attrs = append(attrs, sender(e.SenderID), slog.String("stage", e.Stage))
	case events.ComplaintSubmitted:
		attrs = append(attrs,
			sender(e.SenderID),
			slog.String("complaint_id", e.ComplaintID.String()),
			slog.String("department", e.Department),
			slog.Float64("severity", e.SeverityScore),
			slog.Bool("has_image", e.ImageRef != ""),
		)
	}

	a.log.Info("intake event", attrs...)
	return nil
}

func sender(id string) slog.Attr {
	return slog.String("sender", logger.MaskSender(id))
}
