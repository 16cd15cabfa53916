package email

import (
	"context"
	"time"

	"nirvana_backend/platform/config"
)

// ComplaintEmail is the content of a department notification.
type ComplaintEmail struct {
	ComplaintID   string
	Title         string
	Description   string
	Department    string
	SeverityBand  string
	SeverityScore float64
	Latitude      float64
	Longitude     float64
	HasImage      bool
	TrackingURL   string
	SubmittedAt   time.Time
}

type Sender interface {
	SendComplaintEmail(ctx context.Context, toEmail string, cc []string, complaint ComplaintEmail) error
}

type NoopSender struct{}

func (NoopSender) SendComplaintEmail(ctx context.Context, toEmail string, cc []string, complaint ComplaintEmail) error {
	return nil
}

func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	), nil
}
