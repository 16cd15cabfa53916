// Package enhance rewrites a finished complaint into a professional title and
// description for the department record.
package enhance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/internal/intake/prompting"
	"nirvana_backend/platform/logger"
	"nirvana_backend/platform/sanitize"
)

// MaxTitleRunes caps the stored title.
const MaxTitleRunes = 80

var errMissingField = errors.New("response is missing title or description")

// Engine produces enhancements.
type Engine struct {
	completer ports.Completer
	timeout   time.Duration
	log       *logger.Logger
}

// New creates an Engine. completer may be nil.
func New(completer ports.Completer, timeout time.Duration, log *logger.Logger) *Engine {
	return &Engine{completer: completer, timeout: timeout, log: log}
}

// Enhance returns a title and description. It always produces a result.
func (e *Engine) Enhance(ctx context.Context, text string, department domain.Department, loc *domain.Coordinates) domain.Enhancement {
	out := e.primary(ctx, text, department, loc)
	if result, ok := out.Get(); ok {
		return result
	}
	e.log.CollaboratorFallback("enhancement", out.Reason())
	return Fallback(text, department, loc)
}

func (e *Engine) primary(ctx context.Context, text string, department domain.Department, loc *domain.Coordinates) domain.Outcome[domain.Enhancement] {
	if e.completer == nil {
		return domain.Unavailable[domain.Enhancement](ports.ErrNotConfigured.Error())
	}

	raw := ports.Call(ctx, e.timeout, func(ctx context.Context) (string, error) {
		return e.completer.Complete(ctx, buildPrompt(text, department, loc))
	})
	resp, ok := raw.Get()
	if !ok {
		return domain.Unavailable[domain.Enhancement](raw.Reason())
	}

	result, err := ParseResponse(resp, loc)
	if err != nil {
		return domain.Unavailable[domain.Enhancement](err.Error())
	}
	return domain.Available(result)
}

// ParseResponse reads the PROFESSIONAL_TITLE/ENHANCED_DESCRIPTION protocol and
// appends the location block when the model left it out.
func ParseResponse(resp string, loc *domain.Coordinates) (domain.Enhancement, error) {
	fields := prompting.Fields(resp, "PROFESSIONAL_TITLE", "ENHANCED_DESCRIPTION", "ASSIGNED_TO")
	title := sanitize.Text(prompting.FirstLine(fields["PROFESSIONAL_TITLE"]))
	description := sanitize.Text(fields["ENHANCED_DESCRIPTION"])
	title = strings.Trim(title, "[]\"")
	if title == "" || description == "" {
		return domain.Enhancement{}, errMissingField
	}

	if loc != nil && !strings.Contains(description, locationLine(*loc)) {
		description += locationBlock(*loc)
	}

	return domain.Enhancement{
		Title:       sanitize.Truncate(title, MaxTitleRunes),
		Description: description,
		Source:      domain.SourcePrimary,
	}, nil
}

func locationLine(loc domain.Coordinates) string {
	return fmt.Sprintf("Location: %.6f, %.6f", loc.Latitude, loc.Longitude)
}

// MapsLink points at the coordinates on Google Maps.
func MapsLink(loc domain.Coordinates) string {
	return fmt.Sprintf("https://maps.google.com/?q=%.6f,%.6f", loc.Latitude, loc.Longitude)
}

func locationBlock(loc domain.Coordinates) string {
	return "\n\n" + locationLine(loc) + "\nGoogle Maps: " + MapsLink(loc)
}
