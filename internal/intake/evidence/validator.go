// Package evidence screens complaint images. The spam check gates whether an
// image is stored; the consistency and photo-location checks only produce
// advisory warnings.
package evidence

import (
	"context"
	"errors"
	"strings"
	"time"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/internal/intake/prompting"
	"nirvana_backend/platform/logger"
)

var errMissingVerdict = errors.New("response has no verdict line")

// Validator runs the spam and consistency checks.
type Validator struct {
	completer ports.Completer
	timeout   time.Duration
	log       *logger.Logger
}

// New creates a Validator. completer may be nil.
func New(completer ports.Completer, timeout time.Duration, log *logger.Logger) *Validator {
	return &Validator{completer: completer, timeout: timeout, log: log}
}

// CheckSpam reports Passed=true when the image may be kept.
func (v *Validator) CheckSpam(ctx context.Context, label string) domain.ValidationResult {
	label = strings.TrimSpace(label)
	if label == "" {
		return domain.ValidationResult{Passed: true, Reason: ReasonUnclear, Source: domain.SourceFallback}
	}

	out := v.ask(ctx, buildSpamPrompt(label), "SPAM")
	verdict, ok := out.Get()
	if !ok {
		v.log.CollaboratorFallback("spam_check", out.Reason())
		return FallbackSpam(label)
	}
	if verdict.yes {
		return domain.ValidationResult{Passed: false, Reason: "Image appears to be spam: " + verdict.reason, Source: domain.SourcePrimary}
	}
	return domain.ValidationResult{Passed: true, Reason: "Image appears legitimate: " + verdict.reason, Source: domain.SourcePrimary}
}

// CheckConsistency reports whether the image label supports the description.
func (v *Validator) CheckConsistency(ctx context.Context, description, label string) domain.ValidationResult {
	label = strings.TrimSpace(label)
	if label == "" {
		return domain.ValidationResult{Passed: false, Reason: "Unable to analyze image content", Source: domain.SourceFallback}
	}

	out := v.ask(ctx, buildConsistencyPrompt(description, label), "MATCH")
	verdict, ok := out.Get()
	if !ok {
		v.log.CollaboratorFallback("consistency_check", out.Reason())
		return FallbackConsistency(description, label)
	}
	if verdict.yes {
		return domain.ValidationResult{Passed: true, Reason: "Image matches complaint: " + verdict.reason, Source: domain.SourcePrimary}
	}
	return domain.ValidationResult{Passed: false, Reason: "Image doesn't match complaint: " + verdict.reason, Source: domain.SourcePrimary}
}

type verdict struct {
	yes    bool
	reason string
}

func (v *Validator) ask(ctx context.Context, prompt, key string) domain.Outcome[verdict] {
	if v.completer == nil {
		return domain.Unavailable[verdict](ports.ErrNotConfigured.Error())
	}
	raw := ports.Call(ctx, v.timeout, func(ctx context.Context) (string, error) {
		return v.completer.Complete(ctx, prompt)
	})
	resp, ok := raw.Get()
	if !ok {
		return domain.Unavailable[verdict](raw.Reason())
	}
	parsed, err := parseVerdict(resp, key)
	if err != nil {
		return domain.Unavailable[verdict](err.Error())
	}
	return domain.Available(parsed)
}

func parseVerdict(resp, key string) (verdict, error) {
	fields := prompting.Fields(resp, key, "REASON", "CONFIDENCE")
	raw, ok := fields[key]
	if !ok {
		return verdict{}, errMissingVerdict
	}
	yes, ok := prompting.YesNo(prompting.FirstLine(raw))
	if !ok {
		return verdict{}, errMissingVerdict
	}
	reason := strings.TrimSpace(fields["REASON"])
	if reason == "" {
		reason = "model analysis completed"
	}
	return verdict{yes: yes, reason: reason}, nil
}
