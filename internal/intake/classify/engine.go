// Package classify routes a complaint description to a department and scores
// its severity. A generative model is tried first; keyword tables are used
// whenever the model is unavailable or its answer cannot be parsed.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/ports"
	"nirvana_backend/internal/intake/prompting"
	"nirvana_backend/platform/logger"
)

const collaboratorName = "classification"

var (
	errMissingField   = errors.New("response is missing a required field")
	errUnknownDept    = errors.New("unknown department")
	errSeverityFormat = errors.New("severity is not a number")
	errSeverityRange  = errors.New("severity outside [0.1, 1.0]")
	errNeedsImage     = errors.New("needs_image is not YES or NO")
)

// Engine classifies complaint descriptions.
type Engine struct {
	completer ports.Completer
	timeout   time.Duration
	log       *logger.Logger
}

// New creates an Engine. completer may be nil, in which case every call
// uses the keyword fallback.
func New(completer ports.Completer, timeout time.Duration, log *logger.Logger) *Engine {
	return &Engine{completer: completer, timeout: timeout, log: log}
}

// Classify returns a classification for text. It always produces a result.
func (e *Engine) Classify(ctx context.Context, text string) domain.ClassificationResult {
	outcome := e.primary(ctx, text)
	if result, ok := outcome.Get(); ok {
		e.log.Debug("complaint classified",
			slog.String("department", result.Department.String()),
			slog.Float64("severity", result.SeverityScore),
			slog.Bool("needs_image", result.NeedsImage),
		)
		return result
	}

	e.log.CollaboratorFallback(collaboratorName, outcome.Reason())
	return Fallback(text)
}

func (e *Engine) primary(ctx context.Context, text string) domain.Outcome[domain.ClassificationResult] {
	if e.completer == nil {
		return domain.Unavailable[domain.ClassificationResult](ports.ErrNotConfigured.Error())
	}

	raw := ports.Call(ctx, e.timeout, func(ctx context.Context) (string, error) {
		return e.completer.Complete(ctx, buildPrompt(text))
	})
	resp, ok := raw.Get()
	if !ok {
		return domain.Unavailable[domain.ClassificationResult](raw.Reason())
	}

	result, err := ParseResponse(resp)
	if err != nil {
		return domain.Unavailable[domain.ClassificationResult](err.Error())
	}
	return domain.Available(result)
}

// ParseResponse reads the DEPARTMENT/SEVERITY/NEEDS_IMAGE/REASONING line
// protocol. Any missing or invalid required field is an error; partial
// results are never returned.
func ParseResponse(resp string) (domain.ClassificationResult, error) {
	fields := prompting.Fields(resp, "DEPARTMENT", "SEVERITY", "NEEDS_IMAGE", "REASONING")

	deptRaw, okDept := fields["DEPARTMENT"]
	sevRaw, okSev := fields["SEVERITY"]
	imgRaw, okImg := fields["NEEDS_IMAGE"]
	if !okDept || !okSev || !okImg {
		return domain.ClassificationResult{}, errMissingField
	}

	department, ok := domain.ParseDepartment(prompting.FirstLine(deptRaw))
	if !ok {
		return domain.ClassificationResult{}, fmt.Errorf("%w: %q", errUnknownDept, prompting.FirstLine(deptRaw))
	}

	severity, err := parseSeverity(prompting.FirstLine(sevRaw))
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	needsImage, ok := prompting.YesNo(prompting.FirstLine(imgRaw))
	if !ok {
		return domain.ClassificationResult{}, errNeedsImage
	}

	reasoning := strings.TrimSpace(fields["REASONING"])
	if reasoning == "" {
		reasoning = "model analysis"
	}

	return domain.ClassificationResult{
		Department:    department,
		SeverityScore: severity,
		NeedsImage:    needsImage,
		Reasoning:     reasoning,
		Source:        domain.SourcePrimary,
	}, nil
}

func parseSeverity(value string) (float64, error) {
	fields := strings.Fields(strings.Trim(value, "[]"))
	if len(fields) == 0 {
		return 0, errSeverityFormat
	}
	score, err := strconv.ParseFloat(strings.Trim(fields[0], "[](),"), 64)
	if err != nil {
		return 0, errSeverityFormat
	}
	if score < domain.MinSeverity || score > domain.MaxSeverity {
		return 0, errSeverityRange
	}
	return score, nil
}
