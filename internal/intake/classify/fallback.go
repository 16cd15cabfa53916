package classify

import (
	"strings"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/prompting"
)

type departmentKeywords struct {
	department domain.Department
	keywords   []string
}

// departmentTable is checked in order; the first department with a matching
// keyword wins.
var departmentTable = []departmentKeywords{
	{domain.DepartmentWater, []string{"water", "pipe", "leak", "tap", "sewage", "drainage", "manhole", "sewer"}},
	{domain.DepartmentElectricity, []string{"electricity", "power", "light", "wire", "blackout"}},
	{domain.DepartmentPublicWorks, []string{"road", "pothole", "street", "traffic", "signal"}},
	{domain.DepartmentSanitation, []string{"garbage", "trash", "waste", "clean"}},
	{domain.DepartmentHealth, []string{"health", "hospital", "medical", "doctor"}},
	{domain.DepartmentTransport, []string{"bus", "transport", "metro", "train"}},
}

type severityTier struct {
	score    float64
	keywords []string
}

// severityTiers are checked from most to least severe.
var severityTiers = []severityTier{
	{0.9, []string{"emergency", "urgent", "danger", "broken", "accident", "fire"}},
	{0.7, []string{"not working", "not collected", "damaged", "problem", "issue"}},
	{0.3, []string{"complaint", "request", "improve", "suggestion"}},
}

const defaultSeverity = 0.5

var visualKeywords = []string{
	"broken", "damaged", "pothole", "leak", "wire", "garbage", "construction",
	"manhole", "open manhole", "sewer", "drainage", "graffiti",
	"see", "look", "visible", "show", "proof", "evidence",
}

// Fallback classifies text with fixed keyword tables. It never fails and
// always returns a severity in [0.1, 1.0].
func Fallback(text string) domain.ClassificationResult {
	lower := strings.ToLower(text)

	department := domain.DepartmentGeneral
	for _, row := range departmentTable {
		if _, ok := prompting.ContainsAny(lower, row.keywords); ok {
			department = row.department
			break
		}
	}

	severity := defaultSeverity
	for _, tier := range severityTiers {
		if _, ok := prompting.ContainsAny(lower, tier.keywords); ok {
			severity = tier.score
			break
		}
	}

	_, needsImage := prompting.ContainsAny(lower, visualKeywords)

	return domain.ClassificationResult{
		Department:    department,
		SeverityScore: severity,
		NeedsImage:    needsImage,
		Reasoning:     "keyword analysis",
		Source:        domain.SourceFallback,
	}
}
