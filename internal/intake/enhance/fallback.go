package enhance

import (
	"strings"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/prompting"
)

type titleRule struct {
	title    string
	keywords []string
}

// Hindi transliterations (kooda, pani, sadak, shor) are common in messages.
var titleRules = []titleRule{
	{"Waste Management - Garbage Collection Issue", []string{"garbage", "waste", "trash", "kooda"}},
	{"Electrical Infrastructure - Street Lighting Issue", []string{"light", "street light", "lamp"}},
	{"Water Supply - Infrastructure Issue", []string{"water", "leak", "pipe", "pani"}},
	{"Public Works - Road Infrastructure Issue", []string{"road", "pothole", "street", "sadak"}},
	{"Environmental - Noise Pollution Complaint", []string{"noise", "pollution", "shor"}},
}

// Fallback builds a title from keyword rules and a templated description.
func Fallback(text string, department domain.Department, loc *domain.Coordinates) domain.Enhancement {
	lower := strings.ToLower(text)

	deptName := string(department)
	if deptName == "" {
		deptName = string(domain.DepartmentGeneral)
	}

	title := deptName + " - Citizen Complaint"
	for _, rule := range titleRules {
		if _, ok := prompting.ContainsAny(lower, rule.keywords); ok {
			title = rule.title
			break
		}
	}

	var sb strings.Builder
	sb.WriteString("Citizen complaint regarding: ")
	sb.WriteString(strings.TrimSpace(text))
	if loc != nil {
		sb.WriteString(locationBlock(*loc))
	}
	reviewer := string(department)
	if reviewer == "" {
		reviewer = "appropriate"
	}
	sb.WriteString("\n\nThis complaint has been logged for ")
	sb.WriteString(reviewer)
	sb.WriteString(" department review and action.")

	return domain.Enhancement{
		Title:       title,
		Description: sb.String(),
		Source:      domain.SourceFallback,
	}
}
