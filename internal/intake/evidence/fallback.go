package evidence

import (
	"fmt"
	"strings"

	"nirvana_backend/internal/intake/domain"
	"nirvana_backend/internal/intake/prompting"
)

var spamKeywords = []string{
	"person", "people", "face", "selfie", "food", "drink", "animal", "pet",
	"indoor", "bedroom", "kitchen", "office", "restaurant", "shop",
	"car interior", "vehicle interior", "entertainment", "game", "toy",
	"clothing", "fashion", "jewelry", "makeup", "personal item",
}

var civicKeywords = []string{
	"road", "street", "pothole", "crack", "asphalt", "concrete",
	"pipe", "water", "leak", "drainage", "sewage", "manhole", "open manhole", "sewer", "drain",
	"wire", "cable", "electrical", "power", "pole",
	"garbage", "trash", "waste", "bin", "litter",
	"building", "infrastructure", "construction", "damaged",
	"broken", "repair", "maintenance", "public", "graffiti", "illegal graffiti",
}

// ReasonUnclear is returned when a label matches neither keyword list.
const ReasonUnclear = "Image content unclear but allowed"

type consistencyCategory struct {
	name           string
	complaintTerms []string
	imageTerms     []string
}

var consistencyCategories = []consistencyCategory{
	{
		name:           "road infrastructure",
		complaintTerms: []string{"pothole", "road", "street", "crack", "asphalt", "pavement"},
		imageTerms:     []string{"road", "pothole", "crack", "asphalt", "street", "pavement"},
	},
	{
		name:           "water drainage",
		complaintTerms: []string{"water", "pipe", "leak", "manhole", "sewer", "sewage", "drainage", "drain"},
		imageTerms:     []string{"pipe", "water", "leak", "manhole", "open manhole", "sewer", "sewage", "drainage", "drain", "hole"},
	},
	{
		name:           "electrical",
		complaintTerms: []string{"wire", "electricity", "power", "cable", "electrical"},
		imageTerms:     []string{"wire", "cable", "electrical", "power", "pole"},
	},
	{
		name:           "waste management",
		complaintTerms: []string{"garbage", "trash", "waste", "litter"},
		imageTerms:     []string{"garbage", "trash", "waste", "bin", "litter"},
	},
	{
		name:           "general infrastructure",
		complaintTerms: []string{"broken", "damaged", "construction"},
		imageTerms:     []string{"damaged", "broken", "construction", "repair"},
	},
}

// FallbackSpam screens a vision label with keyword lists. Spam keywords are
// checked first; a label matching neither list is allowed.
func FallbackSpam(label string) domain.ValidationResult {
	lower := strings.ToLower(label)
	if kw, ok := prompting.ContainsAny(lower, spamKeywords); ok {
		return domain.ValidationResult{
			Passed: false,
			Reason: "Image appears to be spam: contains " + kw,
			Source: domain.SourceFallback,
		}
	}
	if kw, ok := prompting.ContainsAny(lower, civicKeywords); ok {
		return domain.ValidationResult{
			Passed: true,
			Reason: "Image appears legitimate: contains " + kw,
			Source: domain.SourceFallback,
		}
	}
	return domain.ValidationResult{Passed: true, Reason: ReasonUnclear, Source: domain.SourceFallback}
}

// FallbackConsistency matches description and label when both fall in the
// same infrastructure category.
func FallbackConsistency(description, label string) domain.ValidationResult {
	text := strings.ToLower(description)
	image := strings.ToLower(label)
	for _, cat := range consistencyCategories {
		_, complaintMatch := prompting.ContainsAny(text, cat.complaintTerms)
		_, imageMatch := prompting.ContainsAny(image, cat.imageTerms)
		if complaintMatch && imageMatch {
			return domain.ValidationResult{
				Passed: true,
				Reason: "Image matches complaint category: " + cat.name,
				Source: domain.SourceFallback,
			}
		}
	}
	return domain.ValidationResult{
		Passed: false,
		Reason: fmt.Sprintf("Image content (%s) doesn't match complaint description", label),
		Source: domain.SourceFallback,
	}
}
