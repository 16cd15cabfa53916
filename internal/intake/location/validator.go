// Package location validates the location shared for a complaint.
// Only coordinate pairs are accepted; free-text addresses are refused.
package location

import (
	"fmt"
	"math"
	"strconv"

	"nirvana_backend/internal/intake/domain"
)

// Reasons returned to the citizen.
const (
	ReasonMissing     = "No location data provided. Please share your location via WhatsApp."
	ReasonTextAddress = "Text addresses are not supported. Please share your exact location via WhatsApp's location sharing feature."
	ReasonBadFormat   = "Invalid coordinate format. Please share your location via WhatsApp."
	ReasonBadShape    = "Invalid location data format. Please share your location via WhatsApp."
	ReasonUnsupported = "Invalid location data. Please share your location via WhatsApp."
	ReasonOutOfRange  = "Invalid coordinates. Latitude must be between -90 and 90, longitude between -180 and 180."
)

// Result is a validation verdict plus the normalized coordinates on success.
type Result struct {
	domain.ValidationResult
	Coordinates domain.Coordinates
}

// Validate checks a location payload. Accepted shapes are domain.Coordinates,
// *domain.Coordinates and a map with "latitude" and "longitude" keys (numbers
// or numeric strings). Any string input is treated as a typed address.
func Validate(input any) Result {
	switch v := input.(type) {
	case nil:
		return fail(ReasonMissing)
	case string:
		return fail(ReasonTextAddress)
	case domain.Coordinates:
		return checkRange(v)
	case *domain.Coordinates:
		if v == nil {
			return fail(ReasonMissing)
		}
		return checkRange(*v)
	case map[string]any:
		latRaw, okLat := v["latitude"]
		lngRaw, okLng := v["longitude"]
		if !okLat || !okLng {
			return fail(ReasonBadShape)
		}
		lat, errLat := toFloat(latRaw)
		lng, errLng := toFloat(lngRaw)
		if errLat != nil || errLng != nil {
			return fail(ReasonBadFormat)
		}
		return checkRange(domain.Coordinates{Latitude: lat, Longitude: lng})
	default:
		return fail(ReasonUnsupported)
	}
}

func checkRange(c domain.Coordinates) Result {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return fail(ReasonBadFormat)
	}
	if !c.InRange() {
		return fail(ReasonOutOfRange)
	}
	return Result{
		ValidationResult: domain.ValidationResult{
			Passed: true,
			Reason: fmt.Sprintf("Location coordinates received: %.6f, %.6f", c.Latitude, c.Longitude),
			Source: domain.SourcePrimary,
		},
		Coordinates: c,
	}
}

func fail(reason string) Result {
	return Result{ValidationResult: domain.ValidationResult{Passed: false, Reason: reason, Source: domain.SourcePrimary}}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("unsupported coordinate type %T", v)
	}
}
