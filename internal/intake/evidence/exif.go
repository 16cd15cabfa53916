package evidence

import (
	"bytes"
	"fmt"
	"math"

	"nirvana_backend/internal/intake/domain"

	"github.com/rwcarlsen/goexif/exif"
)

// MaxPhotoDistanceKm is how far a photo's GPS tag may be from the shared
// location before a warning is shown.
const MaxPhotoDistanceKm = 1.0

const earthRadiusKm = 6371.0

var decodeExif = exif.Decode

// PhotoGPS reads the EXIF GPS position of a JPEG. ok is false when the
// image carries no usable position, including when decoding panics on a
// malformed TIFF block.
func PhotoGPS(data []byte) (c domain.Coordinates, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c, ok = domain.Coordinates{}, false
		}
	}()

	x, err := decodeExif(bytes.NewReader(data))
	if err != nil {
		return domain.Coordinates{}, false
	}
	lat, lng, err := x.LatLong()
	if err != nil {
		return domain.Coordinates{}, false
	}
	c = domain.Coordinates{Latitude: lat, Longitude: lng}
	if !c.InRange() || (lat == 0 && lng == 0) {
		return domain.Coordinates{}, false
	}
	return c, true
}

// DistanceKm is the great-circle distance between two points.
func DistanceKm(a, b domain.Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// CheckPhotoLocation compares the photo's GPS tag with the shared location.
// It returns a warning and true only when both are known and too far apart.
func CheckPhotoLocation(data []byte, shared *domain.Coordinates) (string, bool) {
	if shared == nil {
		return "", false
	}
	photo, ok := PhotoGPS(data)
	if !ok {
		return "", false
	}
	d := DistanceKm(photo, *shared)
	if d <= MaxPhotoDistanceKm {
		return "", false
	}
	return fmt.Sprintf("The photo appears to have been taken about %.1f km from the location you shared.", d), true
}
