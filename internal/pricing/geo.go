// Package pricing holds the pure delivery-fee computations: distance, bounds,
// zone matching and fee breakdown. Nothing here performs I/O.
package pricing

import (
	"fmt"
	"math"

	"bakery-backend/internal/domain"
)

const EarthRadiusKm = 6371.0

// Geo computes great-circle distances on a sphere of the configured radius.
type Geo struct {
	radiusKm float64
}

func NewGeo(radiusKm float64) Geo {
	if radiusKm <= 0 {
		radiusKm = EarthRadiusKm
	}
	return Geo{radiusKm: radiusKm}
}

// Distance returns the haversine distance in kilometers, rounded to 2 decimals.
func (g Geo) Distance(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := ValidateCoordinate(lat1, lon1); err != nil {
		return 0, err
	}
	if err := ValidateCoordinate(lat2, lon2); err != nil {
		return 0, err
	}

	radius := g.radiusKm
	if radius <= 0 {
		radius = EarthRadiusKm
	}

	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a slightly past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return Round2(radius * c), nil
}

// ValidateCoordinate rejects non-finite values and out-of-range degrees.
func ValidateCoordinate(lat, lon float64) error {
	if !isFinite(lat) || !isFinite(lon) {
		return fmt.Errorf("%w: coordinates must be finite numbers (lat=%v, lon=%v)", domain.ErrInvalidCoordinate, lat, lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", domain.ErrInvalidCoordinate, lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range", domain.ErrInvalidCoordinate, lon)
	}
	return nil
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
