// Package geo provides great-circle distance and drive-time estimates for
// trucking routes.
package geo

import (
	"errors"
	"math"
)

const (
	// EarthRadiusMiles is the mean radius of Earth used by the haversine formula.
	EarthRadiusMiles = 3959.0
	// RoadFactor approximates actual road distance from great-circle distance.
	RoadFactor = 1.2
	// DefaultSpeedMph applies when no road class is known.
	DefaultSpeedMph = 55.0
)

var ErrNonFiniteCoordinate = errors.New("geo: non-finite coordinate")

// Point is a WGS-84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both coordinates are finite and within range.
func (p Point) Valid() bool {
	if !finite(p.Lat) || !finite(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// RoadClass selects the average speed used for drive-time estimates.
type RoadClass string

const (
	Interstate RoadClass = "interstate"
	Highway    RoadClass = "highway"
	City       RoadClass = "city"
)

var speeds = map[RoadClass]float64{
	Interstate: 60,
	Highway:    50,
	City:       30,
}

// SpeedMph returns the average speed for the class, DefaultSpeedMph if unknown.
func (c RoadClass) SpeedMph() float64 {
	if v, ok := speeds[c]; ok {
		return v
	}
	return DefaultSpeedMph
}

// Distance returns the estimated road distance in miles between two points:
// haversine great-circle distance times RoadFactor.
func Distance(a, b Point) (float64, error) {
	if !finite(a.Lat) || !finite(a.Lon) || !finite(b.Lat) || !finite(b.Lon) {
		return 0, ErrNonFiniteCoordinate
	}
	return haversineMiles(a.Lat, a.Lon, b.Lat, b.Lon) * RoadFactor, nil
}

// Miles is Distance for callers that already validated their coordinates.
// Non-finite input yields 0.
func Miles(a, b Point) float64 {
	d, err := Distance(a, b)
	if err != nil {
		return 0
	}
	return d
}

// DriveTime converts miles into hours at the class average speed.
func DriveTime(miles float64, class RoadClass) float64 {
	if miles <= 0 {
		return 0
	}
	return miles / class.SpeedMph()
}

// Interpolate returns the point at fraction f (0..1) along the straight line a->b.
// Used to place synthetic rest points on long legs.
func Interpolate(a, b Point, f float64) Point {
	if f <= 0 {
		return a
	}
	if f >= 1 {
		return b
	}
	return Point{Lat: a.Lat + (b.Lat-a.Lat)*f, Lon: a.Lon + (b.Lon-a.Lon)*f}
}

func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
