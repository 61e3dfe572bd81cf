package stops

import (
	"cmp"

	"golang.org/x/exp/slices"

	"haulplan/internal/geo"
)

// Search radii in road miles.
const (
	FuelRadiusMiles       = 30.0
	RestRadiusMiles       = 50.0
	NearbyRestRadiusMiles = 25.0
)

type FuelMatch struct {
	Station       FuelStation `json:"station"`
	DistanceMiles float64     `json:"distance_miles"`
}

type RestMatch struct {
	Area          RestArea `json:"area"`
	DistanceMiles float64  `json:"distance_miles"`
}

// Finder answers nearest-match queries against a Catalog. Nothing in range
// is a normal outcome, reported through the bool or an empty slice.
type Finder struct {
	cat Catalog
}

func NewFinder(cat Catalog) *Finder {
	return &Finder{cat: cat}
}

// FuelWithin returns stations within radius of p, cheapest first, nearer
// first on equal price.
func (f *Finder) FuelWithin(p geo.Point, radius float64) []FuelMatch {
	out := []FuelMatch{}
	if f == nil || f.cat == nil {
		return out
	}
	for _, s := range f.cat.FuelStations() {
		d, err := geo.Distance(p, s.Point())
		if err != nil || d > radius {
			continue
		}
		out = append(out, FuelMatch{Station: s, DistanceMiles: d})
	}
	slices.SortStableFunc(out, func(a, b FuelMatch) int {
		if c := cmp.Compare(a.Station.PricePerGallon, b.Station.PricePerGallon); c != 0 {
			return c
		}
		return cmp.Compare(a.DistanceMiles, b.DistanceMiles)
	})
	return out
}

// RestWithin returns rest areas within radius of p, nearest first.
func (f *Finder) RestWithin(p geo.Point, radius float64) []RestMatch {
	out := []RestMatch{}
	if f == nil || f.cat == nil {
		return out
	}
	for _, r := range f.cat.RestAreas() {
		d, err := geo.Distance(p, r.Point())
		if err != nil || d > radius {
			continue
		}
		out = append(out, RestMatch{Area: r, DistanceMiles: d})
	}
	slices.SortStableFunc(out, func(a, b RestMatch) int {
		return cmp.Compare(a.DistanceMiles, b.DistanceMiles)
	})
	return out
}

// BestFuel is the cheapest station within FuelRadiusMiles.
func (f *Finder) BestFuel(p geo.Point) (FuelMatch, bool) {
	m := f.FuelWithin(p, FuelRadiusMiles)
	if len(m) == 0 {
		return FuelMatch{}, false
	}
	return m[0], true
}

// NearestRest is the closest rest area within radius.
func (f *Finder) NearestRest(p geo.Point, radius float64) (RestMatch, bool) {
	m := f.RestWithin(p, radius)
	if len(m) == 0 {
		return RestMatch{}, false
	}
	return m[0], true
}
