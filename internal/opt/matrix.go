package opt

import (
	"haulplan/internal/geo"
	"haulplan/internal/model"
)

// Matrix holds precomputed road miles between stops, keyed by stop id.
// It may be sparse; the sequencer substitutes DefaultEdgeMiles for gaps.
type Matrix struct {
	edges map[string]map[string]float64
}

func NewMatrix() *Matrix {
	return &Matrix{edges: map[string]map[string]float64{}}
}

// Set stores the distance from one stop to another.
func (m *Matrix) Set(from, to string, miles float64) {
	row := m.edges[from]
	if row == nil {
		row = map[string]float64{}
		m.edges[from] = row
	}
	row[to] = miles
}

// Lookup returns the stored distance and whether it was present.
func (m *Matrix) Lookup(from, to string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m.edges[from][to]
	return v, ok
}

// Len is the number of stored directed edges.
func (m *Matrix) Len() int {
	n := 0
	for _, row := range m.edges {
		n += len(row)
	}
	return n
}

// BuildMatrix computes all pairwise distances with geo.Distance. Pairs with
// unusable coordinates are left out.
func BuildMatrix(stops []model.Stop) *Matrix {
	m := NewMatrix()
	for i := range stops {
		for j := range stops {
			if i == j {
				continue
			}
			d, err := geo.Distance(stops[i].Point(), stops[j].Point())
			if err != nil {
				continue
			}
			m.Set(stops[i].ID, stops[j].ID, d)
		}
	}
	return m
}
