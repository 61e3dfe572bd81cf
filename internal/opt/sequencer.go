package opt

import (
	"github.com/rs/zerolog/log"

	"haulplan/internal/model"
)

const (
	// DefaultEdgeMiles is substituted for a pair missing from the matrix.
	DefaultEdgeMiles = 100.0
	// MaxTwoOptIterations bounds the number of improvement passes.
	MaxTwoOptIterations = 100
)

// Sequence is the ordered stop visit plan.
type Sequence struct {
	StopIDs       []string  `json:"stop_ids"`
	EdgeMiles     []float64 `json:"edge_miles"`
	TotalMiles    float64   `json:"total_miles"`
	FallbackEdges int       `json:"fallback_edges"`
}

// Endpoints resolves the fixed origin and optional destination of a stop set.
// With no stop flagged as origin the first stop is the origin. dest is -1
// when no stop is flagged as destination.
func Endpoints(stops []model.Stop) (origin, dest int) {
	origin, dest = -1, -1
	for i, s := range stops {
		if s.IsOrigin && origin == -1 {
			origin = i
		}
	}
	if origin == -1 && len(stops) > 0 {
		origin = 0
	}
	for i, s := range stops {
		if s.IsDestination && i != origin && dest == -1 {
			dest = i
		}
	}
	return origin, dest
}

// Order sequences stops: nearest-neighbor construction from the origin,
// then 2-opt refinement with the origin (and destination, if any) held fixed.
func Order(stops []model.Stop, m *Matrix) Sequence {
	switch len(stops) {
	case 0:
		return Sequence{StopIDs: []string{}, EdgeMiles: []float64{}}
	case 1:
		return Sequence{StopIDs: []string{stops[0].ID}, EdgeMiles: []float64{}}
	}
	dist, fallbacks := denseDistances(stops, m)
	origin, dest := Endpoints(stops)
	tour := NearestNeighbor(dist, origin, dest)
	tour = TwoOpt(dist, tour, dest >= 0, MaxTwoOptIterations)

	seq := Sequence{StopIDs: make([]string, len(tour)), EdgeMiles: make([]float64, 0, len(tour)-1), FallbackEdges: fallbacks}
	for i, idx := range tour {
		seq.StopIDs[i] = stops[idx].ID
		if i > 0 {
			d := dist[tour[i-1]][idx]
			seq.EdgeMiles = append(seq.EdgeMiles, d)
			seq.TotalMiles += d
		}
	}
	return seq
}

// NearestNeighbor builds a tour starting at origin, always moving to the
// closest unvisited waypoint, and appending dest last when dest >= 0.
// Ties go to the waypoint listed first.
func NearestNeighbor(dist [][]float64, origin, dest int) []int {
	n := len(dist)
	if n == 0 || origin < 0 {
		return []int{}
	}
	visited := make([]bool, n)
	visited[origin] = true
	if dest >= 0 {
		visited[dest] = true
	}
	tour := make([]int, 0, n)
	tour = append(tour, origin)
	cur := origin
	for {
		next := -1
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			if next == -1 || dist[cur][i] < dist[cur][next] {
				next = i
			}
		}
		if next == -1 {
			break
		}
		visited[next] = true
		tour = append(tour, next)
		cur = next
	}
	if dest >= 0 {
		tour = append(tour, dest)
	}
	return tour
}

// TwoOpt reverses sub-sequences tour[i:j] while that strictly shortens the
// tour. Position 0 never moves; the last position is fixed when fixedEnd.
// At most maxIter passes run; a pass without improvement ends the search.
func TwoOpt(dist [][]float64, tour []int, fixedEnd bool, maxIter int) []int {
	if maxIter <= 0 {
		maxIter = 1
	}
	best := append([]int(nil), tour...)
	bestDist := tourLength(dist, best)
	hi := len(best)
	if fixedEnd {
		hi--
	}
	for it := 0; it < maxIter; it++ {
		improved := false
		for i := 1; i < hi-1; i++ {
			for j := i + 2; j <= hi; j++ {
				cand := reversed(best, i, j)
				d := tourLength(dist, cand)
				if d+1e-9 < bestDist {
					best = cand
					bestDist = d
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}
	return best
}

// TourLength sums consecutive edges of tour.
func TourLength(dist [][]float64, tour []int) float64 { return tourLength(dist, tour) }

func tourLength(dist [][]float64, tour []int) float64 {
	total := 0.0
	for i := 0; i < len(tour)-1; i++ {
		total += dist[tour[i]][tour[i+1]]
	}
	return total
}

func reversed(ord []int, i, j int) []int {
	out := make([]int, len(ord))
	copy(out, ord)
	for a, b := i, j-1; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

// denseDistances converts the sparse matrix into an index matrix, filling
// gaps with DefaultEdgeMiles. Each gap is logged once.
func denseDistances(stops []model.Stop, m *Matrix) ([][]float64, int) {
	n := len(stops)
	dist := make([][]float64, n)
	fallbacks := 0
	for i := range stops {
		dist[i] = make([]float64, n)
		for j := range stops {
			if i == j {
				continue
			}
			d, ok := m.Lookup(stops[i].ID, stops[j].ID)
			if !ok {
				fallbacks++
				log.Warn().
					Str("from", stops[i].ID).
					Str("to", stops[j].ID).
					Float64("default_miles", DefaultEdgeMiles).
					Msg("distance matrix entry missing, using default edge")
				d = DefaultEdgeMiles
			}
			dist[i][j] = d
		}
	}
	return dist, fallbacks
}
