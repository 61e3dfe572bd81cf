package planner

import (
	"fmt"
	"math"
	"strings"

	"haulplan/internal/model"
	"haulplan/internal/opt"
)

// MinStops is the smallest stop set a route can be planned for.
const MinStops = 2

// ValidationError lists every constraint a request violates.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid plan request: " + strings.Join(e.Violations, "; ")
}

// Validate checks a request before any simulation starts. It returns nil or
// a *ValidationError.
func Validate(in model.PlanRouteInput) error {
	var v []string
	add := func(format string, args ...any) { v = append(v, fmt.Sprintf(format, args...)) }

	ds := in.DriverState
	for _, f := range []struct {
		name string
		val  float64
	}{
		{"driver_state.hours_driven", ds.HoursDriven},
		{"driver_state.on_duty_time", ds.OnDutyTime},
		{"driver_state.hours_since_break", ds.HoursSinceBreak},
	} {
		if !finite(f.val) || f.val < 0 {
			add("%s must be a finite value >= 0", f.name)
		}
	}

	vs := in.VehicleState
	if !finite(vs.CapacityGallons) || vs.CapacityGallons <= 0 {
		add("vehicle_state.capacity_gallons must be > 0")
	}
	if !finite(vs.MilesPerGallon) || vs.MilesPerGallon <= 0 {
		add("vehicle_state.miles_per_gallon must be > 0")
	}
	if !finite(vs.CurrentGallons) || vs.CurrentGallons < 0 {
		add("vehicle_state.current_gallons must be >= 0")
	} else if vs.CurrentGallons > vs.CapacityGallons && vs.CapacityGallons > 0 {
		add("vehicle_state.current_gallons %.2f exceeds capacity %.2f", vs.CurrentGallons, vs.CapacityGallons)
	}

	switch in.OptimizationPriority {
	case "", model.MinimizeTime, model.MinimizeCost, model.Balance:
	default:
		add("invalid optimization_priority: %s", in.OptimizationPriority)
	}

	if len(in.Stops) < MinStops {
		add("at least %d stops required, got %d", MinStops, len(in.Stops))
	}
	seen := map[string]bool{}
	origins, dests := 0, 0
	for i, s := range in.Stops {
		if s.ID == "" {
			add("stops[%d].id required", i)
		} else if seen[s.ID] {
			add("duplicate stop id: %s", s.ID)
		}
		seen[s.ID] = true
		if !s.Point().Valid() {
			add("stops[%d] %s: invalid coordinates (%v, %v)", i, s.ID, s.Lat, s.Lon)
		}
		if !finite(s.PlannedDockHours) || s.PlannedDockHours < 0 {
			add("stops[%d] %s: planned_dock_hours must be >= 0", i, s.ID)
		}
		if s.IsOrigin && s.IsDestination {
			add("stops[%d] %s: cannot be both origin and destination", i, s.ID)
		}
		if s.IsOrigin {
			origins++
		}
		if s.IsDestination {
			dests++
		}
	}
	if origins > 1 {
		add("at most one origin allowed, got %d", origins)
	}
	if dests > 1 {
		add("at most one destination allowed, got %d", dests)
	}

	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

// ValidateMatrix checks the caller supplied miles between the request's
// stops. Missing pairs are allowed; stored ones must be finite and >= 0.
func ValidateMatrix(stops []model.Stop, m *opt.Matrix) error {
	var v []string
	for _, a := range stops {
		for _, b := range stops {
			if a.ID == b.ID {
				continue
			}
			d, ok := m.Lookup(a.ID, b.ID)
			if ok && (!finite(d) || d < 0) {
				v = append(v, fmt.Sprintf("matrix %s -> %s: miles must be a finite value >= 0, got %v", a.ID, b.ID, d))
			}
		}
	}
	if len(v) > 0 {
		return &ValidationError{Violations: v}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
