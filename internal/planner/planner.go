// Package planner simulates a truck route stop by stop, inserting the
// rest and fuel stops Hours-of-Service rules and tank range require.
package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"haulplan/internal/geo"
	"haulplan/internal/hos"
	"haulplan/internal/metrics"
	"haulplan/internal/model"
	"haulplan/internal/opt"
	"haulplan/internal/rest"
	"haulplan/internal/stops"
)

// Planner is safe for concurrent use; every call works on its own state.
type Planner struct {
	finder *stops.Finder
	// Now is captured once per plan; defaults to time.Now().UTC().
	Now func() time.Time
}

func New(cat stops.Catalog) *Planner {
	return &Planner{finder: stops.NewFinder(cat), Now: func() time.Time { return time.Now().UTC() }}
}

// PlanRoute validates the request, sequences the stops and simulates the
// drive. Only validation failures are returned as errors; an unplannable
// route comes back with IsFeasible=false and the segments built so far.
func (p *Planner) PlanRoute(in model.PlanRouteInput) (model.RoutePlanResult, error) {
	if err := Validate(in); err != nil {
		return model.RoutePlanResult{}, err
	}
	return p.plan(in, opt.BuildMatrix(in.Stops)), nil
}

// PlanWithMatrix is PlanRoute with caller supplied road miles. Pairs
// missing from m fall back to opt.DefaultEdgeMiles. Bad request fields and
// bad matrix entries come back together in one *ValidationError.
func (p *Planner) PlanWithMatrix(in model.PlanRouteInput, m *opt.Matrix) (model.RoutePlanResult, error) {
	var violations []string
	for _, err := range []error{Validate(in), ValidateMatrix(in.Stops, m)} {
		var ve *ValidationError
		if errors.As(err, &ve) {
			violations = append(violations, ve.Violations...)
		}
	}
	if len(violations) > 0 {
		return model.RoutePlanResult{}, &ValidationError{Violations: violations}
	}
	return p.plan(in, m), nil
}

func (p *Planner) plan(in model.PlanRouteInput, m *opt.Matrix) model.RoutePlanResult {
	started := time.Now()
	now := p.Now()

	priority := in.OptimizationPriority
	if priority == "" {
		priority = model.Balance
	}
	seq := opt.Order(in.Stops, m)
	if seq.FallbackEdges > 0 {
		metrics.MatrixFallbackEdges.Add(float64(seq.FallbackEdges))
	}

	byID := make(map[string]model.Stop, len(in.Stops))
	for _, s := range in.Stops {
		byID[s.ID] = s
	}
	ordered := make([]model.Stop, len(seq.StopIDs))
	for i, id := range seq.StopIDs {
		ordered[i] = byID[id]
	}
	// edge i runs ordered[i] -> ordered[i+1]
	legHours := make([]float64, len(seq.EdgeMiles))
	for i, miles := range seq.EdgeMiles {
		legHours[i] = geo.DriveTime(miles, ordered[i+1].RoadClass)
	}

	res := model.RoutePlanResult{
		PlanID:               uuid.NewString(),
		PlannedAt:            now,
		OptimizationPriority: priority,
		OptimizedSequence:    seq.StopIDs,
		Segments:             []model.Segment{},
		RestStops:            []model.InsertedStop{},
		FuelStops:            []model.InsertedStop{},
		IsFeasible:           true,
		FeasibilityIssues:    []string{},
	}
	w := &walk{
		finder: p.finder,
		res:    &res,
		state:  SimulatorState{Duty: in.DriverState, Fuel: in.VehicleState, Clock: now},
	}
	w.observe()

	for i := range seq.EdgeMiles {
		from, to := ordered[i], ordered[i+1]
		if !w.drive(from, to, seq.EdgeMiles[i], legHours[i]) {
			break
		}
		if to.PlannedDockHours > 0 {
			var legs []rest.Leg
			for j := i + 1; j < len(legHours); j++ {
				legs = append(legs, rest.Leg{DriveHours: legHours[j], DockHours: ordered[j+1].PlannedDockHours})
			}
			w.dock(to, legs)
		}
	}
	w.close()

	metrics.PlansTotal.WithLabelValues(metrics.Bool(res.IsFeasible)).Inc()
	metrics.PlanDuration.Observe(time.Since(started).Seconds())
	log.Info().
		Str("plan_id", res.PlanID).
		Int("stops", len(seq.StopIDs)).
		Float64("miles", res.TotalDistanceMiles).
		Float64("drive_hours", res.TotalDriveTimeHours).
		Int("rest_stops", len(res.RestStops)).
		Int("fuel_stops", len(res.FuelStops)).
		Bool("feasible", res.IsFeasible).
		Msg("route planned")
	return res
}

// walk owns the mutable pieces of one simulation.
type walk struct {
	finder  *stops.Finder
	res     *model.RoutePlanResult
	state   SimulatorState
	maxDuty model.DutyCycleState
}

// drive covers one edge, possibly in several stretches when the edge is
// longer than a full drive window. It returns false when the plan cannot
// continue.
func (w *walk) drive(from, to model.Stop, miles, hours float64) bool {
	origin := from.Point()
	remMiles, remHours := miles, hours
	pos := stopLocation(from)

	for {
		if w.state.NeedsRest(remHours) && !w.state.Rested() {
			if !w.rest(pos, w.restReason(remHours)) {
				return false
			}
		}
		stretchHours, stretchMiles := remHours, remMiles
		last := true
		if w.state.NeedsRest(remHours) {
			stretchHours = w.state.DriveHeadroom()
			stretchMiles = remMiles * stretchHours / remHours
			last = false
		}

		if !w.fuel(pos, from, to, stretchMiles) {
			return false
		}
		if w.state.NeedsRest(stretchHours) {
			if !w.rest(pos, w.restReason(stretchHours)) {
				return false
			}
		}

		end := stopLocation(to)
		if !last {
			frac := (miles - remMiles + stretchMiles) / miles
			pt := geo.Interpolate(origin, to.Point(), frac)
			end = &model.Location{Name: fmt.Sprintf("en route %s to %s", from.ID, to.ID), Lat: pt.Lat, Lon: pt.Lon}
		}

		before := w.state
		w.state = w.state.AfterDrive(stretchHours, stretchMiles)
		w.append(model.Segment{
			Type:               model.SegmentDrive,
			From:               pos,
			To:                 end,
			DistanceMiles:      stretchMiles,
			DriveTimeHours:     stretchHours,
			EstimatedDeparture: before.Clock,
			EstimatedArrival:   w.state.Clock,
		})
		w.res.TotalDistanceMiles += stretchMiles
		w.res.TotalDriveTimeHours += stretchHours
		w.res.TotalOnDutyHours += stretchHours

		if last {
			return true
		}
		remMiles -= stretchMiles
		remHours -= stretchHours
		pos = end
	}
}

func (w *walk) restReason(hours float64) string {
	d := w.state.Duty
	if d.HoursDriven+hours > hos.MaxDrivingHours {
		return fmt.Sprintf("drive limit: %.2fh driven + %.2fh ahead exceeds %.0fh", d.HoursDriven, hours, hos.MaxDrivingHours)
	}
	return fmt.Sprintf("duty limit: %.2fh on duty + %.2fh ahead exceeds %.0fh", d.OnDutyTime, hours, hos.MaxOnDutyHours)
}

// rest inserts a mandatory 10h reset at the rest area nearest at.
func (w *walk) rest(at *model.Location, reason string) bool {
	m, ok := w.finder.NearestRest(at.Point(), stops.RestRadiusMiles)
	if !ok {
		issue := fmt.Sprintf("no rest area within %.0f mi of (%.4f, %.4f); %s", stops.RestRadiusMiles, at.Lat, at.Lon, reason)
		log.Warn().Float64("lat", at.Lat).Float64("lon", at.Lon).Msg("no rest area in range")
		w.infeasible(issue)
		return false
	}
	before := w.state
	w.state = w.state.AfterRest()
	loc := &model.Location{Name: m.Area.Name, Lat: m.Area.Lat, Lon: m.Area.Lon}
	seq := w.append(model.Segment{
		Type:               model.SegmentRest,
		From:               at,
		To:                 loc,
		RestType:           string(rest.FullRest),
		RestDurationHours:  hos.FullRestHours,
		RestReason:         reason,
		EstimatedArrival:   before.Clock,
		EstimatedDeparture: w.state.Clock,
	})
	w.res.RestStops = append(w.res.RestStops, model.InsertedStop{
		Sequence: seq, Type: string(model.SegmentRest), Name: m.Area.Name, Lat: m.Area.Lat, Lon: m.Area.Lon, Reason: reason,
	})
	metrics.InsertedStops.WithLabelValues(string(model.SegmentRest)).Inc()
	log.Debug().Str("area", m.Area.ID).Float64("detour_miles", m.DistanceMiles).Str("reason", reason).Msg("rest inserted")
	return true
}

// fuel tops the tank up before a stretch of miles when the reserve would
// run thin.
func (w *walk) fuel(at *model.Location, from, to model.Stop, miles float64) bool {
	f := w.state.Fuel
	need := f.GallonsFor(miles)
	if need > f.CapacityGallons {
		w.infeasible(fmt.Sprintf("leg %s -> %s needs %.1f gal between stops, tank holds %.1f", from.ID, to.ID, need, f.CapacityGallons))
		return false
	}
	if !w.state.NeedsFuel(miles) || f.CurrentGallons >= f.CapacityGallons {
		return true
	}
	m, ok := w.finder.BestFuel(at.Point())
	if !ok {
		if f.CurrentGallons >= need {
			log.Warn().Str("from", from.ID).Str("to", to.ID).Float64("gallons", f.CurrentGallons).Float64("needed", need).
				Msg("no fuel station in range, continuing on reserve")
			return true
		}
		w.infeasible(fmt.Sprintf("no fuel station within %.0f mi of (%.4f, %.4f); leg %s -> %s needs %.1f gal, %.1f in tank",
			stops.FuelRadiusMiles, at.Lat, at.Lon, from.ID, to.ID, need, f.CurrentGallons))
		return false
	}

	before := w.state
	var gallons float64
	w.state, gallons = w.state.AfterRefuel()
	cost := gallons * m.Station.PricePerGallon
	reason := fmt.Sprintf("%.1f gal in tank, %.1f gal needed to reach %s", f.CurrentGallons, need, to.ID)
	seq := w.append(model.Segment{
		Type:               model.SegmentFuel,
		From:               at,
		To:                 &model.Location{Name: m.Station.Name, Lat: m.Station.Lat, Lon: m.Station.Lon},
		FuelGallons:        gallons,
		FuelCost:           cost,
		FuelStation:        m.Station.Name,
		EstimatedArrival:   before.Clock,
		EstimatedDeparture: w.state.Clock,
	})
	w.res.FuelStops = append(w.res.FuelStops, model.InsertedStop{
		Sequence: seq, Type: string(model.SegmentFuel), Name: m.Station.Name, Lat: m.Station.Lat, Lon: m.Station.Lon, Reason: reason,
	})
	w.res.TotalCost += cost
	w.res.TotalOnDutyHours += FuelStopHours
	metrics.InsertedStops.WithLabelValues(string(model.SegmentFuel)).Inc()
	log.Debug().Str("station", m.Station.ID).Float64("gallons", gallons).Float64("cost", cost).Msg("fuel stop inserted")
	return true
}

// dock emits the planned dock time at s with advisory rest guidance for
// the legs still ahead.
func (w *walk) dock(s model.Stop, ahead []rest.Leg) {
	rec := rest.Recommend(w.state.Duty, s.PlannedDockHours, ahead)
	before := w.state
	w.state = w.state.AfterDock(s.PlannedDockHours)
	loc := stopLocation(s)
	w.append(model.Segment{
		Type:               model.SegmentDock,
		From:               loc,
		To:                 loc,
		DockDurationHours:  s.PlannedDockHours,
		RestAdvice:         rec.Advice(),
		EstimatedArrival:   before.Clock,
		EstimatedDeparture: w.state.Clock,
	})
	w.res.TotalOnDutyHours += s.PlannedDockHours
	log.Debug().Str("stop", s.ID).Str("advice", string(rec.Type)).Int("confidence", rec.Confidence).Msg("dock planned")
}

func (w *walk) append(seg model.Segment) int {
	seg.Sequence = len(w.res.Segments) + 1
	seg.StateAfter = w.state.Duty
	seg.FuelAfter = w.state.Fuel.CurrentGallons
	w.res.Segments = append(w.res.Segments, seg)
	w.observe()
	return seg.Sequence
}

func (w *walk) observe() {
	d := w.state.Duty
	if d.HoursDriven > w.maxDuty.HoursDriven {
		w.maxDuty.HoursDriven = d.HoursDriven
	}
	if d.OnDutyTime > w.maxDuty.OnDutyTime {
		w.maxDuty.OnDutyTime = d.OnDutyTime
	}
}

func (w *walk) infeasible(issue string) {
	w.res.IsFeasible = false
	w.res.FeasibilityIssues = append(w.res.FeasibilityIssues, issue)
}

// close fills in the compliance report.
func (w *walk) close() {
	final := hos.Evaluate(w.state.Duty)
	w.res.Compliance = model.ComplianceReport{
		MaxDriveHoursUsed:   w.maxDuty.HoursDriven,
		MaxOnDutyHoursUsed:  w.maxDuty.OnDutyTime,
		BreaksImplied:       int(w.res.TotalDriveTimeHours / hos.MaxHoursWithoutBreak),
		RestStopsPlanned:    len(w.res.RestStops),
		FinalStateCompliant: final.Driving.Compliant && final.OnDuty.Compliant,
		Issues:              append([]string{}, w.res.FeasibilityIssues...),
	}
}

func stopLocation(s model.Stop) *model.Location {
	return &model.Location{StopID: s.ID, Name: s.Name, Lat: s.Lat, Lon: s.Lon}
}
