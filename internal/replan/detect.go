package replan

import (
	"fmt"
	"math"
	"strings"

	"haulplan/internal/geo"
	"haulplan/internal/hos"
	"haulplan/internal/model"
	"haulplan/internal/rest"
	"haulplan/internal/stops"
)

// Detector thresholds.
const (
	TrafficDelayMinMinutes  = 30.0
	TrafficDelayHighMinutes = 60.0
	DockVarianceMinHours    = 1.0
)

// DetectTrafficDelay returns nil below 30 minutes of delay.
func DetectTrafficDelay(delayMinutes float64, at *geo.Point) *Trigger {
	if delayMinutes < TrafficDelayMinMinutes {
		return nil
	}
	t := &Trigger{Type: TrafficDelay, Data: TrafficDelayData{DelayMinutes: delayMinutes, Location: at}}
	if delayMinutes > TrafficDelayHighMinutes {
		t.Priority, t.Action = High, ActionReplan
		t.Reason = fmt.Sprintf("traffic delay of %.0f min exceeds %.0f min", delayMinutes, TrafficDelayHighMinutes)
	} else {
		t.Priority, t.Action = Medium, ActionUpdateETA
		t.Reason = fmt.Sprintf("traffic delay of %.0f min", delayMinutes)
	}
	return t
}

// DetectDockVariance fires when actual dock time differs from plan by an
// hour or more in either direction.
func DetectDockVariance(stopID string, plannedHours, actualHours float64) *Trigger {
	v := actualHours - plannedHours
	if math.Abs(v) < DockVarianceMinHours {
		return nil
	}
	dir := "over"
	if v < 0 {
		dir = "under"
	}
	return &Trigger{
		Type:     DockTimeVariance,
		Priority: Critical,
		Data:     DockVarianceData{StopID: stopID, PlannedHours: plannedHours, ActualHours: actualHours, VarianceHours: v},
		Action:   ActionReplan,
		Reason:   fmt.Sprintf("dock at %s ran %.2fh %s plan", stopID, math.Abs(v), dir),
	}
}

// DetectLoadChange classifies an added or cancelled load. kind must be
// LoadAdded or LoadCancelled. Only a change costing more than an hour
// asks for a replan; smaller ones move the ETA.
func DetectLoadChange(kind TriggerType, d LoadChangeData) *Trigger {
	var verb string
	switch kind {
	case LoadAdded:
		verb = "added"
	case LoadCancelled:
		verb = "cancelled"
	default:
		return nil
	}
	action := ActionUpdateETA
	if d.ImpactHours() > HighImpactThresholdHours {
		action = ActionReplan
	}
	return &Trigger{
		Type:     kind,
		Priority: High,
		Data:     d,
		Action:   action,
		Reason:   fmt.Sprintf("load %s at stop %s", verb, d.StopID),
	}
}

// DetectHOSApproaching fires when the hours left cannot cover the
// remaining legs, using the same arithmetic as rest.AssessFeasibility.
func DetectHOSApproaching(s model.DutyCycleState, remaining []rest.Leg) *Trigger {
	f := rest.AssessFeasibility(s, remaining)
	if f.Feasible {
		return nil
	}
	return &Trigger{
		Type:     HOSApproaching,
		Priority: High,
		Data:     HOSApproachingData{Feasibility: f},
		Action:   ActionPlanRest,
		Reason: fmt.Sprintf("remaining route needs %.2fh drive / %.2fh duty, %.2fh / %.2fh available (%s short by %.2fh)",
			f.DriveNeeded, f.DutyNeeded, f.DriveAvailable, f.DutyAvailable, f.LimitingRule, f.ShortfallHours),
	}
}

// DetectHOSViolation fires on any drive, duty or break rule already broken.
func DetectHOSViolation(s model.DutyCycleState) *Trigger {
	v := hos.Evaluate(s).Violations()
	if len(v) == 0 {
		return nil
	}
	msgs := make([]string, len(v))
	for i, r := range v {
		msgs[i] = r.Message
	}
	return &Trigger{
		Type:     HOSViolation,
		Priority: Critical,
		Data:     HOSViolationData{ViolationType: v[0].Rule, Violations: v},
		Action:   ActionMandatoryRestNow,
		Reason:   "hours of service violation: " + strings.Join(msgs, "; "),
	}
}

// Detector runs the detectors that need reference data.
type Detector struct {
	finder *stops.Finder
}

func NewDetector(cat stops.Catalog) *Detector {
	return &Detector{finder: stops.NewFinder(cat)}
}

// DetectRestRequest always fires; a driver asking to rest is honored. The
// nearest rest area within 25 miles is attached when there is one.
func (d *Detector) DetectRestRequest(at geo.Point, reason string) *Trigger {
	data := RestRequestData{Location: at, Reason: reason}
	var msg string
	if m, ok := d.finder.NearestRest(at, stops.NearbyRestRadiusMiles); ok {
		data.NearestRest = &m
		msg = fmt.Sprintf("driver requested rest; %s is %.1f mi away", m.Area.Name, m.DistanceMiles)
	} else {
		msg = fmt.Sprintf("driver requested rest; no rest area within %.0f mi", stops.NearbyRestRadiusMiles)
	}
	return &Trigger{Type: RestRequest, Priority: High, Data: data, Action: ActionInsertRest, Reason: msg}
}
