package replan

import (
	"errors"
	"fmt"

	"haulplan/internal/geo"
	"haulplan/internal/model"
	"haulplan/internal/rest"
)

// Event is the wire form of a disruption report, as fed to the CLI.
// Fields are read according to Type.
type Event struct {
	Type TriggerType `json:"type"`

	DelayMinutes float64    `json:"delay_minutes,omitempty"`
	Location     *geo.Point `json:"location,omitempty"`

	StopID           string  `json:"stop_id,omitempty"`
	PlannedDockHours float64 `json:"planned_dock_hours,omitempty"`
	ActualDockHours  float64 `json:"actual_dock_hours,omitempty"`
	DockHours        float64 `json:"dock_hours,omitempty"`
	DetourMiles      float64 `json:"detour_miles,omitempty"`

	Reason        string                `json:"reason,omitempty"`
	DriverState   *model.DutyCycleState `json:"driver_state,omitempty"`
	RemainingLegs []rest.Leg            `json:"remaining_legs,omitempty"`
}

var ErrUnknownEvent = errors.New("replan: unknown event type")

// Detect dispatches ev to the detector for its type. A nil trigger with a
// nil error means the event crossed no threshold.
func (d *Detector) Detect(ev Event) (*Trigger, error) {
	switch ev.Type {
	case TrafficDelay:
		return DetectTrafficDelay(ev.DelayMinutes, ev.Location), nil
	case DockTimeVariance:
		if ev.StopID == "" {
			return nil, fmt.Errorf("detect %s: stop_id required", ev.Type)
		}
		return DetectDockVariance(ev.StopID, ev.PlannedDockHours, ev.ActualDockHours), nil
	case LoadAdded, LoadCancelled:
		if ev.StopID == "" {
			return nil, fmt.Errorf("detect %s: stop_id required", ev.Type)
		}
		return DetectLoadChange(ev.Type, LoadChangeData{StopID: ev.StopID, DockHours: ev.DockHours, DetourMiles: ev.DetourMiles}), nil
	case RestRequest:
		if ev.Location == nil {
			return nil, fmt.Errorf("detect %s: location required", ev.Type)
		}
		return d.DetectRestRequest(*ev.Location, ev.Reason), nil
	case HOSApproaching:
		if ev.DriverState == nil {
			return nil, fmt.Errorf("detect %s: driver_state required", ev.Type)
		}
		return DetectHOSApproaching(*ev.DriverState, ev.RemainingLegs), nil
	case HOSViolation:
		if ev.DriverState == nil {
			return nil, fmt.Errorf("detect %s: driver_state required", ev.Type)
		}
		return DetectHOSViolation(*ev.DriverState), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
}
