package replan

import (
	"math"

	"haulplan/internal/geo"
	"haulplan/internal/hos"
	"haulplan/internal/rest"
	"haulplan/internal/stops"
)

type TriggerType string

const (
	TrafficDelay     TriggerType = "traffic_delay"
	DockTimeVariance TriggerType = "dock_time_variance"
	LoadAdded        TriggerType = "load_added"
	LoadCancelled    TriggerType = "load_cancelled"
	RestRequest      TriggerType = "driver_rest_request"
	HOSApproaching   TriggerType = "hos_approaching_limit"
	HOSViolation     TriggerType = "hos_violation"
)

type Action string

const (
	ActionUpdateETA        Action = "update_eta"
	ActionReplan           Action = "replan_route"
	ActionInsertRest       Action = "insert_rest_stop"
	ActionPlanRest         Action = "plan_rest_before_limit"
	ActionMandatoryRestNow Action = "mandatory_immediate_rest"
)

// Trigger is a classified event. Data holds the payload for Type and is
// one of the *Data variants below.
type Trigger struct {
	Type     TriggerType `json:"trigger_type"`
	Priority Priority    `json:"priority"`
	Data     TriggerData `json:"trigger_data"`
	Action   Action      `json:"action"`
	Reason   string      `json:"reason"`
}

// TriggerData is implemented only by the payload types in this package.
type TriggerData interface {
	// ImpactHours estimates the schedule impact fed to ShouldReplan.
	ImpactHours() float64
	triggerData()
}

type TrafficDelayData struct {
	DelayMinutes float64    `json:"delay_minutes"`
	Location     *geo.Point `json:"location,omitempty"`
}

func (d TrafficDelayData) ImpactHours() float64 { return d.DelayMinutes / 60 }

type DockVarianceData struct {
	StopID        string  `json:"stop_id"`
	PlannedHours  float64 `json:"planned_hours"`
	ActualHours   float64 `json:"actual_hours"`
	VarianceHours float64 `json:"variance_hours"`
}

func (d DockVarianceData) ImpactHours() float64 { return math.Abs(d.VarianceHours) }

type LoadChangeData struct {
	StopID      string  `json:"stop_id"`
	DockHours   float64 `json:"dock_hours,omitempty"`
	DetourMiles float64 `json:"detour_miles,omitempty"`
}

// ImpactHours is the dock work gained or lost plus the detour drive.
func (d LoadChangeData) ImpactHours() float64 {
	return d.DockHours + geo.DriveTime(d.DetourMiles, "")
}

type RestRequestData struct {
	Location    geo.Point        `json:"location"`
	Reason      string           `json:"reason,omitempty"`
	NearestRest *stops.RestMatch `json:"nearest_rest,omitempty"`
}

func (d RestRequestData) ImpactHours() float64 { return hos.FullRestHours }

type HOSApproachingData struct {
	Feasibility rest.Feasibility `json:"feasibility"`
}

// ImpactHours is a full reset; the remaining route cannot be finished without one.
func (d HOSApproachingData) ImpactHours() float64 { return hos.FullRestHours }

type HOSViolationData struct {
	ViolationType hos.Rule         `json:"violation_type"`
	Violations    []hos.RuleResult `json:"violations"`
}

func (d HOSViolationData) ImpactHours() float64 { return hos.FullRestHours }

func (TrafficDelayData) triggerData()   {}
func (DockVarianceData) triggerData()   {}
func (LoadChangeData) triggerData()     {}
func (RestRequestData) triggerData()    {}
func (HOSApproachingData) triggerData() {}
func (HOSViolationData) triggerData()   {}
