package model

import (
	"time"

	"haulplan/internal/geo"
)

// Core data contracts exchanged with the persistence and transport layers.

// DutyCycleState is a driver's accumulated hours in the current regulatory window.
type DutyCycleState struct {
	HoursDriven     float64 `json:"hours_driven"`
	OnDutyTime      float64 `json:"on_duty_time"`
	HoursSinceBreak float64 `json:"hours_since_break"`
}

// VehicleFuelState is the tank state of a truck.
type VehicleFuelState struct {
	CapacityGallons float64 `json:"capacity_gallons"`
	CurrentGallons  float64 `json:"current_gallons"`
	MilesPerGallon  float64 `json:"miles_per_gallon"`
}

// RangeMiles is the distance coverable with the current fuel.
func (v VehicleFuelState) RangeMiles() float64 { return v.CurrentGallons * v.MilesPerGallon }

// GallonsFor returns the fuel burned over miles.
func (v VehicleFuelState) GallonsFor(miles float64) float64 {
	if v.MilesPerGallon <= 0 {
		return 0
	}
	return miles / v.MilesPerGallon
}

type Stop struct {
	ID               string        `json:"id"`
	Name             string        `json:"name,omitempty"`
	Lat              float64       `json:"lat"`
	Lon              float64       `json:"lon"`
	IsOrigin         bool          `json:"is_origin,omitempty"`
	IsDestination    bool          `json:"is_destination,omitempty"`
	PlannedDockHours float64       `json:"planned_dock_hours,omitempty"`
	RoadClass        geo.RoadClass `json:"road_class,omitempty"` // class of the edge arriving here
}

func (s Stop) Point() geo.Point { return geo.Point{Lat: s.Lat, Lon: s.Lon} }

// OptimizationPriority is accepted and echoed but does not change sequencing today.
type OptimizationPriority string

const (
	MinimizeTime OptimizationPriority = "minimize_time"
	MinimizeCost OptimizationPriority = "minimize_cost"
	Balance      OptimizationPriority = "balance"
)

// PlanRouteInput is the request shape of PlanRoute.
type PlanRouteInput struct {
	DriverState          DutyCycleState       `json:"driver_state"`
	VehicleState         VehicleFuelState     `json:"vehicle_state"`
	Stops                []Stop               `json:"stops"`
	OptimizationPriority OptimizationPriority `json:"optimization_priority,omitempty"`
}

type SegmentType string

const (
	SegmentDrive SegmentType = "drive"
	SegmentDock  SegmentType = "dock"
	SegmentRest  SegmentType = "rest"
	SegmentFuel  SegmentType = "fuel"
)

// Location is a segment endpoint. StopID is empty for synthetic points
// (rest areas, fuel stations, mid-leg split points).
type Location struct {
	StopID string  `json:"stop_id,omitempty"`
	Name   string  `json:"name,omitempty"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

func (l Location) Point() geo.Point { return geo.Point{Lat: l.Lat, Lon: l.Lon} }

// RestAdvice is the dock-time recommendation attached to dock segments.
type RestAdvice struct {
	RestType         string  `json:"rest_type"`
	DurationHours    float64 `json:"duration_hours"`
	ExtensionHours   float64 `json:"extension_hours"`
	Confidence       int     `json:"confidence"`
	OpportunityScore float64 `json:"opportunity_score"`
	Optional         bool    `json:"optional,omitempty"`
	TightMargins     bool    `json:"tight_margins,omitempty"`
	Reason           string  `json:"reason"`
}

// Segment is one planned unit of a route. Segments are never mutated after
// the simulator appends them.
type Segment struct {
	Sequence           int            `json:"sequence"`
	Type               SegmentType    `json:"segment_type"`
	From               *Location      `json:"from,omitempty"`
	To                 *Location      `json:"to,omitempty"`
	DistanceMiles      float64        `json:"distance_miles,omitempty"`
	DriveTimeHours     float64        `json:"drive_time_hours,omitempty"`
	RestType           string         `json:"rest_type,omitempty"`
	RestDurationHours  float64        `json:"rest_duration_hours,omitempty"`
	RestReason         string         `json:"rest_reason,omitempty"`
	FuelGallons        float64        `json:"fuel_gallons,omitempty"`
	FuelCost           float64        `json:"fuel_cost,omitempty"`
	FuelStation        string         `json:"fuel_station,omitempty"`
	DockDurationHours  float64        `json:"dock_duration_hours,omitempty"`
	RestAdvice         *RestAdvice    `json:"rest_advice,omitempty"`
	StateAfter         DutyCycleState `json:"hos_state_after"`
	FuelAfter          float64        `json:"fuel_gallons_after"`
	EstimatedArrival   time.Time      `json:"estimated_arrival"`
	EstimatedDeparture time.Time      `json:"estimated_departure"`
}

// InsertedStop records a rest or fuel stop the simulator added to the route.
type InsertedStop struct {
	Sequence int     `json:"sequence"`
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Reason   string  `json:"reason,omitempty"`
}

// ComplianceReport closes every plan.
type ComplianceReport struct {
	MaxDriveHoursUsed   float64  `json:"max_drive_hours_used"`
	MaxOnDutyHoursUsed  float64  `json:"max_on_duty_hours_used"`
	BreaksImplied       int      `json:"breaks_implied"`
	RestStopsPlanned    int      `json:"rest_stops_planned"`
	FinalStateCompliant bool     `json:"final_state_compliant"`
	Issues              []string `json:"issues"`
}

type RoutePlanResult struct {
	PlanID               string               `json:"plan_id"`
	PlannedAt            time.Time            `json:"planned_at"`
	OptimizationPriority OptimizationPriority `json:"optimization_priority"`
	OptimizedSequence    []string             `json:"optimized_sequence"`
	Segments             []Segment            `json:"segments,omitempty"`
	TotalDistanceMiles   float64              `json:"total_distance_miles"`
	TotalDriveTimeHours  float64              `json:"total_drive_time_hours"`
	TotalOnDutyHours     float64              `json:"total_on_duty_hours"`
	TotalCost            float64              `json:"total_cost"`
	RestStops            []InsertedStop       `json:"rest_stops"`
	FuelStops            []InsertedStop       `json:"fuel_stops"`
	IsFeasible           bool                 `json:"is_feasible"`
	FeasibilityIssues    []string             `json:"feasibility_issues"`
	Compliance           ComplianceReport     `json:"compliance_report"`
}

// Summary returns a copy without the segment list.
func (r RoutePlanResult) Summary() RoutePlanResult {
	r.Segments = nil
	return r
}

// ReplanDecision is returned per disruption event.
type ReplanDecision struct {
	ReplanTriggered bool   `json:"replan_triggered"`
	Reason          string `json:"reason"`
}
