package planner

import (
	"math"
	"time"

	"haulplan/internal/hos"
	"haulplan/internal/model"
)

const (
	// FuelStopHours is the on-duty time charged for a refuel.
	FuelStopHours = 0.25
	// FuelReserveFactor scales an edge's fuel need into the reserve the
	// tank must still hold on arrival.
	FuelReserveFactor = 1.2
)

// SimulatorState is the driver, tank and clock at one point of the walk.
// Transitions return a new value; segments keep the snapshot they were
// built from.
type SimulatorState struct {
	Duty  model.DutyCycleState
	Fuel  model.VehicleFuelState
	Clock time.Time
}

// AfterDrive advances all duty counters and the clock by hours and burns
// the fuel for miles.
func (s SimulatorState) AfterDrive(hours, miles float64) SimulatorState {
	s.Duty.HoursDriven += hours
	s.Duty.OnDutyTime += hours
	s.Duty.HoursSinceBreak += hours
	s.Fuel.CurrentGallons = math.Max(0, s.Fuel.CurrentGallons-s.Fuel.GallonsFor(miles))
	s.Clock = s.Clock.Add(hoursToDuration(hours))
	return s
}

// AfterRest is a full reset: duty counters zeroed, clock +10h.
func (s SimulatorState) AfterRest() SimulatorState {
	s.Duty = model.DutyCycleState{}
	s.Clock = s.Clock.Add(hoursToDuration(hos.FullRestHours))
	return s
}

// AfterRefuel fills the tank and returns the gallons bought.
func (s SimulatorState) AfterRefuel() (SimulatorState, float64) {
	gallons := math.Max(0, s.Fuel.CapacityGallons-s.Fuel.CurrentGallons)
	s.Fuel.CurrentGallons = s.Fuel.CapacityGallons
	s.Duty.OnDutyTime += FuelStopHours
	s.Clock = s.Clock.Add(hoursToDuration(FuelStopHours))
	return s, gallons
}

// AfterDock adds on-duty (not driving) time.
func (s SimulatorState) AfterDock(hours float64) SimulatorState {
	s.Duty.OnDutyTime += hours
	s.Clock = s.Clock.Add(hoursToDuration(hours))
	return s
}

// NeedsRest reports whether driving hours more would end past the 11h
// drive or 14h on-duty ceiling.
func (s SimulatorState) NeedsRest(hours float64) bool {
	return s.Duty.HoursDriven+hours > hos.MaxDrivingHours || s.Duty.OnDutyTime+hours > hos.MaxOnDutyHours
}

// DriveHeadroom is how long the driver may still drive before a rest.
func (s SimulatorState) DriveHeadroom() float64 {
	h := math.Min(hos.MaxDrivingHours-s.Duty.HoursDriven, hos.MaxOnDutyHours-s.Duty.OnDutyTime)
	return math.Max(0, h)
}

// Rested is true when the drive and duty windows are both untouched and
// another rest gains nothing. Hours since break do not count; a reset does
// not buy more than a break would.
func (s SimulatorState) Rested() bool {
	return s.Duty.HoursDriven == 0 && s.Duty.OnDutyTime == 0
}

// NeedsFuel reports whether the fuel left after driving miles would fall
// under FuelReserveFactor times the fuel those miles burn.
func (s SimulatorState) NeedsFuel(miles float64) bool {
	need := s.Fuel.GallonsFor(miles)
	return s.Fuel.CurrentGallons-need < FuelReserveFactor*need
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
