// Package hos evaluates a driver's duty-cycle snapshot against the
// Hours-of-Service driving limits. Evaluation is pure and never fails.
package hos

import (
	"fmt"

	"haulplan/internal/model"
)

// Regulatory ceilings, in hours.
const (
	MaxDrivingHours      = 11.0
	MaxOnDutyHours       = 14.0
	MaxHoursWithoutBreak = 8.0
	BreakHours           = 0.5
	FullRestHours        = 10.0
)

type Rule string

const (
	RuleDriving Rule = "drive_limit"
	RuleOnDuty  Rule = "duty_limit"
	RuleBreak   Rule = "break_required"
)

// RuleResult is the outcome of one rule.
type RuleResult struct {
	Rule      Rule    `json:"rule"`
	Compliant bool    `json:"compliant"`
	Actual    float64 `json:"actual_hours"`
	Limit     float64 `json:"limit_hours"`
	Message   string  `json:"message"`
}

// Report is the full evaluation of a DutyCycleState.
type Report struct {
	Driving          RuleResult `json:"driving"`
	OnDuty           RuleResult `json:"on_duty"`
	Break            RuleResult `json:"break"`
	IsCompliant      bool       `json:"is_compliant"`
	DrivingRemaining float64    `json:"hours_remaining_driving"`
	OnDutyRemaining  float64    `json:"hours_remaining_on_duty"`
	BreakRemaining   float64    `json:"hours_until_break_required"`
}

// Violations lists the rules that failed, in rule order.
func (r Report) Violations() []RuleResult {
	out := []RuleResult{}
	for _, rr := range []RuleResult{r.Driving, r.OnDuty, r.Break} {
		if !rr.Compliant {
			out = append(out, rr)
		}
	}
	return out
}

// Evaluate checks s against the three ceilings. A value exactly at a
// ceiling is compliant.
func Evaluate(s model.DutyCycleState) Report {
	drive := RuleResult{Rule: RuleDriving, Actual: s.HoursDriven, Limit: MaxDrivingHours, Compliant: s.HoursDriven <= MaxDrivingHours}
	if drive.Compliant {
		drive.Message = fmt.Sprintf("%.2fh driven, %.2fh of driving remaining", s.HoursDriven, MaxDrivingHours-s.HoursDriven)
	} else {
		drive.Message = fmt.Sprintf("driving limit exceeded: %.2fh driven, limit %.0fh", s.HoursDriven, MaxDrivingHours)
	}

	duty := RuleResult{Rule: RuleOnDuty, Actual: s.OnDutyTime, Limit: MaxOnDutyHours, Compliant: s.OnDutyTime <= MaxOnDutyHours}
	if duty.Compliant {
		duty.Message = fmt.Sprintf("%.2fh on duty, %.2fh of on-duty window remaining", s.OnDutyTime, MaxOnDutyHours-s.OnDutyTime)
	} else {
		duty.Message = fmt.Sprintf("on-duty limit exceeded: %.2fh on duty, limit %.0fh", s.OnDutyTime, MaxOnDutyHours)
	}

	brk := RuleResult{Rule: RuleBreak, Actual: s.HoursSinceBreak, Limit: MaxHoursWithoutBreak, Compliant: s.HoursSinceBreak <= MaxHoursWithoutBreak}
	if brk.Compliant {
		brk.Message = fmt.Sprintf("%.2fh since last break", s.HoursSinceBreak)
	} else {
		brk.Message = fmt.Sprintf("30-minute break required: %.2fh driven since last break, limit %.0fh", s.HoursSinceBreak, MaxHoursWithoutBreak)
	}

	return Report{
		Driving:          drive,
		OnDuty:           duty,
		Break:            brk,
		IsCompliant:      drive.Compliant && duty.Compliant && brk.Compliant,
		DrivingRemaining: MaxDrivingHours - s.HoursDriven,
		OnDutyRemaining:  MaxOnDutyHours - s.OnDutyTime,
		BreakRemaining:   MaxHoursWithoutBreak - s.HoursSinceBreak,
	}
}

// Utilization is the larger of the driving and on-duty ceiling fractions used.
func Utilization(s model.DutyCycleState) float64 {
	d := s.HoursDriven / MaxDrivingHours
	o := s.OnDutyTime / MaxOnDutyHours
	if o > d {
		return o
	}
	return d
}
