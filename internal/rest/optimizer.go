// Package rest decides whether a driver should extend a dock or layover
// into a break, a sleeper-berth split, or a full reset.
package rest

import (
	"fmt"
	"math"

	"haulplan/internal/hos"
	"haulplan/internal/model"
)

// Policy constants. These reproduce the dispatch policy exactly.
const (
	ThinMarginHours     = 2.0
	SplitRestHours      = 7.0
	LongSplitRestHours  = 8.0
	MaxFullRestCost     = 5.0
	MaxPartialRestCost  = 3.0
	FullRestOpportunity = 50.0
	SplitOpportunity    = 40.0
	OptionalOpportunity = 60.0
	ExtendDockMinHours  = 2.0
)

type Type string

const (
	NoRest   Type = "no_rest"
	Break    Type = "break"
	Split    Type = "split_sleeper"
	FullRest Type = "full_rest"
)

// Leg is one upcoming drive followed by its dock time.
type Leg struct {
	DriveHours float64 `json:"drive_hours"`
	DockHours  float64 `json:"dock_hours"`
}

// Feasibility compares the hours the upcoming legs need with what the
// driver has left.
type Feasibility struct {
	Feasible       bool     `json:"feasible"`
	DriveNeeded    float64  `json:"drive_needed"`
	DutyNeeded     float64  `json:"duty_needed"`
	DriveAvailable float64  `json:"drive_available"`
	DutyAvailable  float64  `json:"duty_available"`
	DriveMargin    float64  `json:"drive_margin"`
	DutyMargin     float64  `json:"duty_margin"`
	BreakIncluded  bool     `json:"break_included"`
	ShortfallHours float64  `json:"shortfall_hours"`
	LimitingRule   hos.Rule `json:"limiting_rule,omitempty"`
}

// Cost is the rest time needed beyond the dock time already available.
type Cost struct {
	FullRestHours    float64 `json:"full_rest_hours"`
	PartialRestHours float64 `json:"partial_rest_hours"`
}

type Recommendation struct {
	Type             Type        `json:"rest_type"`
	DurationHours    float64     `json:"duration_hours"`
	ExtensionHours   float64     `json:"extension_hours"`
	Confidence       int         `json:"confidence"`
	Optional         bool        `json:"optional,omitempty"`
	TightMargins     bool        `json:"tight_margins,omitempty"`
	ExtendDock       bool        `json:"extend_dock,omitempty"`
	Reason           string      `json:"reason"`
	OpportunityScore float64     `json:"opportunity_score"`
	Feasibility      Feasibility `json:"feasibility"`
	Cost             Cost        `json:"cost"`
}

// Advice converts the recommendation into the dock segment annotation.
func (r Recommendation) Advice() *model.RestAdvice {
	return &model.RestAdvice{
		RestType:         string(r.Type),
		DurationHours:    r.DurationHours,
		ExtensionHours:   r.ExtensionHours,
		Confidence:       r.Confidence,
		OpportunityScore: r.OpportunityScore,
		Optional:         r.Optional,
		TightMargins:     r.TightMargins,
		Reason:           r.Reason,
	}
}

// AssessFeasibility sums drive and duty across legs, adding a 30 minute
// break when the legs would carry the driver past 8 hours without one.
func AssessFeasibility(s model.DutyCycleState, legs []Leg) Feasibility {
	f := Feasibility{
		DriveAvailable: hos.MaxDrivingHours - s.HoursDriven,
		DutyAvailable:  hos.MaxOnDutyHours - s.OnDutyTime,
	}
	for _, l := range legs {
		f.DriveNeeded += l.DriveHours
		f.DutyNeeded += l.DriveHours + l.DockHours
	}
	if s.HoursSinceBreak+f.DriveNeeded > hos.MaxHoursWithoutBreak {
		f.DutyNeeded += hos.BreakHours
		f.BreakIncluded = true
	}
	f.DriveMargin = f.DriveAvailable - f.DriveNeeded
	f.DutyMargin = f.DutyAvailable - f.DutyNeeded

	driveShort := -f.DriveMargin
	dutyShort := -f.DutyMargin
	switch {
	case driveShort > 0 && driveShort >= dutyShort:
		f.ShortfallHours = driveShort
		f.LimitingRule = hos.RuleDriving
	case dutyShort > 0:
		f.ShortfallHours = dutyShort
		f.LimitingRule = hos.RuleOnDuty
	}
	f.Feasible = f.ShortfallHours == 0
	return f
}

// ScoreOpportunity rates 0..100 how much a rest at the current dock helps.
func ScoreOpportunity(s model.DutyCycleState, dockHours float64) float64 {
	score := 0.0

	switch {
	case dockHours >= hos.FullRestHours:
		score += 30
	case dockHours >= LongSplitRestHours:
		score += 20
	case dockHours >= ExtendDockMinHours:
		score += 10
	}

	// hours regained by a reset
	gain := math.Max(0, math.Min(s.HoursDriven, hos.MaxDrivingHours))
	score += 30 * gain / hos.MaxDrivingHours

	u := hos.Utilization(s)
	switch {
	case u >= 0.90:
		score += 40
	case u >= 0.75:
		score += 30
	case u >= 0.50:
		score += 15
	default:
		score += 5
	}
	return math.Min(100, score)
}

// RestCost is the rest time beyond dockHours for a full 10h reset and a 7h split.
func RestCost(dockHours float64) Cost {
	return Cost{
		FullRestHours:    math.Max(0, hos.FullRestHours-dockHours),
		PartialRestHours: math.Max(0, SplitRestHours-dockHours),
	}
}

// RecommendForLeg is Recommend with a single drive leg after the dock.
func RecommendForLeg(s model.DutyCycleState, dockHours, nextDriveHours float64) Recommendation {
	return Recommend(s, dockHours, []Leg{{DriveHours: nextDriveHours}})
}

// Recommend applies the rest policy. The first matching rule wins:
// infeasible trip, overdue break, thin margin, comfortable margin.
func Recommend(s model.DutyCycleState, dockHours float64, legs []Leg) Recommendation {
	f := AssessFeasibility(s, legs)
	opp := ScoreOpportunity(s, dockHours)
	cost := RestCost(dockHours)
	rec := Recommendation{Feasibility: f, OpportunityScore: opp, Cost: cost}

	if !f.Feasible {
		rec.Type = FullRest
		rec.DurationHours = hos.FullRestHours
		rec.ExtensionHours = cost.FullRestHours
		rec.Confidence = 100
		if dockHours >= ExtendDockMinHours {
			rec.ExtendDock = true
			rec.Reason = fmt.Sprintf("remaining route exceeds %s by %.2fh; extend dock time by %.2fh to a full %.0fh rest",
				f.LimitingRule, f.ShortfallHours, cost.FullRestHours, hos.FullRestHours)
		} else {
			rec.Reason = fmt.Sprintf("remaining route exceeds %s by %.2fh; full %.0fh rest required",
				f.LimitingRule, f.ShortfallHours, hos.FullRestHours)
		}
		return rec
	}

	if s.HoursSinceBreak >= hos.MaxHoursWithoutBreak {
		rec.Type = Break
		rec.DurationHours = hos.BreakHours
		rec.ExtensionHours = math.Max(0, hos.BreakHours-dockHours)
		rec.Confidence = 100
		rec.Reason = fmt.Sprintf("%.2fh driven since last break; mandatory 30-minute break", s.HoursSinceBreak)
		return rec
	}

	if f.DriveMargin < ThinMarginHours || f.DutyMargin < ThinMarginHours {
		switch {
		case opp >= FullRestOpportunity && cost.FullRestHours <= MaxFullRestCost:
			rec.Type = FullRest
			rec.DurationHours = hos.FullRestHours
			rec.ExtensionHours = cost.FullRestHours
			rec.Confidence = 75
			rec.Reason = fmt.Sprintf("thin margin (drive %.2fh, duty %.2fh); full rest costs only %.2fh extra",
				f.DriveMargin, f.DutyMargin, cost.FullRestHours)
		case opp >= SplitOpportunity && cost.PartialRestHours <= MaxPartialRestCost:
			rec.Type = Split
			rec.DurationHours = SplitRestHours
			if dockHours >= LongSplitRestHours {
				rec.DurationHours = LongSplitRestHours
			}
			rec.ExtensionHours = math.Max(0, rec.DurationHours-dockHours)
			rec.Confidence = 65
			rec.Reason = fmt.Sprintf("thin margin (drive %.2fh, duty %.2fh); take a %.0fh sleeper-berth split",
				f.DriveMargin, f.DutyMargin, rec.DurationHours)
		default:
			rec.Type = NoRest
			rec.TightMargins = true
			rec.Confidence = 60
			rec.Reason = fmt.Sprintf("route feasible with tight margins (drive %.2fh, duty %.2fh); monitor closely",
				f.DriveMargin, f.DutyMargin)
		}
		return rec
	}

	if opp >= OptionalOpportunity && cost.FullRestHours <= MaxFullRestCost {
		rec.Type = FullRest
		rec.DurationHours = hos.FullRestHours
		rec.ExtensionHours = cost.FullRestHours
		rec.Confidence = 55
		rec.Optional = true
		rec.Reason = fmt.Sprintf("optional: dock time covers most of a reset, %.2fh extra restores full hours", cost.FullRestHours)
		return rec
	}

	rec.Type = NoRest
	rec.Confidence = 80
	rec.Reason = fmt.Sprintf("comfortable margin (drive %.2fh, duty %.2fh); no rest needed", f.DriveMargin, f.DutyMargin)
	return rec
}
