// Package replan classifies disruption events and decides whether they
// warrant a full route replan or only an ETA update.
package replan

import (
	"fmt"
	"strings"

	"haulplan/internal/metrics"
	"haulplan/internal/model"
)

type Priority string

const (
	Critical Priority = "CRITICAL"
	High     Priority = "HIGH"
	Medium   Priority = "MEDIUM"
	Low      Priority = "LOW"
)

// HighImpactThresholdHours is the impact a HIGH event must exceed to
// force a replan.
const HighImpactThresholdHours = 1.0

// ParsePriority accepts any letter case.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case Critical, High, Medium, Low:
		return p, nil
	}
	return "", fmt.Errorf("invalid priority: %q (allowed: CRITICAL,HIGH,MEDIUM,LOW)", s)
}

// ShouldReplan decides from the event priority alone, using impactHours
// only for HIGH events. It never fails; an unrecognized priority does not
// replan.
func ShouldReplan(p Priority, impactHours float64) model.ReplanDecision {
	var d model.ReplanDecision
	switch p {
	case Critical:
		d = model.ReplanDecision{ReplanTriggered: true, Reason: "critical event: safety or compliance requires an immediate replan"}
	case High:
		if impactHours > HighImpactThresholdHours {
			d = model.ReplanDecision{ReplanTriggered: true,
				Reason: fmt.Sprintf("high priority event with %.2fh impact exceeds the %.0fh threshold: full replan", impactHours, HighImpactThresholdHours)}
		} else {
			d = model.ReplanDecision{Reason: fmt.Sprintf("high priority event with %.2fh impact is within the %.0fh threshold: ETA update only", impactHours, HighImpactThresholdHours)}
		}
	case Medium, Low:
		d = model.ReplanDecision{Reason: fmt.Sprintf("%s priority event: ETA update only", strings.ToLower(string(p)))}
	default:
		d = model.ReplanDecision{Reason: fmt.Sprintf("unrecognized priority %q: no replan", p)}
	}
	metrics.ReplanDecisions.WithLabelValues(string(p), metrics.Bool(d.ReplanTriggered)).Inc()
	return d
}

// Decide applies ShouldReplan to a detector's trigger. A nil trigger means
// no threshold was crossed.
func Decide(t *Trigger) model.ReplanDecision {
	if t == nil {
		return model.ReplanDecision{Reason: "no replan trigger"}
	}
	d := ShouldReplan(t.Priority, t.Data.ImpactHours())
	d.Reason = t.Reason + "; " + d.Reason
	return d
}
