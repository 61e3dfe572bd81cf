package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"haulplan/internal/metrics"
	"haulplan/internal/model"
	"haulplan/internal/replan"
)

// Topics.
const (
	TopicPlans  = "plans"
	TopicReplan = "replan"
)

// Event types.
const (
	RestPlanned    = "hos.rest.planned"
	FuelPlanned    = "fuel.stop.planned"
	PlanInfeasible = "plan.infeasible"
	ReplanDecided  = "replan.decision"
)

// PlanEvents derives the alerting events for a finished plan: one per
// inserted rest or fuel stop, plus plan.infeasible when it could not be
// completed.
func PlanEvents(res model.RoutePlanResult) []Event {
	var out []Event
	for _, s := range res.Segments {
		switch s.Type {
		case model.SegmentRest:
			out = append(out, newEvent(RestPlanned, res.PlanID, map[string]any{
				"sequence": s.Sequence, "location": s.To, "restHours": s.RestDurationHours,
				"reason": s.RestReason, "etaStart": s.EstimatedArrival, "etaEnd": s.EstimatedDeparture,
			}))
		case model.SegmentFuel:
			out = append(out, newEvent(FuelPlanned, res.PlanID, map[string]any{
				"sequence": s.Sequence, "station": s.FuelStation, "gallons": s.FuelGallons,
				"cost": s.FuelCost, "etaStart": s.EstimatedArrival,
			}))
		}
	}
	if !res.IsFeasible {
		out = append(out, newEvent(PlanInfeasible, res.PlanID, map[string]any{"issues": res.FeasibilityIssues}))
	}
	return out
}

// DecisionEvent wraps a replan decision. t may be nil for a bare
// priority/impact decision.
func DecisionEvent(t *replan.Trigger, d model.ReplanDecision) Event {
	data := map[string]any{"replanTriggered": d.ReplanTriggered, "reason": d.Reason}
	if t != nil {
		data["triggerType"] = t.Type
		data["priority"] = t.Priority
		data["action"] = t.Action
	}
	return newEvent(ReplanDecided, "", data)
}

// Publisher sends events to a Broker and counts the outcomes.
type Publisher struct {
	b Broker
}

func NewPublisher(b Broker) *Publisher { return &Publisher{b: b} }

// PublishPlan sends every event of res. All events are attempted; the
// returned error joins the failures.
func (p *Publisher) PublishPlan(ctx context.Context, res model.RoutePlanResult) error {
	var errs []error
	for _, evt := range PlanEvents(res) {
		if err := p.publish(ctx, TopicPlans, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *Publisher) PublishDecision(ctx context.Context, t *replan.Trigger, d model.ReplanDecision) error {
	return p.publish(ctx, TopicReplan, DecisionEvent(t, d))
}

func (p *Publisher) publish(ctx context.Context, topic string, evt Event) error {
	err := p.b.Publish(ctx, topic, evt)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.EventsPublished.WithLabelValues(evt.Type, status).Inc()
	return err
}

func newEvent(typ, planID string, data map[string]any) Event {
	return Event{ID: uuid.NewString(), Type: typ, PlanID: planID, At: time.Now().UTC(), Data: data}
}
