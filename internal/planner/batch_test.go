package planner

import (
	"context"
	"errors"
	"testing"

	"haulplan/internal/model"
)

func TestPlanBatchKeepsInputOrder(t *testing.T) {
	p := newTestPlanner(corridor())
	var inputs []model.PlanRouteInput
	for i := 0; i < 12; i++ {
		in := validInput()
		in.VehicleState.CurrentGallons = 150
		in.Stops = []model.Stop{
			{ID: "A", Lat: 35, Lon: -97 + float64(i)*0.1, IsOrigin: true},
			{ID: "B", Lat: 35.5, Lon: -97, IsDestination: true},
		}
		inputs = append(inputs, in)
	}
	inputs[5].Stops = inputs[5].Stops[:1]

	out := p.PlanBatch(context.Background(), inputs, 4)
	if len(out) != len(inputs) {
		t.Fatalf("got %d results", len(out))
	}
	for i, r := range out {
		if r.Index != i {
			t.Fatalf("result %d has index %d", i, r.Index)
		}
		if i == 5 {
			var ve *ValidationError
			if !errors.As(r.Err, &ve) {
				t.Fatalf("result 5 err = %v", r.Err)
			}
			continue
		}
		if r.Err != nil || !r.Result.IsFeasible {
			t.Fatalf("result %d: err=%v feasible=%v", i, r.Err, r.Result.IsFeasible)
		}
	}
	if out[0].Result.PlanID == out[1].Result.PlanID {
		t.Fatal("plan ids must be unique")
	}
}

func TestPlanBatchCanceled(t *testing.T) {
	p := newTestPlanner(corridor())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := p.PlanBatch(ctx, []model.PlanRouteInput{validInput(), validInput()}, 0)
	for _, r := range out {
		if !errors.Is(r.Err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", r.Err)
		}
	}
}
