package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"haulplan/internal/buildinfo"
	"haulplan/internal/config"
	"haulplan/internal/events"
	"haulplan/internal/hos"
	"haulplan/internal/metrics"
	"haulplan/internal/model"
	"haulplan/internal/planner"
	"haulplan/internal/replan"
	"haulplan/internal/rest"
	"haulplan/internal/stops"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "output format: json, yaml or pretty"}
}

func catalogFlag() cli.Flag {
	return &cli.StringFlag{Name: "catalog", Usage: "fuel/rest catalog YAML (default: built-in)"}
}

func planCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Plan one route or a list of routes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "request file (JSON or YAML, - for stdin)"},
			catalogFlag(),
			formatFlag(),
			&cli.StringFlag{Name: "view", Value: "detail", Usage: "detail or summary (drops segments)"},
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			cat, err := loadCatalog(c, cfg)
			if err != nil {
				return err
			}
			doc, err := readDocument(c.String("input"))
			if err != nil {
				return err
			}
			summary := c.String("view") == "summary"
			p := planner.New(cat)
			pub, closeBroker := newPublisher(cfg)
			defer closeBroker()
			defer flushMetrics(cfg)

			if list, ok := doc.([]any); ok {
				var inputs []model.PlanRouteInput
				if err := decodeInto(list, &inputs); err != nil {
					return fmt.Errorf("decode %s: %w", c.String("input"), err)
				}
				return planBatch(c, p, pub, inputs, cfg.BatchWorkers, summary)
			}

			var in model.PlanRouteInput
			if err := decodeInto(doc, &in); err != nil {
				return fmt.Errorf("decode %s: %w", c.String("input"), err)
			}
			res, err := p.PlanRoute(in)
			if err != nil {
				return err
			}
			if err := pub.PublishPlan(c.Context, res); err != nil {
				log.Warn().Err(err).Str("plan_id", res.PlanID).Msg("event publish failed")
			}
			if summary {
				res = res.Summary()
			}
			return writeOutput(c.App.Writer, c.String("format"), res)
		},
	}
}

type batchItem struct {
	Index  int                    `json:"index"`
	Result *model.RoutePlanResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

func planBatch(c *cli.Context, p *planner.Planner, pub *events.Publisher, inputs []model.PlanRouteInput, workers int, summary bool) error {
	results := p.PlanBatch(c.Context, inputs, workers)
	out := make([]batchItem, len(results))
	failed := 0
	for i, r := range results {
		out[i].Index = r.Index
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			failed++
			continue
		}
		if err := pub.PublishPlan(c.Context, r.Result); err != nil {
			log.Warn().Err(err).Str("plan_id", r.Result.PlanID).Msg("event publish failed")
		}
		res := r.Result
		if summary {
			res = res.Summary()
		}
		out[i].Result = &res
	}
	if err := writeOutput(c.App.Writer, c.String("format"), out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(inputs))
	}
	return nil
}

func replanCommand() *cli.Command {
	return &cli.Command{
		Name:  "replan",
		Usage: "Decide whether an event of a given priority forces a replan",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Required: true, Usage: "CRITICAL, HIGH, MEDIUM or LOW"},
			&cli.Float64Flag{Name: "impact", Usage: "estimated impact in hours (HIGH events)"},
			formatFlag(),
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			p, err := replan.ParsePriority(c.String("priority"))
			if err != nil {
				return err
			}
			d := replan.ShouldReplan(p, c.Float64("impact"))
			publishDecision(c.Context, cfg, nil, d)
			flushMetrics(cfg)
			return writeOutput(c.App.Writer, c.String("format"), d)
		},
	}
}

type detectOutput struct {
	Trigger  *replan.Trigger      `json:"trigger"`
	Decision model.ReplanDecision `json:"decision"`
}

func detectCommand() *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Classify a disruption event and decide on a replan",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "event", Aliases: []string{"e"}, Required: true, Usage: "event file (JSON or YAML, - for stdin)"},
			catalogFlag(),
			formatFlag(),
		},
		Action: func(c *cli.Context) error {
			cfg := configFrom(c)
			var ev replan.Event
			if err := readInto(c.String("event"), &ev); err != nil {
				return err
			}
			cat, err := loadCatalog(c, cfg)
			if err != nil {
				return err
			}
			defer flushMetrics(cfg)
			t, err := replan.NewDetector(cat).Detect(ev)
			if err != nil {
				return err
			}
			if t == nil {
				return writeOutput(c.App.Writer, c.String("format"), nil)
			}
			d := replan.Decide(t)
			publishDecision(c.Context, cfg, t, d)
			return writeOutput(c.App.Writer, c.String("format"), detectOutput{Trigger: t, Decision: d})
		},
	}
}

func hosCommand() *cli.Command {
	return &cli.Command{
		Name:  "hos",
		Usage: "Check a duty-cycle snapshot against the HOS limits",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "hours-driven"},
			&cli.Float64Flag{Name: "on-duty"},
			&cli.Float64Flag{Name: "since-break"},
			formatFlag(),
		},
		Action: func(c *cli.Context) error {
			s := model.DutyCycleState{
				HoursDriven:     c.Float64("hours-driven"),
				OnDutyTime:      c.Float64("on-duty"),
				HoursSinceBreak: c.Float64("since-break"),
			}
			return writeOutput(c.App.Writer, c.String("format"), hos.Evaluate(s))
		},
	}
}

type restRequest struct {
	DriverState   model.DutyCycleState `json:"driver_state"`
	DockHours     float64              `json:"dock_hours"`
	RemainingLegs []rest.Leg           `json:"remaining_legs"`
}

func restCommand() *cli.Command {
	return &cli.Command{
		Name:  "rest",
		Usage: "Recommend whether to rest during a dock",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "request file (JSON or YAML, - for stdin)"},
			formatFlag(),
		},
		Action: func(c *cli.Context) error {
			var req restRequest
			if err := readInto(c.String("input"), &req); err != nil {
				return err
			}
			if req.DockHours < 0 {
				return fmt.Errorf("dock_hours must be >= 0")
			}
			return writeOutput(c.App.Writer, c.String("format"), rest.Recommend(req.DriverState, req.DockHours, req.RemainingLegs))
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Flags: []cli.Flag{&cli.BoolFlag{Name: "json"}},
		Action: func(c *cli.Context) error {
			if c.Bool("json") {
				return writeOutput(c.App.Writer, "json", buildinfo.Info())
			}
			_, err := fmt.Fprintln(c.App.Writer, buildinfo.String())
			return err
		},
	}
}

// loadCatalog prefers --catalog over the configured path.
func loadCatalog(c *cli.Context, cfg config.Config) (*stops.StaticCatalog, error) {
	path := c.String("catalog")
	if path == "" {
		path = cfg.CatalogPath
	}
	return stops.LoadCatalog(path)
}

// newPublisher returns a Redis backed publisher when configured, otherwise
// an in-process one.
func newPublisher(cfg config.Config) (*events.Publisher, func()) {
	if cfg.RedisURL != "" {
		rb, err := events.NewRedisBroker(cfg.RedisURL)
		if err == nil {
			return events.NewPublisher(rb), func() { _ = rb.Close() }
		}
		log.Warn().Err(err).Msg("redis broker unavailable, events stay in process")
	}
	mb := events.NewMemoryBroker()
	return events.NewPublisher(mb), func() { _ = mb.Close() }
}

func publishDecision(ctx context.Context, cfg config.Config, t *replan.Trigger, d model.ReplanDecision) {
	pub, closeBroker := newPublisher(cfg)
	defer closeBroker()
	if err := pub.PublishDecision(ctx, t, d); err != nil {
		log.Warn().Err(err).Msg("event publish failed")
	}
}

func flushMetrics(cfg config.Config) {
	if cfg.MetricsOut == "" {
		return
	}
	if err := metrics.WriteTextfile(cfg.MetricsOut); err != nil {
		log.Warn().Err(err).Msg("metrics export failed")
	}
}
