package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"haulplan/internal/hos"
	"haulplan/internal/model"
	"haulplan/internal/rest"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(append([]string{"haulplan"}, args...))
	return buf.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const planYAML = `
driver_state:
  hours_driven: 0
  on_duty_time: 0
  hours_since_break: 0
vehicle_state:
  capacity_gallons: 200
  current_gallons: 200
  miles_per_gallon: 6.5
stops:
  - id: dallas
    lat: 32.7767
    lon: -96.7970
    is_origin: true
  - id: waco
    lat: 31.5493
    lon: -97.1467
    planned_dock_hours: 1.5
  - id: austin
    lat: 30.2672
    lon: -97.7431
    is_destination: true
`

func TestPlanCommandYAMLInput(t *testing.T) {
	out, err := run(t, "plan", "--input", writeFile(t, "req.yaml", planYAML))
	if err != nil {
		t.Fatalf("plan: %v\n%s", err, out)
	}
	var res model.RoutePlanResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if !res.IsFeasible || strings.Join(res.OptimizedSequence, ",") != "dallas,waco,austin" {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Segments) != 3 {
		t.Fatalf("segments = %d", len(res.Segments))
	}
}

func TestPlanCommandSummaryYAMLOutput(t *testing.T) {
	out, err := run(t, "plan", "--input", writeFile(t, "req.yaml", planYAML), "--view", "summary", "--format", "yaml")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if !strings.Contains(out, "optimized_sequence:") || strings.Contains(out, "segments:") {
		t.Fatalf("yaml summary output:\n%s", out)
	}
}

func TestPlanCommandBatch(t *testing.T) {
	var req model.PlanRouteInput
	in := writeFile(t, "req.yaml", planYAML)
	if err := readInto(in, &req); err != nil {
		t.Fatal(err)
	}
	bad := req
	bad.Stops = bad.Stops[:1]
	b, _ := json.Marshal([]model.PlanRouteInput{req, bad})
	out, err := run(t, "plan", "--input", writeFile(t, "batch.json", string(b)))
	if err == nil {
		t.Fatal("expected error for the invalid request")
	}
	var items []batchItem
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(items) != 2 || items[0].Result == nil || items[1].Error == "" {
		t.Fatalf("items = %+v", items)
	}
}

func TestPlanCommandValidationError(t *testing.T) {
	_, err := run(t, "plan", "--input", writeFile(t, "req.json", `{"stops":[{"id":"a","lat":1,"lon":1}]}`))
	if err == nil || !strings.Contains(err.Error(), "at least 2 stops") {
		t.Fatalf("err = %v", err)
	}
}

func TestReplanCommand(t *testing.T) {
	out, err := run(t, "replan", "--priority", "high", "--impact", "1.5")
	if err != nil {
		t.Fatal(err)
	}
	var d model.ReplanDecision
	if err := json.Unmarshal([]byte(out), &d); err != nil || !d.ReplanTriggered {
		t.Fatalf("decision = %+v (%v)", d, err)
	}
	if _, err := run(t, "replan", "--priority", "soon"); err == nil {
		t.Fatal("expected invalid priority error")
	}
}

func TestDetectCommand(t *testing.T) {
	ev := writeFile(t, "ev.yaml", "type: hos_violation\ndriver_state:\n  hours_driven: 11.5\n  on_duty_time: 12\n  hours_since_break: 3\n")
	out, err := run(t, "detect", "--event", ev)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"priority": "CRITICAL"`) || !strings.Contains(out, `"replan_triggered": true`) {
		t.Fatalf("output:\n%s", out)
	}

	quiet := writeFile(t, "ev.json", `{"type":"traffic_delay","delay_minutes":5}`)
	out, err = run(t, "detect", "--event", quiet)
	if err != nil || strings.TrimSpace(out) != "null" {
		t.Fatalf("quiet event = %q, %v", out, err)
	}
}

func TestDetectCommandExportsMetricsWithoutTrigger(t *testing.T) {
	out := filepath.Join(t.TempDir(), "haulplan.prom")
	t.Setenv("HAULPLAN_METRICS_OUT", out)
	quiet := writeFile(t, "ev.json", `{"type":"traffic_delay","delay_minutes":5}`)
	if _, err := run(t, "detect", "--event", quiet); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(b), "haulplan_") {
		t.Fatalf("metrics textfile:\n%s", b)
	}
}

func TestHOSCommand(t *testing.T) {
	out, err := run(t, "hos", "--hours-driven", "11", "--on-duty", "14.01", "--since-break", "8")
	if err != nil {
		t.Fatal(err)
	}
	var r hos.Report
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatal(err)
	}
	if r.IsCompliant || !r.Driving.Compliant || r.OnDuty.Compliant || !r.Break.Compliant {
		t.Fatalf("report = %+v", r)
	}
}

func TestRestCommand(t *testing.T) {
	in := writeFile(t, "rest.json", `{"driver_state":{"hours_driven":10,"on_duty_time":12,"hours_since_break":5},"dock_hours":3,"remaining_legs":[{"drive_hours":3}]}`)
	out, err := run(t, "rest", "--input", in)
	if err != nil {
		t.Fatal(err)
	}
	var rec rest.Recommendation
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.Type != rest.FullRest || !rec.ExtendDock {
		t.Fatalf("recommendation = %+v", rec)
	}
}

func TestWriteOutputFormats(t *testing.T) {
	v := model.ReplanDecision{ReplanTriggered: true, Reason: "x"}
	var buf bytes.Buffer
	if err := writeOutput(&buf, "pretty", v); err != nil || !strings.Contains(buf.String(), "ReplanTriggered") {
		t.Fatalf("pretty = %q, %v", buf.String(), err)
	}
	buf.Reset()
	if err := writeOutput(&buf, "yaml", v); err != nil || !strings.Contains(buf.String(), "replan_triggered: true") {
		t.Fatalf("yaml = %q, %v", buf.String(), err)
	}
	if err := writeOutput(&buf, "xml", v); err == nil {
		t.Fatal("expected unknown format error")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.HasPrefix(out, "haulplan ") {
		t.Fatalf("version = %q, %v", out, err)
	}
}
