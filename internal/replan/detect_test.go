package replan

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"haulplan/internal/geo"
	"haulplan/internal/hos"
	"haulplan/internal/model"
	"haulplan/internal/rest"
	"haulplan/internal/stops"
)

func TestDetectTrafficDelay(t *testing.T) {
	cases := []struct {
		minutes float64
		want    Priority
	}{
		{29.9, ""},
		{30, Medium},
		{60, Medium},
		{61, High},
	}
	for _, c := range cases {
		tr := DetectTrafficDelay(c.minutes, nil)
		if c.want == "" {
			if tr != nil {
				t.Fatalf("%v min: want no trigger, got %+v", c.minutes, tr)
			}
			continue
		}
		if tr == nil || tr.Priority != c.want || tr.Type != TrafficDelay {
			t.Fatalf("%v min: trigger = %+v", c.minutes, tr)
		}
		if _, ok := tr.Data.(TrafficDelayData); !ok {
			t.Fatalf("payload = %T", tr.Data)
		}
	}
}

func TestDetectDockVariance(t *testing.T) {
	if DetectDockVariance("s1", 2, 2.9) != nil {
		t.Fatal("0.9h variance should not trigger")
	}
	tr := DetectDockVariance("s1", 2, 3)
	if tr == nil || tr.Priority != Critical || tr.Action != ActionReplan {
		t.Fatalf("trigger = %+v", tr)
	}
	tr = DetectDockVariance("s1", 4, 2.5)
	if tr == nil || !strings.Contains(tr.Reason, "under") {
		t.Fatalf("early finish trigger = %+v", tr)
	}
	if got := tr.Data.ImpactHours(); got != 1.5 {
		t.Fatalf("impact = %v", got)
	}
	if !Decide(tr).ReplanTriggered {
		t.Fatal("critical dock variance must replan")
	}
}

func TestDetectLoadChange(t *testing.T) {
	for _, k := range []TriggerType{LoadAdded, LoadCancelled} {
		tr := DetectLoadChange(k, LoadChangeData{StopID: "s2"})
		if tr == nil || tr.Priority != High || tr.Type != k || tr.Action != ActionUpdateETA {
			t.Fatalf("%s trigger = %+v", k, tr)
		}
	}
	tr := DetectLoadChange(LoadAdded, LoadChangeData{StopID: "s2", DockHours: 1, DetourMiles: 55})
	if tr.Action != ActionReplan {
		t.Fatalf("two hour load change action = %s", tr.Action)
	}
	if DetectLoadChange(TrafficDelay, LoadChangeData{}) != nil {
		t.Fatal("non-load kind must not trigger")
	}
}

func TestDetectRestRequest(t *testing.T) {
	cat := &stops.StaticCatalog{Rest: []stops.RestArea{
		{ID: "near", Name: "Near Rest", Lat: 35.1, Lon: -97},
		{ID: "far", Name: "Far Rest", Lat: 35.35, Lon: -97},
	}}
	d := NewDetector(cat)
	tr := d.DetectRestRequest(geo.Point{Lat: 35, Lon: -97}, "fatigue")
	if tr.Priority != High || tr.Action != ActionInsertRest {
		t.Fatalf("trigger = %+v", tr)
	}
	data := tr.Data.(RestRequestData)
	if data.NearestRest == nil || data.NearestRest.Area.ID != "near" {
		t.Fatalf("nearest = %+v", data.NearestRest)
	}
	if !Decide(tr).ReplanTriggered {
		t.Fatal("rest request must replan")
	}

	tr = d.DetectRestRequest(geo.Point{Lat: 40, Lon: -97}, "")
	if tr == nil || tr.Data.(RestRequestData).NearestRest != nil {
		t.Fatalf("remote request = %+v", tr)
	}
}

func TestDetectHOSApproaching(t *testing.T) {
	if DetectHOSApproaching(model.DutyCycleState{HoursDriven: 2, OnDutyTime: 3}, []rest.Leg{{DriveHours: 4}}) != nil {
		t.Fatal("comfortable route should not trigger")
	}
	tr := DetectHOSApproaching(model.DutyCycleState{HoursDriven: 9, OnDutyTime: 10, HoursSinceBreak: 4}, []rest.Leg{{DriveHours: 1.5, DockHours: 1}, {DriveHours: 1}})
	if tr == nil || tr.Priority != High || tr.Type != HOSApproaching {
		t.Fatalf("trigger = %+v", tr)
	}
	f := tr.Data.(HOSApproachingData).Feasibility
	if f.Feasible || f.LimitingRule != hos.RuleDriving {
		t.Fatalf("feasibility = %+v", f)
	}
}

func TestDetectHOSViolation(t *testing.T) {
	if DetectHOSViolation(model.DutyCycleState{HoursDriven: 11, OnDutyTime: 14, HoursSinceBreak: 8}) != nil {
		t.Fatal("values at the ceilings are compliant")
	}
	tr := DetectHOSViolation(model.DutyCycleState{HoursDriven: 11.01, OnDutyTime: 12, HoursSinceBreak: 8.5})
	if tr == nil || tr.Priority != Critical || tr.Action != ActionMandatoryRestNow {
		t.Fatalf("trigger = %+v", tr)
	}
	data := tr.Data.(HOSViolationData)
	if data.ViolationType != hos.RuleDriving || len(data.Violations) != 2 {
		t.Fatalf("data = %+v", data)
	}
}

func TestDetectorDispatch(t *testing.T) {
	d := NewDetector(&stops.StaticCatalog{})
	doc := `{"type":"dock_time_variance","stop_id":"s4","planned_dock_hours":1,"actual_dock_hours":3}`
	var ev Event
	if err := json.Unmarshal([]byte(doc), &ev); err != nil {
		t.Fatal(err)
	}
	tr, err := d.Detect(ev)
	if err != nil || tr == nil || tr.Type != DockTimeVariance {
		t.Fatalf("Detect = %+v, %v", tr, err)
	}
	b, err := json.Marshal(tr)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"variance_hours":2`) || !strings.Contains(string(b), `"trigger_type":"dock_time_variance"`) {
		t.Fatalf("encoded trigger = %s", b)
	}

	tr, err = d.Detect(Event{Type: TrafficDelay, DelayMinutes: 10})
	if err != nil || tr != nil {
		t.Fatalf("small delay = %+v, %v", tr, err)
	}
	if _, err := d.Detect(Event{Type: RestRequest}); err == nil {
		t.Fatal("rest request without location should fail")
	}
	if _, err := d.Detect(Event{Type: HOSViolation}); err == nil {
		t.Fatal("violation without driver state should fail")
	}
	if _, err := d.Detect(Event{Type: "weather"}); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("err = %v", err)
	}
}

func TestTriggerActionAgreesWithDecision(t *testing.T) {
	d := NewDetector(&stops.StaticCatalog{Rest: []stops.RestArea{{ID: "r", Name: "Rest", Lat: 35.1, Lon: -97}}})
	triggers := map[string]*Trigger{
		"traffic medium":   DetectTrafficDelay(45, nil),
		"traffic high":     DetectTrafficDelay(90, nil),
		"traffic at 60":    DetectTrafficDelay(60, nil),
		"dock over":        DetectDockVariance("s1", 2, 3.5),
		"dock under":       DetectDockVariance("s1", 4, 2),
		"load added bare":  DetectLoadChange(LoadAdded, LoadChangeData{StopID: "s9"}),
		"load added at 1h": DetectLoadChange(LoadAdded, LoadChangeData{StopID: "s9", DockHours: 1}),
		"load added long":  DetectLoadChange(LoadAdded, LoadChangeData{StopID: "s9", DockHours: 1, DetourMiles: 55}),
		"load cancelled":   DetectLoadChange(LoadCancelled, LoadChangeData{StopID: "s9", DockHours: 2}),
		"rest request":     d.DetectRestRequest(geo.Point{Lat: 35, Lon: -97}, "tired"),
		"hos approaching":  DetectHOSApproaching(model.DutyCycleState{HoursDriven: 9, OnDutyTime: 10}, []rest.Leg{{DriveHours: 4}}),
		"hos violation":    DetectHOSViolation(model.DutyCycleState{HoursDriven: 11.5, OnDutyTime: 12}),
	}
	for name, tr := range triggers {
		if tr == nil {
			t.Fatalf("%s: no trigger", name)
		}
		replans := tr.Action != ActionUpdateETA
		if got := Decide(tr).ReplanTriggered; got != replans {
			t.Errorf("%s: action %s but replan_triggered=%v", name, tr.Action, got)
		}
	}
}
