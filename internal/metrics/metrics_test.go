package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterDefaultIdempotent(t *testing.T) {
	RegisterDefault()
	RegisterDefault()
	PlansTotal.WithLabelValues(Bool(true)).Inc()
	if n := testutil.CollectAndCount(PlansTotal, "haulplan_plans_total"); n < 1 {
		t.Fatalf("expected at least one series, got %d", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	before := testutil.ToFloat64(InsertedStops.WithLabelValues("rest"))
	InsertedStops.WithLabelValues("rest").Inc()
	if got := testutil.ToFloat64(InsertedStops.WithLabelValues("rest")); got != before+1 {
		t.Fatalf("rest stops = %v, want %v", got, before+1)
	}
	path := filepath.Join(t.TempDir(), "haulplan.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `haulplan_inserted_stops_total{kind="rest"}`) {
		t.Fatalf("textfile missing inserted stops series:\n%s", b)
	}
}

func TestBool(t *testing.T) {
	if Bool(true) != "true" || Bool(false) != "false" {
		t.Fatal("unexpected label values")
	}
}
