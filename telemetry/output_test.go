package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pthm-cable/fields/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v, %v", om, err)
	}
	// Nil manager methods are no-ops
	if err := om.WriteRender(RenderRecord{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := om.WriteRender(RenderRecord{RenderID: "r", Width: 8, Height: 8, Completed: true}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePass(PassRecord{RenderID: "r", Resolution: 4, ElapsedUS: 12}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "renders.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "render_id,timestamp,width") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "render_id") != 1 {
		t.Error("header written more than once")
	}

	data, err = os.ReadFile(filepath.Join(dir, "passes.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "render_id,resolution,elapsed_us\nr,4,12" {
		t.Errorf("unexpected passes.csv %q", got)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}

func TestCollectorRecords(t *testing.T) {
	c := NewCollector(5, nil, false)

	id := uuid.New()
	c.ObservePass(id, 2, time.Millisecond)
	c.ObservePass(id, 1, time.Millisecond)
	c.RecordRender(id, RenderRecord{Completed: true, ElapsedMS: 4, Blocks: 16, Passes: 2})
	c.RecordRender(uuid.New(), RenderRecord{Completed: false})

	recs := c.Records()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].RenderID != id.String() || recs[0].Timestamp == "" {
		t.Errorf("record not stamped: %+v", recs[0])
	}

	if s := c.Summary(); s.Completed != 1 || s.Cancelled != 1 || s.MeanMS != 4 {
		t.Errorf("unexpected summary %+v", s)
	}
	if p := c.Perf(); p.Renders != 1 || p.PassAvg[1] != time.Millisecond {
		t.Errorf("unexpected perf %+v", p)
	}
}
