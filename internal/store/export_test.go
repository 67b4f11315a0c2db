package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
)

func sampleResult() *dynamo.Result {
	u := lcp.Zero(lcp.Shape{Contacts: 1, Basis: 2, JointLimits: 2})
	u.Q = []float64{0, 0.9, 0}
	u.Contacts[0].Obstacle = "ground"
	u.Contacts[0].Cn = 0.6
	return &dynamo.Result{
		Mode:       dynamo.ModeOptimize,
		Trajectory: []lcp.Solved{u, u},
		Metrics:    map[string]float64{"contact_steps": 2},
	}
}

func TestWriteJSON(t *testing.T) {
	data := NewExportData("drop", "none", lcp.DefaultParams(), dynamo.State{}, sampleResult())

	var buf bytes.Buffer
	if err := WriteJSON(&buf, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var decoded ExportData
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Steps != 2 || len(decoded.Trajectory) != 2 {
		t.Errorf("expected 2 steps, got %d", decoded.Steps)
	}
	if decoded.Trajectory[1].Contacts[0].Cn != 0.6 {
		t.Errorf("expected cn 0.6, got %f", decoded.Trajectory[1].Contacts[0].Cn)
	}
	if decoded.Fields[0] != "q[0]" {
		t.Errorf("expected first field q[0], got %s", decoded.Fields[0])
	}
	if decoded.Mode != dynamo.ModeOptimize {
		t.Errorf("expected mode optimize, got %s", decoded.Mode)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	data := NewExportData("drop", "none", lcp.DefaultParams(), dynamo.State{}, sampleResult())
	if err := ExportJSON(path, data); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected non-empty file, got %v", err)
	}
	if data.Times[1] != 2*lcp.DefaultParams().Dt {
		t.Errorf("expected t %f, got %f", 2*lcp.DefaultParams().Dt, data.Times[1])
	}
}
