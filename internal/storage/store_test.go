package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/springnet/internal/sim"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		Frames: []sim.Frame{
			{Step: 0, Time: 0, KineticEnergy: 0, SpringEnergy: 2, Positions: []r2.Vec{{X: 0, Y: 0}, {X: 3, Y: 0}}},
			{Step: 10, Time: 0.5, KineticEnergy: 0.4, SpringEnergy: 1.25, Positions: []r2.Vec{{X: 0.5, Y: 0.1}, {X: 2.5, Y: -0.1}}},
		},
		Metrics:    map[string]float64{"energy": 1.5},
		StepsTaken: 10,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	info := RunInfo{Name: "pair", Source: "file", Seed: 42, Dt: 0.05, Steps: 10, Repulsion: 0.1, Friction: 0.2, Labels: []string{"a", "b"}}
	runID, err := st.Save(info, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "pair_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Seed != 42 || meta.StepsTaken != 10 || meta.Frames != 2 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}
	if len(meta.Labels) != 2 || meta.Labels[1] != "b" {
		t.Errorf("labels = %v", meta.Labels)
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	got := frames[1]
	if got.Step != 10 || got.Time != 0.5 || got.SpringEnergy != 1.25 {
		t.Errorf("frame = %+v", got)
	}
	if math.Abs(got.Positions[1].Y+0.1) > 1e-9 {
		t.Errorf("position = %v", got.Positions[1])
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("empty store: %v, %v", runs, err)
	}

	first, _ := st.Save(RunInfo{Name: "one"}, sampleResult())
	second, _ := st.Save(RunInfo{Name: "two"}, sampleResult())
	if err := os.MkdirAll(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first || runs[1].ID != second {
		t.Errorf("runs should be oldest first: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestStoreList_MissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("missing dir should list nothing, got %v, %v", runs, err)
	}
}

func TestReadFramesCSV_Malformed(t *testing.T) {
	tests := []string{
		"step,time,kinetic,spring,x0\n0,0,0,0,1\n",
		"step,time,kinetic,spring,x0,y0\n0,0,0,0,1,abc\n",
	}
	for _, data := range tests {
		if _, err := ReadFramesCSV(strings.NewReader(data)); !errors.Is(err, ErrMalformed) {
			t.Errorf("expected ErrMalformed for %q, got %v", data, err)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := RunMetadata{ID: "x", Name: "pair"}
	if err := WriteJSON(&buf, meta, sampleResult().Frames); err != nil {
		t.Fatal(err)
	}

	var decoded ExportData
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded.Run.Name != "pair" || len(decoded.Frames) != 2 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Frames[1].Positions[0] != [2]float64{0.5, 0.1} {
		t.Errorf("positions = %v", decoded.Frames[1].Positions)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(path, RunMetadata{ID: "x"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}
