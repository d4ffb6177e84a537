package graph

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_UnknownVertex(t *testing.T) {
	_, err := New([]string{"a", "b"}, []Edge{{From: "a", To: "c", Weight: 1}}, nil)
	if !errors.Is(err, ErrUnknownVertex) {
		t.Fatalf("expected ErrUnknownVertex, got %v", err)
	}
	if !strings.Contains(err.Error(), "c") {
		t.Errorf("error should name the vertex: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		vertices []string
		edges    []Edge
		weights  map[string]float64
		want     error
	}{
		{"duplicate", []string{"a", "a"}, nil, nil, ErrDuplicateVertex},
		{"weight for unknown", []string{"a"}, nil, map[string]float64{"a": 1, "z": 2}, ErrUnknownVertex},
		{"missing weight", []string{"a", "b"}, nil, map[string]float64{"a": 1}, ErrUnweightedVertex},
		{"ok", []string{"a", "b"}, []Edge{{From: "a", To: "b", Weight: 2}}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.vertices, tt.edges, tt.weights)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestComplete(t *testing.T) {
	g := Complete(6)
	if len(g.Vertices) != 6 {
		t.Errorf("expected 6 vertices, got %d", len(g.Vertices))
	}
	if len(g.Edges) != 15 {
		t.Errorf("expected 15 edges, got %d", len(g.Edges))
	}
	if g.Weighted() {
		t.Error("complete graph should not be vertex-weighted")
	}
	if i, ok := g.Index("3"); !ok || i != 2 {
		t.Errorf("Index(3) = %d, %v", i, ok)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
vertices: [jazz, metal, trap]
edges:
  - [jazz, metal, 0.5]
  - [metal, trap]
  - {from: jazz, to: trap, weight: 2}
vertex_weights:
  jazz: 10
  metal: 20
  trap: 30
`)
	g, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(g.Edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(g.Edges))
	}
	if g.Edges[0].Weight != 0.5 {
		t.Errorf("edge 0 weight = %f, want 0.5", g.Edges[0].Weight)
	}
	if g.Edges[1].Weight != 1 {
		t.Errorf("edge 1 default weight = %f, want 1", g.Edges[1].Weight)
	}
	if g.Edges[2].Weight != 2 {
		t.Errorf("edge 2 weight = %f, want 2", g.Edges[2].Weight)
	}
	if w, _ := g.Weight("trap"); w != 30 {
		t.Errorf("trap weight = %f, want 30", w)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.yaml")
	g := Complete(4)
	if err := Save(path, g); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Edges) != len(g.Edges) {
		t.Errorf("expected %d edges, got %d", len(g.Edges), len(loaded.Edges))
	}
}
