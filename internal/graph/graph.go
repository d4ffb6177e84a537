// Package graph holds the abstract weighted graphs that springnet lays out.
//
// A [Graph] is a vertex list, an edge list of (from, to, weight) triples and
// optional per-vertex weights. Construction validates that every edge and
// weight refers to a known vertex; nothing else is checked here.
package graph

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownVertex indicates an edge or weight naming a vertex absent from the vertex set.
	ErrUnknownVertex = errors.New("graph: nonexistent vertex")

	// ErrDuplicateVertex indicates the same vertex listed twice.
	ErrDuplicateVertex = errors.New("graph: duplicate vertex")

	// ErrUnweightedVertex indicates a vertex-weighted graph with a vertex that carries no weight.
	ErrUnweightedVertex = errors.New("graph: vertex has no weight")
)

type Edge struct {
	From   string  `yaml:"from"`
	To     string  `yaml:"to"`
	Weight float64 `yaml:"weight"`
}

// UnmarshalYAML accepts either a mapping or a [from, to, weight] sequence.
func (e *Edge) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		if len(node.Content) < 2 || len(node.Content) > 3 {
			return fmt.Errorf("graph: edge at line %d: want [from, to, weight]", node.Line)
		}
		e.From = node.Content[0].Value
		e.To = node.Content[1].Value
		e.Weight = 1
		if len(node.Content) == 3 {
			w, err := strconv.ParseFloat(node.Content[2].Value, 64)
			if err != nil {
				return fmt.Errorf("graph: edge at line %d: %w", node.Line, err)
			}
			e.Weight = w
		}
		return nil
	}
	type plain Edge
	p := plain{Weight: 1}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = Edge(p)
	return nil
}

type Graph struct {
	Vertices      []string
	Edges         []Edge
	VertexWeights map[string]float64

	index map[string]int
}

// New validates and returns a graph. weights may be nil for an unweighted graph;
// when present it must cover every vertex.
func New(vertices []string, edges []Edge, weights map[string]float64) (*Graph, error) {
	index := make(map[string]int, len(vertices))
	for i, v := range vertices {
		if _, ok := index[v]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVertex, v)
		}
		index[v] = i
	}

	for _, e := range edges {
		for _, v := range []string{e.From, e.To} {
			if _, ok := index[v]; !ok {
				return nil, fmt.Errorf("%w present in edge list: %s", ErrUnknownVertex, v)
			}
		}
	}

	if len(weights) > 0 {
		for v := range weights {
			if _, ok := index[v]; !ok {
				return nil, fmt.Errorf("%w present in vertex weights: %s", ErrUnknownVertex, v)
			}
		}
		for _, v := range vertices {
			if _, ok := weights[v]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnweightedVertex, v)
			}
		}
	} else {
		weights = nil
	}

	return &Graph{
		Vertices:      vertices,
		Edges:         edges,
		VertexWeights: weights,
		index:         index,
	}, nil
}

// Complete returns the complete graph on vertices "1".."n" with unit edge weights.
func Complete(n int) *Graph {
	vertices := make([]string, n)
	for i := range vertices {
		vertices[i] = strconv.Itoa(i + 1)
	}
	edges := make([]Edge, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, Edge{From: vertices[i], To: vertices[j], Weight: 1})
		}
	}
	g, _ := New(vertices, edges, nil)
	return g
}

// Weighted reports whether the graph carries vertex weights.
func (g *Graph) Weighted() bool { return len(g.VertexWeights) > 0 }

// Index returns the position of v in the vertex list.
func (g *Graph) Index(v string) (int, bool) {
	i, ok := g.index[v]
	return i, ok
}

func (g *Graph) Weight(v string) (float64, bool) {
	w, ok := g.VertexWeights[v]
	return w, ok
}

// File is the on-disk YAML form of a graph.
type File struct {
	Vertices      []string           `yaml:"vertices"`
	Edges         []Edge             `yaml:"edges"`
	VertexWeights map[string]float64 `yaml:"vertex_weights,omitempty"`
}

func Parse(data []byte) (*Graph, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("graph: parse: %w", err)
	}
	return New(f.Vertices, f.Edges, f.VertexWeights)
}

func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Save(path string, g *Graph) error {
	data, err := yaml.Marshal(File{Vertices: g.Vertices, Edges: g.Edges, VertexWeights: g.VertexWeights})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
