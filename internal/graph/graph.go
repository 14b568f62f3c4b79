// Package graph reduces a constellation's strokes to unique stars and edges.
package graph

import (
	"math"

	"github.com/starford/asterism/internal/models"
)

// Tolerance is the per-axis distance below which two points are the same star.
const Tolerance = 0.1

// Graph is the reduced form of one constellation.
type Graph struct {
	Points []models.UniquePoint
	Edges  []models.Edge
}

// Reduce deduplicates the points of rec across all strokes and links every
// consecutive pair of each stroke. Nothing is shared between calls.
func Reduce(rec models.Record) *Graph {
	b := &builder{seen: make(map[models.Edge]struct{})}
	for _, stroke := range rec.Strokes {
		for i := 0; i+1 < len(stroke); i++ {
			a := b.resolve(stroke[i])
			c := b.resolve(stroke[i+1])
			b.link(a, c)
		}
	}
	return &Graph{Points: b.points, Edges: b.edges}
}

type builder struct {
	points []models.UniquePoint
	edges  []models.Edge
	seen   map[models.Edge]struct{}
}

// resolve returns the index of the first registered point within Tolerance
// of p on both axes, registering p when there is none. The scan order is
// insertion order; the first match wins, not the nearest.
func (b *builder) resolve(p models.Point) int {
	for i, u := range b.points {
		if Same(u.X, u.Y, p.X, p.Y) {
			return i
		}
	}
	b.points = append(b.points, models.UniquePoint{X: p.X, Y: p.Y})
	return len(b.points) - 1
}

// link appends the edge (a, c) unless the same unordered pair exists.
// A self-loop counts twice against its single endpoint.
func (b *builder) link(a, c int) {
	key := models.Edge{min(a, c), max(a, c)}
	if _, ok := b.seen[key]; ok {
		return
	}
	b.seen[key] = struct{}{}
	b.edges = append(b.edges, models.Edge{a, c})
	b.points[a].Connections++
	b.points[c].Connections++
}

// Same reports whether (x1, y1) and (x2, y2) differ by less than Tolerance
// on each axis. The relation is not transitive.
func Same(x1, y1, x2, y2 float64) bool {
	return math.Abs(x1-x2) < Tolerance && math.Abs(y1-y2) < Tolerance
}
