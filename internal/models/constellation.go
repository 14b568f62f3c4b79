// Package models defines the domain types for asterism.
package models

// Point is a position in source coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one connected polyline of a constellation drawing.
type Stroke []Point

// Record is a constellation as extracted from the stroke-based source.
type Record struct {
	Name    string   `json:"name"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Strokes []Stroke `json:"strokes"`
}

// UniquePoint is a deduplicated star standing for one or more coincident
// source points. Connections counts the edge endpoints that touch it.
type UniquePoint struct {
	X           float64
	Y           float64
	Connections int
}

// Edge is an unordered pair of indices into a constellation's unique points.
type Edge [2]int

// Star is a transformed unique point with its synthesized brightness.
type Star struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Brightness float64 `json:"brightness"`
}

// Constellation is one record in the star-based target representation.
type Constellation struct {
	Name        string `json:"name"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Points      []Star `json:"points"`
	Connections []Edge `json:"connections"`
}
