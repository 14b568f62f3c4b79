// Package emitter turns reduced constellation graphs into the star-based
// target representation and serializes them.
package emitter

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/starford/asterism/internal/graph"
	"github.com/starford/asterism/internal/models"
)

// Geometry and brightness constants of the target representation.
const (
	Scale = 2.5

	BaseBrightness     = 1.2
	ConnectionStep     = 0.15
	MaxConnectionBoost = 0.6
	JitterStep         = 0.01
)

// Emit builds the output record for one constellation.
func Emit(name, start, end string, g *graph.Graph) models.Constellation {
	c := models.Constellation{
		Name:        name,
		Start:       start,
		End:         end,
		Points:      make([]models.Star, 0, len(g.Points)),
		Connections: make([]models.Edge, 0, len(g.Edges)),
	}
	for _, p := range g.Points {
		x, y := Transform(p.X, p.Y)
		c.Points = append(c.Points, models.Star{X: x, Y: y, Brightness: Brightness(p)})
	}
	c.Connections = append(c.Connections, g.Edges...)
	return c
}

// Transform scales source coordinates and flips the y axis.
func Transform(x, y float64) (float64, float64) {
	return positiveZero(x * Scale), positiveZero(y * -Scale)
}

// Brightness derives a star's brightness from its connection count plus a
// coordinate-keyed jitter, rounded to two decimals. The result lies in
// [1.20, 1.89].
func Brightness(p models.UniquePoint) float64 {
	b := BaseBrightness + math.Min(MaxConnectionBoost, float64(p.Connections)*ConnectionStep)
	b += float64(Jitter(p.X, p.Y)) * JitterStep
	return math.Round(b*100) / 100
}

// Jitter maps pre-transform coordinates to an integer in [0, 9]. It depends
// on x and y only, so repeated runs produce identical output.
func Jitter(x, y float64) int {
	key := strconv.FormatFloat(x, 'g', -1, 64) + "," + strconv.FormatFloat(y, 'g', -1, 64)
	return int(xxhash.Sum64String(key) % 10)
}

func positiveZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
