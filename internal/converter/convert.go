// Package converter runs stroke-to-star conversion passes: parse the source,
// reduce every record to a star graph, emit the target representation.
package converter

import (
	"errors"
	"fmt"

	"github.com/starford/asterism/internal/checksum"
	"github.com/starford/asterism/internal/emitter"
	"github.com/starford/asterism/internal/graph"
	"github.com/starford/asterism/internal/models"
	"github.com/starford/asterism/internal/parser"
)

// ErrNoRecords is returned when the source block holds no usable record.
var ErrNoRecords = errors.New("converter: no constellations parsed")

// Options select the source block and the output encoding.
type Options struct {
	SourceBlock string
	Emit        emitter.Options
}

// Result is the outcome of converting one source document.
type Result struct {
	Constellations []models.Constellation
	Output         []byte

	Points       int
	Edges        int
	SkippedPairs int

	// SourceChecksum covers the source bytes and the options they were
	// converted with.
	SourceChecksum string
	OutputChecksum string
}

// Records returns the number of converted constellations.
func (r *Result) Records() int {
	return len(r.Constellations)
}

// Convert transforms source text into the serialized target representation.
// It performs no I/O.
func Convert(data []byte, opts Options) (*Result, error) {
	parsed, err := parser.New(opts.SourceBlock).Parse(data)
	if err != nil {
		return nil, err
	}
	if len(parsed.Records) == 0 {
		return nil, ErrNoRecords
	}

	res := &Result{
		Constellations: make([]models.Constellation, 0, len(parsed.Records)),
		SkippedPairs:   parsed.SkippedPairs,
		SourceChecksum: SourceKey(data, opts),
	}
	for _, rec := range parsed.Records {
		g := graph.Reduce(rec)
		res.Points += len(g.Points)
		res.Edges += len(g.Edges)
		res.Constellations = append(res.Constellations, emitter.Emit(rec.Name, rec.Start, rec.End, g))
	}

	out, err := emitter.Marshal(res.Constellations, opts.Emit)
	if err != nil {
		return nil, fmt.Errorf("converter: emit: %w", err)
	}
	res.Output = out
	res.OutputChecksum = checksum.Sum(out)
	return res, nil
}

// FormatVersion must change whenever the same source and options would
// produce different output bytes.
const FormatVersion = "1"

// SourceKey identifies a source document converted under opts by this
// revision of the converter.
func SourceKey(data []byte, opts Options) string {
	key := make([]byte, 0, len(data)+64)
	key = append(key, data...)
	key = fmt.Appendf(key, "\x00v%s\x00%s\x00%s\x00%s", FormatVersion, opts.SourceBlock, opts.Emit.Block, opts.Emit.Format)
	return checksum.Sum(key)
}
