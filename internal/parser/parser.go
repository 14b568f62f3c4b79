// Package parser extracts constellation records from stroke-based source text.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/asterism/internal/models"
)

// DefaultBlock is the name of the outer array block in the source text.
const DefaultBlock = "zodiac_data"

// recordMarker precedes every record's name field.
const recordMarker = "name:"

// ErrBlockNotFound is returned when the outer array block is missing.
var ErrBlockNotFound = errors.New("parser: source block not found")

var (
	nameRe   = regexp.MustCompile(`['"]([\p{L}\p{N}_]+)['"]`)
	startRe  = regexp.MustCompile(`start:\s*['"]([\d-]+)['"]`)
	endRe    = regexp.MustCompile(`end:\s*['"]([\d-]+)['"]`)
	pointsRe = regexp.MustCompile(`points:\s*\[([\s\S]*?)\]\s*\}`)
	strokeRe = regexp.MustCompile(`\[([\s\S]*?)\]`)
	pairRe   = regexp.MustCompile(`\{\s*x:\s*([\d.-]+),\s*y:\s*([\d.-]+)\s*\}`)
)

// Result holds the output of parsing a source document.
type Result struct {
	Records []models.Record
	// SkippedPairs counts coordinate pairs dropped for unparsable numbers.
	SkippedPairs int
}

// Parser extracts records from the array block named by its block field.
type Parser struct {
	block   string
	blockRe *regexp.Regexp
}

// New returns a Parser for the given outer block name. An empty name selects
// DefaultBlock.
func New(block string) *Parser {
	if block == "" {
		block = DefaultBlock
	}
	return &Parser{
		block:   block,
		blockRe: regexp.MustCompile(regexp.QuoteMeta(block) + `:\s*\[([\s\S]*)\]`),
	}
}

// Block returns the outer block name the parser looks for.
func (p *Parser) Block() string {
	return p.block
}

// Parse is shorthand for New(DefaultBlock).Parse(data).
func Parse(data []byte) (*Result, error) {
	return New(DefaultBlock).Parse(data)
}

// Parse extracts every record of the outer block, in source order.
func (p *Parser) Parse(data []byte) (*Result, error) {
	m := p.blockRe.FindSubmatch(data)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrBlockNotFound, p.block)
	}

	res := &Result{}
	segments := strings.Split(string(m[1]), recordMarker)
	// The text before the first marker is preamble.
	for _, seg := range segments[1:] {
		rec, skipped, ok := parseRecord(seg)
		res.SkippedPairs += skipped
		if !ok {
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

// parseRecord extracts one record from the text following a name marker.
// ok is false when the segment has no name or no points block.
func parseRecord(seg string) (rec models.Record, skipped int, ok bool) {
	nm := nameRe.FindStringSubmatch(seg)
	if nm == nil {
		return rec, 0, false
	}
	pm := pointsRe.FindStringSubmatch(seg)
	if pm == nil {
		return rec, 0, false
	}

	rec = models.Record{
		Name:  nm[1],
		Start: firstGroup(startRe, seg),
		End:   firstGroup(endRe, seg),
	}
	for _, sm := range strokeRe.FindAllStringSubmatch(pm[1], -1) {
		stroke, n := parseStroke(sm[1])
		skipped += n
		if len(stroke) == 0 {
			continue
		}
		rec.Strokes = append(rec.Strokes, stroke)
	}
	return rec, skipped, true
}

// parseStroke returns the coordinate pairs of one stroke in textual order
// and the number of pairs whose numbers failed to parse.
func parseStroke(s string) (models.Stroke, int) {
	var (
		out     models.Stroke
		skipped int
	)
	for _, m := range pairRe.FindAllStringSubmatch(s, -1) {
		x, errX := strconv.ParseFloat(m[1], 64)
		y, errY := strconv.ParseFloat(m[2], 64)
		if errX != nil || errY != nil {
			skipped++
			continue
		}
		out = append(out, models.Point{X: x, Y: y})
	}
	return out, skipped
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
