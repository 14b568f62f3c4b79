package emitter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/starford/asterism/internal/models"
)

// Output formats.
const (
	FormatJS   = "js"
	FormatJSON = "json"
)

// DefaultBlock names the array block of the serialized output.
const DefaultBlock = "constellations"

// Options control serialization.
type Options struct {
	Block  string
	Format string
}

func (o Options) block() string {
	if o.Block == "" {
		return DefaultBlock
	}
	return o.Block
}

// Encode writes cs to w in the configured format, preserving order.
func Encode(w io.Writer, cs []models.Constellation, opts Options) error {
	switch opts.Format {
	case "", FormatJS:
		return encodeJS(w, cs, opts.block())
	case FormatJSON:
		return encodeJSON(w, cs, opts.block())
	default:
		return fmt.Errorf("emitter: unknown format %q", opts.Format)
	}
}

// Marshal is Encode into a byte slice.
func Marshal(cs []models.Constellation, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, cs, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)

func encodeJS(w io.Writer, cs []models.Constellation, block string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "    %s: [\n", block)
	for i, c := range cs {
		fmt.Fprintf(bw, "        // %d. %s\n", i+1, c.Name)
		bw.WriteString("        {\n")
		fmt.Fprintf(bw, "            name: '%s',\n", quoteEscaper.Replace(c.Name))
		fmt.Fprintf(bw, "            start: '%s',\n", quoteEscaper.Replace(c.Start))
		fmt.Fprintf(bw, "            end: '%s',\n", quoteEscaper.Replace(c.End))
		bw.WriteString("            points: [\n")
		for j, p := range c.Points {
			fmt.Fprintf(bw, "                { x: %s, y: %s, brightness: %s }%s\n",
				formatNumber(p.X), formatNumber(p.Y), formatNumber(p.Brightness), separator(j, len(c.Points)))
		}
		bw.WriteString("            ],\n")
		fmt.Fprintf(bw, "            connections: %s\n", formatEdges(c.Connections))
		fmt.Fprintf(bw, "        }%s\n", separator(i, len(cs)))
	}
	bw.WriteString("    ],\n")
	return bw.Flush()
}

func encodeJSON(w io.Writer, cs []models.Constellation, block string) error {
	if cs == nil {
		cs = []models.Constellation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string][]models.Constellation{block: cs}); err != nil {
		return fmt.Errorf("emitter: encode json: %w", err)
	}
	return nil
}

func separator(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(positiveZero(v), 'f', -1, 64)
}

// formatEdges renders edges as an array-of-arrays literal, e.g. [[0, 1], [1, 2]].
func formatEdges(edges []models.Edge) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range edges {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "[%d, %d]", e[0], e[1])
	}
	sb.WriteByte(']')
	return sb.String()
}
