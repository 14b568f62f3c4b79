package mcpserver

// SourceFormat describes the stroke-based source text the converter accepts
// and the star representation it produces.
const SourceFormat = `# Asterism Source Format

The converter reads one array block named ` + "`" + `zodiac_data` + "`" + ` (configurable) and
turns every record in it into a set of stars and connections.

## Structure

` + "```" + `js
export default {
    zodiac_data: [
        {
            name: 'Aries',              // REQUIRED, quoted word characters
            start: '2024-03-21',        // OPTIONAL, quoted digits and dashes
            end: '2024-04-19',          // OPTIONAL
            points: [                   // REQUIRED for the record to be kept
                [{ x: 0, y: 0 }, { x: 1, y: 1 }],
                [{ x: 1, y: 1 }, { x: 2, y: 2 }]
            ]
        }
    ]
};
` + "```" + `

## Rules

1. ` + "`" + `points` + "`" + ` is a list of strokes; each stroke is a polyline of ` + "`" + `{ x, y }` + "`" + ` objects.
2. Coordinates are plain numeric literals (digits, ` + "`" + `.` + "`" + `, ` + "`" + `-` + "`" + `).
3. Records without a ` + "`" + `points` + "`" + ` block are dropped. Empty strokes are ignored.
4. Pairs with malformed numbers are skipped and counted.
5. Points closer than 0.1 on both axes to an earlier point collapse into it.
6. Consecutive points of a stroke become one connection; each unordered pair
   is stored once.

## Output

Coordinates are scaled by 2.5 with y flipped. Brightness grows with the number of
connections of a star (1.20 to 1.89). Connections are index pairs into the
star list of the same constellation.
`
