package sse

import "github.com/starford/asterism/internal/converter"

// FromReport builds the event payload for a finished pass.
func FromReport(rep *converter.Report, err error) Conversion {
	c := Conversion{Outcome: converter.OutcomeFailed}
	if rep != nil {
		c.Outcome = rep.Outcome
		c.Input = rep.Input
		c.Output = rep.Output
		c.Records = rep.Records
		if rep.Result != nil {
			c.Points = rep.Result.Points
			c.Edges = rep.Result.Edges
		}
	}
	if err != nil {
		c.Outcome = converter.OutcomeFailed
		c.Error = err.Error()
	}
	return c
}
