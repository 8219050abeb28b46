package models

import "time"

// LoadSummary describes the outcome of a single load pass over a resource.
type LoadSummary struct {
	Source   string        // Source is the path or URL that was read.
	Rows     int           // Rows is the number of non-empty data lines after the header.
	Plotted  int           // Plotted is the number of coordinates handed to the sink.
	Skipped  int           // Skipped is the number of rows dropped because a field did not parse.
	Duration time.Duration // Duration is the wall time of the pass, fetch included.
}
