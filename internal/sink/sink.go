// Package sink holds the consumers that parsed coordinates are handed to.
package sink

import "github.com/UnknownOlympus/crashmap/internal/models"

// Sink accepts one coordinate at a time and performs a side effect with it,
// such as placing a marker on a map. Implementations that are shared between
// concurrent loads must be safe for concurrent use.
type Sink interface {
	Add(coords models.Coordinates)
}

// Func adapts an ordinary function to the Sink interface.
type Func func(coords models.Coordinates)

// Add calls f(coords).
func (f Func) Add(coords models.Coordinates) {
	f(coords)
}

type multi []Sink

func (m multi) Add(coords models.Coordinates) {
	for _, s := range m {
		s.Add(coords)
	}
}

// Multi returns a sink that forwards every coordinate to each of sinks, in argument order.
func Multi(sinks ...Sink) Sink {
	flat := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			flat = append(flat, s)
		}
	}

	return flat
}
