package sink

import (
	"sync"

	"github.com/UnknownOlympus/crashmap/internal/models"
)

// Collector keeps every received coordinate in arrival order.
type Collector struct {
	mu     sync.RWMutex
	coords []models.Coordinates
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends coords.
func (c *Collector) Add(coords models.Coordinates) {
	c.mu.Lock()
	c.coords = append(c.coords, coords)
	c.mu.Unlock()
}

// Coordinates returns a copy of the collected coordinates.
func (c *Collector) Coordinates() []models.Coordinates {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Coordinates, len(c.coords))
	copy(out, c.coords)

	return out
}

// Len returns the number of collected coordinates.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.coords)
}
