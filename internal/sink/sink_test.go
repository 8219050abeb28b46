package sink_test

import (
	"sync"
	"testing"

	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/UnknownOlympus/crashmap/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulti(t *testing.T) {
	t.Parallel()
	var order []string
	first := sink.Func(func(_ models.Coordinates) { order = append(order, "first") })
	second := sink.Func(func(_ models.Coordinates) { order = append(order, "second") })

	fanout := sink.Multi(first, nil, second)
	fanout.Add(models.Coordinates{Latitude: 1, Longitude: 2})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestCollector(t *testing.T) {
	t.Parallel()

	t.Run("keeps arrival order", func(t *testing.T) {
		t.Parallel()
		collector := sink.NewCollector()
		collector.Add(models.Coordinates{Latitude: 40.7128, Longitude: -74.0060})
		collector.Add(models.Coordinates{Latitude: 40.70, Longitude: -74.00})

		require.Equal(t, 2, collector.Len())
		assert.Equal(t, []models.Coordinates{
			{Latitude: 40.7128, Longitude: -74.0060},
			{Latitude: 40.70, Longitude: -74.00},
		}, collector.Coordinates())
	})

	t.Run("returns a copy", func(t *testing.T) {
		t.Parallel()
		collector := sink.NewCollector()
		collector.Add(models.Coordinates{Latitude: 1, Longitude: 1})

		coords := collector.Coordinates()
		coords[0].Latitude = 99

		assert.InDelta(t, 1.0, collector.Coordinates()[0].Latitude, 0)
	})

	t.Run("concurrent adds", func(t *testing.T) {
		t.Parallel()
		collector := sink.NewCollector()
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 100 {
					collector.Add(models.Coordinates{Latitude: float64(i), Longitude: float64(i)})
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 800, collector.Len())
	})
}
