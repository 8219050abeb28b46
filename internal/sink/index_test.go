package sink_test

import (
	"math"
	"testing"

	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/UnknownOlympus/crashmap/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cities = []models.Coordinates{
	{Latitude: 40.7128, Longitude: -74.0060},  // New York
	{Latitude: 51.5074, Longitude: -0.1278},   // London
	{Latitude: 48.8566, Longitude: 2.3522},    // Paris
	{Latitude: 35.6762, Longitude: 139.6503},  // Tokyo
	{Latitude: -33.8688, Longitude: 151.2093}, // Sydney
}

func newCityIndex() *sink.Index {
	index := sink.NewIndex()
	for _, c := range cities {
		index.Add(c)
	}

	return index
}

func TestIndexSearchBox(t *testing.T) {
	t.Parallel()

	t.Run("finds markers inside the box in insertion order", func(t *testing.T) {
		t.Parallel()
		index := newCityIndex()
		require.Equal(t, len(cities), index.Len())

		found, err := index.SearchBox(sink.BoundingBox{
			SouthWest: models.Coordinates{Latitude: 45.0, Longitude: -5.0},
			NorthEast: models.Coordinates{Latitude: 55.0, Longitude: 10.0},
		})

		require.NoError(t, err)
		assert.Equal(t, []models.Coordinates{cities[1], cities[2]}, found)
	})

	t.Run("boundary points are included", func(t *testing.T) {
		t.Parallel()
		index := newCityIndex()

		found, err := index.SearchBox(sink.BoundingBox{SouthWest: cities[0], NorthEast: cities[0]})

		require.NoError(t, err)
		assert.Equal(t, []models.Coordinates{cities[0]}, found)
	})

	t.Run("swapped corners", func(t *testing.T) {
		t.Parallel()
		index := newCityIndex()

		found, err := index.SearchBox(sink.BoundingBox{
			SouthWest: models.Coordinates{Latitude: 55.0, Longitude: 10.0},
			NorthEast: models.Coordinates{Latitude: 45.0, Longitude: -5.0},
		})

		require.ErrorIs(t, err, sink.ErrInvalidBox)
		assert.Nil(t, found)
	})

	t.Run("non-finite corner", func(t *testing.T) {
		t.Parallel()
		index := newCityIndex()

		_, err := index.SearchBox(sink.BoundingBox{
			SouthWest: models.Coordinates{Latitude: math.Inf(-1), Longitude: 0},
			NorthEast: models.Coordinates{Latitude: 1, Longitude: 1},
		})

		require.ErrorIs(t, err, sink.ErrInvalidBox)
	})
}

func TestIndexNearest(t *testing.T) {
	t.Parallel()
	index := newCityIndex()

	nearest := index.Nearest(models.Coordinates{Latitude: 50.0, Longitude: 0.0}, 2)

	require.Len(t, nearest, 2)
	assert.Equal(t, cities[1], nearest[0])
	assert.Equal(t, cities[2], nearest[1])
	assert.Nil(t, index.Nearest(cities[0], 0))
}

func TestIndexNearest_LargeCount(t *testing.T) {
	t.Parallel()

	t.Run("count beyond size returns every marker", func(t *testing.T) {
		t.Parallel()
		index := newCityIndex()

		nearest := index.Nearest(cities[0], 1<<40)

		require.Len(t, nearest, len(cities))
		assert.Equal(t, cities[0], nearest[0])
	})

	t.Run("empty index", func(t *testing.T) {
		t.Parallel()
		index := sink.NewIndex()

		assert.Empty(t, index.Nearest(cities[0], math.MaxInt))
		assert.Zero(t, index.Len())
	})
}
