package service_test

import (
	"context"
	"image"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/UnknownOlympus/crashmap/internal/loader"
	"github.com/UnknownOlympus/crashmap/internal/metrics"
	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/UnknownOlympus/crashmap/internal/render"
	"github.com/UnknownOlympus/crashmap/internal/resource"
	"github.com/UnknownOlympus/crashmap/internal/service"
	"github.com/UnknownOlympus/crashmap/internal/sink"
	"github.com/UnknownOlympus/crashmap/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const source = "crashes.csv"

const crashes = `id,name,x,x,lat,lng
1,A,0,0,40.7128,-74.0060
2,B,0,0,abc,-74.1
3,C,0,0,40.70,-74.00
`

var loaded = []models.Coordinates{
	{Latitude: 40.7128, Longitude: -74.0060},
	{Latitude: 40.70, Longitude: -74.00},
}

func newLoader(t *testing.T, fetcher resource.Fetcher) *loader.RecordLoader {
	t.Helper()
	recordLoader, err := loader.New(fetcher, loader.DefaultOptions(), slog.Default(), nil)
	require.NoError(t, err)

	return recordLoader
}

func TestRefresh(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := t.Context()

	t.Run("successful refresh stores markers", func(t *testing.T) {
		fetcher := mocks.NewFetcher(t)
		repo := mocks.NewInterface(t)
		appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
		svc := service.NewMapService(logger, newLoader(t, fetcher), repo, nil, appMetrics, source, 0)

		fetcher.On("Fetch", ctx, source).Return([]byte(crashes), nil).Once()
		repo.On("ReplaceMarkers", ctx, source, loaded).Return(int64(2), nil).Once()

		summary, err := svc.Refresh(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.Plotted)
		assert.Equal(t, 1, summary.Skipped)
		assert.Equal(t, loaded, svc.Markers())
		assert.Equal(t, summary, svc.LastSummary())
		assert.InDelta(t, 2.0, testutil.ToFloat64(appMetrics.Markers), 0)
	})

	t.Run("store error does not fail the refresh", func(t *testing.T) {
		fetcher := mocks.NewFetcher(t)
		repo := mocks.NewInterface(t)
		svc := service.NewMapService(logger, newLoader(t, fetcher), repo, nil, nil, source, 0)

		fetcher.On("Fetch", ctx, source).Return([]byte(crashes), nil).Once()
		repo.On("ReplaceMarkers", ctx, source, loaded).Return(int64(0), assert.AnError).Once()

		_, err := svc.Refresh(ctx)

		require.NoError(t, err)
		assert.Equal(t, loaded, svc.Markers())
	})

	t.Run("failed refresh keeps previous markers", func(t *testing.T) {
		fetcher := mocks.NewFetcher(t)
		svc := service.NewMapService(logger, newLoader(t, fetcher), nil, nil, nil, source, 0)

		fetcher.On("Fetch", ctx, source).Return([]byte(crashes), nil).Once()
		fetcher.On("Fetch", ctx, source).Return(nil, resource.ErrResourceUnavailable).Once()

		_, err := svc.Refresh(ctx)
		require.NoError(t, err)

		_, err = svc.Refresh(ctx)

		require.ErrorIs(t, err, resource.ErrResourceUnavailable)
		assert.Equal(t, loaded, svc.Markers())
	})

	t.Run("refresh replaces rather than appends", func(t *testing.T) {
		fetcher := mocks.NewFetcher(t)
		svc := service.NewMapService(logger, newLoader(t, fetcher), nil, nil, nil, source, 0)

		fetcher.On("Fetch", ctx, source).Return([]byte(crashes), nil).Twice()

		_, err := svc.Refresh(ctx)
		require.NoError(t, err)
		_, err = svc.Refresh(ctx)
		require.NoError(t, err)

		assert.Len(t, svc.Markers(), 2)
	})
}

func TestQueries(t *testing.T) {
	ctx := t.Context()
	fetcher := mocks.NewFetcher(t)
	svc := service.NewMapService(slog.Default(), newLoader(t, fetcher), nil, nil, nil, source, 0)
	fetcher.On("Fetch", ctx, source).Return([]byte(crashes), nil).Once()
	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	t.Run("within viewport", func(t *testing.T) {
		found, err := svc.Within(sink.BoundingBox{
			SouthWest: models.Coordinates{Latitude: 40.71, Longitude: -74.01},
			NorthEast: models.Coordinates{Latitude: 40.72, Longitude: -74.0},
		})

		require.NoError(t, err)
		assert.Equal(t, loaded[:1], found)
	})

	t.Run("nearest", func(t *testing.T) {
		nearest := svc.Nearest(models.Coordinates{Latitude: 40.69, Longitude: -74.0}, 1)

		assert.Equal(t, loaded[1:], nearest)
	})
}

func TestRestore(t *testing.T) {
	ctx := t.Context()

	t.Run("fills markers from the repository", func(t *testing.T) {
		repo := mocks.NewInterface(t)
		svc := service.NewMapService(slog.Default(), newLoader(t, mocks.NewFetcher(t)), repo, nil, nil, source, 0)

		repo.On("FetchMarkers", ctx, source).Return(loaded, nil).Once()

		count, err := svc.Restore(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, loaded, svc.Markers())
		assert.Len(t, svc.Nearest(loaded[0], 5), 2)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := mocks.NewInterface(t)
		svc := service.NewMapService(slog.Default(), newLoader(t, mocks.NewFetcher(t)), repo, nil, nil, source, 0)

		repo.On("FetchMarkers", ctx, source).Return(nil, assert.AnError).Once()

		_, err := svc.Restore(ctx)

		require.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, svc.Markers())
	})

	t.Run("no repository", func(t *testing.T) {
		svc := service.NewMapService(slog.Default(), newLoader(t, mocks.NewFetcher(t)), nil, nil, nil, source, 0)

		count, err := svc.Restore(ctx)

		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRenderMap(t *testing.T) {
	ctx := t.Context()

	t.Run("rendering disabled", func(t *testing.T) {
		svc := service.NewMapService(slog.Default(), newLoader(t, mocks.NewFetcher(t)), nil, nil, nil, source, 0)

		img, err := svc.RenderMap(ctx)

		require.ErrorIs(t, err, service.ErrRenderingDisabled)
		assert.Nil(t, img)
	})

	t.Run("renders current markers", func(t *testing.T) {
		fetcher := mocks.NewFetcher(t)
		client := mocks.NewStaticMapClient(t)
		renderer := render.NewStaticMapRendererWithClient(client, render.MapConfig{}, nil)
		svc := service.NewMapService(slog.Default(), newLoader(t, fetcher), nil, renderer, nil, source, 0)
		expected := image.NewRGBA(image.Rect(0, 0, 1, 1))

		fetcher.On("Fetch", ctx, source).Return([]byte(crashes), nil).Once()
		client.On("StaticMap", ctx, renderer.Request(loaded)).Return(expected, nil).Once()

		_, err := svc.Refresh(ctx)
		require.NoError(t, err)
		img, err := svc.RenderMap(ctx)

		require.NoError(t, err)
		assert.Equal(t, expected, img)
	})
}

func TestRun(t *testing.T) {
	t.Run("loads once without interval", func(t *testing.T) {
		fetcher := mocks.NewFetcher(t)
		svc := service.NewMapService(slog.Default(), newLoader(t, fetcher), nil, nil, nil, source, 0)
		tctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
		defer cancel()

		fetcher.On("Fetch", mock.Anything, source).Return([]byte(crashes), nil).Once()

		svc.Run(tctx)

		assert.Equal(t, loaded, svc.Markers())
	})

	t.Run("reloads on interval", func(t *testing.T) {
		fetcher := mocks.NewFetcher(t)
		svc := service.NewMapService(slog.Default(), newLoader(t, fetcher), nil, nil, nil, source, 5*time.Millisecond)
		tctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		reloaded := make(chan struct{})
		fetcher.On("Fetch", mock.Anything, source).Return(nil, resource.ErrResourceUnavailable).Once()
		fetcher.On("Fetch", mock.Anything, source).Return([]byte(crashes), nil).Run(func(mock.Arguments) {
			select {
			case <-reloaded:
			default:
				close(reloaded)
			}
		})

		done := make(chan struct{})
		go func() {
			svc.Run(tctx)
			close(done)
		}()

		select {
		case <-reloaded:
		case <-time.After(2 * time.Second):
			t.Fatal("service did not reload")
		}
		cancel()
		<-done

		assert.Equal(t, loaded, svc.Markers())
	})
}
