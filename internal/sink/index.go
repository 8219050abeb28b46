package sink

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/dhconnelly/rtreego"
)

const (
	tolerance   = 1e-9
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// ErrInvalidBox is returned when a bounding box has its corners swapped.
var ErrInvalidBox = errors.New("invalid bounding box")

// BoundingBox is a rectangular viewport given by its south-west and north-east corners.
type BoundingBox struct {
	SouthWest models.Coordinates
	NorthEast models.Coordinates
}

// marker wraps a coordinate for R-tree indexing.
type marker struct {
	seq    int
	coords models.Coordinates
	rect   rtreego.Rect
}

func (m *marker) Bounds() rtreego.Rect {
	return m.rect
}

// Index is a thread-safe R-tree of markers for viewport and proximity queries.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	seq  int
}

// NewIndex creates an empty marker index.
func NewIndex() *Index {
	return &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
}

// Add indexes coords.
func (idx *Index) Add(coords models.Coordinates) {
	point := rtreego.Point{coords.Latitude, coords.Longitude}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree.Insert(&marker{seq: idx.seq, coords: coords, rect: point.ToRect(tolerance)})
	idx.seq++
}

// Len returns the number of indexed markers.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.tree.Size()
}

// SearchBox returns the markers inside box, boundaries included, in insertion order.
func (idx *Index) SearchBox(box BoundingBox) ([]models.Coordinates, error) {
	sw, ne := box.SouthWest, box.NorthEast
	if sw.Latitude > ne.Latitude || sw.Longitude > ne.Longitude || !sw.Valid() || !ne.Valid() {
		return nil, ErrInvalidBox
	}

	// Markers are stored as rects of the point tolerance, so pad the query by the same amount.
	rect, err := rtreego.NewRectFromPoints(
		rtreego.Point{sw.Latitude - tolerance, sw.Longitude - tolerance},
		rtreego.Point{ne.Latitude + tolerance, ne.Longitude + tolerance},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBox, err)
	}

	idx.mu.RLock()
	results := idx.tree.SearchIntersect(rect)
	idx.mu.RUnlock()

	found := make([]*marker, 0, len(results))
	for _, result := range results {
		item, ok := result.(*marker)
		if !ok {
			continue
		}
		c := item.coords
		if c.Latitude >= sw.Latitude && c.Latitude <= ne.Latitude &&
			c.Longitude >= sw.Longitude && c.Longitude <= ne.Longitude {
			found = append(found, item)
		}
	}

	return inOrder(found), nil
}

// Nearest returns up to n markers closest to coords, nearest first.
// n larger than the index is clamped to its size.
func (idx *Index) Nearest(coords models.Coordinates, n int) []models.Coordinates {
	if n <= 0 {
		return nil
	}

	idx.mu.RLock()
	if size := idx.tree.Size(); n > size {
		n = size
	}
	var results []rtreego.Spatial
	if n > 0 {
		results = idx.tree.NearestNeighbors(n, rtreego.Point{coords.Latitude, coords.Longitude})
	}
	idx.mu.RUnlock()

	out := make([]models.Coordinates, 0, len(results))
	for _, result := range results {
		if item, ok := result.(*marker); ok {
			out = append(out, item.coords)
		}
	}

	return out
}

func inOrder(found []*marker) []models.Coordinates {
	slices.SortFunc(found, func(a, b *marker) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]models.Coordinates, len(found))
	for i, item := range found {
		out[i] = item.coords
	}

	return out
}
