// Package cluster groups geographic points into zoom-dependent marker
// clusters for map rendering.
//
// An Index is built once per point set and is immutable afterwards; a new
// result set always produces a new Index, so queries against a stale index
// during a rebuild are safe. Small point sets skip clustering entirely and
// are served from a flat index that only filters by bounding box.
package cluster

import (
	"fmt"
	"math"

	"github.com/trainmap/gymdex/internal/geo"
)

// Options tunes index construction.
type Options struct {
	// MinPointsToCluster is the point-count threshold below which the index
	// stays flat (no clustering overhead for small result sets).
	MinPointsToCluster int
	// PixelRadius is the screen-pixel radius within which points merge.
	PixelRadius int
	// MinPointsPerCluster is the smallest group that becomes a cluster.
	MinPointsPerCluster int
	// MaxZoom is the deepest zoom level with cluster grouping. Above it all
	// points render individually.
	MaxZoom int
	// Extent is the tile extent in pixels used to convert PixelRadius into
	// projected units per zoom.
	Extent int
}

// DefaultOptions returns the production clustering parameters.
func DefaultOptions() Options {
	return Options{
		MinPointsToCluster:  50,
		PixelRadius:         60,
		MinPointsPerCluster: 2,
		MaxZoom:             19,
		Extent:              256,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MinPointsToCluster <= 0 {
		o.MinPointsToCluster = def.MinPointsToCluster
	}
	if o.PixelRadius <= 0 {
		o.PixelRadius = def.PixelRadius
	}
	if o.MinPointsPerCluster < 2 {
		o.MinPointsPerCluster = def.MinPointsPerCluster
	}
	if o.MaxZoom <= 0 {
		o.MaxZoom = def.MaxZoom
	}
	if o.Extent <= 0 {
		o.Extent = def.Extent
	}
	return o
}

// Point is the minimal unit indexed by the engine.
type Point struct {
	ID  string  `json:"id"`
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// MarkerType discriminates the Marker union.
type MarkerType string

const (
	MarkerPoint   MarkerType = "point"
	MarkerCluster MarkerType = "cluster"
)

// Marker is the renderable output of a viewport query: either an individual
// point or an aggregated cluster.
type Marker struct {
	Type  MarkerType `json:"type"`
	ID    string     `json:"id"`
	Count int        `json:"count"`
	Lng   float64    `json:"lng"`
	Lat   float64    `json:"lat"`
	Point *Point     `json:"point,omitempty"`
}

// node is a point or cluster at some zoom level, positioned in projected
// mercator [0,1) space. Nodes that survive unmerged are shared by pointer
// across zoom levels so cluster identity is stable.
type node struct {
	x, y       float64
	sumX, sumY float64
	count      int
	id         string
	point      *Point
}

func (n *node) isCluster() bool { return n.point == nil }

type zoomRange struct {
	min, max int
}

// Index answers viewport queries over one immutable point set.
type Index struct {
	opts   Options
	leaves []*node
	// levels[z] holds the marker nodes visible at integer zoom z.
	// Nil for a flat index.
	levels [][]*node
	// ranges records, per synthetic cluster id, the zoom span at which the
	// cluster exists as-is. Expansion zoom is one past the top of the span.
	ranges map[string]zoomRange
}

// Build constructs an index over the given points. Points with non-finite
// coordinates are dropped; an empty set yields a valid empty flat index.
func Build(points []Point, opts Options) *Index {
	opts = opts.withDefaults()

	leaves := make([]*node, 0, len(points))
	for i := range points {
		p := points[i]
		if !finite(p.Lng) || !finite(p.Lat) {
			continue
		}
		x := geo.LngToX(geo.ClampLng(p.Lng))
		y := geo.LatToY(geo.ClampLat(p.Lat))
		leaves = append(leaves, &node{
			x: x, y: y, sumX: x, sumY: y,
			count: 1,
			id:    p.ID,
			point: &p,
		})
	}

	ix := &Index{opts: opts, leaves: leaves}
	if len(leaves) < opts.MinPointsToCluster {
		return ix
	}

	ix.levels = make([][]*node, opts.MaxZoom+1)
	ix.ranges = make(map[string]zoomRange)

	b := &builder{opts: opts}
	prev := leaves
	for z := opts.MaxZoom; z >= 0; z-- {
		prev = b.clusterLevel(prev, z)
		ix.levels[z] = prev
		for _, n := range prev {
			if !n.isCluster() {
				continue
			}
			r, ok := ix.ranges[n.id]
			if !ok {
				r = zoomRange{min: z, max: z}
			} else {
				r.min = z
			}
			ix.ranges[n.id] = r
		}
	}
	return ix
}

// Flat reports whether the index skipped clustering.
func (ix *Index) Flat() bool { return ix.levels == nil }

// Len returns the number of indexed points.
func (ix *Index) Len() int { return len(ix.leaves) }

// Query returns the markers visible in the bounding box at the given zoom.
// Fractional zooms round to the nearest non-negative integer because the
// per-zoom grouping is defined only at integer levels.
func (ix *Index) Query(bbox geo.BBox, zoom float64) []Marker {
	z := int(math.Round(zoom))
	if z < 0 {
		z = 0
	}

	nodes := ix.leaves
	if !ix.Flat() && z <= ix.opts.MaxZoom {
		nodes = ix.levels[z]
	}

	markers := make([]Marker, 0, len(nodes))
	for _, n := range nodes {
		lng := geo.XToLng(n.x)
		lat := geo.YToLat(n.y)
		if !bbox.Contains(lng, lat) {
			continue
		}
		if n.isCluster() {
			markers = append(markers, Marker{
				Type:  MarkerCluster,
				ID:    n.id,
				Count: n.count,
				Lng:   lng,
				Lat:   lat,
			})
		} else {
			markers = append(markers, Marker{
				Type:  MarkerPoint,
				ID:    n.id,
				Count: 1,
				Lng:   n.point.Lng,
				Lat:   n.point.Lat,
				Point: n.point,
			})
		}
	}
	return markers
}

// ExpansionZoom returns the minimum zoom at which the given cluster splits
// into smaller clusters or individual points. The second return is false for
// flat indexes and unknown ids; stale marker ids from a superseded index are
// expected across async updates and must not panic.
func (ix *Index) ExpansionZoom(clusterID string) (int, bool) {
	if ix.Flat() {
		return 0, false
	}
	r, ok := ix.ranges[clusterID]
	if !ok {
		return 0, false
	}
	return r.max + 1, true
}

// builder assigns synthetic cluster ids during construction.
type builder struct {
	opts   Options
	nextID int
}

type candidate struct {
	baseX, baseY float64
	members      []*node
	count        int
}

// clusterLevel greedily merges the nodes of the next-deeper level using a
// uniform grid sized to the pixel radius at zoom z. Input order drives the
// merge, keeping the result deterministic.
func (b *builder) clusterLevel(nodes []*node, z int) []*node {
	// Pixel radius in projected units at this zoom.
	r := float64(b.opts.PixelRadius) / float64(b.opts.Extent*(1<<z))

	grid := make(map[[2]int]*candidate)
	order := make([]*candidate, 0, len(nodes))

	for _, n := range nodes {
		cx := int(math.Floor(n.x / r))
		cy := int(math.Floor(n.y / r))

		var target *candidate
		for dx := -1; dx <= 1 && target == nil; dx++ {
			for dy := -1; dy <= 1; dy++ {
				c, ok := grid[[2]int{cx + dx, cy + dy}]
				if !ok {
					continue
				}
				if math.Hypot(n.x-c.baseX, n.y-c.baseY) <= r {
					target = c
					break
				}
			}
		}

		if target == nil {
			target = &candidate{baseX: n.x, baseY: n.y}
			grid[[2]int{cx, cy}] = target
			order = append(order, target)
		}
		target.members = append(target.members, n)
		target.count += n.count
	}

	out := make([]*node, 0, len(order))
	for _, c := range order {
		// A lone member passes through unchanged, preserving identity.
		if len(c.members) == 1 {
			out = append(out, c.members[0])
			continue
		}
		if c.count < b.opts.MinPointsPerCluster {
			out = append(out, c.members...)
			continue
		}
		merged := &node{count: c.count}
		for _, m := range c.members {
			merged.sumX += m.sumX
			merged.sumY += m.sumY
		}
		merged.x = merged.sumX / float64(c.count)
		merged.y = merged.sumY / float64(c.count)
		b.nextID++
		merged.id = fmt.Sprintf("c%d", b.nextID)
		out = append(out, merged)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
