// Package cluster groups the raw detections of one frame that likely belong
// to a single physical ant, e.g. two dye-mark detections on one body.
package cluster

import (
	"log/slog"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/colorid"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/geom"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/segment"
)

// Clusterer merges same-body detections by centroid distance.
type Clusterer struct {
	threshold float64
	linkage   geom.Linkage
	logger    *slog.Logger
}

func NewClusterer(threshold float64, linkage geom.Linkage, logger *slog.Logger) *Clusterer {
	return &Clusterer{threshold: threshold, linkage: linkage, logger: logger}
}

// Group clusters the frame's detections. Groups whose members agree on color
// evidence (one shared tag, or no tags at all) collapse into one synthetic
// detection; ambiguous groups pass through unmerged so the tracker can settle
// them against track history. A clustering failure degrades to singletons.
func (c *Clusterer) Group(detections []segment.Detection) []segment.Detection {
	if len(detections) < 2 {
		return detections
	}
	centroids := make([]geom.Point, len(detections))
	for i, det := range detections {
		centroids[i] = det.Centroid
	}
	n, groups := geom.Cluster(centroids, c.threshold, c.linkage)
	if n == 0 {
		// No grouping possible; treat every detection as its own cluster.
		if c.logger != nil {
			c.logger.Debug("clustering failed, falling back to singletons", "detections", len(detections))
		}
		return detections
	}

	out := make([]segment.Detection, 0, n)
	for _, group := range groups {
		if len(group) == 1 {
			out = append(out, detections[group[0]])
			continue
		}
		members := make([]segment.Detection, len(group))
		for i, idx := range group {
			members[i] = detections[idx]
		}
		if sameBody(members) {
			out = append(out, merge(members))
		} else {
			out = append(out, members...)
		}
	}
	return out
}

// sameBody reports whether all members carry the same color evidence.
func sameBody(members []segment.Detection) bool {
	tag := colorid.Unclassified
	for _, m := range members {
		if m.ColorTag == colorid.Unclassified {
			continue
		}
		if tag == colorid.Unclassified {
			tag = m.ColorTag
			continue
		}
		if m.ColorTag != tag {
			return false
		}
	}
	return true
}

// merge collapses a group into one synthetic detection: summed area,
// area-weighted centroid, hull-combined contour, union bounding box. The
// orientation and signature of the largest member are kept.
func merge(members []segment.Detection) segment.Detection {
	var area, wx, wy float64
	var contour []geom.Point
	largest := members[0]
	bbox := members[0].BBox
	tag := colorid.Unclassified
	for _, m := range members {
		area += m.Area
		wx += m.Centroid.X * m.Area
		wy += m.Centroid.Y * m.Area
		contour = append(contour, m.Contour...)
		bbox = union(bbox, m.BBox)
		if m.Area > largest.Area {
			largest = m
		}
		if tag == colorid.Unclassified {
			tag = m.ColorTag
		}
	}
	return segment.Detection{
		Contour:     geom.ConvexHull(contour),
		Centroid:    geom.Point{X: wx / area, Y: wy / area},
		Area:        area,
		BBox:        bbox,
		Orientation: largest.Orientation,
		Signature:   largest.Signature,
		ColorTag:    tag,
	}
}

func union(a, b geom.Rectangle) geom.Rectangle {
	x0 := a.X
	if b.X < x0 {
		x0 = b.X
	}
	y0 := a.Y
	if b.Y < y0 {
		y0 = b.Y
	}
	x1 := a.X + a.Width
	if bx := b.X + b.Width; bx > x1 {
		x1 = bx
	}
	y1 := a.Y + a.Height
	if by := b.Y + b.Height; by > y1 {
		y1 = by
	}
	return geom.NewRect(x0, y0, x1-x0, y1-y0)
}
