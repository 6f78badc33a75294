package segment

import (
	"image"
	"math"
	"sort"

	"github.com/jinook0707/cremerGroupApp-sub000/internal/colorid"
	"github.com/jinook0707/cremerGroupApp-sub000/internal/geom"
)

// Detection is one segmented candidate ant region within a single frame.
// It is consumed by the clusterer and tracker and discarded after the frame.
type Detection struct {
	// Contour is the region boundary, ordered by angle around the centroid.
	Contour []geom.Point
	// Centroid of the region pixels.
	Centroid geom.Point
	// Area is the region pixel count.
	Area float64
	// BBox is the axis-aligned bounding box.
	BBox geom.Rectangle
	// Orientation is the principal-axis angle in radians, in (-π/2, π/2].
	Orientation float64
	// Signature is the HSV statistic sampled over the region.
	Signature colorid.Signature
	// ColorTag is the classified palette tag, or colorid.Unclassified.
	ColorTag string
	// Midline is the skeleton midline for elongated regions, nil otherwise.
	Midline []geom.Point
}

// minMidlineElongation is the major/minor axis ratio above which a midline
// is extracted.
const minMidlineElongation = 2.0

// midlineSegments is how many samples the midline is reduced to.
const midlineSegments = 9

// newDetection derives all geometric features from one connected pixel cluster.
func newDetection(pixels []image.Point, bbox image.Rectangle) Detection {
	n := float64(len(pixels))
	var sumX, sumY float64
	for _, p := range pixels {
		sumX += float64(p.X)
		sumY += float64(p.Y)
	}
	cx, cy := sumX/n, sumY/n

	// Central second-order moments.
	var mu20, mu02, mu11 float64
	for _, p := range pixels {
		dx := float64(p.X) - cx
		dy := float64(p.Y) - cy
		mu20 += dx * dx
		mu02 += dy * dy
		mu11 += dx * dy
	}
	mu20 /= n
	mu02 /= n
	mu11 /= n
	orientation := 0.5 * math.Atan2(2*mu11, mu20-mu02)

	det := Detection{
		Centroid:    geom.Point{X: cx, Y: cy},
		Area:        n,
		BBox:        geom.NewRectFrom(bbox),
		Orientation: orientation,
		Contour:     traceContour(pixels, cx, cy),
	}

	// Axis lengths from the moment eigenvalues decide elongation.
	common := math.Sqrt(math.Pow(mu20-mu02, 2) + 4*mu11*mu11)
	major := math.Sqrt((mu20 + mu02 + common) / 2)
	minor := math.Sqrt(math.Max((mu20+mu02-common)/2, 1e-9))
	if major/minor >= minMidlineElongation {
		det.Midline = extractMidline(pixels, cx, cy, orientation)
	}
	return det
}

// traceContour collects boundary pixels (those with a missing 4-neighbor) and
// orders them by angle around the centroid. Ant blobs are near-convex, so the
// angular order is a faithful polygon for hull-defect analysis.
func traceContour(pixels []image.Point, cx, cy float64) []geom.Point {
	member := make(map[image.Point]struct{}, len(pixels))
	for _, p := range pixels {
		member[p] = struct{}{}
	}
	var boundary []geom.Point
	for _, p := range pixels {
		for _, q := range [4]image.Point{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}} {
			if _, ok := member[q]; !ok {
				boundary = append(boundary, geom.NewPointFrom(p))
				break
			}
		}
	}
	sort.Slice(boundary, func(i, j int) bool {
		ai := math.Atan2(boundary[i].Y-cy, boundary[i].X-cx)
		aj := math.Atan2(boundary[j].Y-cy, boundary[j].X-cx)
		if ai != aj {
			return ai < aj
		}
		if boundary[i].X != boundary[j].X {
			return boundary[i].X < boundary[j].X
		}
		return boundary[i].Y < boundary[j].Y
	})
	return boundary
}

// extractMidline bins the region pixels along the principal axis and averages
// each bin, yielding the skeleton midline of an elongated blob.
func extractMidline(pixels []image.Point, cx, cy, orientation float64) []geom.Point {
	dirX, dirY := math.Cos(orientation), math.Sin(orientation)

	type proj struct {
		t float64
		p image.Point
	}
	projs := make([]proj, len(pixels))
	minT, maxT := math.MaxFloat64, -math.MaxFloat64
	for i, p := range pixels {
		t := (float64(p.X)-cx)*dirX + (float64(p.Y)-cy)*dirY
		projs[i] = proj{t: t, p: p}
		minT = math.Min(minT, t)
		maxT = math.Max(maxT, t)
	}
	span := maxT - minT
	if span <= 0 {
		return nil
	}

	sumX := make([]float64, midlineSegments)
	sumY := make([]float64, midlineSegments)
	count := make([]int, midlineSegments)
	for _, pr := range projs {
		bin := int((pr.t - minT) / span * float64(midlineSegments))
		if bin >= midlineSegments {
			bin = midlineSegments - 1
		}
		sumX[bin] += float64(pr.p.X)
		sumY[bin] += float64(pr.p.Y)
		count[bin]++
	}
	var midline []geom.Point
	for i := 0; i < midlineSegments; i++ {
		if count[i] == 0 {
			continue
		}
		midline = append(midline, geom.Point{
			X: sumX[i] / float64(count[i]),
			Y: sumY[i] / float64(count[i]),
		})
	}
	return midline
}
