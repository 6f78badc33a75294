package geom

import "sort"

// ConvexHull returns the convex hull of the given points in counter-clockwise
// order (Andrew's monotone chain). Fewer than three points returns the input
// copy unchanged.
func ConvexHull(points []Point) []Point {
	if len(points) < 3 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}
	pts := make([]Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	cross := func(o, a, b Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var lower []Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper []Point
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// Defect is a concavity on a contour: the point deviating most from the hull
// edge it falls under, and how deep the deviation is.
type Defect struct {
	Point Point
	Depth float64
}

// HullDefects returns, for each run of ordered contour points between two
// consecutive hull vertices, the point deviating most from the chord joining
// them, if it deviates by at least minDepth. For two touching ant bodies the
// deepest defects sit at the waist between them.
func HullDefects(contour []Point, minDepth float64) []Defect {
	hull := ConvexHull(contour)
	if len(hull) < 3 {
		return nil
	}
	onHull := make(map[Point]bool, len(hull))
	for _, p := range hull {
		onHull[p] = true
	}
	// Rotate so the walk starts at a hull vertex.
	start := -1
	for i, p := range contour {
		if onHull[p] {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	n := len(contour)
	var defects []Defect
	anchor := contour[start]
	var deepest Point
	maxDepth := 0.0
	var run []Point
	for k := 1; k <= n; k++ {
		p := contour[(start+k)%n]
		if !onHull[p] {
			run = append(run, p)
			continue
		}
		// Chord closed: measure the run against it.
		for _, q := range run {
			if d := pointSegmentDistance(q, anchor, p); d > maxDepth {
				maxDepth = d
				deepest = q
			}
		}
		if maxDepth >= minDepth {
			defects = append(defects, Defect{Point: deepest, Depth: maxDepth})
		}
		anchor, run, maxDepth = p, run[:0], 0
	}
	return defects
}

func pointSegmentDistance(p, a, b Point) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return EuclideanDistance(p, a)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	proj := Point{X: a.X + t*abx, Y: a.Y + t*aby}
	return EuclideanDistance(p, proj)
}
