package geom

import (
	"math"
	"testing"
)

func TestConvexHullSquare(t *testing.T) {
	points := []Point{
		NewPoint(0, 0),
		NewPoint(10, 0),
		NewPoint(10, 10),
		NewPoint(0, 10),
		NewPoint(5, 5), // interior
		NewPoint(5, 0), // collinear on an edge
	}
	hull := ConvexHull(points)
	if len(hull) != 4 {
		t.Errorf("incorrect hull size: %d, expected: %d (%v)", len(hull), 4, hull)
		return
	}
	for _, p := range hull {
		if p.X != 0 && p.X != 10 || p.Y != 0 && p.Y != 10 {
			t.Errorf("hull contains non-corner point (%f, %f)", p.X, p.Y)
		}
	}
}

func TestConvexHullDegenerate(t *testing.T) {
	points := []Point{NewPoint(1, 2), NewPoint(3, 4)}
	hull := ConvexHull(points)
	if len(hull) != 2 {
		t.Errorf("fewer than three points must pass through, got %v", hull)
	}
}

func TestHullDefectsWaist(t *testing.T) {
	// Dumbbell contour: two squares joined by a narrow waist. The deepest
	// defects sit at the pinch, the signature of two touching bodies.
	contour := []Point{
		{0, 0}, {10, 0}, {10, 4}, {15, 4}, {20, 4}, {20, 0}, {30, 0},
		{30, 10}, {20, 10}, {20, 6}, {15, 6}, {10, 6}, {10, 10}, {0, 10},
	}
	defects := HullDefects(contour, 3.0)
	if len(defects) == 0 {
		t.Errorf("expected waist defects on a dumbbell contour")
		return
	}
	foundWaist := false
	for _, d := range defects {
		if math.Abs(d.Point.X-15) < 6 && d.Depth >= 3.0 {
			foundWaist = true
		}
	}
	if !foundWaist {
		t.Errorf("no defect found at the waist: %v", defects)
	}
}

func TestHullDefectsConvexShape(t *testing.T) {
	contour := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if defects := HullDefects(contour, 1.0); len(defects) != 0 {
		t.Errorf("a convex contour has no defects, got %v", defects)
	}
}
