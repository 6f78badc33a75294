package geom

import (
	"image"
	"math"
)

// Point is a 2-D point in pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func NewPointFrom(point image.Point) Point {
	return Point{
		X: float64(point.X),
		Y: float64(point.Y),
	}
}

// EmptySentinel is returned by Centroid for a region with zero mass.
// Callers must check for it before using the result.
var EmptySentinel = Point{X: -1, Y: -1}

// Rectangle is an axis-aligned box with float64 coordinates.
type Rectangle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func NewRect(x, y, width, height float64) Rectangle {
	return Rectangle{
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}
}

func NewRectFrom(rect image.Rectangle) Rectangle {
	return Rectangle{
		X:      float64(rect.Min.X),
		Y:      float64(rect.Min.Y),
		Width:  float64(rect.Dx()),
		Height: float64(rect.Dy()),
	}
}

// Center returns the rectangle's center point.
func (r Rectangle) Center() Point {
	return Point{
		X: r.X + r.Width/2.0,
		Y: r.Y + r.Height/2.0,
	}
}

// Diagonal returns the rectangle's diagonal length.
func (r Rectangle) Diagonal() float64 {
	return math.Sqrt(r.Width*r.Width + r.Height*r.Height)
}

// EuclideanDistance returns the straight-line distance between two points.
func EuclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}

// Centroid returns the intensity-weighted centroid of a grayscale region.
// An empty region (zero total mass) yields EmptySentinel.
func Centroid(mask *image.Gray) Point {
	if mask == nil {
		return EmptySentinel
	}
	bounds := mask.Bounds()
	var sumX, sumY, mass float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := float64(mask.GrayAt(x, y).Y)
			if v == 0 {
				continue
			}
			sumX += float64(x) * v
			sumY += float64(y) * v
			mass += v
		}
	}
	if mass == 0 {
		return EmptySentinel
	}
	return Point{X: sumX / mass, Y: sumY / mass}
}
