package geom

import (
	"reflect"
	"testing"
)

func TestClusterSingleLinkage(t *testing.T) {
	// Two tight groups far apart plus one outlier.
	points := []Point{
		NewPoint(0, 0),
		NewPoint(3, 0),
		NewPoint(100, 100),
		NewPoint(103, 101),
		NewPoint(500, 500),
	}
	n, groups := Cluster(points, 5.0, LinkageSingle)
	if n != 3 {
		t.Errorf("incorrect number of groups: %d, expected: %d", n, 3)
		return
	}
	expected := [][]int{{0, 1}, {2, 3}, {4}}
	if !reflect.DeepEqual(groups, expected) {
		t.Errorf("incorrect partition: %v, expected: %v", groups, expected)
	}
}

func TestClusterChaining(t *testing.T) {
	// Single linkage chains: 0-1 and 1-2 are close, 0-2 is not.
	points := []Point{
		NewPoint(0, 0),
		NewPoint(4, 0),
		NewPoint(8, 0),
	}
	n, groups := Cluster(points, 5.0, LinkageSingle)
	if n != 1 {
		t.Errorf("single linkage must chain transitively, got %d groups: %v", n, groups)
	}

	// Average linkage resists chaining: avg({0,1}, {2}) = (8+4)/2 = 6 > 5.
	n, groups = Cluster(points, 5.0, LinkageAverage)
	if n != 2 {
		t.Errorf("average linkage should keep the far point out, got %d groups: %v", n, groups)
	}
}

func TestClusterDegenerate(t *testing.T) {
	if n, groups := Cluster(nil, 5.0, LinkageSingle); n != 0 || groups != nil {
		t.Errorf("no points must yield zero groups, got %d: %v", n, groups)
	}
	if n, groups := Cluster([]Point{NewPoint(1, 1)}, 5.0, LinkageSingle); n != 0 || groups != nil {
		t.Errorf("a single point must yield zero groups, got %d: %v", n, groups)
	}
	if n, _ := Cluster([]Point{NewPoint(0, 0), NewPoint(1, 1)}, 0, LinkageSingle); n != 0 {
		t.Errorf("non-positive threshold must yield zero groups, got %d", n)
	}
}

func TestDistanceMatrixSymmetry(t *testing.T) {
	points := []Point{NewPoint(0, 0), NewPoint(3, 4), NewPoint(-1, 7)}
	d := DistanceMatrix(points)
	for i := 0; i < len(points); i++ {
		if d.At(i, i) != 0 {
			t.Errorf("diagonal must be zero at %d", i)
		}
		for j := 0; j < len(points); j++ {
			if d.At(i, j) != d.At(j, i) {
				t.Errorf("matrix must be symmetric at (%d, %d)", i, j)
			}
		}
	}
	if d.At(0, 1) != 5.0 {
		t.Errorf("incorrect distance: %f, expected: %f", d.At(0, 1), 5.0)
	}
}
