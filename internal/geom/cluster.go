package geom

import (
	"gonum.org/v1/gonum/mat"
)

// Linkage selects the criterion used when deciding whether two groups
// are close enough to be joined.
type Linkage uint8

const (
	// LinkageSingle joins groups whose nearest members are within threshold.
	LinkageSingle Linkage = iota
	// LinkageAverage joins groups whose average pairwise distance is within threshold.
	LinkageAverage
)

// DistanceMatrix returns the symmetric pairwise Euclidean distance matrix
// for the given points.
func DistanceMatrix(points []Point) *mat.Dense {
	n := len(points)
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := EuclideanDistance(points[i], points[j])
			d.Set(i, j, dist)
			d.Set(j, i, dist)
		}
	}
	return d
}

// Cluster partitions points into groups such that, under the chosen linkage,
// members of the same group are within threshold of each other transitively.
// Returns the group count and per-group member indices (ascending within each
// group, groups ordered by their smallest member).
//
// Fewer than two points is not a fatal condition: the result is zero groups
// and a nil partition, and callers must treat that as "no grouping possible".
func Cluster(points []Point, threshold float64, linkage Linkage) (int, [][]int) {
	if len(points) < 2 || threshold <= 0 {
		return 0, nil
	}
	dist := DistanceMatrix(points)
	switch linkage {
	case LinkageAverage:
		return clusterAverage(dist, threshold)
	default:
		return clusterSingle(dist, threshold)
	}
}

// clusterSingle is single-linkage agglomeration via union-find: any pair
// within threshold joins their groups.
func clusterSingle(dist *mat.Dense, threshold float64) (int, [][]int) {
	n, _ := dist.Dims()
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if dist.At(i, j) <= threshold {
				ri, rj := find(i), find(j)
				if ri != rj {
					if ri < rj {
						parent[rj] = ri
					} else {
						parent[ri] = rj
					}
				}
			}
		}
	}
	groupsByRoot := make(map[int][]int, n)
	order := make([]int, 0, n)
	for i := 0; i < n; i++ {
		r := find(i)
		if _, ok := groupsByRoot[r]; !ok {
			order = append(order, r)
		}
		groupsByRoot[r] = append(groupsByRoot[r], i)
	}
	groups := make([][]int, 0, len(order))
	for _, r := range order {
		groups = append(groups, groupsByRoot[r])
	}
	return len(groups), groups
}

// clusterAverage merges the pair of groups with the smallest average pairwise
// distance until no pair is within threshold.
func clusterAverage(dist *mat.Dense, threshold float64) (int, [][]int) {
	n, _ := dist.Dims()
	groups := make([][]int, n)
	for i := range groups {
		groups[i] = []int{i}
	}
	avg := func(a, b []int) float64 {
		var sum float64
		for _, i := range a {
			for _, j := range b {
				sum += dist.At(i, j)
			}
		}
		return sum / float64(len(a)*len(b))
	}
	for {
		bestI, bestJ := -1, -1
		bestDist := threshold
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				if d := avg(groups[i], groups[j]); d <= bestDist {
					bestDist = d
					bestI, bestJ = i, j
				}
			}
		}
		if bestI < 0 {
			break
		}
		merged := append(append([]int{}, groups[bestI]...), groups[bestJ]...)
		sortInts(merged)
		groups[bestI] = merged
		groups = append(groups[:bestJ], groups[bestJ+1:]...)
	}
	return len(groups), groups
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
