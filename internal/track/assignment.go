package track

import (
	"github.com/arthurkushman/go-hungarian"
)

// Algorithm selects how in-gate track/detection pairs are committed.
type Algorithm uint16

const (
	// AlgorithmGreedy repeatedly commits the globally cheapest remaining
	// pair. Not optimal bipartite matching, but low-latency on the small
	// per-frame object counts this pipeline sees, and the default.
	AlgorithmGreedy Algorithm = iota
	// AlgorithmHungarian solves the optimal assignment (Kuhn-Munkres).
	AlgorithmHungarian
)

// assignment is the committed track/detection pairing of one frame.
type assignment struct {
	trackToDet map[int64]int
	detToTrack map[int]int64
}

// solve commits pairs from the cost table. costs[ti][di] is the pair cost;
// only pairs at or below gate participate.
func solve(alg Algorithm, trackIDs []int64, costs [][]float64, numDets int, gate float64) assignment {
	asg := assignment{
		trackToDet: make(map[int64]int),
		detToTrack: make(map[int]int64),
	}
	if len(trackIDs) == 0 || numDets == 0 {
		return asg
	}
	switch alg {
	case AlgorithmHungarian:
		solveHungarian(&asg, trackIDs, costs, numDets, gate)
	default:
		solveGreedy(&asg, trackIDs, costs, numDets, gate)
	}
	return asg
}

// solveGreedy pops the cheapest remaining in-gate pair from a min-heap and
// commits it if both sides are still free. Ties break by lowest track id.
func solveGreedy(asg *assignment, trackIDs []int64, costs [][]float64, numDets int, gate float64) {
	pq := make(candidateHeap, 0, len(trackIDs))
	for ti, id := range trackIDs {
		for di := 0; di < numDets; di++ {
			if costs[ti][di] <= gate {
				pq.Push(&candidate{cost: costs[ti][di], trackID: id, detIdx: di})
			}
		}
	}
	for pq.Len() > 0 {
		c := pq.Pop()
		if _, taken := asg.trackToDet[c.trackID]; taken {
			continue
		}
		if _, taken := asg.detToTrack[c.detIdx]; taken {
			continue
		}
		asg.trackToDet[c.trackID] = c.detIdx
		asg.detToTrack[c.detIdx] = c.trackID
	}
}

// solveHungarian converts in-gate costs to scores (gate - cost), pads the
// matrix square with zero scores and runs Kuhn-Munkres. Zero-score matches
// are discarded: they correspond to out-of-gate padding.
func solveHungarian(asg *assignment, trackIDs []int64, costs [][]float64, numDets int, gate float64) {
	size := len(trackIDs)
	if numDets > size {
		size = numDets
	}
	scores := make([][]float64, size)
	for i := range scores {
		scores[i] = make([]float64, size)
	}
	for ti := range trackIDs {
		for di := 0; di < numDets; di++ {
			if costs[ti][di] <= gate {
				scores[ti][di] = gate - costs[ti][di] + 1e-9
			}
		}
	}
	for trackIdx, row := range hungarian.SolveMax(scores) {
		if trackIdx >= len(trackIDs) {
			continue
		}
		for detIdx, score := range row {
			if detIdx >= numDets || score <= 0 {
				continue
			}
			asg.trackToDet[trackIDs[trackIdx]] = detIdx
			asg.detToTrack[detIdx] = trackIDs[trackIdx]
		}
	}
}
