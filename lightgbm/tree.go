package lightgbm

import (
	"fmt"
	"math"
)

// decision_type bit layout
const (
	categoricalMask = 1 << 0
	defaultLeftMask = 1 << 1
)

// MissingType is stored in bits 2-3 of decision_type.
type MissingType uint8

const (
	MissingNone MissingType = iota
	MissingZero
	MissingNaN
)

const zeroThreshold = 1e-35

// Tree is a single decision tree in LightGBM's array layout. Internal nodes
// are indexed 0..NumLeaves-2. A negative child c refers to leaf ^c.
type Tree struct {
	NumLeaves     int
	NumCat        int
	SplitFeature  []int
	SplitGain     []float64
	Threshold     []float64
	DecisionType  []uint8
	LeftChild     []int
	RightChild    []int
	LeafValue     []float64
	LeafCount     []int
	CatBoundaries []int
	CatThreshold  []uint32
	Shrinkage     float64
}

func (t *Tree) numNodes() int {
	if t.NumLeaves <= 1 {
		return 0
	}
	return t.NumLeaves - 1
}

// Predict returns the leaf value reached by fvals.
func (t *Tree) Predict(fvals []float64) float64 {
	return t.LeafValue[t.Leaf(fvals)]
}

// Leaf returns the index of the leaf reached by fvals.
func (t *Tree) Leaf(fvals []float64) int {
	if t.NumLeaves <= 1 {
		return 0
	}
	node := 0
	for node >= 0 {
		if t.decision(node, fvals[t.SplitFeature[node]]) {
			node = t.LeftChild[node]
		} else {
			node = t.RightChild[node]
		}
	}
	return ^node
}

func (t *Tree) decision(node int, fval float64) bool {
	if t.DecisionType[node]&categoricalMask != 0 {
		return t.categoricalDecision(node, fval)
	}
	return t.numericalDecision(node, fval)
}

func missingTypeOf(decisionType uint8) MissingType {
	return MissingType((decisionType >> 2) & 3)
}

func (t *Tree) numericalDecision(node int, fval float64) bool {
	dt := t.DecisionType[node]
	missing := missingTypeOf(dt)
	if math.IsNaN(fval) && missing != MissingNaN {
		fval = 0.0
	}
	isZero := fval >= -zeroThreshold && fval <= zeroThreshold
	if (missing == MissingZero && isZero) || (missing == MissingNaN && math.IsNaN(fval)) {
		return dt&defaultLeftMask != 0
	}
	return fval <= t.Threshold[node]
}

func (t *Tree) categoricalDecision(node int, fval float64) bool {
	var ifval int
	if math.IsNaN(fval) {
		if missingTypeOf(t.DecisionType[node]) == MissingNaN {
			return false
		}
		ifval = 0
	} else {
		// 整数に切り捨ててから判定する (-0.5 はカテゴリ0)
		if fval >= math.MaxInt32 {
			return false
		}
		ifval = int(fval)
		if ifval < 0 {
			return false
		}
	}
	catIdx := int(t.Threshold[node])
	lo, hi := t.CatBoundaries[catIdx], t.CatBoundaries[catIdx+1]
	return findInBitset(t.CatThreshold[lo:hi], ifval)
}

func findInBitset(bits []uint32, pos int) bool {
	i := pos / 32
	if i >= len(bits) {
		return false
	}
	return (bits[i]>>(uint(pos)%32))&1 == 1
}

// validate checks array lengths and child references so that Leaf always
// terminates within bounds.
func (t *Tree) validate(numFeatures int) error {
	if t.NumLeaves < 1 {
		return fmt.Errorf("num_leaves must be >= 1, got %d", t.NumLeaves)
	}
	if len(t.LeafValue) != t.NumLeaves {
		return fmt.Errorf("leaf_value has %d entries, want %d", len(t.LeafValue), t.NumLeaves)
	}
	n := t.numNodes()
	if n == 0 {
		return nil
	}
	for name, l := range map[string]int{
		"split_feature": len(t.SplitFeature),
		"threshold":     len(t.Threshold),
		"decision_type": len(t.DecisionType),
		"left_child":    len(t.LeftChild),
		"right_child":   len(t.RightChild),
	} {
		if l != n {
			return fmt.Errorf("%s has %d entries, want %d", name, l, n)
		}
	}
	for i := 0; i < n; i++ {
		if f := t.SplitFeature[i]; f < 0 || f >= numFeatures {
			return fmt.Errorf("node %d splits on feature %d, model has %d features", i, f, numFeatures)
		}
		for _, c := range [2]int{t.LeftChild[i], t.RightChild[i]} {
			if c >= 0 && (c <= i || c >= n) {
				return fmt.Errorf("node %d has invalid child %d", i, c)
			}
			if c < 0 && ^c >= t.NumLeaves {
				return fmt.Errorf("node %d references leaf %d, tree has %d leaves", i, ^c, t.NumLeaves)
			}
		}
		if t.DecisionType[i]&categoricalMask != 0 {
			idx := int(t.Threshold[i])
			if idx < 0 || idx+1 >= len(t.CatBoundaries) {
				return fmt.Errorf("node %d references category set %d, tree has %d", i, idx, len(t.CatBoundaries)-1)
			}
			if lo, hi := t.CatBoundaries[idx], t.CatBoundaries[idx+1]; lo < 0 || lo > hi || hi > len(t.CatThreshold) {
				return fmt.Errorf("node %d category bounds [%d, %d) out of range", i, lo, hi)
			}
		}
	}
	return nil
}
