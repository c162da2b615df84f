package engine

import "golang.org/x/exp/constraints"

func clampRange[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01[T constraints.Float](v T) T { return clampRange(v, 0, 1) }
