// Package kanban orders companies on the pipeline board. Cards carry
// fractional sort keys so a move rewrites one row; columns carry dense
// integer positions.
package kanban

import "slices"

// MinGap is the smallest spacing between neighbouring card keys before the
// column is renumbered.
const MinGap = 0.001

// CalculatePosition returns the key that places a card at targetIndex among
// positions. Nil positions count as 0. The moved card must not be in
// positions.
func CalculatePosition(positions []*float64, targetIndex int) float64 {
	if len(positions) == 0 {
		return 1
	}
	sorted := values(positions)
	slices.Sort(sorted)

	switch {
	case targetIndex <= 0:
		return sorted[0] - 1
	case targetIndex >= len(sorted):
		return sorted[len(sorted)-1] + 1
	}
	before, after := sorted[targetIndex-1], sorted[targetIndex]
	return before + (after-before)/2
}

// NeedsRebalancing reports whether any two neighbouring keys are closer than
// MinGap.
func NeedsRebalancing(positions []float64) bool {
	if len(positions) < 2 {
		return false
	}
	sorted := slices.Clone(positions)
	slices.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] < MinGap {
			return true
		}
	}
	return false
}

// Rebalance returns n evenly spaced keys 1..n.
func Rebalance(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

func values(positions []*float64) []float64 {
	out := make([]float64, len(positions))
	for i, p := range positions {
		if p != nil {
			out[i] = *p
		}
	}
	return out
}
