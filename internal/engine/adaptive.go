package engine

// Default accuracy thresholds for adaptive level adjustment.
const (
	DefaultRaiseAbove = 0.90
	DefaultLowerBelow = 0.75
)

// AdaptivePolicy adjusts the N level between sessions based on accuracy.
// It is consulted only at session boundaries, never mid-session.
type AdaptivePolicy struct {
	Enabled    bool
	RaiseAbove float64
	LowerBelow float64
}

// DefaultAdaptivePolicy returns an enabled policy with default thresholds.
func DefaultAdaptivePolicy() AdaptivePolicy {
	return AdaptivePolicy{
		Enabled:    true,
		RaiseAbove: DefaultRaiseAbove,
		LowerBelow: DefaultLowerBelow,
	}
}

// ProposeNextLevel returns the N level for the next session. Disabled
// policies return the current level unchanged; the result never drops
// below 1.
func (p AdaptivePolicy) ProposeNextLevel(current int, accuracy float64) int {
	if current < 1 {
		current = 1
	}
	if !p.Enabled {
		return current
	}
	switch {
	case accuracy > p.RaiseAbove:
		return current + 1
	case accuracy < p.LowerBelow && current > 1:
		return current - 1
	default:
		return current
	}
}
