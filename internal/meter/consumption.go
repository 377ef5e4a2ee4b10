package meter

import "fmt"

// RolloverPolicy decides what a counter regression (new volume below the
// previous one) means. Meters report a cumulative, normally non-decreasing
// counter; a regression indicates a reset or rollover and must never be
// persisted as silent negative consumption.
type RolloverPolicy string

const (
	// RolloverClamp treats a regression as a new baseline: the delta is 0 and
	// the stored counter moves to the new value.
	RolloverClamp RolloverPolicy = "clamp"
	// RolloverWrap32 reinterprets a regression as a 32-bit counter wraparound.
	RolloverWrap32 RolloverPolicy = "wrap32"
)

const counterWrapWidth = int64(1) << 32

// ParseRolloverPolicy validates a configured policy name.
func ParseRolloverPolicy(s string) (RolloverPolicy, error) {
	switch RolloverPolicy(s) {
	case RolloverClamp, RolloverWrap32:
		return RolloverPolicy(s), nil
	}
	return "", fmt.Errorf("unknown rollover policy %q", s)
}

// Accumulator turns monotonically increasing meter counters into per-interval
// consumption deltas.
type Accumulator struct {
	policy RolloverPolicy
}

// NewAccumulator creates an accumulator with the specified rollover policy.
func NewAccumulator(policy RolloverPolicy) *Accumulator {
	return &Accumulator{policy: policy}
}

// Delta computes the consumption since the previous counter value. A nil
// previous value means the device has never been seen; the first observation
// establishes the baseline and contributes no consumption. The rolledOver
// return reports that the counter regressed and the policy was applied.
func (a *Accumulator) Delta(previous *int64, current int64) (delta int64, rolledOver bool) {
	if previous == nil {
		return 0, false
	}
	if current >= *previous {
		return current - *previous, false
	}
	switch a.policy {
	case RolloverWrap32:
		return current + counterWrapWidth - *previous, true
	default:
		return 0, true
	}
}
