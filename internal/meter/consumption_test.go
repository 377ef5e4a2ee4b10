package meter_test

import (
	"testing"

	"github.com/afi0204/electric-porta1/internal/meter"
)

func int64Ptr(v int64) *int64 { return &v }

func TestDelta_FirstObservation(t *testing.T) {
	acc := meter.NewAccumulator(meter.RolloverClamp)

	delta, rolledOver := acc.Delta(nil, 1000)
	if delta != 0 {
		t.Errorf("Expected baseline delta 0, got %d", delta)
	}
	if rolledOver {
		t.Error("First observation must not report a rollover")
	}
}

func TestDelta_Increase(t *testing.T) {
	acc := meter.NewAccumulator(meter.RolloverClamp)

	delta, rolledOver := acc.Delta(int64Ptr(1000), 1050)
	if delta != 50 {
		t.Errorf("Expected delta 50, got %d", delta)
	}
	if rolledOver {
		t.Error("Increasing counter must not report a rollover")
	}
}

func TestDelta_Unchanged(t *testing.T) {
	acc := meter.NewAccumulator(meter.RolloverClamp)

	delta, _ := acc.Delta(int64Ptr(1000), 1000)
	if delta != 0 {
		t.Errorf("Expected delta 0 for unchanged counter, got %d", delta)
	}
}

func TestDelta_RegressionClamp(t *testing.T) {
	acc := meter.NewAccumulator(meter.RolloverClamp)

	delta, rolledOver := acc.Delta(int64Ptr(1000), 400)
	if delta != 0 {
		t.Errorf("Expected clamped delta 0, got %d", delta)
	}
	if !rolledOver {
		t.Error("Expected regression to report a rollover")
	}
}

func TestDelta_RegressionWrap32(t *testing.T) {
	acc := meter.NewAccumulator(meter.RolloverWrap32)

	prev := int64(1)<<32 - 100
	delta, rolledOver := acc.Delta(&prev, 50)
	if delta != 150 {
		t.Errorf("Expected wrapped delta 150, got %d", delta)
	}
	if !rolledOver {
		t.Error("Expected regression to report a rollover")
	}
}

func TestDelta_NeverNegative(t *testing.T) {
	for _, policy := range []meter.RolloverPolicy{meter.RolloverClamp, meter.RolloverWrap32} {
		acc := meter.NewAccumulator(policy)
		delta, _ := acc.Delta(int64Ptr(5000), 4000)
		if delta < 0 {
			t.Errorf("Policy %s produced negative delta %d", policy, delta)
		}
	}
}

func TestParseRolloverPolicy(t *testing.T) {
	if _, err := meter.ParseRolloverPolicy("clamp"); err != nil {
		t.Errorf("Expected clamp to parse, got %v", err)
	}
	if _, err := meter.ParseRolloverPolicy("wrap32"); err != nil {
		t.Errorf("Expected wrap32 to parse, got %v", err)
	}
	if _, err := meter.ParseRolloverPolicy("negative"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}
