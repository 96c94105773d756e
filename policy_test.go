package cfr

import (
	"math"
	"testing"
)

func TestNewRecordUniform(t *testing.T) {
	r := NewRecord(4)
	sigma := r.GetStrategy()
	if len(sigma) != 4 {
		t.Fatalf("len(sigma) = %d, want 4", len(sigma))
	}
	for i, p := range sigma {
		if math.Abs(float64(p)-0.25) > 1e-6 {
			t.Errorf("sigma[%d] = %v, want 0.25", i, p)
		}
	}
}

func TestRecordRegretMatching(t *testing.T) {
	r := NewRecord(3)
	r.AddRegret(1.0, []float32{3, 1, 0})
	r.NextStrategy(1.0, 1.0, 1.0)

	sigma := r.GetStrategy()
	want := []float32{0.75, 0.25, 0.0}
	for i, w := range want {
		if math.Abs(float64(sigma[i]-w)) > 1e-6 {
			t.Errorf("sigma[%d] = %v, want %v", i, sigma[i], w)
		}
	}
}

func TestRecordRegretMatchingAllNonPositiveIsUniform(t *testing.T) {
	r := NewRecord(3)
	r.AddRegret(1.0, []float32{-1, -2, -3})
	r.NextStrategy(1.0, 1.0, 1.0)

	sigma := r.GetStrategy()
	for i, p := range sigma {
		if math.Abs(float64(p)-1.0/3.0) > 1e-6 {
			t.Errorf("sigma[%d] = %v, want 1/3 (uniform fallback)", i, p)
		}
	}
}

func TestRecordCFRPlusFloorsNegativeRegret(t *testing.T) {
	r := NewRecord(2)
	r.AddRegret(1.0, []float32{5, -5})
	r.NextStrategy(1.0, 0.0, 1.0) // CFR+ discount: negative regret -> 0

	for i, reg := range r.Regrets {
		if reg < 0 {
			t.Errorf("Regrets[%d] = %v, want >= 0 under CFR+", i, reg)
		}
	}
}

func TestRecordAverageStrategyUniformBeforeAnyWeight(t *testing.T) {
	r := NewRecord(3)
	avg := r.AverageStrategy()
	for i, p := range avg {
		if math.Abs(float64(p)-1.0/3.0) > 1e-6 {
			t.Errorf("AverageStrategy[%d] = %v, want 1/3", i, p)
		}
	}
}

func TestRecordAverageStrategyAccumulates(t *testing.T) {
	r := NewRecord(2)
	r.AddRegret(1.0, []float32{1, 0})
	r.NextStrategy(1.0, 1.0, 1.0) // sigma is now (1, 0)
	r.AddStrategyWeight(1.0)
	r.NextStrategy(1.0, 1.0, 1.0) // folds weight*sigma into strategy_sum

	avg := r.AverageStrategy()
	if math.Abs(float64(avg[0])-1.0) > 1e-6 || math.Abs(float64(avg[1])) > 1e-6 {
		t.Errorf("AverageStrategy = %v, want (1, 0)", avg)
	}
}
