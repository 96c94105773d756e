package cfr

import (
	"github.com/gauleng/musolver/internal/f32"
)

// Record is the per-info-set state the spec calls an "InfoSet record":
// accumulated regret, accumulated (reach-weighted) strategy, and the
// iteration the record was last touched, used by linear averaging.
//
// Arity is fixed at creation and never changes; Regrets and StrategySum
// always have length Arity (the table invariant of §3). currentStrategy
// caches the regret-matching policy computed as of the last NextStrategy
// call — not recomputed on every visit, so that every visit within one
// full traversal of the tree sees the same policy, per the teacher's own
// StrategyTable/strategy convention.
type Record struct {
	Arity       int
	Regrets     []float32
	StrategySum []float32
	LastIter    int

	currentStrategy       []float32
	currentStrategyWeight float32
}

// NewRecord returns a fresh Record of the given arity, initialized to zero
// regret, zero strategy_sum and a uniform current strategy. Exported for
// InfoSetTable implementations outside this package, such as store/ldbstore.
func NewRecord(arity int) *Record {
	return newRecord(arity)
}

func newRecord(arity int) *Record {
	r := &Record{
		Arity:       arity,
		Regrets:     make([]float32, arity),
		StrategySum: make([]float32, arity),
	}
	r.currentStrategy = uniformDist(arity)
	return r
}

// GetStrategy returns the record's current regret-matching policy.
func (r *Record) GetStrategy() []float32 {
	return r.currentStrategy
}

// AddRegret accumulates w*instantaneousRegrets into the record's
// cumulative regret. Panics with a NumericalInvariant error if any
// instantaneous regret is NaN: per §7, a NaN here means a pathological
// Game.Utility has already poisoned the traversal, and folding it into
// cumulative regret would silently corrupt every policy derived from this
// record from then on.
func (r *Record) AddRegret(w float32, instantaneousRegrets []float32) {
	for _, v := range instantaneousRegrets {
		if v != v {
			panic(numericalInvariant("NaN instantaneous regret"))
		}
	}
	if w == 1.0 {
		f32.Add(r.Regrets, instantaneousRegrets)
		return
	}
	for i, v := range instantaneousRegrets {
		r.Regrets[i] += w * v
	}
}

// AddStrategyWeight accumulates w into the weight that will be applied
// to the current strategy the next time NextStrategy runs.
func (r *Record) AddStrategyWeight(w float32) {
	r.currentStrategyWeight += w
}

// NextStrategy folds the accumulated strategy weight into strategy_sum,
// applies the CFR+/Discounted-CFR discount factors to regret, floors
// negative regret to zero under CFR+ (discountNeg == 0), and recomputes
// the current regret-matching policy. Grounded on the teacher's
// internal/policy.Policy.NextStrategy / regretMatching.
func (r *Record) NextStrategy(discountPos, discountNeg, discountSum float32) {
	if discountSum != 1.0 {
		f32.ScalUnitary(discountSum, r.StrategySum)
	}
	f32.AxpyUnitary(r.currentStrategyWeight, r.currentStrategy, r.StrategySum)

	if discountPos != 1.0 {
		for i, x := range r.Regrets {
			if x > 0 {
				r.Regrets[i] *= discountPos
			}
		}
	}
	if discountNeg != 1.0 {
		for i, x := range r.Regrets {
			if x < 0 {
				r.Regrets[i] *= discountNeg
			}
		}
	}

	r.regretMatching()
	r.currentStrategyWeight = 0.0
}

// regretMatching computes sigma from cumulative regret per §4.3: the
// positive part of regret, normalized; uniform when all regret is <= 0.
func (r *Record) regretMatching() {
	copy(r.currentStrategy, r.Regrets)
	makePositive(r.currentStrategy)
	total := f32.Sum(r.currentStrategy)
	if total > 0 {
		f32.ScalUnitary(1.0/total, r.currentStrategy)
	} else {
		uniform := 1.0 / float32(len(r.currentStrategy))
		for i := range r.currentStrategy {
			r.currentStrategy[i] = uniform
		}
	}
}

// AverageStrategy returns sigma-bar, the time-average of policies
// weighted by reach probability: this, not the latest sigma, is the
// object that converges to Nash equilibrium.
func (r *Record) AverageStrategy() []float32 {
	total := f32.Sum(r.StrategySum)
	if total <= 0 {
		return uniformDist(len(r.StrategySum))
	}

	avg := make([]float32, len(r.StrategySum))
	f32.ScalUnitaryTo(avg, 1.0/total, r.StrategySum)
	return avg
}

func uniformDist(n int) []float32 {
	result := make([]float32, n)
	p := 1.0 / float32(n)
	f32.AddConst(p, result)
	return result
}

func makePositive(v []float32) {
	for i := range v {
		if v[i] < 0 {
			v[i] = 0.0
		}
	}
}
