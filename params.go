package cfr

import (
	"math"
)

// Method names one of the five CFR variants the engine implements.
type Method int

const (
	// Vanilla explores the full game tree every iteration: no sampling,
	// CFR+'s regret flooring, or linear averaging.
	Vanilla Method = iota
	// CFRPlus is vanilla traversal with non-negative regrets (regrets
	// floored to zero after every update) and linear averaging of the
	// strategy sum.
	CFRPlus
	// ChanceSampling draws one outcome per Chance node instead of
	// exploring all of them, while still exploring every Player action.
	ChanceSampling
	// ExternalSampling designates one traverser per iteration; at
	// opponent nodes a single action is sampled and only strategy_sum
	// is updated, at the traverser's own nodes every action is explored
	// and regrets are updated as in vanilla CFR.
	ExternalSampling
	// FSICFR performs fixed-strategy iteration: a batch of traversals
	// reuses one frozen regret-matching policy snapshot, amortizing the
	// cost of recomputing it at every visit.
	FSICFR
)

func (m Method) String() string {
	switch m {
	case Vanilla:
		return "vanilla"
	case CFRPlus:
		return "cfr-plus"
	case ChanceSampling:
		return "chance-sampling"
	case ExternalSampling:
		return "external-sampling"
	case FSICFR:
		return "fsi-cfr"
	default:
		return "Method(?)"
	}
}

// Params are the configuration options for CFR sampling and regret
// matching that a Solver is built from. The zero Params value is valid
// and corresponds to vanilla CFR.
type Params struct {
	SampleChanceNodes     bool    // Chance Sampling
	SampleOpponentActions bool    // External Sampling
	UseRegretMatchingPlus bool    // CFR+: floor regrets to zero
	LinearWeighting       bool    // CFR+/Linear CFR: weight later iterations more
	LinearAvgT0           int     // Warm-up iteration count before linear weighting kicks in; default 0
	DiscountAlpha         float32 // Discounted CFR, positive regret
	DiscountBeta          float32 // Discounted CFR, negative regret
	DiscountGamma         float32 // Discounted CFR, strategy sum
}

// ParamsForMethod returns the canonical Params for one of the five named
// CFR variants. ExternalSampling and FSICFR also need a Solver/FSISolver
// constructed accordingly; this only fixes the regret-matching/averaging
// behavior common to all of them.
func ParamsForMethod(m Method, linearAvgT0 int) Params {
	switch m {
	case CFRPlus:
		return Params{UseRegretMatchingPlus: true, LinearWeighting: true, LinearAvgT0: linearAvgT0}
	case ChanceSampling:
		return Params{SampleChanceNodes: true}
	case ExternalSampling:
		return Params{SampleChanceNodes: true, SampleOpponentActions: true}
	case FSICFR, Vanilla:
		return Params{}
	default:
		return Params{}
	}
}

// GetDiscountFactors computes the discount factors as configured by the
// parameters for the various CFR weighting schemes: CFR+, linear CFR,
// and Discounted CFR (Brown & Sandholm, 2019).
//
// See: https://arxiv.org/pdf/1809.04040.pdf
func (p Params) GetDiscountFactors(iter int) (positive, negative, sum float32) {
	positive = float32(1.0)
	negative = float32(1.0)
	sum = float32(1.0)

	if p.LinearWeighting {
		// Linear CFR is equivalent to weighting the reach prob on each
		// iteration by (t / (t+1)); this reduces numerical instability
		// relative to multiplying the per-iteration contribution by t
		// directly. LinearAvgT0 postpones this decay until iteration
		// t0, so the first t0 iterations are weighted uniformly.
		t := iter - p.LinearAvgT0
		if t >= 1 {
			sum = float32(t) / float32(t+1)
		}
	}

	if p.UseRegretMatchingPlus {
		negative = 0.0 // No negative regrets.
	}

	if p.DiscountAlpha != 0 {
		// t^alpha / (t^alpha + 1)
		x := float32(math.Pow(float64(iter), float64(p.DiscountAlpha)))
		positive = x / (x + 1.0)
	}

	if p.DiscountBeta != 0 {
		// t^beta / (t^beta + 1)
		x := float32(math.Pow(float64(iter), float64(p.DiscountBeta)))
		negative = x / (x + 1.0)
	}

	if p.DiscountGamma != 0 {
		// (t / (t+1)) ^ gamma
		x := float64(iter) / float64(iter+1)
		sum = float32(math.Pow(x, float64(p.DiscountGamma)))
	}

	return
}

// StrategySumFactor returns the rescale factor a record last folded into
// strategy_sum at lastIter should apply when it is folded in again at iter.
// A record touched every iteration has lastIter == iter-1 and this reduces
// to exactly the single factor GetDiscountFactors(iter) would report; a
// record a sampling variant skipped over several iterations instead gets
// the product of every skipped iteration's factor, which is the decay it
// would have accumulated had it been rescaled on each of them individually.
// This is what last_iter exists to make possible (§3, §4.6).
func (p Params) StrategySumFactor(lastIter, iter int) float32 {
	if lastIter >= iter {
		return 1.0
	}
	if !p.LinearWeighting && p.DiscountGamma == 0 {
		return 1.0
	}

	factor := float32(1.0)
	for k := lastIter + 1; k <= iter; k++ {
		_, _, sum := p.GetDiscountFactors(k)
		factor *= sum
	}
	return factor
}
