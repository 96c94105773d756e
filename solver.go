package cfr

import (
	"math/rand"

	"github.com/golang/glog"
)

const eps = 1e-3

// Solver implements the CFR traversal kernel: the recursive reach-probability
// walk of a game tree that accumulates regret and average-strategy weight
// into an InfoSetTable. One Solver value implements whichever of the five
// variants its Params selects; vanilla, CFR+, chance sampling and external
// sampling all share this same traversal, differing only in the flags
// consulted along the way. FSI-CFR reuses traverse via FSISolver in
// fsi_cfr.go, substituting a frozen policy snapshot for table.GetStrategy.
//
// Grounded on the teacher's CFR/runHelper/handleChanceNode/handlePlayerNode,
// generalized from a hardcoded two-player sign convention to an N-player
// utility vector, per the engine's Game contract.
type Solver[G Game[A], A comparable] struct {
	params Params
	table  InfoSetTable
	rng    *rand.Rand
	iter   int

	traverser int

	utilPool floatSlicePool

	// policyOverride, when set, replaces table.GetStrategy as the source
	// of a Player node's policy. Used by the FSI-CFR play-out phase to
	// consult a frozen sigma_fixed snapshot instead of recomputing regret
	// matching from live regrets at every visit.
	policyOverride func(key string, arity int) []float32
}

// NewSolver returns a Solver ready to run iterations of the CFR variant
// selected by params, storing info-sets in table and drawing samples (under
// chance/external sampling) from rng. If table already reflects prior
// training (e.g. reloaded via LoadSnapshotTable/LoadInfoSetTable), iteration
// numbering continues from table.Iter()+1 rather than restarting at 1, so
// discount-factor schedules that depend on the absolute iteration (CFR+,
// Discounted CFR) stay correct across a resume.
func NewSolver[G Game[A], A comparable](params Params, table InfoSetTable, rng *rand.Rand) *Solver[G, A] {
	return &Solver[G, A]{
		params: params,
		table:  table,
		rng:    rng,
		iter:   table.Iter() + 1,
	}
}

// Iter returns the number of traversals run so far.
func (s *Solver[G, A]) Iter() int {
	return s.iter - 1
}

// Table returns the InfoSetTable the solver accumulates into.
func (s *Solver[G, A]) Table() InfoSetTable {
	return s.table
}

// Run performs one traversal of game from its current state: a full
// expectation over the tree for vanilla/chance-sampling/CFR+, or a single
// traverser's sampled traversal under external sampling (per §4.5, one full
// training iteration under external sampling is N calls to Run, one per
// traverser; the caller, typically a Trainer, is responsible for that
// looping). It returns the utility vector obtained at the root for this
// traversal, updates the InfoSetTable, and advances the iteration counter.
func (s *Solver[G, A]) Run(game G) []float64 {
	n := game.NumPlayers()
	reach := make([]float64, n)
	for i := range reach {
		reach[i] = 1.0
	}

	if s.params.SampleOpponentActions {
		s.traverser = s.iter % n
	}

	u := s.traverse(game, reach, 1.0)

	s.table.Update(s.iter, s.params)
	if glog.V(2) {
		glog.Infof("cfr: iter %d done, %d info-sets known", s.iter, s.table.Len())
	}
	s.iter++
	return u
}

func (s *Solver[G, A]) traverse(game Game[A], reach []float64, chanceReach float64) []float64 {
	switch game.CurrentPlayer() {
	case Terminal:
		return s.terminalUtility(game)
	case Chance:
		return s.traverseChance(game, reach, chanceReach)
	default:
		return s.traversePlayer(game, reach, chanceReach)
	}
}

func (s *Solver[G, A]) terminalUtility(game Game[A]) []float64 {
	n := game.NumPlayers()
	u := make([]float64, n)
	for p := 0; p < n; p++ {
		u[p] = game.Utility(p)
	}
	return u
}

func (s *Solver[G, A]) traverseChance(game Game[A], reach []float64, chanceReach float64) []float64 {
	actions := game.Actions()
	if len(actions) == 0 {
		panic(illegalGameState("chance node reported no actions"))
	}

	if s.params.SampleChanceNodes {
		// Draw one outcome with probability ChanceProb(a).
		x := s.rng.Float64()
		a := actions[len(actions)-1]
		var cum float64
		for _, b := range actions {
			cum += game.ChanceProb(b)
			if cum > x {
				a = b
				break
			}
		}
		child := game.Clone()
		child.Act(a)
		// A sampled chance outcome is already unbiased: chanceReach is
		// passed through unchanged, not multiplied by the sample's
		// probability.
		return s.traverse(child, reach, chanceReach)
	}

	n := game.NumPlayers()
	u := make([]float64, n)
	for _, a := range actions {
		p := game.ChanceProb(a)
		child := game.Clone()
		child.Act(a)
		cu := s.traverse(child, reach, chanceReach*p)
		for i := range u {
			u[i] += p * cu[i]
		}
	}
	return u
}

func (s *Solver[G, A]) traversePlayer(game Game[A], reach []float64, chanceReach float64) []float64 {
	p := game.Player()
	key := game.InfoSetKey(p)
	actions := game.Actions()
	arity := len(actions)
	if arity == 0 {
		panic(illegalGameState("player %d node with no actions at info-set %q", p, key))
	}

	sigma := s.policy(key, arity)

	if s.params.SampleOpponentActions && p != s.traverser {
		i := sampleDist(s.rng, sigma)

		oldReach := reach[p]
		reach[p] = oldReach * float64(sigma[i])
		child := game.Clone()
		child.Act(actions[i])
		u := s.traverse(child, reach, chanceReach)
		reach[p] = oldReach

		// Opponent nodes add weight 1 to the pending strategy weight, so
		// the whole current sigma (not only the sampled action's entry) is
		// folded into strategy_sum at Update; no regret update happens here.
		s.table.AddStrategyWeight(key, 1.0)
		return u
	}

	n := game.NumPlayers()
	nodeUtil := make([]float64, n)
	pUtils := s.utilPool.alloc(arity)

	oldReach := reach[p]
	for i, a := range actions {
		reach[p] = oldReach * float64(sigma[i])
		child := game.Clone()
		child.Act(a)
		cu := s.traverse(child, reach, chanceReach)

		pUtils[i] = float32(cu[p])
		w := float64(sigma[i])
		for j := 0; j < n; j++ {
			nodeUtil[j] += w * cu[j]
		}
	}
	reach[p] = oldReach

	cfReach := float32(counterfactualReach(p, reach, chanceReach))
	if cfReach != 0 {
		// Reach probabilities can underflow to exactly 0 after many
		// chance draws; when the counterfactual reach is 0 the regret
		// contribution is 0 by construction, so the update is skipped
		// rather than dividing by it.
		instReg := s.utilPool.alloc(arity)
		nodeUtilP := float32(nodeUtil[p])
		for i := range instReg {
			instReg[i] = cfReach * (pUtils[i] - nodeUtilP)
		}
		s.table.AddRegret(key, 1.0, instReg)
		s.utilPool.free(instReg)
	}
	s.utilPool.free(pUtils)

	// strategy_sum depends on reach[p], not on the counterfactual reach,
	// so it is never skipped even when cfReach == 0 above.
	s.table.AddStrategyWeight(key, float32(reach[p]))

	return nodeUtil
}

func (s *Solver[G, A]) policy(key string, arity int) []float32 {
	if s.policyOverride != nil {
		return s.policyOverride(key, arity)
	}
	return s.table.GetStrategy(key, arity)
}

// counterfactualReach is pi_{-p}: the product of every other player's reach
// probability and the chance reach, i.e. the probability of reaching this
// node assuming player p always chose to reach it.
func counterfactualReach(p int, reach []float64, chanceReach float64) float64 {
	cf := chanceReach
	for j, r := range reach {
		if j != p {
			cf *= r
		}
	}
	return cf
}

func sampleDist(rng *rand.Rand, dist []float32) int {
	x := rng.Float32()
	var cum float32
	for i, p := range dist {
		cum += p
		if cum > x {
			return i
		}
	}

	if cum < 1.0-eps {
		panic(numericalInvariant("policy does not sum to 1: got %v", cum))
	}
	return len(dist) - 1
}
