package cfr

import (
	"math/rand"

	"github.com/golang/glog"
)

// FSISolver drives fixed-strategy iteration (§4.7): batches of K traversals
// that all read their policy from one frozen snapshot of regret-matching
// strategies (sigma_fixed), amortizing the cost of recomputing regret
// matching on every visit across the whole batch. Regrets and strategy_sum
// still update on every traversal, exactly as in the underlying Solver;
// only where the policy comes from differs.
//
// There is no FSI-CFR code in the teacher; this is grounded on
// original_source's GameGraph batch-replay driver (inflate a tree once per
// random deal, then iterate a fixed strategy over it K times) adapted to
// this engine's stateful Game contract, which has no separate graph
// materialization step.
type FSISolver[G Game[A], A comparable] struct {
	inner *Solver[G, A]

	sigmaFixed map[string][]float32
}

// NewFSISolver returns an FSISolver storing info-sets in table and drawing
// samples from rng. params should not set SampleOpponentActions or
// SampleChanceNodes; FSI-CFR explores the full tree like vanilla CFR, batch
// by batch.
func NewFSISolver[G Game[A], A comparable](params Params, table InfoSetTable, rng *rand.Rand) *FSISolver[G, A] {
	inner := NewSolver[G, A](params, table, rng)
	f := &FSISolver[G, A]{
		inner:      inner,
		sigmaFixed: make(map[string][]float32),
	}
	inner.policyOverride = f.lookup
	return f
}

// Iter returns the number of traversals run so far, across all batches.
func (f *FSISolver[G, A]) Iter() int {
	return f.inner.iter - 1
}

// Table returns the InfoSetTable the solver accumulates into.
func (f *FSISolver[G, A]) Table() InfoSetTable {
	return f.inner.table
}

// lookup implements the play-out phase's policy source: read sigma_fixed,
// or on a miss (an info-set discovered mid-batch), compute it fresh from the
// table and insert it into sigma_fixed immediately so every subsequent visit
// within the batch, at this or any other info-set, sees a consistent frozen
// policy.
func (f *FSISolver[G, A]) lookup(key string, arity int) []float32 {
	if sigma, ok := f.sigmaFixed[key]; ok {
		return sigma
	}

	sigma := f.inner.table.GetStrategy(key, arity)
	frozen := make([]float32, len(sigma))
	copy(frozen, sigma)
	f.sigmaFixed[key] = frozen
	return frozen
}

// fix snapshots the table's current regret-matching policy for every known
// info-set into sigma_fixed, replacing whatever the previous batch left
// there. Grounded on GameGraph.inflate's role of fixing a tree shape once
// per batch, generalized here to fixing a policy rather than a graph.
func (f *FSISolver[G, A]) fix() {
	f.sigmaFixed = make(map[string][]float32, len(f.sigmaFixed))
	f.inner.table.Range(func(key string, r *Record) {
		sigma := r.GetStrategy()
		frozen := make([]float32, len(sigma))
		copy(frozen, sigma)
		f.sigmaFixed[key] = frozen
	})
}

// RunBatch performs one full fixed-strategy-iteration cycle: fixing sigma,
// then running K traversals of fresh deals supplied by newGame against it.
// newGame must return a freshly-dealt game state (NewRandom already called)
// each time it is invoked.
func (f *FSISolver[G, A]) RunBatch(k int, newGame func() G) {
	f.fix()
	if glog.V(1) {
		glog.Infof("cfr: fsi-cfr batch of %d starting at iter %d, %d info-sets fixed",
			k, f.inner.iter, len(f.sigmaFixed))
	}

	for i := 0; i < k; i++ {
		game := newGame()
		n := game.NumPlayers()
		reach := make([]float64, n)
		for j := range reach {
			reach[j] = 1.0
		}
		f.inner.traverse(game, reach, 1.0)
		f.inner.table.Update(f.inner.iter, f.inner.params)
		f.inner.iter++
	}
}
