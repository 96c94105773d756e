package cfr_test

import (
	"math"
	"math/rand"
	"testing"

	cfr "github.com/gauleng/musolver"
	"github.com/gauleng/musolver/games/kuhn"
	"github.com/gauleng/musolver/games/pennies"
	"github.com/gauleng/musolver/games/rps"
)

// oneShotGame is a minimal single-action cfr.Game: a Player node with one legal
// action leading straight to cfr.Terminal. Exercises the arity-1 boundary case.
type oneShotGame struct {
	done bool
}

func (g *oneShotGame) NumPlayers() int  { return 2 }
func (g *oneShotGame) NewRandom()       { g.done = false }
func (g *oneShotGame) Player() int      { return 0 }
func (g *oneShotGame) Actions() []string {
	return []string{"only"}
}
func (g *oneShotGame) ChanceProb(a string) float64 { panic("no chance nodes") }
func (g *oneShotGame) Act(a string)                { g.done = true }
func (g *oneShotGame) Utility(player int) float64 {
	if player == 0 {
		return 1
	}
	return -1
}
func (g *oneShotGame) InfoSetKey(player int) string { return "only" }
func (g *oneShotGame) Clone() cfr.Game[string] {
	cp := *g
	return &cp
}
func (g *oneShotGame) CurrentPlayer() cfr.NodeKind {
	if g.done {
		return cfr.Terminal
	}
	return cfr.Player
}

func TestSolverSingleActionGame(t *testing.T) {
	table := cfr.NewInfoSetTable()
	rng := rand.New(rand.NewSource(1))
	solver := cfr.NewSolver[*oneShotGame, string](cfr.Params{}, table, rng)

	u := solver.Run(&oneShotGame{})
	if u[0] != 1 || u[1] != -1 {
		t.Fatalf("utility = %v, want [1 -1]", u)
	}
}

func TestSolverTerminalAtRoot(t *testing.T) {
	table := cfr.NewInfoSetTable()
	rng := rand.New(rand.NewSource(1))
	solver := cfr.NewSolver[*oneShotGame, string](cfr.Params{}, table, rng)

	u := solver.Run(&oneShotGame{done: true})
	if u[0] != 1 || u[1] != -1 {
		t.Fatalf("utility at an already-terminal root = %v, want [1 -1]", u)
	}
	if table.Len() != 0 {
		t.Fatalf("table should stay empty when no Player node is ever visited, got Len()=%d", table.Len())
	}
}

func TestSolverZeroSumInvariantRPS(t *testing.T) {
	table := cfr.NewInfoSetTable()
	rng := rand.New(rand.NewSource(7))
	solver := cfr.NewSolver[*rps.State, string](cfr.ParamsForMethod(cfr.Vanilla, 0), table, rng)

	for i := 0; i < 50; i++ {
		game := rps.NewGame()
		u := solver.Run(game)
		if math.Abs(u[0]+u[1]) > 1e-9 {
			t.Fatalf("iter %d: utilities %v do not sum to zero", i, u)
		}
	}
}

func TestSolverDeterminismSameSeed(t *testing.T) {
	run := func(seed int64) cfr.InfoSetTable {
		table := cfr.NewInfoSetTable()
		rng := rand.New(rand.NewSource(seed))
		solver := cfr.NewSolver[*kuhn.State, string](cfr.ParamsForMethod(cfr.ExternalSampling, 0), table, rng)
		for i := 0; i < 100; i++ {
			solver.Run(kuhn.NewGame())
		}
		return table
	}

	a := run(42)
	b := run(42)

	if a.Len() != b.Len() {
		t.Fatalf("Len() differs across identical seeds: %d vs %d", a.Len(), b.Len())
	}

	var keys []string
	a.Range(func(key string, r *cfr.Record) { keys = append(keys, key) })
	for _, key := range keys {
		sa := a.AverageStrategy(key)
		sb := b.AverageStrategy(key)
		for i := range sa {
			if sa[i] != sb[i] {
				t.Fatalf("key %q: AverageStrategy diverged across identical seeds: %v vs %v", key, sa, sb)
			}
		}
	}
}

func TestSolverVanillaConvergesRPS(t *testing.T) {
	table := cfr.NewInfoSetTable()
	rng := rand.New(rand.NewSource(3))
	solver := cfr.NewSolver[*rps.State, string](cfr.ParamsForMethod(cfr.Vanilla, 0), table, rng)

	for i := 0; i < 2000; i++ {
		solver.Run(rps.NewGame())
	}

	for _, key := range []string{"p0", "p1"} {
		avg := table.AverageStrategy(key)
		if avg == nil {
			t.Fatalf("info-set %q never visited", key)
		}
		for i, p := range avg {
			if math.Abs(float64(p)-1.0/3.0) > 0.05 {
				t.Errorf("key %q action %d: avg strategy = %v, want ~1/3", key, i, avg[i])
			}
		}
	}
}

func TestSolverCFRPlusConvergesMatchingPennies(t *testing.T) {
	table := cfr.NewInfoSetTable()
	rng := rand.New(rand.NewSource(11))
	solver := cfr.NewSolver[*pennies.State, string](cfr.ParamsForMethod(cfr.CFRPlus, 0), table, rng)

	for i := 0; i < 2000; i++ {
		solver.Run(pennies.NewGame())
	}

	for _, key := range []string{"p0", "p1"} {
		avg := table.AverageStrategy(key)
		if avg == nil {
			t.Fatalf("info-set %q never visited", key)
		}
		for i, p := range avg {
			if math.Abs(float64(p)-0.5) > 0.05 {
				t.Errorf("key %q action %d: avg strategy = %v, want ~0.5", key, i, avg[i])
			}
		}
	}
}

func TestSolverExternalSamplingMatchesVanillaOnKuhn(t *testing.T) {
	vanillaTable := cfr.NewInfoSetTable()
	vanillaRng := rand.New(rand.NewSource(5))
	vanillaSolver := cfr.NewSolver[*kuhn.State, string](cfr.ParamsForMethod(cfr.Vanilla, 0), vanillaTable, vanillaRng)
	for i := 0; i < 20000; i++ {
		vanillaSolver.Run(kuhn.NewGame())
	}

	esTable := cfr.NewInfoSetTable()
	esRng := rand.New(rand.NewSource(5))
	esSolver := cfr.NewSolver[*kuhn.State, string](cfr.ParamsForMethod(cfr.ExternalSampling, 0), esTable, esRng)
	for i := 0; i < 20000; i++ {
		esSolver.Run(kuhn.NewGame())
	}

	var checked int
	vanillaTable.Range(func(key string, r *cfr.Record) {
		esAvg := esTable.AverageStrategy(key)
		if esAvg == nil {
			return
		}
		vAvg := r.AverageStrategy()
		var l1 float64
		for i := range vAvg {
			l1 += math.Abs(float64(vAvg[i] - esAvg[i]))
		}
		if l1 > 0.3 {
			t.Errorf("key %q: vanilla avg %v vs external-sampling avg %v, L1=%v", key, vAvg, esAvg, l1)
		}
		checked++
	})
	if checked == 0 {
		t.Fatal("no overlapping info-sets found between vanilla and external-sampling tables")
	}
}
