package cfr_test

import (
	"math"
	"math/rand"
	"testing"

	cfr "github.com/gauleng/musolver"
	"github.com/gauleng/musolver/games/kuhn"
)

func TestFSISolverSmoke(t *testing.T) {
	table := cfr.NewInfoSetTable()
	rng := rand.New(rand.NewSource(9))
	fsi := cfr.NewFSISolver[*kuhn.State, string](cfr.Params{}, table, rng)

	for b := 0; b < 20; b++ {
		fsi.RunBatch(10, func() *kuhn.State {
			g := kuhn.NewGame()
			g.NewRandom()
			return g
		})
	}

	if fsi.Iter() != 200 {
		t.Fatalf("Iter() = %d, want 200", fsi.Iter())
	}
	if table.Len() == 0 {
		t.Fatal("no info-sets recorded after training")
	}
}

func TestFSISolverConsistentWithChanceSamplingOnKuhn(t *testing.T) {
	csTable := cfr.NewInfoSetTable()
	csRng := rand.New(rand.NewSource(21))
	csSolver := cfr.NewSolver[*kuhn.State, string](cfr.ParamsForMethod(cfr.ChanceSampling, 0), csTable, csRng)
	for i := 0; i < 20000; i++ {
		csSolver.Run(kuhn.NewGame())
	}

	fsiTable := cfr.NewInfoSetTable()
	fsiRng := rand.New(rand.NewSource(21))
	fsiSolver := cfr.NewFSISolver[*kuhn.State, string](cfr.Params{}, fsiTable, fsiRng)
	for b := 0; b < 2000; b++ {
		fsiSolver.RunBatch(10, func() *kuhn.State {
			g := kuhn.NewGame()
			g.NewRandom()
			return g
		})
	}

	var checked int
	csTable.Range(func(key string, r *cfr.Record) {
		fsiAvg := fsiTable.AverageStrategy(key)
		if fsiAvg == nil {
			return
		}
		csAvg := r.AverageStrategy()
		var l1 float64
		for i := range csAvg {
			l1 += math.Abs(float64(csAvg[i] - fsiAvg[i]))
		}
		if l1 > 0.3 {
			t.Errorf("key %q: chance-sampling avg %v vs fsi-cfr avg %v, L1=%v", key, csAvg, fsiAvg, l1)
		}
		checked++
	})
	if checked == 0 {
		t.Fatal("no overlapping info-sets found between chance-sampling and fsi-cfr tables")
	}
}
