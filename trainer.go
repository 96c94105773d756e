package cfr

import (
	"context"
	"io"
	"math/rand"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Config are the options recognized by a Trainer (§6).
type Config struct {
	// Method selects one of the five CFR variants.
	Method Method
	// Iterations is the total number of training iterations, T.
	Iterations int
	// Seed seeds the Trainer's RNG. Two Trainers built with identical
	// Config, Seed and deep-clone-equal game factories must produce
	// identical InfoSet tables after Iterations iterations.
	Seed int64
	// SnapshotEvery is the cadence, in iterations, at which the Trainer
	// emits a snapshot via Sink. Zero means end-only: a single snapshot
	// after the last iteration.
	SnapshotEvery int
	// FSIBatch is the batch size K for fsi-cfr; ignored otherwise.
	FSIBatch int
	// LinearAvgT0 is the warm-up iteration count before cfr-plus's
	// linear averaging kicks in; ignored by every other method.
	LinearAvgT0 int
	// GameID names the game being trained, carried into every snapshot
	// header so a reloaded snapshot is never ambiguous about its origin.
	GameID string
}

// Sink receives snapshots emitted during training.
type Sink interface {
	io.Writer
}

// Progress is reported to a Trainer.Run caller's callback after every
// iteration, mirroring the per-iteration (player, utility) callback of the
// original solver's training loop.
type Progress struct {
	Iter     int
	Player   int
	Utility  float64
	NumInfoSets int
}

// Trainer drives a Solver (or FSISolver) through Config.Iterations
// iterations against freshly-dealt game states, periodically emitting
// snapshots. Grounded on the teacher's CLI-level training loops combined
// with the context-cancellation and progress-callback pattern of
// pokerforbots' Trainer.Run.
type Trainer[G Game[A], A comparable] struct {
	cfg   Config
	table InfoSetTable
	rng   *rand.Rand

	newGame func() G

	solver    *Solver[G, A]
	fsiSolver *FSISolver[G, A]
}

// NewTrainer builds a Trainer. newGame must return a fresh value of the
// concrete game type on every call; the Trainer calls NewRandom on it
// before handing it to the solver.
func NewTrainer[G Game[A], A comparable](cfg Config, table InfoSetTable, newGame func() G) *Trainer[G, A] {
	rng := rand.New(rand.NewSource(cfg.Seed))

	t := &Trainer[G, A]{
		cfg:     cfg,
		table:   table,
		rng:     rng,
		newGame: newGame,
	}

	params := ParamsForMethod(cfg.Method, cfg.LinearAvgT0)
	if cfg.Method == FSICFR {
		t.fsiSolver = NewFSISolver[G, A](params, table, rng)
	} else {
		t.solver = NewSolver[G, A](params, table, rng)
	}

	return t
}

// Run executes Config.Iterations iterations, invoking onIteration (if
// non-nil) after each one and emitting a snapshot to sink at the configured
// cadence. It returns early, with ctx.Err(), if ctx is cancelled between
// iterations; no iteration is interrupted mid-traversal.
func (t *Trainer[G, A]) Run(ctx context.Context, sink Sink, onIteration func(Progress)) error {
	if t.cfg.Method == FSICFR {
		return t.runFSI(ctx, sink, onIteration)
	}
	return t.runSolver(ctx, sink, onIteration)
}

func (t *Trainer[G, A]) runSolver(ctx context.Context, sink Sink, onIteration func(Progress)) error {
	n := t.cfg.Iterations
	traversalsPerIter := 1
	if t.cfg.Method == ExternalSampling {
		// One full iteration = N traversals, one per traverser.
		traversalsPerIter = t.probeNumPlayers()
	}

	for i := 1; i <= n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var u []float64
		for k := 0; k < traversalsPerIter; k++ {
			game := t.newGame()
			game.NewRandom()
			u = t.solver.Run(game)
		}

		if onIteration != nil {
			onIteration(Progress{
				Iter:        i,
				Player:      t.solver.traverser,
				Utility:     utilityOf(u, 0),
				NumInfoSets: t.table.Len(),
			})
		}

		if err := t.maybeSnapshot(i, sink); err != nil {
			return err
		}
	}

	return t.finalSnapshot(n, sink)
}

func (t *Trainer[G, A]) runFSI(ctx context.Context, sink Sink, onIteration func(Progress)) error {
	batch := t.cfg.FSIBatch
	if batch <= 0 {
		batch = 1
	}

	done := 0
	for done < t.cfg.Iterations {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		k := batch
		if done+k > t.cfg.Iterations {
			k = t.cfg.Iterations - done
		}

		t.fsiSolver.RunBatch(k, func() G {
			g := t.newGame()
			g.NewRandom()
			return g
		})
		done += k

		if onIteration != nil {
			onIteration(Progress{
				Iter:        done,
				NumInfoSets: t.table.Len(),
			})
		}

		if err := t.maybeSnapshot(done, sink); err != nil {
			return err
		}
	}

	return t.finalSnapshot(t.cfg.Iterations, sink)
}

func (t *Trainer[G, A]) maybeSnapshot(iter int, sink Sink) error {
	if sink == nil || t.cfg.SnapshotEvery <= 0 {
		return nil
	}
	if iter%t.cfg.SnapshotEvery != 0 {
		return nil
	}
	return t.snapshot(iter, sink)
}

func (t *Trainer[G, A]) finalSnapshot(iter int, sink Sink) error {
	if sink == nil {
		return nil
	}
	if t.cfg.SnapshotEvery > 0 && iter%t.cfg.SnapshotEvery == 0 {
		// Already emitted by maybeSnapshot on this exact iteration.
		return nil
	}
	return t.snapshot(iter, sink)
}

func (t *Trainer[G, A]) snapshot(iter int, sink Sink) error {
	glog.V(1).Infof("cfr: writing snapshot at iter %d (%d info-sets)", iter, t.table.Len())
	header := SnapshotHeader{
		Algorithm: t.cfg.Method.String(),
		GameID:    t.cfg.GameID,
		Iter:      iter,
	}
	if err := WriteSnapshot(sink, header, t.table); err != nil {
		return errors.Wrapf(err, "cfr: snapshot at iter %d", iter)
	}
	return nil
}

// probeNumPlayers deals one fresh game solely to read NumPlayers; the
// external-sampling driver needs N before committing to how many
// traversals make up one logical iteration.
func (t *Trainer[G, A]) probeNumPlayers() int {
	g := t.newGame()
	g.NewRandom()
	return g.NumPlayers()
}

func utilityOf(u []float64, player int) float64 {
	if player < 0 || player >= len(u) {
		return 0
	}
	return u[player]
}
