package cfr

import (
	"encoding/gob"
	"io"

	"github.com/pkg/errors"

	"github.com/gauleng/musolver/internal/f32"
)

// SnapshotHeader self-describes a snapshot per §6: which algorithm produced
// it, how many iterations it reflects, and which game it was trained
// against, so a snapshot file is never ambiguous about where it came from.
type SnapshotHeader struct {
	Algorithm string
	GameID    string
	Iter      int
}

// SnapshotRecord is one info-set's exported state: enough to reconstruct
// the average strategy, plus the raw regrets and strategy_sum needed to
// resume training exactly (§6's "optionally: the raw regrets and
// strategy_sum for resumability").
type SnapshotRecord struct {
	Key             string
	Arity           int
	AverageStrategy []float32
	Regrets         []float32
	StrategySum     []float32
}

// WriteSnapshot emits header followed by one SnapshotRecord per info-set
// known to table, gob-encoded. WriteSnapshot always includes
// Regrets/StrategySum, which LoadSnapshotTable reads back to resume
// training; MarshalTo/LoadInfoSetTable additionally persist each record's
// LastIter and pending strategy weight. Trainer writes only snapshots.
func WriteSnapshot(w io.Writer, header SnapshotHeader, table InfoSetTable) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(header); err != nil {
		return snapshotIOError(err)
	}

	if err := enc.Encode(table.Len()); err != nil {
		return snapshotIOError(err)
	}

	var encErr error
	table.Range(func(key string, r *Record) {
		if encErr != nil {
			return
		}
		// A record only exists in table because some traversal visited it,
		// and every such visit ends in an AddStrategyWeight call (§4.4); a
		// known record whose strategy_sum still sums to zero at emission
		// means that bookkeeping lied, per §7.
		if f32.Sum(r.StrategySum) == 0 {
			panic(numericalInvariant("info-set %q: strategy_sum sums to zero for a visited record", key))
		}
		rec := SnapshotRecord{
			Key:             key,
			Arity:           r.Arity,
			AverageStrategy: r.AverageStrategy(),
			Regrets:         r.Regrets,
			StrategySum:     r.StrategySum,
		}
		encErr = enc.Encode(rec)
	})
	if encErr != nil {
		return snapshotIOError(encErr)
	}

	return nil
}

// ReadSnapshot reads back a file written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (SnapshotHeader, []SnapshotRecord, error) {
	dec := gob.NewDecoder(r)

	var header SnapshotHeader
	if err := dec.Decode(&header); err != nil {
		return header, nil, errors.Wrap(err, "cfr: decoding snapshot header")
	}

	var n int
	if err := dec.Decode(&n); err != nil {
		return header, nil, errors.Wrap(err, "cfr: decoding snapshot record count")
	}

	records := make([]SnapshotRecord, n)
	for i := 0; i < n; i++ {
		if err := dec.Decode(&records[i]); err != nil {
			return header, nil, errors.Wrapf(err, "cfr: decoding snapshot record %d", i)
		}
	}

	return header, records, nil
}

// LoadSnapshotTable parses a snapshot and rebuilds it as a fresh
// InfoSetTable ready to resume training from. A record's current strategy is
// recomputed from Regrets (regret matching is a pure function of regrets),
// its LastIter is set to header.Iter (the snapshot does not carry a
// per-record value), and the record's pending strategy weight is left at 0 — exactly its value
// at every point a Trainer calls WriteSnapshot, since that always happens
// immediately after InfoSetTable.Update has folded and cleared it.
func LoadSnapshotTable(r io.Reader) (SnapshotHeader, InfoSetTable, error) {
	header, records, err := ReadSnapshot(r)
	if err != nil {
		return header, nil, err
	}

	t := &mapTable{
		records: make([]*Record, 0, len(records)),
		dirty:   make(map[int]struct{}),
		iter:    header.Iter,
	}
	for _, rec := range records {
		rr := newRecord(rec.Arity)
		copy(rr.Regrets, rec.Regrets)
		copy(rr.StrategySum, rec.StrategySum)
		rr.LastIter = header.Iter
		rr.regretMatching()

		id := t.ids.Intern(rec.Key)
		if id != len(t.records) {
			return header, nil, arityMismatch(rec.Key, len(t.records), id)
		}
		t.records = append(t.records, rr)
	}
	return header, t, nil
}
