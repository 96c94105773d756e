package cfr

import (
	"github.com/gauleng/musolver/intern"
)

// InfoSetTable is the storage abstraction behind a Solver: a mapping from
// info-set key to Record, plus the bookkeeping (current iteration number,
// dirty-record tracking) the CFR update loop needs between traversals. The
// in-memory mapTable below is the default; store/ldbstore provides a
// disk-backed alternative for games whose info-set count doesn't fit in
// memory.
type InfoSetTable interface {
	// GetStrategy returns the current regret-matching policy for the
	// info-set key observed at node, creating a fresh uniform record the
	// first time key is seen. arity must equal len(node.Actions()); a
	// key reappearing with a different arity is an ArityMismatch error.
	GetStrategy(key string, arity int) []float32

	// AddRegret accumulates w*instantaneousRegrets into key's record.
	AddRegret(key string, w float32, instantaneousRegrets []float32)

	// AddStrategyWeight accumulates w into the strategy weight pending
	// for key's record.
	AddStrategyWeight(key string, w float32)

	// AverageStrategy returns sigma-bar for key, or nil if key was never
	// visited.
	AverageStrategy(key string) []float32

	// Update folds every record's pending strategy weight into
	// strategy_sum and recomputes regret matching, applying the
	// discount factors for the given iteration. The in-memory table
	// visits only records touched since the last Update; store/ldbstore
	// rewrites every record.
	Update(iter int, params Params)

	// Iter returns the last iteration number passed to Update.
	Iter() int

	// Len returns the number of distinct info-set keys recorded so far.
	Len() int

	// Range calls f for every (key, Record) pair in the table. f must
	// not mutate the table; iteration order is unspecified.
	Range(f func(key string, r *Record))
}

// mapTable is the in-memory InfoSetTable implementation: info-set keys are
// interned to small integer ids (package intern), and every id's Record is
// held directly in a slice, avoiding a live map[string]*Record on the hot
// path. Grounded on the teacher's StrategyTable, generalized from its
// GameTreeNode-keyed design to plain string keys.
type mapTable struct {
	ids     intern.Table
	records []*Record
	dirty   map[int]struct{}
	iter    int
}

// NewInfoSetTable returns an empty in-memory InfoSetTable.
func NewInfoSetTable() InfoSetTable {
	return &mapTable{
		dirty: make(map[int]struct{}),
	}
}

func (t *mapTable) getRecord(key string, arity int) (*Record, int) {
	id := t.ids.Intern(key)
	if id == len(t.records) {
		t.records = append(t.records, newRecord(arity))
	}
	r := t.records[id]
	if r.Arity != arity {
		panic(arityMismatch(key, r.Arity, arity))
	}
	return r, id
}

func (t *mapTable) GetStrategy(key string, arity int) []float32 {
	r, _ := t.getRecord(key, arity)
	return r.GetStrategy()
}

func (t *mapTable) AddRegret(key string, w float32, instantaneousRegrets []float32) {
	r, id := t.getRecord(key, len(instantaneousRegrets))
	r.AddRegret(w, instantaneousRegrets)
	t.dirty[id] = struct{}{}
}

func (t *mapTable) AddStrategyWeight(key string, w float32) {
	id := t.ids.Intern(key)
	if id >= len(t.records) {
		// AddStrategyWeight is only ever called after GetStrategy has
		// already created the record for this key.
		panic(illegalGameState("AddStrategyWeight on unseen info-set %q", key))
	}
	t.records[id].AddStrategyWeight(w)
	t.dirty[id] = struct{}{}
}

func (t *mapTable) AverageStrategy(key string) []float32 {
	id, ok := t.ids.Find(key)
	if !ok {
		return nil
	}
	return t.records[id].AverageStrategy()
}

func (t *mapTable) Update(iter int, params Params) {
	pos, neg, _ := params.GetDiscountFactors(iter)
	for id := range t.dirty {
		r := t.records[id]
		sum := params.StrategySumFactor(r.LastIter, iter)
		r.NextStrategy(pos, neg, sum)
		r.LastIter = iter
	}
	t.dirty = make(map[int]struct{}, len(t.dirty))
	t.iter = iter
}

func (t *mapTable) Iter() int {
	return t.iter
}

func (t *mapTable) Len() int {
	return len(t.records)
}

func (t *mapTable) Range(f func(key string, r *Record)) {
	for id, r := range t.records {
		key, _ := t.ids.Lookup(id)
		f(key, r)
	}
}
