// Package ldbstore implements a disk-backed cfr.InfoSetTable, for games
// whose info-set count does not fit in memory. It is functionally
// equivalent to the engine's default in-memory table but keeps every
// record on disk in a LevelDB database, trading lookup latency for
// constant memory use.
//
// Grounded on the teacher's ldbstore/policy.go (PolicyTable, ldbPolicy),
// generalized from its GameTreeNode-keyed StrategyProfile interface to the
// engine's plain string-keyed InfoSetTable, and extended with a small
// read-modify-write LRU cache (cacheSize entries) so that one traversal's
// worth of visits to the same info-set round-trip to LevelDB once instead
// of once per visit.
package ldbstore

import (
	"container/list"

	"github.com/golang/glog"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	cfr "github.com/gauleng/musolver"
)

// cacheSize is the default size of the LRU, used by Open. It bounds the
// number of records held dirty-or-clean at once, and is sized for "one
// traversal's worth of distinct info-sets touched", not for the whole
// table: a full game tree's info-set count can vastly exceed this without
// defeating the cache's purpose, since within one traversal the same
// handful of info-sets near the root are revisited far more often than the
// long tail near the leaves. Table.cacheSize is an instance field rather
// than this constant directly so tests can shrink it to force eviction.
const cacheSize = 4096

// cacheEntry is one LRU slot: the record as last read or written, and
// whether it has been mutated since its last flush to LevelDB.
type cacheEntry struct {
	key   string
	rec   *cfr.Record
	dirty bool
}

// Table is a cfr.InfoSetTable backed by a LevelDB database, fronted by a
// bounded in-memory LRU of recently touched records. GetOrCreate reads
// through the LRU on a miss; AddRegret and AddStrategyWeight mark their
// entry dirty instead of writing through immediately. Close and Update
// both flush every dirty entry before touching the database directly.
type Table struct {
	path string
	opts *opt.Options
	iter int

	db    *leveldb.DB
	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions

	cacheSize int
	cache     map[string]*list.Element
	lru       *list.List
}

var _ cfr.InfoSetTable = (*Table)(nil)

// Open opens (or creates) a LevelDB database at path as an InfoSetTable.
func Open(path string, opts *opt.Options) (*Table, error) {
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, err
	}

	return &Table{
		path:      path,
		opts:      opts,
		iter:      0,
		db:        db,
		cacheSize: cacheSize,
		cache:     make(map[string]*list.Element, cacheSize),
		lru:       list.New(),
	}, nil
}

// Close flushes every dirty cache entry to LevelDB, then releases the
// underlying database handle.
func (t *Table) Close() error {
	t.flushAll()
	return t.db.Close()
}

// GetOrCreate returns the record for key, creating a fresh record of the
// given arity the first time key is seen. It reads through the LRU: a hit
// avoids LevelDB entirely, a miss pulls from disk and inserts into the
// cache, evicting (and flushing, if dirty) the least-recently-used entry
// if the cache is already full.
func (t *Table) GetOrCreate(key string, arity int) *cfr.Record {
	if el, ok := t.cache[key]; ok {
		t.lru.MoveToFront(el)
		entry := el.Value.(*cacheEntry)
		if entry.rec.Arity != arity {
			panic(cfr.ArityMismatchError(key, entry.rec.Arity, arity))
		}
		return entry.rec
	}

	r, existed, err := t.readRecord(key, arity)
	if err != nil {
		panic(err)
	}
	// A freshly created record is inserted dirty, not clean: it has no
	// disk row yet, so if it is evicted before anything ever mutates it
	// (a long subtree visited between this call and the matching
	// AddStrategyWeight), the eviction must still write it out. Otherwise
	// a later AddStrategyWeight for the same key, finding it gone from
	// the cache, would have nothing on disk to reload either.
	t.insert(key, r, !existed)
	return r
}

func (t *Table) readRecord(key string, arity int) (*cfr.Record, bool, error) {
	buf, err := t.db.Get([]byte(key), t.rOpts)
	if err == leveldb.ErrNotFound {
		return cfr.NewRecord(arity), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var r cfr.Record
	if err := r.GobDecode(buf); err != nil {
		return nil, false, err
	}
	if r.Arity != arity {
		return nil, false, cfr.ArityMismatchError(key, r.Arity, arity)
	}
	return &r, true, nil
}

// insert adds (key, rec) to the front of the LRU, evicting the tail if the
// cache is already at cacheSize.
func (t *Table) insert(key string, rec *cfr.Record, dirty bool) {
	if el, ok := t.cache[key]; ok {
		el.Value.(*cacheEntry).rec = rec
		el.Value.(*cacheEntry).dirty = dirty
		t.lru.MoveToFront(el)
		return
	}

	if t.lru.Len() >= t.cacheSize {
		t.evictOldest()
	}

	el := t.lru.PushFront(&cacheEntry{key: key, rec: rec, dirty: dirty})
	t.cache[key] = el
}

func (t *Table) evictOldest() {
	tail := t.lru.Back()
	if tail == nil {
		return
	}
	entry := tail.Value.(*cacheEntry)
	if entry.dirty {
		t.writeRecord(entry.key, entry.rec)
	}
	t.lru.Remove(tail)
	delete(t.cache, entry.key)
}

func (t *Table) writeRecord(key string, r *cfr.Record) {
	buf, err := r.GobEncode()
	if err != nil {
		panic(err)
	}
	if err := t.db.Put([]byte(key), buf, t.wOpts); err != nil {
		panic(err)
	}
}

// markDirty flags key's cache entry (which must already be present, since
// every write follows a GetOrCreate in the same call) as needing a flush.
func (t *Table) markDirty(key string) {
	el := t.cache[key]
	el.Value.(*cacheEntry).dirty = true
	t.lru.MoveToFront(el)
}

// flushAll writes every dirty cache entry to LevelDB without evicting it,
// leaving the cache warm. Used by Close (before the handle closes) and by
// Update (before its full-table scan, so the scan observes every pending
// mutation).
func (t *Table) flushAll() {
	for el := t.lru.Front(); el != nil; el = el.Next() {
		entry := el.Value.(*cacheEntry)
		if entry.dirty {
			t.writeRecord(entry.key, entry.rec)
			entry.dirty = false
		}
	}
}

// invalidateAll drops every cache entry without flushing. Used after Update
// rewrites every record's on-disk bytes out from under the cache (folding
// strategy weight, applying discount factors): a cached copy at that point
// is stale, not dirty, so flushing it would undo Update's rewrite.
func (t *Table) invalidateAll() {
	t.cache = make(map[string]*list.Element, t.cacheSize)
	t.lru.Init()
}

// GetStrategy implements cfr.InfoSetTable.
func (t *Table) GetStrategy(key string, arity int) []float32 {
	r := t.GetOrCreate(key, arity)
	return r.GetStrategy()
}

// AddRegret implements cfr.InfoSetTable.
func (t *Table) AddRegret(key string, w float32, instantaneousRegrets []float32) {
	r := t.GetOrCreate(key, len(instantaneousRegrets))
	r.AddRegret(w, instantaneousRegrets)
	t.markDirty(key)
}

// AddStrategyWeight implements cfr.InfoSetTable.
func (t *Table) AddStrategyWeight(key string, w float32) {
	if el, ok := t.cache[key]; ok {
		el.Value.(*cacheEntry).rec.AddStrategyWeight(w)
		t.markDirty(key)
		return
	}

	// The record for key was cached by an earlier GetStrategy call in
	// this same traversal, but the traversal's own recursion since then
	// touched enough other info-sets to evict it. It is guaranteed on
	// disk (GetOrCreate inserts a freshly created record dirty, so its
	// eviction wrote it out, and a record it read from disk was already
	// there) under the arity its own bytes carry.
	buf, err := t.db.Get([]byte(key), t.rOpts)
	if err != nil {
		panic(cfr.IllegalGameStateError("AddStrategyWeight on unseen info-set %q: %v", key, err))
	}
	var r cfr.Record
	if err := r.GobDecode(buf); err != nil {
		panic(err)
	}
	r.AddStrategyWeight(w)
	t.insert(key, &r, true)
}

// AverageStrategy implements cfr.InfoSetTable.
func (t *Table) AverageStrategy(key string) []float32 {
	if el, ok := t.cache[key]; ok {
		t.lru.MoveToFront(el)
		return el.Value.(*cacheEntry).rec.AverageStrategy()
	}

	buf, err := t.db.Get([]byte(key), t.rOpts)
	if err == leveldb.ErrNotFound {
		return nil
	}
	if err != nil {
		panic(err)
	}
	var r cfr.Record
	if err := r.GobDecode(buf); err != nil {
		panic(err)
	}
	return r.AverageStrategy()
}

// Update implements cfr.InfoSetTable: it flushes every dirty cache entry so
// the scan below sees up-to-date values, walks every record in the
// database applying the iteration's discount factors, then drops the
// cache, since Update's batch rewrite leaves every cached copy stale.
func (t *Table) Update(iter int, params cfr.Params) {
	t.flushAll()

	pos, neg, _ := params.GetDiscountFactors(iter)

	it := t.db.NewIterator(nil, t.rOpts)
	n := 0
	batch := new(leveldb.Batch)
	for it.Next() {
		var r cfr.Record
		if err := r.GobDecode(it.Value()); err != nil {
			panic(err)
		}
		sum := params.StrategySumFactor(r.LastIter, iter)
		r.NextStrategy(pos, neg, sum)
		r.LastIter = iter

		buf, err := r.GobEncode()
		if err != nil {
			panic(err)
		}
		batch.Put(it.Key(), buf)
		n++
	}
	it.Release()
	if err := it.Error(); err != nil {
		panic(err)
	}

	if err := t.db.Write(batch, t.wOpts); err != nil {
		panic(err)
	}

	t.invalidateAll()

	glog.V(1).Infof("ldbstore: updated %d records at iter %d", n, iter)
	t.iter = iter
}

// Iter implements cfr.InfoSetTable.
func (t *Table) Iter() int {
	return t.iter
}

// Len implements cfr.InfoSetTable.
func (t *Table) Len() int {
	n := 0
	it := t.db.NewIterator(nil, t.rOpts)
	for it.Next() {
		n++
	}
	it.Release()
	return n
}

// Range implements cfr.InfoSetTable. It flushes the cache first so that
// records touched since the last Update are reflected in what it sees.
func (t *Table) Range(f func(key string, r *cfr.Record)) {
	t.flushAll()

	it := t.db.NewIterator(nil, t.rOpts)
	defer it.Release()
	for it.Next() {
		var r cfr.Record
		if err := r.GobDecode(it.Value()); err != nil {
			panic(err)
		}
		f(string(it.Key()), &r)
	}
}
