package cfr

import (
	"bytes"
	"encoding/gob"
	"io"
)

// MarshalTo writes every record (key, arity, regrets, strategy_sum) known to
// t, in a form LoadInfoSetTable can read back. Unlike a snapshot (snapshot.go)
// this is the resumable, internal representation: it carries enough state to
// continue training exactly where it left off, not just the average
// strategy. Grounded on the teacher's StrategyTable.MarshalTo/LoadStrategyTable.
func (t *mapTable) MarshalTo(w io.Writer) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(t.iter); err != nil {
		return err
	}

	if err := enc.Encode(len(t.records)); err != nil {
		return err
	}

	for id, r := range t.records {
		key, _ := t.ids.Lookup(id)
		if err := enc.Encode(key); err != nil {
			return err
		}
		if err := enc.Encode(r); err != nil {
			return err
		}
	}

	return nil
}

// LoadInfoSetTable reads a table previously written by MarshalTo.
func LoadInfoSetTable(r io.Reader) (InfoSetTable, error) {
	dec := gob.NewDecoder(r)

	var iter int
	if err := dec.Decode(&iter); err != nil {
		return nil, err
	}

	var n int
	if err := dec.Decode(&n); err != nil {
		return nil, err
	}

	t := &mapTable{
		records: make([]*Record, 0, n),
		dirty:   make(map[int]struct{}),
		iter:    iter,
	}

	for i := 0; i < n; i++ {
		var key string
		if err := dec.Decode(&key); err != nil {
			return nil, err
		}

		var r Record
		if err := dec.Decode(&r); err != nil {
			return nil, err
		}

		id := t.ids.Intern(key)
		if id != len(t.records) {
			return nil, arityMismatch(key, len(t.records), id)
		}
		t.records = append(t.records, &r)
	}

	return t, nil
}

// GobEncode serializes the fields needed to resume training: arity,
// regrets, strategy_sum, and the strategy weight accumulated since the
// last NextStrategy call. currentStrategyWeight must round-trip even
// though it is transient in the in-memory table (there, AddStrategyWeight
// and Update share the same Go object in memory), because a disk-backed
// InfoSetTable such as store/ldbstore re-decodes a Record whenever it
// reloads one from disk (after a cache eviction): without persisting it, a
// pending weight from one AddStrategyWeight call would be silently lost
// before the next one.
// currentStrategy itself is not persisted; it is recomputed from regrets
// on load, matching the invariant that it is always a pure function of
// regrets and the discount parameters applied so far.
func (r *Record) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(r.Arity); err != nil {
		return nil, err
	}
	if err := enc.Encode(r.Regrets); err != nil {
		return nil, err
	}
	if err := enc.Encode(r.StrategySum); err != nil {
		return nil, err
	}
	if err := enc.Encode(r.LastIter); err != nil {
		return nil, err
	}
	if err := enc.Encode(r.currentStrategyWeight); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (r *Record) GobDecode(data []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(data))

	if err := dec.Decode(&r.Arity); err != nil {
		return err
	}
	if err := dec.Decode(&r.Regrets); err != nil {
		return err
	}
	if err := dec.Decode(&r.StrategySum); err != nil {
		return err
	}
	if err := dec.Decode(&r.LastIter); err != nil {
		return err
	}
	if err := dec.Decode(&r.currentStrategyWeight); err != nil {
		return err
	}

	r.currentStrategy = make([]float32, r.Arity)
	r.regretMatching()
	return nil
}
