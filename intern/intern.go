// Package intern implements an append-only string-to-integer interning
// table, used to turn repeated info-set key lookups in the CFR traversal
// hot loop from string comparisons into integer ones.
package intern

import "github.com/cespare/xxhash/v2"

// Table interns strings to small, stable integer ids. The zero value is
// ready to use. A Table is never safe for concurrent use without external
// synchronization, matching the engine's single-writer InfoSet table.
type Table struct {
	buckets map[uint64][]entry
	strings []string
}

type entry struct {
	key string
	id  int
}

// Intern returns the id for key, assigning it a new one (len(t.strings)
// at the time of insertion) the first time key is seen. Ids are never
// reused or renumbered, so a previously returned id remains valid for the
// lifetime of the Table.
func (t *Table) Intern(key string) int {
	if t.buckets == nil {
		t.buckets = make(map[uint64][]entry)
	}

	h := xxhash.Sum64String(key)
	for _, e := range t.buckets[h] {
		if e.key == key {
			return e.id
		}
	}

	id := len(t.strings)
	t.strings = append(t.strings, key)
	t.buckets[h] = append(t.buckets[h], entry{key: key, id: id})
	return id
}

// Find returns the id previously assigned to key, without interning it,
// and whether key has been seen before.
func (t *Table) Find(key string) (int, bool) {
	if t.buckets == nil {
		return 0, false
	}
	h := xxhash.Sum64String(key)
	for _, e := range t.buckets[h] {
		if e.key == key {
			return e.id, true
		}
	}
	return 0, false
}

// Lookup returns the string previously interned as id, and whether it
// exists.
func (t *Table) Lookup(id int) (string, bool) {
	if id < 0 || id >= len(t.strings) {
		return "", false
	}
	return t.strings[id], true
}

// Len returns the number of distinct strings interned so far.
func (t *Table) Len() int {
	return len(t.strings)
}
