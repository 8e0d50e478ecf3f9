package store

import (
	"bytes"
	"sort"
	"strings"

	"github.com/canopy-network/amm/lib"
)

// enforce the TxnI interface
var _ lib.TxnI = &Txn{}

/*
	Txn acts like a database transaction nested inside another store
	It saves set/del operations in memory and allows the caller to Commit() to the parent or Discard()
	When read from, it merges with the parent as if Commit() had already been called

	Badger cannot nest transactions, so quotes and dry runs execute against a Txn layered over a read-only
	snapshot and are always discarded.

	CONTRACT:
	- not thread safe
	- deleted values are recorded as tombstones and hidden from reads
*/

type Txn struct {
	parent lib.RStoreI   // store to read through to
	writer lib.WStoreI   // store to Commit() to; nil for a read-only parent
	ops    map[string]op // [string(key)] -> set/del operations saved in memory
}

// op or Operation has the value portion of the operation and if it's a *delete* or a *set*
type op struct {
	value  []byte // value of key value pair
	delete bool   // is operation delete
}

// NewTxn() creates a new instance of a Txn with the specified read-write parent store
func NewTxn(parent lib.RWStoreI) *Txn {
	return &Txn{parent: parent, writer: parent, ops: make(map[string]op)}
}

// NewSimulation() creates a Txn over a read-only parent; Commit() always fails
func NewSimulation(parent lib.RStoreI) *Txn {
	return &Txn{parent: parent, ops: make(map[string]op)}
}

// Get() retrieves the value for a given key from either the in-memory operations or the parent store
func (c *Txn) Get(key []byte) ([]byte, lib.ErrorI) {
	if v, found := c.ops[string(key)]; found {
		if v.delete {
			return nil, nil
		}
		return bytes.Clone(v.value), nil
	}
	return c.parent.Get(key)
}

// Set() adds or updates the value for a key in the in-memory operations
func (c *Txn) Set(key, value []byte) lib.ErrorI {
	if err := validateKey(key); err != nil {
		return err
	}
	c.ops[string(key)] = op{value: bytes.Clone(value)}
	return nil
}

// Delete() marks a key for deletion in the in-memory operations
func (c *Txn) Delete(key []byte) lib.ErrorI {
	c.ops[string(key)] = op{delete: true}
	return nil
}

// Discard() clears all in-memory operations
func (c *Txn) Discard() { c.ops = make(map[string]op) }

// Commit() flushes the in-memory operations to the parent store in key order and clears in-memory changes
func (c *Txn) Commit() (err lib.ErrorI) {
	if c.writer == nil {
		return ErrReadOnlyStore()
	}
	for _, k := range c.sortedKeys("", false) {
		v := c.ops[k]
		if v.delete {
			err = c.writer.Delete([]byte(k))
		} else {
			err = c.writer.Set([]byte(k), v.value)
		}
		if err != nil {
			return
		}
	}
	c.ops = make(map[string]op)
	return
}

// Iterator() returns an iterator over the parent merged with the in-memory operations
func (c *Txn) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	parent, err := c.parent.Iterator(prefix)
	if err != nil {
		return nil, err
	}
	return c.merge(parent, prefix, false), nil
}

// RevIterator() returns a reverse iterator over the parent merged with the in-memory operations
func (c *Txn) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	parent, err := c.parent.RevIterator(prefix)
	if err != nil {
		return nil, err
	}
	return c.merge(parent, prefix, true), nil
}

// sortedKeys() returns the in-memory keys under prefix in lexicographical (or reverse) order
func (c *Txn) sortedKeys(prefix string, reverse bool) (keys []string) {
	for k := range c.ops {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return
}

// merge() drains the parent iterator and overlays the in-memory operations; txn entries shadow parent entries
func (c *Txn) merge(parent lib.IteratorI, prefix []byte, reverse bool) *TxnIterator {
	defer parent.Close()
	var entries []entry
	txnKeys, i := c.sortedKeys(string(prefix), reverse), 0
	less := func(a, b string) bool {
		if reverse {
			return a > b
		}
		return a < b
	}
	// emit pending txn keys that sort before the parent key
	flush := func(upTo *string) {
		for ; i < len(txnKeys); i++ {
			if upTo != nil && !less(txnKeys[i], *upTo) {
				return
			}
			if o := c.ops[txnKeys[i]]; !o.delete {
				entries = append(entries, entry{key: []byte(txnKeys[i]), value: o.value})
			}
		}
	}
	for ; parent.Valid(); parent.Next() {
		pk := string(parent.Key())
		flush(&pk)
		// the txn shadows the parent on equal keys
		if _, shadowed := c.ops[pk]; shadowed {
			continue
		}
		entries = append(entries, entry{key: []byte(pk), value: parent.Value()})
	}
	flush(nil)
	return &TxnIterator{entries: entries}
}

// enforce the Iterator interface
var _ lib.IteratorI = &TxnIterator{}

// TxnIterator is a materialized, merged view of the parent and the in-memory operations
type TxnIterator struct {
	entries []entry
	index   int
}

type entry struct {
	key, value []byte
}

func (t *TxnIterator) Valid() bool   { return t.index < len(t.entries) }
func (t *TxnIterator) Next()         { t.index++ }
func (t *TxnIterator) Key() []byte   { return t.entries[t.index].key }
func (t *TxnIterator) Value() []byte { return t.entries[t.index].value }
func (t *TxnIterator) Close()        {}
