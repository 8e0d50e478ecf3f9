package store

import (
	"errors"

	"github.com/canopy-network/amm/lib"
	"github.com/dgraph-io/badger/v4"
)

// interface enforcement
var (
	_ lib.TxnI      = &TxnWrapper{}
	_ lib.ReadOnlyI = &TxnWrapper{}
	_ lib.IteratorI = &Iterator{}
)

// TxnWrapper is a wrapper over the badgerDB Txn object that conforms to the TxnI interface
type TxnWrapper struct {
	logger lib.LoggerI
	db     *badger.Txn
}

// NewTxnWrapper() creates a new TxnWrapper with the provided params
func NewTxnWrapper(db *badger.Txn, logger lib.LoggerI) *TxnWrapper {
	return &TxnWrapper{logger: logger, db: db}
}

// Get() retrieves the value associated with the key from the BadgerDB transaction; nil if not found
func (t *TxnWrapper) Get(k []byte) ([]byte, lib.ErrorI) {
	item, err := t.db.Get(k)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, ErrStoreGet(err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, ErrStoreGet(err)
	}
	return val, nil
}

// Set() stores the key-value pair in the BadgerDB transaction
func (t *TxnWrapper) Set(k, v []byte) lib.ErrorI {
	if err := validateKey(k); err != nil {
		return err
	}
	if err := t.db.Set(k, v); err != nil {
		if errors.Is(err, badger.ErrReadOnlyTxn) {
			return ErrReadOnlyStore()
		}
		return ErrStoreSet(err)
	}
	return nil
}

// Delete() removes the key-value pair from the BadgerDB transaction
func (t *TxnWrapper) Delete(k []byte) lib.ErrorI {
	if err := t.db.Delete(k); err != nil {
		if errors.Is(err, badger.ErrReadOnlyTxn) {
			return ErrReadOnlyStore()
		}
		return ErrStoreDelete(err)
	}
	return nil
}

// Commit() persists the writes; a concurrent transaction that touched the same keys surfaces as ErrTxnConflict
func (t *TxnWrapper) Commit() lib.ErrorI {
	if err := t.db.Commit(); err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return ErrTxnConflict()
		}
		return ErrCommitDB(err)
	}
	return nil
}

// Discard() drops the writes; safe to call after Commit()
func (t *TxnWrapper) Discard() { t.db.Discard() }

// Iterator() creates a new iterator for the given prefix in the BadgerDB transaction
func (t *TxnWrapper) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	return newIterator(t.db, prefix, false, false), nil
}

// RevIterator() creates a new reverse iterator for the given prefix in the BadgerDB transaction
func (t *TxnWrapper) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	return newIterator(t.db, prefix, true, false), nil
}

// Iterator implements a wrapper around BadgerDB's iterator but satisfies the IteratorI interface
type Iterator struct {
	parent *badger.Iterator
	txn    *badger.Txn // non-nil when the iterator owns its snapshot
	prefix []byte
}

// newSnapshotIterator() creates an iterator that discards its read transaction on Close()
func newSnapshotIterator(txn *badger.Txn, prefix []byte, reverse bool) (lib.IteratorI, lib.ErrorI) {
	return newIterator(txn, prefix, reverse, true), nil
}

func newIterator(txn *badger.Txn, prefix []byte, reverse, owned bool) *Iterator {
	parent := txn.NewIterator(badger.IteratorOptions{
		Prefix:         prefix,
		Reverse:        reverse,
		PrefetchValues: false,
	})
	if reverse {
		parent.Seek(prefixEnd(prefix))
	} else {
		parent.Rewind()
	}
	it := &Iterator{parent: parent, prefix: prefix}
	if owned {
		it.txn = txn
	}
	return it
}

// Valid() returns true while the iterator points at a key under the prefix
func (i *Iterator) Valid() bool { return i.parent.ValidForPrefix(i.prefix) }

// Next() moves to the next item
func (i *Iterator) Next() { i.parent.Next() }

// Key() returns a copy of the current key
func (i *Iterator) Key() []byte { return i.parent.Item().KeyCopy(nil) }

// Value() returns a copy of the current value; nil if the value could not be read
func (i *Iterator) Value() []byte {
	v, err := i.parent.Item().ValueCopy(nil)
	if err != nil {
		return nil
	}
	return v
}

// Close() closes the iterator and releases an owned snapshot
func (i *Iterator) Close() {
	i.parent.Close()
	if i.txn != nil {
		i.txn.Discard()
	}
}
