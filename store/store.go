package store

import (
	"bytes"
	"errors"
	"path/filepath"

	"github.com/canopy-network/amm/lib"
	"github.com/dgraph-io/badger/v4"
)

const maxKeyBytes = 128 // maximum size of a key

var _ lib.StoreI = &Store{} // enforce the Store interface

/*
	The Store is a thin layer over a single BadgerDB instance holding the account ledger.

	Every state changing instruction runs inside exactly one badger read-write transaction (see Update()). Badger's
	optimistic concurrency control gives serializable snapshot isolation: a transaction either commits all of its
	writes or none of them, and two transactions that touched the same keys cannot both commit (ErrConflict).
*/

type Store struct {
	db  *badger.DB  // underlying database
	log lib.LoggerI // logger
}

// New() creates a new instance of a StoreI either in memory or an actual disk DB
func New(config lib.Config, l lib.LoggerI) (lib.StoreI, lib.ErrorI) {
	if config.StoreConfig.InMemory {
		return NewStoreInMemory(l)
	}
	return NewStore(config.StoreConfig, filepath.Join(config.DataDirPath, config.DBName), l)
}

// NewStore() creates a new instance of a disk DB
func NewStore(config lib.StoreConfig, path string, log lib.LoggerI) (lib.StoreI, lib.ErrorI) {
	opts := badger.DefaultOptions(path).
		WithLogger(&badgerLogger{log}).
		WithLoggingLevel(badger.WARNING)
	if config.MemTableSize > 0 {
		opts = opts.WithMemTableSize(config.MemTableSize)
	}
	if config.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(config.ValueLogFileSize)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, ErrOpenDB(err)
	}
	return &Store{db: db, log: log}, nil
}

// NewStoreInMemory() creates a new instance of a mem DB
func NewStoreInMemory(log lib.LoggerI) (lib.StoreI, lib.ErrorI) {
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(&badgerLogger{log}).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, ErrOpenDB(err)
	}
	return &Store{db: db, log: log}, nil
}

// Get() reads a single key in its own read transaction
func (s *Store) Get(key []byte) (value []byte, err lib.ErrorI) {
	txn := s.NewReadOnly()
	defer txn.Discard()
	return txn.Get(key)
}

// Set() writes a single key in its own transaction
func (s *Store) Set(key, value []byte) lib.ErrorI {
	return s.Update(func(rw lib.RWStoreI) lib.ErrorI { return rw.Set(key, value) })
}

// Delete() removes a single key in its own transaction
func (s *Store) Delete(key []byte) lib.ErrorI {
	return s.Update(func(rw lib.RWStoreI) lib.ErrorI { return rw.Delete(key) })
}

// Iterator() iterates a prefix over a snapshot; closing the iterator releases the snapshot
func (s *Store) Iterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	return newSnapshotIterator(s.db.NewTransaction(false), prefix, false)
}

// RevIterator() iterates a prefix in reverse over a snapshot; closing the iterator releases the snapshot
func (s *Store) RevIterator(prefix []byte) (lib.IteratorI, lib.ErrorI) {
	return newSnapshotIterator(s.db.NewTransaction(false), prefix, true)
}

// NewTxn() opens a read-write transaction
func (s *Store) NewTxn() lib.TxnI { return NewTxnWrapper(s.db.NewTransaction(true), s.log) }

// NewReadOnly() opens a read-only snapshot
func (s *Store) NewReadOnly() lib.ReadOnlyI {
	return NewTxnWrapper(s.db.NewTransaction(false), s.log)
}

// Update() executes fn in a read-write transaction, committing if fn succeeds and discarding otherwise
func (s *Store) Update(fn func(rw lib.RWStoreI) lib.ErrorI) lib.ErrorI {
	txn := s.NewTxn()
	defer txn.Discard()
	if err := fn(txn); err != nil {
		return err
	}
	return txn.Commit()
}

// Close() gracefully closes the database
func (s *Store) Close() lib.ErrorI {
	if err := s.db.Close(); err != nil {
		return ErrCloseDB(err)
	}
	return nil
}

// RunGC() reclaims value log space; a ratio of 0.5 rewrites files that are at least half garbage
func (s *Store) RunGC(ratio float64) lib.ErrorI {
	if err := s.db.RunValueLogGC(ratio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return ErrGarbageCollect(err)
	}
	return nil
}

// DB() exposes the badger instance
func (s *Store) DB() *badger.DB { return s.db }

// validateKey() rejects keys the store will not accept
func validateKey(key []byte) lib.ErrorI {
	if len(key) == 0 || len(key) > maxKeyBytes {
		return lib.ErrInvalidKey()
	}
	return nil
}

// prefixEnd() returns the end key for a given prefix by appending max possible bytes
func prefixEnd(prefix []byte) []byte {
	return append(bytes.Clone(prefix), bytes.Repeat([]byte{0xFF}, maxKeyBytes+1)...)
}

// badgerLogger routes badger's own logging into the node logger
type badgerLogger struct{ l lib.LoggerI }

func (b *badgerLogger) Errorf(f string, a ...interface{})   { b.l.Errorf(f, a...) }
func (b *badgerLogger) Warningf(f string, a ...interface{}) { b.l.Warnf(f, a...) }
func (b *badgerLogger) Infof(f string, a ...interface{})    { b.l.Debugf(f, a...) }
func (b *badgerLogger) Debugf(f string, a ...interface{})   { b.l.Debugf(f, a...) }
