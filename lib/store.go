package lib

/* This file contains persistence module interfaces that are used throughout the app */

// StoreI defines the interface for interacting with the account database
type StoreI interface {
	RWStoreI                                // reading and writing outside of any transaction
	NewTxn() TxnI                           // a read-write transaction that commits atomically or not at all
	NewReadOnly() ReadOnlyI                 // a consistent snapshot for queries
	Update(fn func(RWStoreI) ErrorI) ErrorI // run fn inside a transaction; commit on success, discard on error
	Close() ErrorI                          // gracefully stop the database
}

// TxnI is an atomic unit of writes
type TxnI interface {
	RWStoreI
	Commit() ErrorI // persist every write or none
	Discard()       // drop every write
}

// ReadOnlyI is a snapshot view that must be discarded when done
type ReadOnlyI interface {
	RStoreI
	Discard()
}

// RWStoreI defines the Read/Write interface for basic db CRUD operations
type RWStoreI interface {
	RStoreI
	WStoreI
}

// WStoreI defines an interface for basic write operations
type WStoreI interface {
	Set(key, value []byte) ErrorI // set value bytes referenced by key bytes
	Delete(key []byte) ErrorI     // delete the key value pair
}

// RStoreI defines an interface for basic read operations
type RStoreI interface {
	Get(key []byte) ([]byte, ErrorI)               // access value bytes using key bytes; nil if not found
	Iterator(prefix []byte) (IteratorI, ErrorI)    // iterate through the data one KV pair at a time in lexicographical order
	RevIterator(prefix []byte) (IteratorI, ErrorI) // iterate through the data one KV pair at a time in reverse lexicographical order
}

// IteratorI defines an interface for iterating over key-value pairs in a data store
type IteratorI interface {
	Valid() bool   // if the item the iterator is pointing at is valid
	Next()         // move to next item
	Key() []byte   // retrieve key
	Value() []byte // retrieve value
	Close()        // close the iterator when done, ensuring proper resource management
}
