package store

import (
	"testing"

	"github.com/canopy-network/amm/lib"
	"github.com/stretchr/testify/require"
)

func TestTxnGetSetDelete(t *testing.T) {
	db := newTestStore(t)
	require.NoError(t, db.Set([]byte("a"), []byte("parent")))
	txn := NewTxn(db)
	// reads fall through to the parent
	v, err := txn.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("parent"), v)
	// writes shadow the parent without touching it
	require.NoError(t, txn.Set([]byte("a"), []byte("txn")))
	v, _ = txn.Get([]byte("a"))
	require.Equal(t, []byte("txn"), v)
	v, _ = db.Get([]byte("a"))
	require.Equal(t, []byte("parent"), v)
	// deletes hide the parent value
	require.NoError(t, txn.Delete([]byte("a")))
	v, _ = txn.Get([]byte("a"))
	require.Nil(t, v)
	// discard drops everything
	txn.Discard()
	v, _ = txn.Get([]byte("a"))
	require.Equal(t, []byte("parent"), v)
	// commit flushes to the parent
	require.NoError(t, txn.Set([]byte("b"), []byte("new")))
	require.NoError(t, txn.Commit())
	v, _ = db.Get([]byte("b"))
	require.Equal(t, []byte("new"), v)
}

func TestSimulationCannotCommit(t *testing.T) {
	db := newTestStore(t)
	ro := db.NewReadOnly()
	defer ro.Discard()
	sim := NewSimulation(ro)
	require.NoError(t, sim.Set([]byte("a"), []byte("1")))
	err := sim.Commit()
	require.True(t, lib.IsCode(err, lib.CodeReadOnlyStore))
}

func TestTxnIterator(t *testing.T) {
	db := newTestStore(t)
	for _, k := range []string{"p/1", "p/3", "p/5"} {
		require.NoError(t, db.Set([]byte(k), []byte("parent")))
	}
	txn := NewTxn(db)
	require.NoError(t, txn.Set([]byte("p/2"), []byte("txn")))
	require.NoError(t, txn.Set([]byte("p/3"), []byte("txn")))
	require.NoError(t, txn.Delete([]byte("p/5")))
	require.NoError(t, txn.Set([]byte("p/6"), []byte("txn")))
	require.NoError(t, txn.Set([]byte("q/0"), []byte("txn")))
	tests := []struct {
		name     string
		reverse  bool
		expected []string
		values   []string
	}{
		{
			name:     "forward",
			expected: []string{"p/1", "p/2", "p/3", "p/6"},
			values:   []string{"parent", "txn", "txn", "txn"},
		},
		{
			name:     "reverse",
			reverse:  true,
			expected: []string{"p/6", "p/3", "p/2", "p/1"},
			values:   []string{"txn", "txn", "txn", "parent"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var (
				it  lib.IteratorI
				err lib.ErrorI
			)
			if test.reverse {
				it, err = txn.RevIterator([]byte("p/"))
			} else {
				it, err = txn.Iterator([]byte("p/"))
			}
			require.NoError(t, err)
			defer it.Close()
			var keys, values []string
			for ; it.Valid(); it.Next() {
				keys = append(keys, string(it.Key()))
				values = append(values, string(it.Value()))
			}
			require.Equal(t, test.expected, keys)
			require.Equal(t, test.values, values)
		})
	}
}
