package store

import (
	"testing"

	"github.com/canopy-network/amm/lib"
	"github.com/stretchr/testify/require"
)

func TestTxnWrapperGetSetDelete(t *testing.T) {
	db := newTestStore(t).(*Store)
	txn := db.NewTxn()
	defer txn.Discard()
	require.NoError(t, txn.Set([]byte("a"), []byte("1")))
	// the write is visible inside the transaction only
	got, err := txn.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
	got, err = db.Get([]byte("a"))
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, txn.Delete([]byte("a")))
	got, err = txn.Get([]byte("a"))
	require.NoError(t, err)
	require.Nil(t, got)
	require.NoError(t, txn.Set([]byte("b"), []byte("2")))
	require.NoError(t, txn.Commit())
	got, err = db.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)
}

func TestTxnWrapperReadOnly(t *testing.T) {
	db := newTestStore(t).(*Store)
	ro := NewTxnWrapper(db.DB().NewTransaction(false), lib.NewNullLogger())
	defer ro.Discard()
	require.True(t, lib.IsCode(ro.Set([]byte("k"), []byte("v")), lib.CodeReadOnlyStore))
	require.True(t, lib.IsCode(ro.Delete([]byte("k")), lib.CodeReadOnlyStore))
}

func TestTxnWrapperIterator(t *testing.T) {
	db := newTestStore(t).(*Store)
	for _, k := range []string{"x/1", "x/2", "x/3", "y/1"} {
		require.NoError(t, db.Set([]byte(k), []byte(k)))
	}
	txn := db.NewTxn()
	defer txn.Discard()
	// a deleted key disappears from the iteration of the same transaction
	require.NoError(t, txn.Delete([]byte("x/2")))
	it, err := txn.Iterator([]byte("x/"))
	require.NoError(t, err)
	var keys []string
	for ; it.Valid(); it.Next() {
		keys = append(keys, string(it.Key()))
	}
	it.Close()
	require.Equal(t, []string{"x/1", "x/3"}, keys)
	rev, err := txn.RevIterator([]byte("x/"))
	require.NoError(t, err)
	keys = nil
	for ; rev.Valid(); rev.Next() {
		keys = append(keys, string(rev.Key()))
	}
	rev.Close()
	require.Equal(t, []string{"x/3", "x/1"}, keys)
}
