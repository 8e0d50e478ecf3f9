package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/canopy-network/amm/lib"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) lib.StoreI {
	db, err := NewStoreInMemory(lib.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStoreBasic(t *testing.T) {
	db := newTestStore(t)
	// missing keys read as nil
	got, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Nil(t, got)
	// set then get
	require.NoError(t, db.Set([]byte("a"), []byte("1")))
	got, err = db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
	// delete
	require.NoError(t, db.Delete([]byte("a")))
	got, err = db.Get([]byte("a"))
	require.NoError(t, err)
	require.Nil(t, got)
	// oversized keys are rejected
	require.Error(t, db.Set(make([]byte, maxKeyBytes+1), nil))
}

func TestUpdateAtomic(t *testing.T) {
	db := newTestStore(t)
	failure := lib.NewError(1, "test", "boom")
	// a failing update leaves no trace
	err := db.Update(func(rw lib.RWStoreI) lib.ErrorI {
		require.NoError(t, rw.Set([]byte("x"), []byte("1")))
		require.NoError(t, rw.Set([]byte("y"), []byte("2")))
		return failure
	})
	require.Equal(t, failure, err)
	for _, k := range []string{"x", "y"} {
		v, e := db.Get([]byte(k))
		require.NoError(t, e)
		require.Nil(t, v)
	}
	// a succeeding update persists every write
	require.NoError(t, db.Update(func(rw lib.RWStoreI) lib.ErrorI {
		if e := rw.Set([]byte("x"), []byte("1")); e != nil {
			return e
		}
		return rw.Set([]byte("y"), []byte("2"))
	}))
	v, e := db.Get([]byte("y"))
	require.NoError(t, e)
	require.Equal(t, []byte("2"), v)
}

func TestTxnConflict(t *testing.T) {
	db := newTestStore(t)
	require.NoError(t, db.Set([]byte("k"), []byte("0")))
	a, b := db.NewTxn(), db.NewTxn()
	defer a.Discard()
	defer b.Discard()
	// both read then write the same key
	_, err := a.Get([]byte("k"))
	require.NoError(t, err)
	_, err = b.Get([]byte("k"))
	require.NoError(t, err)
	require.NoError(t, a.Set([]byte("k"), []byte("a")))
	require.NoError(t, b.Set([]byte("k"), []byte("b")))
	require.NoError(t, a.Commit())
	err = b.Commit()
	require.Error(t, err)
	require.True(t, lib.IsCode(err, lib.CodeTxnConflict))
	v, _ := db.Get([]byte("k"))
	require.Equal(t, []byte("a"), v)
}

func TestReadOnly(t *testing.T) {
	db := newTestStore(t)
	ro := db.NewReadOnly()
	defer ro.Discard()
	rw, ok := ro.(lib.RWStoreI)
	require.True(t, ok)
	err := rw.Set([]byte("k"), []byte("v"))
	require.True(t, lib.IsCode(err, lib.CodeReadOnlyStore))
}

func TestIterators(t *testing.T) {
	db := newTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Set([]byte(fmt.Sprintf("p/%d", i)), []byte{byte(i)}))
	}
	require.NoError(t, db.Set([]byte("q/0"), []byte{9}))
	tests := []struct {
		name     string
		reverse  bool
		expected []string
	}{
		{name: "forward", expected: []string{"p/0", "p/1", "p/2", "p/3", "p/4"}},
		{name: "reverse", reverse: true, expected: []string{"p/4", "p/3", "p/2", "p/1", "p/0"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var (
				it  lib.IteratorI
				err lib.ErrorI
			)
			if test.reverse {
				it, err = db.RevIterator([]byte("p/"))
			} else {
				it, err = db.Iterator([]byte("p/"))
			}
			require.NoError(t, err)
			defer it.Close()
			var got []string
			for ; it.Valid(); it.Next() {
				got = append(got, string(it.Key()))
			}
			require.Equal(t, test.expected, got)
		})
	}
}

func TestConcurrentDisjointUpdates(t *testing.T) {
	db := newTestStore(t)
	var wg sync.WaitGroup
	errs := make([]lib.ErrorI, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = db.Update(func(rw lib.RWStoreI) lib.ErrorI {
				return rw.Set([]byte(fmt.Sprintf("pool/%d", i)), []byte{byte(i)})
			})
		}(i)
	}
	wg.Wait()
	// disjoint key sets never conflict
	for _, err := range errs {
		require.NoError(t, err)
	}
}
