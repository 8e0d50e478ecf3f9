package store

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
)

func ErrOpenDB(err error) lib.ErrorI {
	return lib.NewError(lib.CodeOpenDB, lib.StorageModule, fmt.Sprintf("openDB() failed with err: %s", err.Error()))
}

func ErrCloseDB(err error) lib.ErrorI {
	return lib.NewError(lib.CodeCloseDB, lib.StorageModule, fmt.Sprintf("closeDB() failed with err: %s", err.Error()))
}

func ErrCommitDB(err error) lib.ErrorI {
	return lib.NewError(lib.CodeCommitDB, lib.StorageModule, fmt.Sprintf("commitDB() failed with err: %s", err.Error()))
}

func ErrStoreSet(err error) lib.ErrorI {
	return lib.NewError(lib.CodeStoreSet, lib.StorageModule, fmt.Sprintf("store.set() failed with err: %s", err.Error()))
}

func ErrStoreDelete(err error) lib.ErrorI {
	return lib.NewError(lib.CodeStoreDelete, lib.StorageModule, fmt.Sprintf("store.delete() failed with err: %s", err.Error()))
}

func ErrStoreGet(err error) lib.ErrorI {
	return lib.NewError(lib.CodeStoreGet, lib.StorageModule, fmt.Sprintf("store.get() failed with err: %s", err.Error()))
}

func ErrTxnConflict() lib.ErrorI {
	return lib.NewError(lib.CodeTxnConflict, lib.StorageModule, "transaction conflicted with a concurrent write; re-read and resubmit")
}

func ErrReadOnlyStore() lib.ErrorI {
	return lib.NewError(lib.CodeReadOnlyStore, lib.StorageModule, "cannot write to a read-only view")
}

func ErrGarbageCollect(err error) lib.ErrorI {
	return lib.NewError(lib.CodeGarbageCollect, lib.StorageModule, fmt.Sprintf("garbageCollect() failed with err: %s", err.Error()))
}
