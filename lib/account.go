package lib

import (
	"github.com/canopy-network/amm/lib/crypto"
)

/*
	The account store is a key-addressed ledger of opaque byte blobs. Each blob is wrapped in an envelope that records the
	program owning it and the kind of data it carries; only the owning program may rewrite it.

	envelope = kind (u8) || owner program (32 bytes) || data
*/

var accountPrefix = []byte{1} // store key prefix for every account

// AccountKind tags the layout of an account's data
type AccountKind uint8

const (
	AccountKindUnknown AccountKind = iota
	AccountKindMint
	AccountKindToken
	AccountKindPool
	AccountKindTargetOrders
	AccountKindWithdrawQueue
	AccountKindMarket
	AccountKindOpenOrders
)

// String() returns the human readable kind
func (k AccountKind) String() string {
	switch k {
	case AccountKindMint:
		return "mint"
	case AccountKindToken:
		return "token_account"
	case AccountKindPool:
		return "pool"
	case AccountKindTargetOrders:
		return "target_orders"
	case AccountKindWithdrawQueue:
		return "withdraw_queue"
	case AccountKindMarket:
		return "market"
	case AccountKindOpenOrders:
		return "open_orders"
	default:
		return "unknown"
	}
}

// Account is a single addressed blob in the ledger
type Account struct {
	Address crypto.PublicKey `json:"address"`
	Owner   crypto.PublicKey `json:"owner"` // the program allowed to write this account
	Kind    AccountKind      `json:"kind"`
	Data    []byte           `json:"data"`
}

// Bytes() encodes the account envelope
func (a *Account) Bytes() []byte {
	w := NewBinaryWriter(1 + crypto.PublicKeySize + len(a.Data))
	w.WriteU8(uint8(a.Kind)).WritePublicKey(a.Owner)
	return append(w.Bytes(), a.Data...)
}

// NewAccountFromBytes() decodes an account envelope
func NewAccountFromBytes(address crypto.PublicKey, bz []byte) (*Account, ErrorI) {
	r := NewBinaryReader(bz)
	kind, owner := AccountKind(r.ReadU8()), r.ReadPublicKey()
	if err := r.Err(); err != nil {
		return nil, err
	}
	return &Account{Address: address, Owner: owner, Kind: kind, Data: bz[1+crypto.PublicKeySize:]}, nil
}

// AccountPrefix() is the prefix for all accounts
func AccountPrefix() []byte { return JoinLenPrefix(accountPrefix) }

// KeyForAccount() is the store key for an address
func KeyForAccount(address crypto.PublicKey) []byte {
	return JoinLenPrefix(accountPrefix, address[:])
}

// GetRawAccount() returns the stored envelope bytes; nil if the account does not exist
func GetRawAccount(s RStoreI, address crypto.PublicKey) ([]byte, ErrorI) {
	return s.Get(KeyForAccount(address))
}

// GetAccount() returns the account at address or nil if it does not exist
func GetAccount(s RStoreI, address crypto.PublicKey) (*Account, ErrorI) {
	bz, err := GetRawAccount(s, address)
	if err != nil || bz == nil {
		return nil, err
	}
	return NewAccountFromBytes(address, bz)
}

// GetAccountData() loads the data of an account owned by program with the expected kind; nil if it does not exist
func GetAccountData(s RStoreI, address, program crypto.PublicKey, kind AccountKind) ([]byte, ErrorI) {
	acc, err := GetAccount(s, address)
	if err != nil || acc == nil {
		return nil, err
	}
	if acc.Owner != program {
		return nil, ErrAccountOwner(address.String())
	}
	if acc.Kind != kind {
		return nil, ErrAccountKind(address.String(), kind, acc.Kind)
	}
	return acc.Data, nil
}

// SetAccountData() writes data to address on behalf of program; an existing account must already belong to program
func SetAccountData(s RWStoreI, address, program crypto.PublicKey, kind AccountKind, data []byte) ErrorI {
	existing, err := GetAccount(s, address)
	if err != nil {
		return err
	}
	if existing != nil && (existing.Owner != program || existing.Kind != kind) {
		return ErrAccountOwner(address.String())
	}
	acc := &Account{Address: address, Owner: program, Kind: kind, Data: data}
	return s.Set(KeyForAccount(address), acc.Bytes())
}

// DeleteAccount() removes an account owned by program
func DeleteAccount(s RWStoreI, address, program crypto.PublicKey) ErrorI {
	existing, err := GetAccount(s, address)
	if err != nil || existing == nil {
		return err
	}
	if existing.Owner != program {
		return ErrAccountOwner(address.String())
	}
	return s.Delete(KeyForAccount(address))
}

// IterateAccounts() calls fn for each account of the kind owned by program, in address order
func IterateAccounts(s RStoreI, program crypto.PublicKey, kind AccountKind, fn func(acc *Account) ErrorI) ErrorI {
	it, err := s.Iterator(AccountPrefix())
	if err != nil {
		return err
	}
	defer it.Close()
	for ; it.Valid(); it.Next() {
		segments, e := DecodeLengthPrefixed(it.Key())
		if e != nil {
			return e
		}
		if len(segments) != 2 {
			return ErrInvalidKey()
		}
		address, er := crypto.NewPublicKeyFromBytes(segments[1])
		if er != nil {
			return ErrInvalidKey()
		}
		acc, e := NewAccountFromBytes(address, it.Value())
		if e != nil {
			return e
		}
		if acc.Owner != program || acc.Kind != kind {
			continue
		}
		if e = fn(acc); e != nil {
			return e
		}
	}
	return nil
}
