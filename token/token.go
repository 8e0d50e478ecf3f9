package token

import (
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
)

/*
	The token ledger keeps fungible balances the way an spl-token program does: a mint account records supply and
	the key allowed to mint, and every holder has a separate token account bound to one mint and one owner.

	Callers inside this module (the pool program) invoke these functions directly with the authority they derived;
	outside callers reach them through Process() with a signer set.
*/

// ProgramId owns every mint and token account
var ProgramId = crypto.MustPublicKeyFromString("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

const (
	MaxDecimals = 18

	mintSize    = crypto.PublicKeySize + 8 + 1 + 1 // authority, supply, decimals, initialized
	accountSize = 2*crypto.PublicKeySize + 8       // mint, owner, amount
)

// Mint records the supply of a token
type Mint struct {
	Address       crypto.PublicKey `json:"address"`
	MintAuthority crypto.PublicKey `json:"mintAuthority"`
	Supply        uint64           `json:"supply"`
	Decimals      uint8            `json:"decimals"`
	IsInitialized bool             `json:"isInitialized"`
}

// Bytes() encodes the mint data
func (m *Mint) Bytes() []byte {
	return lib.NewBinaryWriter(mintSize).WritePublicKey(m.MintAuthority).WriteU64(m.Supply).
		WriteU8(m.Decimals).WriteBool(m.IsInitialized).Bytes()
}

// NewMintFromBytes() decodes mint data
func NewMintFromBytes(address crypto.PublicKey, bz []byte) (*Mint, lib.ErrorI) {
	r := lib.NewBinaryReader(bz)
	m := &Mint{Address: address, MintAuthority: r.ReadPublicKey(), Supply: r.ReadU64(), Decimals: r.ReadU8(), IsInitialized: r.ReadBool()}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// Account is a balance of one mint held by one owner
type Account struct {
	Address crypto.PublicKey `json:"address"`
	Mint    crypto.PublicKey `json:"mint"`
	Owner   crypto.PublicKey `json:"owner"`
	Amount  uint64           `json:"amount"`
}

// Bytes() encodes the token account data
func (a *Account) Bytes() []byte {
	return lib.NewBinaryWriter(accountSize).WritePublicKey(a.Mint).WritePublicKey(a.Owner).WriteU64(a.Amount).Bytes()
}

// NewAccountFromBytes() decodes token account data
func NewAccountFromBytes(address crypto.PublicKey, bz []byte) (*Account, lib.ErrorI) {
	r := lib.NewBinaryReader(bz)
	a := &Account{Address: address, Mint: r.ReadPublicKey(), Owner: r.ReadPublicKey(), Amount: r.ReadU64()}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return a, nil
}

// GetMint() loads a mint
func GetMint(s lib.RStoreI, address crypto.PublicKey) (*Mint, lib.ErrorI) {
	bz, err := lib.GetAccountData(s, address, ProgramId, lib.AccountKindMint)
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, ErrMintNotFound(address.String())
	}
	return NewMintFromBytes(address, bz)
}

// SetMint() persists a mint
func SetMint(s lib.RWStoreI, m *Mint) lib.ErrorI {
	return lib.SetAccountData(s, m.Address, ProgramId, lib.AccountKindMint, m.Bytes())
}

// GetAccount() loads a token account
func GetAccount(s lib.RStoreI, address crypto.PublicKey) (*Account, lib.ErrorI) {
	bz, err := lib.GetAccountData(s, address, ProgramId, lib.AccountKindToken)
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, ErrTokenAccountNotFound(address.String())
	}
	return NewAccountFromBytes(address, bz)
}

// SetAccount() persists a token account
func SetAccount(s lib.RWStoreI, a *Account) lib.ErrorI {
	return lib.SetAccountData(s, a.Address, ProgramId, lib.AccountKindToken, a.Bytes())
}

// Exists() reports whether any account lives at address
func Exists(s lib.RStoreI, address crypto.PublicKey) (bool, lib.ErrorI) {
	bz, err := lib.GetRawAccount(s, address)
	return bz != nil, err
}

// InitializeMint() creates a mint with zero supply
func InitializeMint(s lib.RWStoreI, address, authority crypto.PublicKey, decimals uint8) (*Mint, lib.ErrorI) {
	if decimals > MaxDecimals {
		return nil, ErrInvalidTokenDecimals(decimals)
	}
	exists, err := Exists(s, address)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAccountAlreadyExists(address.String())
	}
	m := &Mint{Address: address, MintAuthority: authority, Decimals: decimals, IsInitialized: true}
	return m, SetMint(s, m)
}

// InitializeAccount() creates an empty token account for owner
func InitializeAccount(s lib.RWStoreI, address, mint, owner crypto.PublicKey) (*Account, lib.ErrorI) {
	if _, err := GetMint(s, mint); err != nil {
		return nil, err
	}
	exists, err := Exists(s, address)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAccountAlreadyExists(address.String())
	}
	a := &Account{Address: address, Mint: mint, Owner: owner}
	return a, SetAccount(s, a)
}

// MintTo() creates amount new tokens in dest; authority must be the mint authority
func MintTo(s lib.RWStoreI, mint, dest, authority crypto.PublicKey, amount uint64) lib.ErrorI {
	m, err := GetMint(s, mint)
	if err != nil {
		return err
	}
	if m.MintAuthority != authority {
		return ErrInvalidMintAuthority(mint.String())
	}
	to, err := GetAccount(s, dest)
	if err != nil {
		return err
	}
	if to.Mint != mint {
		return ErrMintMismatch(mint.String(), to.Mint.String())
	}
	if m.Supply+amount < m.Supply {
		return ErrSupplyOverflow(mint.String())
	}
	// balance <= supply so the balance cannot overflow once the supply does not
	m.Supply += amount
	to.Amount += amount
	if err = SetMint(s, m); err != nil {
		return err
	}
	return SetAccount(s, to)
}

// Transfer() moves amount between two accounts of the same mint; owner must own the source
func Transfer(s lib.RWStoreI, source, dest, owner crypto.PublicKey, amount uint64) lib.ErrorI {
	from, err := GetAccount(s, source)
	if err != nil {
		return err
	}
	if from.Owner != owner {
		return ErrInvalidAccountOwner(source.String())
	}
	to, err := GetAccount(s, dest)
	if err != nil {
		return err
	}
	if from.Mint != to.Mint {
		return ErrMintMismatch(from.Mint.String(), to.Mint.String())
	}
	if from.Amount < amount {
		return ErrInsufficientFunds(source.String(), from.Amount, amount)
	}
	// a self transfer only needs the checks above
	if source == dest {
		return nil
	}
	if to.Amount+amount < to.Amount {
		return ErrTokenAmountOverflow(dest.String())
	}
	from.Amount -= amount
	to.Amount += amount
	if err = SetAccount(s, from); err != nil {
		return err
	}
	return SetAccount(s, to)
}

// Burn() destroys amount tokens from an account owned by owner
func Burn(s lib.RWStoreI, account, mint, owner crypto.PublicKey, amount uint64) lib.ErrorI {
	from, err := GetAccount(s, account)
	if err != nil {
		return err
	}
	if from.Owner != owner {
		return ErrInvalidAccountOwner(account.String())
	}
	if from.Mint != mint {
		return ErrMintMismatch(mint.String(), from.Mint.String())
	}
	m, err := GetMint(s, mint)
	if err != nil {
		return err
	}
	if from.Amount < amount {
		return ErrInsufficientFunds(account.String(), from.Amount, amount)
	}
	from.Amount -= amount
	m.Supply -= amount
	if err = SetAccount(s, from); err != nil {
		return err
	}
	return SetMint(s, m)
}
