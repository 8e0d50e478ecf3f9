package token

import (
	"testing"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) lib.StoreI {
	db, err := store.NewStoreInMemory(lib.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newTestMint() creates a mint with two funded holders
func newTestMint(t *testing.T, s lib.RWStoreI, amount uint64) (mint, authority crypto.PublicKey, holders [2]*Account) {
	mint, authority = crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	_, err := InitializeMint(s, mint, authority, 6)
	require.NoError(t, err)
	for i := range holders {
		holders[i], err = InitializeAccount(s, crypto.NewRandomPublicKey(), mint, crypto.NewRandomPublicKey())
		require.NoError(t, err)
		require.NoError(t, MintTo(s, mint, holders[i].Address, authority, amount))
	}
	return
}

func TestMintAndAccountLayout(t *testing.T) {
	m := &Mint{Address: crypto.NewRandomPublicKey(), MintAuthority: crypto.NewRandomPublicKey(), Supply: 42, Decimals: 9, IsInitialized: true}
	bz := m.Bytes()
	require.Len(t, bz, mintSize)
	got, err := NewMintFromBytes(m.Address, bz)
	require.NoError(t, err)
	require.Equal(t, m, got)
	// trailing bytes are rejected
	_, err = NewMintFromBytes(m.Address, append(bz, 0))
	require.Error(t, err)
	a := &Account{Address: crypto.NewRandomPublicKey(), Mint: m.Address, Owner: crypto.NewRandomPublicKey(), Amount: 7}
	require.Len(t, a.Bytes(), accountSize)
}

func TestInitialize(t *testing.T) {
	s := newTestStore(t)
	mint, authority := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	// decimals are bounded
	_, err := InitializeMint(s, mint, authority, MaxDecimals+1)
	require.Equal(t, lib.CodeInvalidTokenDecimals, err.Code())
	// an account of an unknown mint is rejected
	_, err = InitializeAccount(s, crypto.NewRandomPublicKey(), mint, authority)
	require.Equal(t, lib.CodeMintNotFound, err.Code())
	_, err = InitializeMint(s, mint, authority, 6)
	require.NoError(t, err)
	// addresses cannot be reused
	_, err = InitializeMint(s, mint, authority, 6)
	require.Equal(t, lib.CodeAccountAlreadyExists, err.Code())
	_, err = InitializeAccount(s, mint, mint, authority)
	require.Equal(t, lib.CodeAccountAlreadyExists, err.Code())
	// a mint is not a token account
	_, err = GetAccount(s, mint)
	require.Equal(t, lib.CodeAccountKind, err.Code())
	got, err := GetMint(s, mint)
	require.NoError(t, err)
	require.Equal(t, authority, got.MintAuthority)
	require.Zero(t, got.Supply)
}

func TestMintTo(t *testing.T) {
	s := newTestStore(t)
	mint, authority, holders := newTestMint(t, s, 100)
	m, err := GetMint(s, mint)
	require.NoError(t, err)
	require.Equal(t, uint64(200), m.Supply)
	// only the authority mints
	err = MintTo(s, mint, holders[0].Address, crypto.NewRandomPublicKey(), 1)
	require.Equal(t, lib.CodeInvalidMintAuthority, err.Code())
	// supply is bounded
	err = MintTo(s, mint, holders[0].Address, authority, ^uint64(0))
	require.Equal(t, lib.CodeSupplyOverflow, err.Code())
	// the destination must hold the mint
	otherMint, otherAuthority, _ := newTestMint(t, s, 1)
	err = MintTo(s, otherMint, holders[0].Address, otherAuthority, 1)
	require.Equal(t, lib.CodeMintMismatch, err.Code())
}

func TestTransfer(t *testing.T) {
	s := newTestStore(t)
	_, _, holders := newTestMint(t, s, 100)
	from, to := holders[0], holders[1]
	tests := []struct {
		name    string
		detail  string
		source  crypto.PublicKey
		owner   crypto.PublicKey
		amount  uint64
		errCode lib.ErrorCode
	}{
		{
			name:    "wrong owner",
			detail:  "only the owner moves funds",
			source:  from.Address,
			owner:   to.Owner,
			amount:  1,
			errCode: lib.CodeInvalidAccountOwner,
		},
		{
			name:    "insufficient",
			detail:  "the source cannot go negative",
			source:  from.Address,
			owner:   from.Owner,
			amount:  101,
			errCode: lib.CodeInsufficientFunds,
		},
		{
			name:   "transfer",
			detail: "moves the amount",
			source: from.Address,
			owner:  from.Owner,
			amount: 60,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Transfer(s, test.source, to.Address, test.owner, test.amount)
			if test.errCode != 0 {
				require.Equal(t, test.errCode, err.Code(), test.detail)
				return
			}
			require.NoError(t, err, test.detail)
		})
	}
	got, err := GetAccount(s, from.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(40), got.Amount)
	got, err = GetAccount(s, to.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(160), got.Amount)
	// a self transfer leaves the balance alone
	require.NoError(t, Transfer(s, to.Address, to.Address, to.Owner, 10))
	got, err = GetAccount(s, to.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(160), got.Amount)
}

func TestBurn(t *testing.T) {
	s := newTestStore(t)
	mint, _, holders := newTestMint(t, s, 100)
	require.NoError(t, Burn(s, holders[0].Address, mint, holders[0].Owner, 30))
	err := Burn(s, holders[0].Address, mint, holders[0].Owner, 71)
	require.Equal(t, lib.CodeInsufficientFunds, err.Code())
	m, err := GetMint(s, mint)
	require.NoError(t, err)
	require.Equal(t, uint64(170), m.Supply)
}

func TestProcess(t *testing.T) {
	s := newTestStore(t)
	mint, authority := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	owner, account, dest := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	run := func(ins *lib.Instruction, signers ...crypto.PublicKey) lib.ErrorI {
		_, err := Process(s, ins, signers)
		return err
	}
	require.NoError(t, run(NewInitializeMintInstruction(mint, authority, 9)))
	require.NoError(t, run(NewInitializeAccountInstruction(account, mint, owner)))
	require.NoError(t, run(NewInitializeAccountInstruction(dest, mint, owner)))
	// mint to requires the authority's signature
	err := run(NewMintToInstruction(mint, account, authority, 50))
	require.Equal(t, lib.CodeMissingSignature, err.Code())
	require.NoError(t, run(NewMintToInstruction(mint, account, authority, 50), authority))
	// transfer requires the owner's signature
	err = run(NewTransferInstruction(account, dest, owner, 20), authority)
	require.Equal(t, lib.CodeMissingSignature, err.Code())
	receipt, err := Process(s, NewTransferInstruction(account, dest, owner, 20), lib.Signers{owner})
	require.NoError(t, err)
	require.Equal(t, "transfer", receipt.Instruction)
	require.Equal(t, uint64(20), receipt.Amount)
	got, err := GetAccount(s, dest)
	require.NoError(t, err)
	require.Equal(t, uint64(20), got.Amount)
	// malformed input
	err = run(&lib.Instruction{ProgramId: ProgramId, Data: []byte{2}})
	require.Equal(t, lib.CodeInvalidTokenInstruction, err.Code())
	err = run(&lib.Instruction{ProgramId: ProgramId, Accounts: []crypto.PublicKey{account}, Data: []byte{TagTransfer}})
	require.Equal(t, lib.CodeInstructionAccounts, err.Code())
	err = run(&lib.Instruction{ProgramId: ProgramId, Accounts: []crypto.PublicKey{account, dest, owner}, Data: []byte{TagTransfer, 1}}, owner)
	require.Equal(t, lib.CodeUnmarshal, err.Code())
}

func TestProcessDerivedAddresses(t *testing.T) {
	s := newTestStore(t)
	mint, authority, holders := newTestMint(t, s, 100)
	vaultAuthority, _, err := crypto.FindProgramAddress([][]byte{[]byte("authority")}, crypto.NewRandomPublicKey())
	require.NoError(t, err)
	vault, _, err := crypto.FindProgramAddress([][]byte{[]byte("vault")}, crypto.NewRandomPublicKey())
	require.NoError(t, err)
	// a program opens and funds its own vault directly
	_, e := InitializeAccount(s, vault, mint, vaultAuthority)
	require.NoError(t, e)
	require.NoError(t, Transfer(s, holders[0].Address, vault, holders[0].Owner, 40))
	// through Process the derived authority can never sign
	_, e = Process(s, NewTransferInstruction(vault, holders[1].Address, vaultAuthority, 40), lib.Signers{vaultAuthority})
	require.Equal(t, lib.CodeOffCurveSigner, e.Code())
	_, e = Process(s, NewMintToInstruction(mint, vault, authority, 1), lib.Signers{authority, vaultAuthority})
	require.Equal(t, lib.CodeOffCurveSigner, e.Code())
	got, e := GetAccount(s, vault)
	require.NoError(t, e)
	require.Equal(t, uint64(40), got.Amount)
	// nor open accounts at derived addresses
	_, e = Process(s, NewInitializeAccountInstruction(vaultAuthority, mint, holders[1].Owner), nil)
	require.Equal(t, lib.CodeOffCurveAddress, e.Code())
	_, e = Process(s, NewInitializeMintInstruction(vaultAuthority, authority, 6), nil)
	require.Equal(t, lib.CodeOffCurveAddress, e.Code())
}
