package market

import (
	"encoding/binary"
	"testing"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/store"
	"github.com/canopy-network/amm/token"
	"github.com/stretchr/testify/require"
)

type testMarket struct {
	store       lib.StoreI
	provider    *Provider
	market      *Market
	authority   crypto.PublicKey // mint authority of both mints
	trader      crypto.PublicKey
	traderBase  crypto.PublicKey
	traderQuote crypto.PublicKey
}

// newTestMarket() creates two mints, a funded trader and a market over the mints
func newTestMarket(t *testing.T) *testMarket {
	db, err := store.NewStoreInMemory(lib.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	tm := &testMarket{
		store:       db,
		provider:    NewProvider(crypto.MustPublicKeyFromString(lib.DefaultDexProgramId)),
		authority:   crypto.NewRandomPublicKey(),
		trader:      crypto.NewRandomPublicKey(),
		traderBase:  crypto.NewRandomPublicKey(),
		traderQuote: crypto.NewRandomPublicKey(),
	}
	baseMint, quoteMint := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	require.NoError(t, db.Update(func(s lib.RWStoreI) (err lib.ErrorI) {
		for mint, wallet := range map[crypto.PublicKey]crypto.PublicKey{baseMint: tm.traderBase, quoteMint: tm.traderQuote} {
			if _, err = token.InitializeMint(s, mint, tm.authority, 6); err != nil {
				return
			}
			if _, err = token.InitializeAccount(s, wallet, mint, tm.trader); err != nil {
				return
			}
			if err = token.MintTo(s, mint, wallet, tm.authority, 1_000); err != nil {
				return
			}
		}
		tm.market, err = tm.provider.CreateMarket(s, crypto.NewRandomPublicKey(), baseMint, quoteMint, 100, 10)
		return
	}))
	return tm
}

func TestVaultSignerNonce(t *testing.T) {
	program, marketId := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	signer, nonce, err := VaultSignerNonce(program, marketId)
	require.NoError(t, err)
	// every smaller nonce lands on the curve
	for n := uint64(0); n < nonce; n++ {
		_, e := crypto.CreateProgramAddress([][]byte{marketId[:], binary.LittleEndian.AppendUint64(nil, n)}, program)
		require.ErrorIs(t, e, crypto.ErrOnCurve)
	}
	again, nonceAgain, err := VaultSignerNonce(program, marketId)
	require.NoError(t, err)
	require.Equal(t, signer, again)
	require.Equal(t, nonce, nonceAgain)
}

func TestCreateMarket(t *testing.T) {
	tm := newTestMarket(t)
	got, err := tm.provider.LoadMarket(tm.store, tm.market.Address)
	require.NoError(t, err)
	require.Equal(t, tm.market, got)
	// the vaults belong to the vault signer
	signer, err := tm.provider.VaultSigner(got)
	require.NoError(t, err)
	vault, err := token.GetAccount(tm.store, got.BaseVault)
	require.NoError(t, err)
	require.Equal(t, signer, vault.Owner)
	require.Equal(t, got.BaseMint, vault.Mint)
	tests := []struct {
		name      string
		detail    string
		marketId  crypto.PublicKey
		quoteMint crypto.PublicKey
		baseLot   uint64
		errCode   lib.ErrorCode
	}{
		{
			name:      "exists",
			detail:    "a market id is used once",
			marketId:  got.Address,
			quoteMint: got.QuoteMint,
			baseLot:   1,
			errCode:   lib.CodeMarketExists,
		},
		{
			name:      "identical mints",
			detail:    "a market trades two different mints",
			marketId:  crypto.NewRandomPublicKey(),
			quoteMint: got.BaseMint,
			baseLot:   1,
			errCode:   lib.CodeIdenticalMarketMint,
		},
		{
			name:      "lot size",
			detail:    "lot sizes must be positive",
			marketId:  crypto.NewRandomPublicKey(),
			quoteMint: got.QuoteMint,
			errCode:   lib.CodeInvalidLotSize,
		},
		{
			name:      "unknown mint",
			detail:    "the vault of an unknown mint cannot be opened",
			marketId:  crypto.NewRandomPublicKey(),
			quoteMint: crypto.NewRandomPublicKey(),
			baseLot:   1,
			errCode:   lib.CodeMintNotFound,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := tm.store.Update(func(s lib.RWStoreI) lib.ErrorI {
				_, e := tm.provider.CreateMarket(s, test.marketId, got.BaseMint, test.quoteMint, test.baseLot, 1)
				return e
			})
			require.Equal(t, test.errCode, err.Code(), test.detail)
		})
	}
	_, err = tm.provider.LoadMarket(tm.store, crypto.NewRandomPublicKey())
	require.Equal(t, lib.CodeMarketNotFound, err.Code())
}

func TestSettleOpenOrders(t *testing.T) {
	tm := newTestMarket(t)
	owner, address := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	ownerBase, ownerQuote := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	require.NoError(t, tm.store.Update(func(s lib.RWStoreI) (err lib.ErrorI) {
		if _, err = token.InitializeAccount(s, ownerBase, tm.market.BaseMint, owner); err != nil {
			return
		}
		if _, err = token.InitializeAccount(s, ownerQuote, tm.market.QuoteMint, owner); err != nil {
			return
		}
		if _, err = tm.provider.InitOpenOrders(s, tm.market.Address, address, owner); err != nil {
			return
		}
		// nothing to settle yet
		base, quote, err := tm.provider.SettleOpenOrders(s, tm.market.Address, address, owner, ownerBase, ownerQuote)
		require.Zero(t, base+quote)
		if err != nil {
			return
		}
		return tm.provider.Credit(s, tm.market.Address, address, tm.traderBase, tm.traderQuote, tm.trader, 300, 40)
	}))
	// open orders register once
	err := tm.store.Update(func(s lib.RWStoreI) lib.ErrorI {
		_, e := tm.provider.InitOpenOrders(s, tm.market.Address, address, owner)
		return e
	})
	require.Equal(t, lib.CodeOpenOrdersExists, err.Code())
	// only the owner settles
	err = tm.store.Update(func(s lib.RWStoreI) lib.ErrorI {
		_, _, e := tm.provider.SettleOpenOrders(s, tm.market.Address, address, tm.trader, ownerBase, ownerQuote)
		return e
	})
	require.Equal(t, lib.CodeInvalidAccountOwner, err.Code())
	var base, quote uint64
	require.NoError(t, tm.store.Update(func(s lib.RWStoreI) (e lib.ErrorI) {
		base, quote, e = tm.provider.SettleOpenOrders(s, tm.market.Address, address, owner, ownerBase, ownerQuote)
		return
	}))
	require.Equal(t, uint64(300), base)
	require.Equal(t, uint64(40), quote)
	wallet, err := token.GetAccount(tm.store, ownerBase)
	require.NoError(t, err)
	require.Equal(t, uint64(300), wallet.Amount)
	vault, err := token.GetAccount(tm.store, tm.market.QuoteVault)
	require.NoError(t, err)
	require.Zero(t, vault.Amount)
	o, err := tm.provider.GetOpenOrders(tm.store, address)
	require.NoError(t, err)
	require.Zero(t, o.BaseFree+o.QuoteFree)
}
