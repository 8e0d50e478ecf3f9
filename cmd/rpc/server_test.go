package rpc

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/canopy-network/amm/fsm"
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/store"
	"github.com/canopy-network/amm/token"
	"github.com/stretchr/testify/require"
)

// newTestClient() serves a fresh in-memory node over httptest and returns a client for it
func newTestClient(t *testing.T) *Client {
	log := lib.NewNullLogger()
	db, err := store.NewStoreInMemory(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	c := lib.DefaultConfig()
	c.InMemory = true
	sm, err := fsm.New(c, db, lib.NewTestMetrics(), log)
	require.NoError(t, err)
	ts := httptest.NewServer(NewServer(sm, c, log).Handler())
	t.Cleanup(ts.Close)
	return NewClient(ts.URL, 0)
}

func TestPoolOverRPC(t *testing.T) {
	client := newTestClient(t)
	version, err := client.Version()
	require.NoError(t, err)
	require.Equal(t, SoftwareVersion, *version)
	// fund a user on both sides
	minter, user := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	baseMint, quoteMint := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	userBase, userQuote, userLp := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	for mint, wallet := range map[crypto.PublicKey]crypto.PublicKey{baseMint: userBase, quoteMint: userQuote} {
		_, err = client.Transaction(token.NewInitializeMintInstruction(mint, minter, 6), minter)
		require.NoError(t, err)
		_, err = client.Transaction(token.NewInitializeAccountInstruction(wallet, mint, user))
		require.NoError(t, err)
		_, err = client.Transaction(token.NewMintToInstruction(mint, wallet, minter, 10_000_000), minter)
		require.NoError(t, err)
	}
	// the node picks the market id
	m, err := client.CreateMarket(crypto.PublicKey{}, baseMint, quoteMint, 100, 10)
	require.NoError(t, err)
	require.False(t, m.Address.IsZero())
	got, err := client.Market(m.Address)
	require.NoError(t, err)
	require.Equal(t, m, got)
	keys, err := client.Keys(m.Address, baseMint, quoteMint)
	require.NoError(t, err)
	// nothing exists before initialize
	_, err = client.Pool(keys.Id)
	require.True(t, lib.IsCode(err, lib.CodePoolNotFound))
	r, err := client.Transaction(fsm.NewPoolInstruction(keys, &fsm.Initialize{
		Nonce: keys.Nonce, InitBase: 1_000_000, InitQuote: 4_000_000,
	}, user, userBase, userQuote, userLp), user)
	require.NoError(t, err)
	require.EqualValues(t, 2_000_000, r.Init.LpMinted)
	// a quote prices the swap without applying it
	swapIn := fsm.NewPoolInstruction(keys, &fsm.SwapBaseIn{AmountIn: 10_000, MinimumAmountOut: 1}, user, userBase, userQuote)
	quote, err := client.Quote(swapIn, user)
	require.NoError(t, err)
	require.EqualValues(t, 39_505, quote.SwapBaseIn.AmountOut)
	pool, err := client.Pool(keys.Id)
	require.NoError(t, err)
	require.Zero(t, pool.SwapCount)
	// the real swap matches the quote
	r, err = client.Transaction(swapIn, user)
	require.NoError(t, err)
	require.Equal(t, quote.SwapBaseIn, r.SwapBaseIn)
	pools, err := client.Pools()
	require.NoError(t, err)
	require.Len(t, pools, 1)
	require.EqualValues(t, 1, pools[0].SwapCount)
	require.Equal(t, fsm.StatusInitialized, pools[0].Status)
	// the raw account carries its kind and owner
	acc, err := client.Account(userQuote)
	require.NoError(t, err)
	require.Equal(t, lib.AccountKindToken, acc.Kind)
	require.Equal(t, token.ProgramId, acc.Owner)
}

func TestRPCErrors(t *testing.T) {
	client := newTestClient(t)
	// typed errors survive the round trip
	_, err := client.Account(crypto.NewRandomPublicKey())
	require.True(t, lib.IsCode(err, lib.CodeAccountNotFound))
	_, err = client.Transaction(&lib.Instruction{ProgramId: crypto.NewRandomPublicKey(), Data: []byte{1}})
	require.True(t, lib.IsCode(err, lib.CodeUnknownProgram))
	_, err = client.Transaction(nil)
	require.True(t, lib.IsCode(err, lib.CodeInvalidParams))
	_, err = client.Market(crypto.NewRandomPublicKey())
	require.True(t, lib.IsCode(err, lib.CodeMarketNotFound))
	conf, err := client.Config()
	require.NoError(t, err)
	require.Equal(t, lib.DefaultAmmProgramId, conf.AmmProgramId)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  lib.ErrorI
		code int
	}{
		{name: "not found", err: fsm.ErrPoolNotFound("x"), code: 404},
		{name: "conflict", err: lib.NewError(lib.CodeTxnConflict, lib.StorageModule, "conflict"), code: 409},
		{name: "store", err: lib.NewError(lib.CodeStoreGet, lib.StorageModule, "get"), code: 500},
		{name: "rejected", err: fsm.ErrSlippageExceeded("x"), code: 400},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.code, statusCode(test.err))
		})
	}
}

func TestClientRetries(t *testing.T) {
	dropConnection := func(w http.ResponseWriter) {
		if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
			_ = conn.Close()
		}
	}
	conflict := func(w http.ResponseWriter) {
		bz, _ := lib.MarshalJSON(lib.NewError(lib.CodeTxnConflict, lib.StorageModule, "conflict"))
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write(bz)
	}
	submit := func(c *Client) lib.ErrorI {
		_, err := c.Transaction(&lib.Instruction{ProgramId: token.ProgramId, Data: []byte{token.TagTransfer}})
		return err
	}
	createMarket := func(c *Client) lib.ErrorI {
		_, err := c.CreateMarket(crypto.PublicKey{}, crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey(), 1, 1)
		return err
	}
	listPools := func(c *Client) lib.ErrorI {
		_, err := c.Pools()
		return err
	}
	tests := []struct {
		name    string
		detail  string
		respond func(w http.ResponseWriter)
		call    func(c *Client) lib.ErrorI
		errCode lib.ErrorCode
		calls   int32
	}{
		{
			name:    "dropped submit",
			detail:  "the node may have committed before the connection dropped so the submit is not repeated",
			respond: dropConnection,
			call:    submit,
			errCode: lib.CodePostRequest,
			calls:   1,
		},
		{
			name:    "dropped market creation",
			detail:  "creating a market is a write too",
			respond: dropConnection,
			call:    createMarket,
			errCode: lib.CodePostRequest,
			calls:   1,
		},
		{
			name:    "dropped read",
			detail:  "reads are repeated until the retries run out",
			respond: dropConnection,
			call:    listPools,
			errCode: lib.CodePostRequest,
			calls:   3,
		},
		{
			name:    "conflicting submit",
			detail:  "a conflict commits nothing so the submit is repeated",
			respond: conflict,
			call:    submit,
			errCode: lib.CodeTxnConflict,
			calls:   3,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var calls atomic.Int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				test.respond(w)
			}))
			defer ts.Close()
			err := test.call(NewClient(ts.URL, 2))
			require.True(t, lib.IsCode(err, test.errCode), err)
			require.Equal(t, test.calls, calls.Load(), test.detail)
		})
	}
}
