package fsm

import (
	"testing"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/token"
	"github.com/stretchr/testify/require"
)

// newTestRoute() creates pool a over X/Y holding 1,000,000/4,000,000 and pool b over Y/Z holding 4,000,000/2,000,000,
// both initialized by the same user
func newTestRoute(t *testing.T, sm *StateMachine) (a, b *testPool) {
	a = newInitializedTestPool(t, sm)
	b = &testPool{
		sm:        sm,
		minter:    a.minter,
		user:      a.user,
		userBase:  a.userQuote,
		userQuote: crypto.NewRandomPublicKey(),
		userLp:    crypto.NewRandomPublicKey(),
	}
	quoteMint, marketId := crypto.NewRandomPublicKey(), crypto.NewRandomPublicKey()
	b.applyToken(t, token.NewInitializeMintInstruction(quoteMint, b.minter, 6), b.minter)
	b.applyToken(t, token.NewInitializeAccountInstruction(b.userQuote, quoteMint, b.user))
	b.applyToken(t, token.NewMintToInstruction(quoteMint, b.userQuote, b.minter, testFunding), b.minter)
	_, err := sm.CreateMarket(marketId, a.keys.QuoteMint, quoteMint, 100, 10)
	require.NoError(t, err)
	b.keys, err = sm.DerivePoolKeys(marketId, a.keys.QuoteMint, quoteMint)
	require.NoError(t, err)
	_, err = b.apply(b.initialize(0, 4_000_000, 2_000_000))
	require.NoError(t, err)
	return
}

// routeX() builds a route from X through Y into Z
func routeX(a, b *testPool, p Payload) *lib.Instruction {
	return NewRouteInstruction(a.keys, b.keys, p, a.user, a.userBase, a.userQuote, b.userQuote)
}

func TestRouteSwapBaseIn(t *testing.T) {
	sm := newTestStateMachine(t)
	a, b := newTestRoute(t, sm)
	// 10,000 X buys 39,505 Y from a, which buys 19,510 Z from b
	_, err := a.apply(routeX(a, b, &RouteSwapBaseIn{AmountIn: 10_000, MinimumAmountOut: 19_511}))
	require.True(t, lib.IsCode(err, lib.CodeSlippageExceeded), err)
	require.Equal(t, uint64(testFunding-1_000_000), a.balance(t, a.userBase))
	require.Equal(t, uint64(1_000_000), a.balance(t, a.keys.BaseVault))
	quote, err := sm.Quote(routeX(a, b, &RouteSwapBaseIn{AmountIn: 10_000, MinimumAmountOut: 19_510}), lib.Signers{a.user})
	require.NoError(t, err)
	r, err := a.apply(routeX(a, b, &RouteSwapBaseIn{AmountIn: 10_000, MinimumAmountOut: 19_510}))
	require.NoError(t, err)
	require.Equal(t, quote.Route, r.Route)
	require.Equal(t, &RouteEvent{
		MinimumAmountOut: 19_510,
		AmountIn:         10_000,
		Intermediate:     39_505,
		AmountOut:        19_510,
		Legs: [2]RouteLeg{
			{Pool: a.keys.Id, Direction: "base_to_quote", PoolBase: 1_000_000, PoolQuote: 4_000_000, Fee: 25},
			{Pool: b.keys.Id, Direction: "base_to_quote", PoolBase: 4_000_000, PoolQuote: 2_000_000, Fee: 99},
		},
	}, r.Route)
	require.Equal(t, a.keys.Id, *r.Pool)
	// the intermediate balance passes straight through
	require.Equal(t, uint64(testFunding-1_000_000-10_000), a.balance(t, a.userBase))
	require.Equal(t, uint64(testFunding-8_000_000), a.balance(t, a.userQuote))
	require.Equal(t, uint64(testFunding-2_000_000+19_510), b.balance(t, b.userQuote))
	require.Equal(t, uint64(1_010_000), a.balance(t, a.keys.BaseVault))
	require.Equal(t, uint64(4_000_000-39_505), a.balance(t, a.keys.QuoteVault))
	require.Equal(t, uint64(4_000_000+39_505), b.balance(t, b.keys.BaseVault))
	require.Equal(t, uint64(2_000_000-19_510), b.balance(t, b.keys.QuoteVault))
	// each pool records its own leg
	require.Equal(t, uint64(1), a.pool(t).SwapCount)
	require.Equal(t, uint64(39_505), a.pool(t).SwapQuoteOutAmount.Uint64())
	require.Equal(t, uint64(1), b.pool(t).SwapCount)
	require.Equal(t, uint64(39_505), b.pool(t).SwapBaseInAmount.Uint64())
}

func TestRouteSwapBaseOut(t *testing.T) {
	sm := newTestStateMachine(t)
	a, b := newTestRoute(t, sm)
	// 10,000 Z costs 20,152 Y from b, which costs 5,077 X from a
	_, err := a.apply(routeX(a, b, &RouteSwapBaseOut{MaximumAmountIn: 5_076, AmountOut: 10_000}))
	require.True(t, lib.IsCode(err, lib.CodeSlippageExceeded), err)
	require.Equal(t, uint64(testFunding-2_000_000), b.balance(t, b.userQuote))
	r, err := a.apply(routeX(a, b, &RouteSwapBaseOut{MaximumAmountIn: 5_077, AmountOut: 10_000}))
	require.NoError(t, err)
	require.Equal(t, uint64(5_077), r.Route.AmountIn)
	require.Equal(t, uint64(20_152), r.Route.Intermediate)
	require.Equal(t, uint64(10_000), r.Route.AmountOut)
	require.Equal(t, uint64(5_077), r.Route.MaximumAmountIn)
	require.Equal(t, uint64(testFunding-1_000_000-5_077), a.balance(t, a.userBase))
	require.Equal(t, uint64(testFunding-8_000_000), a.balance(t, a.userQuote))
	require.Equal(t, uint64(testFunding-2_000_000+10_000), b.balance(t, b.userQuote))
	require.Equal(t, uint64(4_000_000+20_152), b.balance(t, b.keys.BaseVault))
	require.Equal(t, uint64(2_000_000-10_000), b.balance(t, b.keys.QuoteVault))
}

func TestRouteErrors(t *testing.T) {
	sm := newTestStateMachine(t)
	a, b := newTestRoute(t, sm)
	stranger := crypto.NewRandomPublicKey()
	strangerY := crypto.NewRandomPublicKey()
	a.applyToken(t, token.NewInitializeAccountInstruction(strangerY, a.keys.QuoteMint, stranger))
	tests := []struct {
		name    string
		detail  string
		ins     *lib.Instruction
		errCode lib.ErrorCode
	}{
		{
			name:    "same pool",
			detail:  "both legs name pool a",
			ins:     NewRouteInstruction(a.keys, a.keys, &RouteSwapBaseIn{AmountIn: 10_000}, a.user, a.userBase, a.userQuote, a.userBase),
			errCode: lib.CodeInvalidInstruction,
		},
		{
			name:    "foreign intermediate",
			detail:  "the intermediate account must belong to the user",
			ins:     NewRouteInstruction(a.keys, b.keys, &RouteSwapBaseIn{AmountIn: 10_000}, a.user, a.userBase, strangerY, b.userQuote),
			errCode: lib.CodeAccountMismatch,
		},
		{
			name:    "disconnected",
			detail:  "the first leg pays out X, which pool b does not trade",
			ins:     NewRouteInstruction(a.keys, b.keys, &RouteSwapBaseIn{AmountIn: 10_000}, a.user, a.userQuote, a.userBase, b.userQuote),
			errCode: lib.CodeAccountMismatch,
		},
		{
			name:    "zero input",
			detail:  "a route must spend something",
			ins:     routeX(a, b, &RouteSwapBaseIn{}),
			errCode: lib.CodeInvalidAmount,
		},
		{
			name:    "drain",
			detail:  "the second pool cannot pay out its whole reserve",
			ins:     routeX(a, b, &RouteSwapBaseOut{MaximumAmountIn: testFunding, AmountOut: 2_000_000}),
			errCode: lib.CodeInsufficientLiquidity,
		},
		{
			name:    "over balance",
			detail:  "the user cannot spend more X than they hold",
			ins:     routeX(a, b, &RouteSwapBaseIn{AmountIn: testFunding}),
			errCode: lib.CodeInsufficientFunds,
		},
		{
			name:    "short accounts",
			detail:  "a route without the second pool's accounts",
			ins:     NewPoolInstruction(a.keys, &RouteSwapBaseIn{AmountIn: 10_000}, a.user, a.userBase, a.userQuote, b.userQuote),
			errCode: lib.CodeInstructionAccounts,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := a.apply(test.ins)
			require.True(t, lib.IsCode(err, test.errCode), "%s: %v", test.detail, err)
		})
	}
	// none of the failures moved funds or counted a swap
	require.Equal(t, uint64(testFunding-1_000_000), a.balance(t, a.userBase))
	require.Zero(t, a.pool(t).SwapCount)
	require.Zero(t, b.pool(t).SwapCount)
}

func TestRouteWaitsForBothPools(t *testing.T) {
	sm := newTestStateMachine(t)
	a, b := newTestRoute(t, sm)
	_, err := sm.ApplyInstruction(NewPoolInstruction(b.keys, &SetStatus{Status: uint64(StatusDisabled)}, b.user), lib.Signers{b.user})
	require.NoError(t, err)
	_, err = a.apply(routeX(a, b, &RouteSwapBaseIn{AmountIn: 10_000}))
	require.True(t, lib.IsCode(err, lib.CodeInvalidPoolState), err)
	require.Equal(t, uint64(testFunding-1_000_000), a.balance(t, a.userBase))
}
