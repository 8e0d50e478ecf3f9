package fsm

import (
	"testing"
	"time"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/stretchr/testify/require"
)

func TestSwapErrors(t *testing.T) {
	sm := newTestStateMachine(t)
	tp := newInitializedTestPool(t, sm)
	stranger := crypto.NewRandomPublicKey()
	tests := []struct {
		name    string
		detail  string
		ins     *lib.Instruction
		signers lib.Signers
		errCode lib.ErrorCode
	}{
		{
			name:    "zero input",
			detail:  "an exact input swap must spend something",
			ins:     tp.swapIn(true, 0, 0),
			errCode: lib.CodeInvalidAmount,
		},
		{
			name:    "zero output",
			detail:  "an exact output swap must buy something",
			ins:     tp.swapOut(true, 1_000, 0),
			errCode: lib.CodeInvalidAmount,
		},
		{
			name:    "dust input",
			detail:  "1 base after the fee buys less than one quote unit",
			ins:     tp.swapIn(true, 1, 0),
			errCode: lib.CodeInvalidAmount,
		},
		{
			name:    "minimum output",
			detail:  "10,000 base buys 39,505 quote, one short of the minimum",
			ins:     tp.swapIn(true, 10_000, 39_506),
			errCode: lib.CodeSlippageExceeded,
		},
		{
			name:    "maximum input",
			detail:  "the required input exceeds the maximum",
			ins:     tp.swapOut(true, 1, 1_000),
			errCode: lib.CodeSlippageExceeded,
		},
		{
			name:    "drain",
			detail:  "the whole reserve can never be bought",
			ins:     tp.swapOut(false, testFunding, 1_000_000),
			errCode: lib.CodeInsufficientLiquidity,
		},
		{
			name:    "over balance",
			detail:  "the user cannot spend more than it holds",
			ins:     tp.swapIn(true, testFunding, 0),
			errCode: lib.CodeInsufficientFunds,
		},
		{
			name:    "same side destination",
			detail:  "the destination must hold the other mint",
			ins:     NewPoolInstruction(tp.keys, &SwapBaseIn{AmountIn: 1_000}, tp.user, tp.userBase, tp.userBase),
			errCode: lib.CodeAccountMismatch,
		},
		{
			name:    "lp source",
			detail:  "the source must hold one of the pool mints",
			ins:     NewPoolInstruction(tp.keys, &SwapBaseIn{AmountIn: 1_000}, tp.user, tp.userLp, tp.userQuote),
			errCode: lib.CodeAccountMismatch,
		},
		{
			name:    "foreign source",
			detail:  "the source must be owned by the signer",
			ins:     NewPoolInstruction(tp.keys, &SwapBaseIn{AmountIn: 1_000}, stranger, tp.userBase, tp.userQuote),
			signers: lib.Signers{stranger},
			errCode: lib.CodeAccountMismatch,
		},
		{
			name:    "unsigned",
			detail:  "the owner must sign",
			ins:     tp.swapIn(true, 1_000, 0),
			signers: lib.Signers{},
			errCode: lib.CodeUnauthorized,
		},
		{
			name:   "wrong authority",
			detail: "the authority must be the derived one",
			ins: func() *lib.Instruction {
				ins := tp.swapIn(true, 1_000, 0)
				ins.Accounts[accAuthority] = tp.user
				return ins
			}(),
			errCode: lib.CodeAccountMismatch,
		},
		{
			name:    "missing accounts",
			detail:  "a swap needs the owner, source and destination",
			ins:     NewPoolInstruction(tp.keys, &SwapBaseIn{AmountIn: 1_000}, tp.user, tp.userBase),
			errCode: lib.CodeInstructionAccounts,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			signers := lib.Signers{tp.user}
			if test.signers != nil {
				signers = test.signers
			}
			_, err := sm.ApplyInstruction(test.ins, signers)
			require.Error(t, err, test.detail)
			require.Equal(t, test.errCode, err.Code(), err.Error())
		})
	}
	// no failure moved funds or counted a swap
	require.Equal(t, uint64(1_000_000), tp.balance(t, tp.keys.BaseVault))
	require.Equal(t, uint64(4_000_000), tp.balance(t, tp.keys.QuoteVault))
	require.Zero(t, tp.pool(t).SwapCount)
}

func TestSwapOpenTime(t *testing.T) {
	now := time.Unix(testNow, 0)
	sm := newTestStateMachine(t)
	sm.WithClock(func() time.Time { return now })
	tp := newTestPool(t, sm)
	_, err := tp.apply(tp.initialize(testNow+60, 1_000_000, 4_000_000))
	require.NoError(t, err)
	// deposits are allowed before the pool opens, swaps are not
	_, err = tp.apply(tp.liquidity(&Deposit{MaxBase: 1_000, MaxQuote: 4_000}))
	require.NoError(t, err)
	_, err = tp.apply(tp.swapIn(true, 1_000, 0))
	require.True(t, lib.IsCode(err, lib.CodeInvalidPoolState))
	now = now.Add(time.Minute)
	_, err = tp.apply(tp.swapIn(true, 1_000, 0))
	require.NoError(t, err)
}

func TestSwapKeepsProductGrowing(t *testing.T) {
	sm := newTestStateMachine(t)
	tp := newInitializedTestPool(t, sm)
	product := func() uint64 { return tp.balance(t, tp.keys.BaseVault) * tp.balance(t, tp.keys.QuoteVault) }
	k := product()
	for i, ins := range []*lib.Instruction{
		tp.swapIn(true, 7_777, 0),
		tp.swapIn(false, 12_345, 0),
		tp.swapOut(true, testFunding, 3_333),
		tp.swapOut(false, testFunding, 999),
	} {
		_, err := tp.apply(ins)
		require.NoError(t, err, i)
		next := product()
		require.GreaterOrEqual(t, next, k, i)
		k = next
	}
	// the quote of an exact output swap is honored by an exact input swap of the same size
	r, err := sm.Quote(tp.swapOut(true, testFunding, 10_000), lib.Signers{tp.user})
	require.NoError(t, err)
	in, err := tp.apply(tp.swapIn(true, r.SwapBaseOut.AmountIn, 10_000))
	require.NoError(t, err)
	require.GreaterOrEqual(t, in.SwapBaseIn.AmountOut, uint64(10_000))
}
