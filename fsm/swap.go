package fsm

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/swap"
	"github.com/canopy-network/amm/token"
)

/* This file implements the swap instructions of the pool */

// swapLeg is the validated context of a swap: which way it goes and the accounts and reserves on each side
type swapLeg struct {
	direction   swap.Direction
	source      *token.Account
	destination *token.Account
	vaultIn     *token.Account
	vaultOut    *token.Account
	poolBase    uint64
	poolQuote   uint64
}

// prepareSwap() runs the status and account checks shared by both swap instructions
func (c *call) prepareSwap(op string) (leg *swapLeg, err lib.ErrorI) {
	if err = c.requireStatus(op, StatusInitialized); err != nil {
		return
	}
	if now := c.sm.unixNow(); now < c.pool.OpenTime {
		return nil, ErrPoolNotOpen(c.pool.Id.String(), c.pool.OpenTime, now)
	}
	if err = c.matchAccounts(nil); err != nil {
		return
	}
	leg = new(swapLeg)
	// the source mint decides the direction
	sourceAddress := c.ins.Accounts[accUserSource]
	source, err := token.GetAccount(c.rw, sourceAddress)
	if err != nil {
		return nil, ErrAccountMismatch("userSource", "a token account", sourceAddress.String())
	}
	inVault, outVault, outMint := c.pool.BaseVault, c.pool.QuoteVault, c.pool.QuoteMint
	switch source.Mint {
	case c.pool.BaseMint:
		leg.direction = swap.BaseToQuote
	case c.pool.QuoteMint:
		leg.direction = swap.QuoteToBase
		inVault, outVault, outMint = c.pool.QuoteVault, c.pool.BaseVault, c.pool.BaseMint
	default:
		return nil, ErrAccountMismatch("userSource.mint", c.pool.BaseMint.String()+" or "+c.pool.QuoteMint.String(), source.Mint.String())
	}
	if leg.source, err = c.userAccount(accUserSource, "userSource", source.Mint); err != nil {
		return nil, err
	}
	destinationAddress := c.ins.Accounts[accUserDestination]
	if leg.destination, err = token.GetAccount(c.rw, destinationAddress); err != nil {
		return nil, ErrAccountMismatch("userDestination", "a token account", destinationAddress.String())
	}
	if leg.destination.Mint != outMint {
		return nil, ErrAccountMismatch("userDestination.mint", outMint.String(), leg.destination.Mint.String())
	}
	if leg.vaultIn, err = token.GetAccount(c.rw, inVault); err != nil {
		return nil, err
	}
	if leg.vaultOut, err = token.GetAccount(c.rw, outVault); err != nil {
		return nil, err
	}
	leg.poolBase, leg.poolQuote = leg.vaultIn.Amount, leg.vaultOut.Amount
	if leg.direction == swap.QuoteToBase {
		leg.poolBase, leg.poolQuote = leg.poolQuote, leg.poolBase
	}
	return leg, nil
}

// settle() moves the input into the pool and the output to the user, then records the trade
func (c *call) settle(leg *swapLeg, amountIn, amountOut, fee uint64) lib.ErrorI {
	if leg.source.Amount < amountIn {
		return token.ErrInsufficientFunds(leg.source.Address.String(), leg.source.Amount, amountIn)
	}
	if err := token.Transfer(c.rw, leg.source.Address, leg.vaultIn.Address, c.user, amountIn); err != nil {
		return err
	}
	if err := token.Transfer(c.rw, leg.vaultOut.Address, leg.destination.Address, c.pool.Authority, amountOut); err != nil {
		return err
	}
	c.pool.SwapStats.record(leg.direction == swap.BaseToQuote, amountIn, amountOut, fee)
	return SetPool(c.rw, c.sm.program, c.pool)
}

// swapBaseIn() sells an exact input for at least a minimum output
func (c *call) swapBaseIn(x *SwapBaseIn) (*Receipt, lib.ErrorI) {
	leg, err := c.prepareSwap("swap base in")
	if err != nil {
		return nil, err
	}
	if x.AmountIn == 0 {
		return nil, swap.ErrInvalidAmount("swap input must be positive")
	}
	amountOut, err := swap.SwapExactIn(leg.vaultIn.Amount, leg.vaultOut.Amount, x.AmountIn, c.pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if amountOut == 0 {
		return nil, swap.ErrInvalidAmount("swap input too small to buy anything")
	}
	if amountOut < x.MinimumAmountOut {
		return nil, ErrSlippageExceeded(fmt.Sprintf("output %d is below the minimum %d", amountOut, x.MinimumAmountOut))
	}
	fee, err := swap.Fee(x.AmountIn, c.pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if err = c.settle(leg, x.AmountIn, amountOut, fee); err != nil {
		return nil, err
	}
	r := newReceipt(x, c.sm.program, c.pool)
	r.SwapBaseIn = &SwapBaseInEvent{
		AmountIn:         x.AmountIn,
		MinimumAmountOut: x.MinimumAmountOut,
		Direction:        leg.direction.String(),
		UserSource:       leg.source.Amount,
		PoolBase:         leg.poolBase,
		PoolQuote:        leg.poolQuote,
		Fee:              fee,
		AmountOut:        amountOut,
	}
	return r, nil
}

// swapBaseOut() buys an exact output for at most a maximum input
func (c *call) swapBaseOut(x *SwapBaseOut) (*Receipt, lib.ErrorI) {
	leg, err := c.prepareSwap("swap base out")
	if err != nil {
		return nil, err
	}
	if x.AmountOut == 0 {
		return nil, swap.ErrInvalidAmount("swap output must be positive")
	}
	amountIn, err := swap.SwapExactOut(leg.vaultIn.Amount, leg.vaultOut.Amount, x.AmountOut, c.pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if amountIn > x.MaximumAmountIn {
		return nil, ErrSlippageExceeded(fmt.Sprintf("input %d is above the maximum %d", amountIn, x.MaximumAmountIn))
	}
	fee, err := swap.Fee(amountIn, c.pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if err = c.settle(leg, amountIn, x.AmountOut, fee); err != nil {
		return nil, err
	}
	r := newReceipt(x, c.sm.program, c.pool)
	r.SwapBaseOut = &SwapBaseOutEvent{
		MaximumAmountIn: x.MaximumAmountIn,
		AmountOut:       x.AmountOut,
		Direction:       leg.direction.String(),
		UserSource:      leg.source.Amount,
		PoolBase:        leg.poolBase,
		PoolQuote:       leg.poolQuote,
		Fee:             fee,
		AmountIn:        amountIn,
	}
	return r, nil
}
