package fsm

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/swap"
	"github.com/canopy-network/amm/token"
)

/*
	A route swaps through two pools that share a mint: the output of the first pool is the input of the second.

	accounts: [first pool accounts] [second pool accounts] owner, source, intermediate, destination

	Both legs are priced against the reserves as they stand before the route, slippage is checked on the route's
	end amounts only, and the surrounding store transaction settles both legs or neither.
*/

// positions of the route user accounts
const (
	accRouteOwner = 2*poolAccountCount + iota
	accRouteSource
	accRouteIntermediate
	accRouteDestination
)

// routeCall is a route split into one swap call per pool
type routeCall struct {
	first, second       *call
	firstLeg, secondLeg *swapLeg
}

// prepareRoute() splits the instruction into its two legs and runs the swap checks of each
func (c *call) prepareRoute(op string) (r *routeCall, err lib.ErrorI) {
	accounts := c.ins.Accounts
	if accounts[accId] == accounts[poolAccountCount+accId] {
		return nil, ErrInvalidInstruction("a route needs two different pools")
	}
	leg := func(pool []crypto.PublicKey, source, destination crypto.PublicKey) *call {
		legAccounts := make([]crypto.PublicKey, 0, poolAccountCount+3)
		legAccounts = append(append(legAccounts, pool...), accounts[accRouteOwner], source, destination)
		return &call{sm: c.sm, rw: c.rw, ins: &lib.Instruction{ProgramId: c.ins.ProgramId, Accounts: legAccounts, Data: c.ins.Data}, signers: c.signers}
	}
	r = &routeCall{
		first:  leg(accounts[:poolAccountCount], accounts[accRouteSource], accounts[accRouteIntermediate]),
		second: leg(accounts[poolAccountCount:2*poolAccountCount], accounts[accRouteIntermediate], accounts[accRouteDestination]),
	}
	if r.firstLeg, err = r.first.prepareSwap(op); err != nil {
		return nil, err
	}
	if r.secondLeg, err = r.second.prepareSwap(op); err != nil {
		return nil, err
	}
	return r, nil
}

// settle() settles the first leg, then the second from the intermediate balance it left behind
func (r *routeCall) settle(amountIn, intermediate, amountOut uint64) (fees [2]uint64, err lib.ErrorI) {
	if fees[0], err = swap.Fee(amountIn, r.first.pool.FeeBps); err != nil {
		return
	}
	if fees[1], err = swap.Fee(intermediate, r.second.pool.FeeBps); err != nil {
		return
	}
	if err = r.first.settle(r.firstLeg, amountIn, intermediate, fees[0]); err != nil {
		return
	}
	if r.secondLeg.source, err = token.GetAccount(r.second.rw, r.secondLeg.source.Address); err != nil {
		return
	}
	err = r.second.settle(r.secondLeg, intermediate, amountOut, fees[1])
	return
}

// event() describes the settled route
func (r *routeCall) event(amountIn, intermediate, amountOut uint64, fees [2]uint64) *RouteEvent {
	e := &RouteEvent{AmountIn: amountIn, Intermediate: intermediate, AmountOut: amountOut}
	for i, l := range []struct {
		c   *call
		leg *swapLeg
	}{{r.first, r.firstLeg}, {r.second, r.secondLeg}} {
		e.Legs[i] = RouteLeg{
			Pool:      l.c.pool.Id,
			Direction: l.leg.direction.String(),
			PoolBase:  l.leg.poolBase,
			PoolQuote: l.leg.poolQuote,
			Fee:       fees[i],
		}
	}
	return e
}

// routeSwapBaseIn() sells an exact input through both pools for at least a minimum final output
func (c *call) routeSwapBaseIn(x *RouteSwapBaseIn) (*Receipt, lib.ErrorI) {
	r, err := c.prepareRoute("route swap base in")
	if err != nil {
		return nil, err
	}
	if x.AmountIn == 0 {
		return nil, swap.ErrInvalidAmount("swap input must be positive")
	}
	intermediate, err := swap.SwapExactIn(r.firstLeg.vaultIn.Amount, r.firstLeg.vaultOut.Amount, x.AmountIn, r.first.pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if intermediate == 0 {
		return nil, swap.ErrInvalidAmount("swap input too small to buy anything from the first pool")
	}
	amountOut, err := swap.SwapExactIn(r.secondLeg.vaultIn.Amount, r.secondLeg.vaultOut.Amount, intermediate, r.second.pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if amountOut == 0 {
		return nil, swap.ErrInvalidAmount("swap input too small to buy anything from the second pool")
	}
	if amountOut < x.MinimumAmountOut {
		return nil, ErrSlippageExceeded(fmt.Sprintf("route output %d is below the minimum %d", amountOut, x.MinimumAmountOut))
	}
	fees, err := r.settle(x.AmountIn, intermediate, amountOut)
	if err != nil {
		return nil, err
	}
	receipt := newReceipt(x, c.sm.program, r.first.pool)
	receipt.Route = r.event(x.AmountIn, intermediate, amountOut, fees)
	receipt.Route.MinimumAmountOut = x.MinimumAmountOut
	return receipt, nil
}

// routeSwapBaseOut() buys an exact final output through both pools for at most a maximum input
func (c *call) routeSwapBaseOut(x *RouteSwapBaseOut) (*Receipt, lib.ErrorI) {
	r, err := c.prepareRoute("route swap base out")
	if err != nil {
		return nil, err
	}
	if x.AmountOut == 0 {
		return nil, swap.ErrInvalidAmount("swap output must be positive")
	}
	// priced backwards: the second pool says how much intermediate it needs
	intermediate, err := swap.SwapExactOut(r.secondLeg.vaultIn.Amount, r.secondLeg.vaultOut.Amount, x.AmountOut, r.second.pool.FeeBps)
	if err != nil {
		return nil, err
	}
	amountIn, err := swap.SwapExactOut(r.firstLeg.vaultIn.Amount, r.firstLeg.vaultOut.Amount, intermediate, r.first.pool.FeeBps)
	if err != nil {
		return nil, err
	}
	if amountIn > x.MaximumAmountIn {
		return nil, ErrSlippageExceeded(fmt.Sprintf("route input %d is above the maximum %d", amountIn, x.MaximumAmountIn))
	}
	fees, err := r.settle(amountIn, intermediate, x.AmountOut)
	if err != nil {
		return nil, err
	}
	receipt := newReceipt(x, c.sm.program, r.first.pool)
	receipt.Route = r.event(amountIn, intermediate, x.AmountOut, fees)
	receipt.Route.MaximumAmountIn = x.MaximumAmountIn
	return receipt, nil
}

// NewRouteInstruction() builds a route through first and then second
func NewRouteInstruction(first, second *PoolKeys, p Payload, owner, source, intermediate, destination crypto.PublicKey) *lib.Instruction {
	accounts := append(first.Accounts(), second.Accounts()...)
	return &lib.Instruction{
		ProgramId: first.ProgramId,
		Accounts:  append(accounts, owner, source, intermediate, destination),
		Data:      EncodePayload(p),
	}
}
