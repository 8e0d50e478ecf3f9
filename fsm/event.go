package fsm

import (
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/token"
)

/* This file implements the receipts returned (and logged) for every applied instruction */

// Receipt is the outcome of an applied instruction; exactly one body is set
type Receipt struct {
	Instruction string            `json:"instruction"`
	Program     crypto.PublicKey  `json:"program"`
	Pool        *crypto.PublicKey `json:"pool,omitempty"`
	Status      *Status           `json:"status,omitempty"` // pool status after the instruction
	Init        *InitEvent        `json:"init,omitempty"`
	Deposit     *DepositEvent     `json:"deposit,omitempty"`
	Withdraw    *WithdrawEvent    `json:"withdraw,omitempty"`
	SwapBaseIn  *SwapBaseInEvent  `json:"swapBaseIn,omitempty"`
	SwapBaseOut *SwapBaseOutEvent `json:"swapBaseOut,omitempty"`
	Route       *RouteEvent       `json:"route,omitempty"`
	Token       *token.Receipt    `json:"token,omitempty"`
}

// InitEvent describes a pool going live
type InitEvent struct {
	Time          uint64           `json:"time"`
	OpenTime      uint64           `json:"openTime"`
	BaseDecimals  uint8            `json:"baseDecimals"`
	QuoteDecimals uint8            `json:"quoteDecimals"`
	BaseLotSize   uint64           `json:"baseLotSize"`
	QuoteLotSize  uint64           `json:"quoteLotSize"`
	BaseAmount    uint64           `json:"baseAmount"`
	QuoteAmount   uint64           `json:"quoteAmount"`
	LpMinted      uint64           `json:"lpMinted"` // lp sent to the initializer
	LpLocked      uint64           `json:"lpLocked"` // lp kept in the lp vault
	Market        crypto.PublicKey `json:"market"`
}

// DepositEvent describes a liquidity deposit
type DepositEvent struct {
	MaxBase     uint64 `json:"maxBase"`
	MaxQuote    uint64 `json:"maxQuote"`
	BaseSide    uint64 `json:"baseSide"`
	PoolBase    uint64 `json:"poolBase"`  // base reserve before the deposit
	PoolQuote   uint64 `json:"poolQuote"` // quote reserve before the deposit
	PoolLp      uint64 `json:"poolLp"`    // lp supply before the deposit
	DeductBase  uint64 `json:"deductBase"`
	DeductQuote uint64 `json:"deductQuote"`
	MintLp      uint64 `json:"mintLp"`
}

// WithdrawEvent describes a liquidity withdrawal
type WithdrawEvent struct {
	WithdrawLp   uint64 `json:"withdrawLp"`
	UserLp       uint64 `json:"userLp"` // caller's lp balance before the withdrawal
	PoolBase     uint64 `json:"poolBase"`
	PoolQuote    uint64 `json:"poolQuote"`
	PoolLp       uint64 `json:"poolLp"`
	SettledBase  uint64 `json:"settledBase"`  // pulled in from open orders first
	SettledQuote uint64 `json:"settledQuote"` // pulled in from open orders first
	OutBase      uint64 `json:"outBase"`
	OutQuote     uint64 `json:"outQuote"`
}

// SwapBaseInEvent describes an exact input swap
type SwapBaseInEvent struct {
	AmountIn         uint64 `json:"amountIn"`
	MinimumAmountOut uint64 `json:"minimumAmountOut"`
	Direction        string `json:"direction"`
	UserSource       uint64 `json:"userSource"` // source balance before the swap
	PoolBase         uint64 `json:"poolBase"`
	PoolQuote        uint64 `json:"poolQuote"`
	Fee              uint64 `json:"fee"`
	AmountOut        uint64 `json:"amountOut"`
}

// SwapBaseOutEvent describes an exact output swap
type SwapBaseOutEvent struct {
	MaximumAmountIn uint64 `json:"maximumAmountIn"`
	AmountOut       uint64 `json:"amountOut"`
	Direction       string `json:"direction"`
	UserSource      uint64 `json:"userSource"`
	PoolBase        uint64 `json:"poolBase"`
	PoolQuote       uint64 `json:"poolQuote"`
	Fee             uint64 `json:"fee"`
	AmountIn        uint64 `json:"amountIn"`
}

// RouteEvent describes a swap through two pools
type RouteEvent struct {
	MinimumAmountOut uint64      `json:"minimumAmountOut,omitempty"`
	MaximumAmountIn  uint64      `json:"maximumAmountIn,omitempty"`
	AmountIn         uint64      `json:"amountIn"`
	Intermediate     uint64      `json:"intermediate"` // paid out by the first pool into the second
	AmountOut        uint64      `json:"amountOut"`
	Legs             [2]RouteLeg `json:"legs"`
}

// RouteLeg is one pool of a route
type RouteLeg struct {
	Pool      crypto.PublicKey `json:"pool"`
	Direction string           `json:"direction"`
	PoolBase  uint64           `json:"poolBase"`
	PoolQuote uint64           `json:"poolQuote"`
	Fee       uint64           `json:"fee"`
}

// newReceipt() starts a pool receipt
func newReceipt(p Payload, program crypto.PublicKey, pool *Pool) *Receipt {
	id, status := pool.Id, pool.Status
	return &Receipt{Instruction: p.Name(), Program: program, Pool: &id, Status: &status}
}

// logReceipt() writes a one line summary of the receipt at info level
func (s *StateMachine) logReceipt(r *Receipt) {
	switch {
	case r.Init != nil:
		s.log.Infof("Initialized pool %s with base=%d quote=%d lp=%d locked=%d", r.Pool, r.Init.BaseAmount, r.Init.QuoteAmount, r.Init.LpMinted, r.Init.LpLocked)
	case r.Deposit != nil:
		s.log.Infof("Deposit to pool %s: base=%d quote=%d minted=%d", r.Pool, r.Deposit.DeductBase, r.Deposit.DeductQuote, r.Deposit.MintLp)
	case r.Withdraw != nil:
		s.log.Infof("Withdraw from pool %s: lp=%d base=%d quote=%d", r.Pool, r.Withdraw.WithdrawLp, r.Withdraw.OutBase, r.Withdraw.OutQuote)
	case r.SwapBaseIn != nil:
		s.log.Infof("Swap on pool %s (%s): in=%d out=%d", r.Pool, r.SwapBaseIn.Direction, r.SwapBaseIn.AmountIn, r.SwapBaseIn.AmountOut)
	case r.SwapBaseOut != nil:
		s.log.Infof("Swap on pool %s (%s): in=%d out=%d", r.Pool, r.SwapBaseOut.Direction, r.SwapBaseOut.AmountIn, r.SwapBaseOut.AmountOut)
	case r.Route != nil:
		s.log.Infof("Route through pools %s (%s) and %s (%s): in=%d mid=%d out=%d", r.Route.Legs[0].Pool, r.Route.Legs[0].Direction,
			r.Route.Legs[1].Pool, r.Route.Legs[1].Direction, r.Route.AmountIn, r.Route.Intermediate, r.Route.AmountOut)
	case r.Token != nil:
		s.log.Debugf("Token %s applied", r.Token.Instruction)
	case r.Pool != nil && r.Status != nil:
		s.log.Infof("Pool %s is now %s after %s", r.Pool, r.Status, r.Instruction)
	}
}
