package swap

import (
	"github.com/canopy-network/amm/lib"
	"github.com/holiman/uint256"
)

/*
	Constant product pricing: a pool holding reserves x and y keeps x * y from ever decreasing.

	The fee is taken out of the input before pricing and stays in the pool, so k grows with every trade. Every rounding
	step favors the pool: outputs are floored and required inputs are ceiled.
*/

const BpsDenominator = 10_000 // 100% in basis points

// AmountAfterFee() returns floor(amountIn * (10000 - feeBps) / 10000)
func AmountAfterFee(amountIn, feeBps uint64) (uint64, lib.ErrorI) {
	if feeBps >= BpsDenominator {
		return 0, ErrInvalidFee(feeBps)
	}
	return toU64(mulDivFloor(amountIn, BpsDenominator-feeBps, BpsDenominator), "amount after fee")
}

// Fee() returns the part of amountIn the pool retains
func Fee(amountIn, feeBps uint64) (uint64, lib.ErrorI) {
	after, err := AmountAfterFee(amountIn, feeBps)
	if err != nil {
		return 0, err
	}
	return amountIn - after, nil
}

// SwapExactIn() prices a fixed input against the reserves
//
//	dx        = floor(amountIn * (10000 - feeBps) / 10000)
//	amountOut = floor(reserveOut * dx / (reserveIn + dx))
//
// which is reserveOut - reserveIn * reserveOut / (reserveIn + dx) evaluated exactly and then floored
func SwapExactIn(reserveIn, reserveOut, amountIn, feeBps uint64) (amountOut uint64, err lib.ErrorI) {
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrInsufficientLiquidity("empty reserves")
	}
	dx, err := AmountAfterFee(amountIn, feeBps)
	if err != nil {
		return 0, err
	}
	// reserveIn + dx fits easily in 256 bits
	denominator := new(uint256.Int).AddUint64(u256(reserveIn), dx)
	numerator := new(uint256.Int).Mul(u256(reserveOut), u256(dx))
	amountOut, err = toU64(new(uint256.Int).Div(numerator, denominator), "swap exact in")
	if err != nil {
		return 0, err
	}
	if amountOut >= reserveOut {
		return 0, ErrInsufficientLiquidity("output would drain the pool")
	}
	return amountOut, nil
}

// SwapExactOut() prices a fixed output against the reserves
//
//	net      = ceil(reserveIn * amountOut / (reserveOut - amountOut))
//	amountIn = ceil(net * 10000 / (10000 - feeBps))
func SwapExactOut(reserveIn, reserveOut, amountOut, feeBps uint64) (amountIn uint64, err lib.ErrorI) {
	if feeBps >= BpsDenominator {
		return 0, ErrInvalidFee(feeBps)
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, ErrInsufficientLiquidity("empty reserves")
	}
	if amountOut >= reserveOut {
		return 0, ErrInsufficientLiquidity("requested output meets or exceeds the reserve")
	}
	net, err := toU64(mulDivCeil(reserveIn, amountOut, reserveOut-amountOut), "swap exact out")
	if err != nil {
		return 0, err
	}
	return toU64(mulDivCeil(net, BpsDenominator, BpsDenominator-feeBps), "swap exact out fee")
}

// Direction of a swap relative to the pool's base and quote sides
type Direction uint8

const (
	BaseToQuote Direction = iota // the user pays base (coin) and receives quote (pc)
	QuoteToBase                  // the user pays quote (pc) and receives base (coin)
)

// String() returns the human readable direction
func (d Direction) String() string {
	if d == BaseToQuote {
		return "base_to_quote"
	}
	return "quote_to_base"
}

// Reserves orients (base, quote) reserves as (in, out) for the direction
func (d Direction) Reserves(base, quote uint64) (reserveIn, reserveOut uint64) {
	if d == BaseToQuote {
		return base, quote
	}
	return quote, base
}
