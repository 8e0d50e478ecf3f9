package swap

import (
	"github.com/canopy-network/amm/lib"
	"github.com/holiman/uint256"
)

/* This file implements the proportional share math behind liquidity deposits and withdrawals */

// BaseSide selects which side a deposit pivots on when both maximums imply the exact same ratio
type BaseSide uint64

const (
	BaseSideBase  BaseSide = 0 // the base (coin) maximum is taken in full
	BaseSideQuote BaseSide = 1 // the quote (pc) maximum is taken in full
)

// Deposit is the outcome of a proportional deposit
type Deposit struct {
	UsedBase  uint64 `json:"usedBase"`  // base actually taken from the depositor
	UsedQuote uint64 `json:"usedQuote"` // quote actually taken from the depositor
	Minted    uint64 `json:"minted"`    // lp units minted to the depositor
}

// ProportionalDeposit() takes liquidity at the current reserve ratio, never more than either maximum
//
// The limiting side is whichever maximum buys the smaller share: base limits when maxBase*reserveQuote <
// maxQuote*reserveBase. The limiting amount is used in full, the other side is ceiled (the depositor pays the dust)
// and the minted lp is floored against the limiting side. baseSide only breaks an exact tie.
func ProportionalDeposit(reserveBase, reserveQuote, lpSupply, maxBase, maxQuote uint64, baseSide BaseSide) (d Deposit, err lib.ErrorI) {
	if reserveBase == 0 || reserveQuote == 0 || lpSupply == 0 {
		return d, ErrInsufficientLiquidity("pool has no liquidity to deposit against")
	}
	if maxBase == 0 || maxQuote == 0 {
		return d, ErrInvalidAmount("deposit maximums must be positive")
	}
	if baseSide != BaseSideBase && baseSide != BaseSideQuote {
		return d, ErrInvalidAmount("base side must be 0 or 1")
	}
	pivotOnBase := false
	switch Product(maxBase, reserveQuote).Cmp(Product(maxQuote, reserveBase)) {
	case -1:
		pivotOnBase = true
	case 0:
		pivotOnBase = baseSide == BaseSideBase
	}
	if pivotOnBase {
		d.UsedBase = maxBase
		if d.UsedQuote, err = toU64(mulDivCeil(maxBase, reserveQuote, reserveBase), "deposit quote"); err != nil {
			return Deposit{}, err
		}
		if d.Minted, err = toU64(mulDivFloor(maxBase, lpSupply, reserveBase), "deposit mint"); err != nil {
			return Deposit{}, err
		}
	} else {
		d.UsedQuote = maxQuote
		if d.UsedBase, err = toU64(mulDivCeil(maxQuote, reserveBase, reserveQuote), "deposit base"); err != nil {
			return Deposit{}, err
		}
		if d.Minted, err = toU64(mulDivFloor(maxQuote, lpSupply, reserveQuote), "deposit mint"); err != nil {
			return Deposit{}, err
		}
	}
	// the ceiled side never passes its maximum when the pivot is chosen correctly
	if d.UsedBase > maxBase || d.UsedQuote > maxQuote {
		return Deposit{}, ErrInvalidAmount("deposit exceeds the supplied maximum")
	}
	if d.Minted == 0 {
		return Deposit{}, ErrInvalidAmount("deposit too small to mint any liquidity")
	}
	return
}

// Withdrawal is the outcome of a proportional withdrawal
type Withdrawal struct {
	Base  uint64 `json:"base"`  // base paid out
	Quote uint64 `json:"quote"` // quote paid out
}

// ProportionalWithdraw() pays out floor(lpAmount * reserve / lpSupply) of each side
func ProportionalWithdraw(reserveBase, reserveQuote, lpSupply, lpAmount uint64) (w Withdrawal, err lib.ErrorI) {
	if lpAmount == 0 {
		return w, ErrInvalidAmount("withdraw amount must be positive")
	}
	if lpSupply == 0 || lpAmount > lpSupply {
		return w, ErrInsufficientLiquidity("withdraw exceeds the lp supply")
	}
	// lpAmount <= lpSupply so both shares fit in a u64
	if w.Base, err = toU64(mulDivFloor(lpAmount, reserveBase, lpSupply), "withdraw base"); err != nil {
		return Withdrawal{}, err
	}
	if w.Quote, err = toU64(mulDivFloor(lpAmount, reserveQuote, lpSupply), "withdraw quote"); err != nil {
		return Withdrawal{}, err
	}
	return
}

// InitialLiquidity() returns floor(sqrt(base * quote)), the lp supply a freshly funded pool starts with
func InitialLiquidity(base, quote uint64) (uint64, lib.ErrorI) {
	if base == 0 || quote == 0 {
		return 0, ErrInvalidAmount("initial reserves must be positive")
	}
	// sqrt of a 128 bit product always fits in 64 bits
	return toU64(new(uint256.Int).Sqrt(Product(base, quote)), "initial liquidity")
}
