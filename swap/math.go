package swap

import (
	"github.com/canopy-network/amm/lib"
	"github.com/holiman/uint256"
)

/*
	Every intermediate is a 256 bit unsigned integer. Operands are u64, so products of two operands (and of a product
	with a basis point constant) can never overflow; only the final narrowing back to u64 can, and it is checked.
*/

// u256() lifts a u64
func u256(v uint64) *uint256.Int { return uint256.NewInt(v) }

// mulDivFloor() returns floor(a * b / d)
func mulDivFloor(a, b, d uint64) *uint256.Int {
	return new(uint256.Int).Div(new(uint256.Int).Mul(u256(a), u256(b)), u256(d))
}

// mulDivCeil() returns ceil(a * b / d)
func mulDivCeil(a, b, d uint64) *uint256.Int {
	num := new(uint256.Int).Mul(u256(a), u256(b))
	q, r := new(uint256.Int).DivMod(num, u256(d), new(uint256.Int))
	if !r.IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

// toU64() narrows back to a u64 or fails with ArithmeticOverflow
func toU64(v *uint256.Int, op string) (uint64, lib.ErrorI) {
	if !v.IsUint64() {
		return 0, ErrArithmeticOverflow(op)
	}
	return v.Uint64(), nil
}

// AddChecked() adds two u64 amounts or fails with ArithmeticOverflow
func AddChecked(a, b uint64) (uint64, lib.ErrorI) {
	sum, overflow := new(uint256.Int).AddOverflow(u256(a), u256(b))
	if overflow || !sum.IsUint64() {
		return 0, ErrArithmeticOverflow("add")
	}
	return sum.Uint64(), nil
}

// SubChecked() subtracts b from a or fails with InsufficientLiquidity when b > a
func SubChecked(a, b uint64) (uint64, lib.ErrorI) {
	if b > a {
		return 0, ErrInsufficientLiquidity("subtraction would underflow")
	}
	return a - b, nil
}

// Product() returns a * b as a 256 bit integer; used to compare the constant product before and after a swap
func Product(a, b uint64) *uint256.Int { return new(uint256.Int).Mul(u256(a), u256(b)) }
