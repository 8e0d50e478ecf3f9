package swap

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
)

// This file defines error objects for the swap engine

func ErrInsufficientLiquidity(msg string) lib.ErrorI {
	return lib.NewError(lib.CodeInsufficientLiquidity, lib.SwapModule, "insufficient liquidity: "+msg)
}

func ErrArithmeticOverflow(op string) lib.ErrorI {
	return lib.NewError(lib.CodeArithmeticOverflow, lib.SwapModule, fmt.Sprintf("arithmetic overflow in %s", op))
}

func ErrInvalidFee(feeBps uint64) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidFee, lib.SwapModule, fmt.Sprintf("fee of %d bps must be below %d", feeBps, BpsDenominator))
}

func ErrInvalidAmount(msg string) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidAmount, lib.SwapModule, "invalid amount: "+msg)
}
