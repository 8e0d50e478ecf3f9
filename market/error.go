package market

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
)

// This file defines error objects for the market provider

func ErrMarketNotFound(market string) lib.ErrorI {
	return lib.NewError(lib.CodeMarketNotFound, lib.MarketModule, fmt.Sprintf("market %s not found", market))
}

func ErrMarketExists(market string) lib.ErrorI {
	return lib.NewError(lib.CodeMarketExists, lib.MarketModule, fmt.Sprintf("market %s already exists", market))
}

func ErrOpenOrdersNotFound(openOrders string) lib.ErrorI {
	return lib.NewError(lib.CodeOpenOrdersNotFound, lib.MarketModule, fmt.Sprintf("open orders %s not found", openOrders))
}

func ErrOpenOrdersExists(openOrders string) lib.ErrorI {
	return lib.NewError(lib.CodeOpenOrdersExists, lib.MarketModule, fmt.Sprintf("open orders %s already exists", openOrders))
}

func ErrInvalidLotSize() lib.ErrorI {
	return lib.NewError(lib.CodeInvalidLotSize, lib.MarketModule, "lot sizes must be positive")
}

func ErrOpenOrdersMarket(openOrders, market string) lib.ErrorI {
	return lib.NewError(lib.CodeOpenOrdersMarket, lib.MarketModule, fmt.Sprintf("open orders %s does not belong to market %s", openOrders, market))
}

func ErrIdenticalMarketMint() lib.ErrorI {
	return lib.NewError(lib.CodeIdenticalMarketMint, lib.MarketModule, "base and quote mints must differ")
}
