package rpc

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
)

func ErrInvalidParams(err error) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidParams, lib.RPCModule, fmt.Sprintf("invalid params: %s", err.Error()))
}

func ErrListen(err error) lib.ErrorI {
	return lib.NewError(lib.CodeListen, lib.RPCModule, fmt.Sprintf("net.Listen() failed with err: %s", err.Error()))
}
