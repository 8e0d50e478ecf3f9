package token

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
)

// This file defines error objects for the token ledger

func ErrInsufficientFunds(account string, have, need uint64) lib.ErrorI {
	return lib.NewError(lib.CodeInsufficientFunds, lib.TokenModule, fmt.Sprintf("account %s holds %d, needs %d", account, have, need))
}

func ErrMintMismatch(expected, got string) lib.ErrorI {
	return lib.NewError(lib.CodeMintMismatch, lib.TokenModule, fmt.Sprintf("expected mint %s, got %s", expected, got))
}

func ErrMintNotFound(mint string) lib.ErrorI {
	return lib.NewError(lib.CodeMintNotFound, lib.TokenModule, fmt.Sprintf("mint %s not found", mint))
}

func ErrTokenAccountNotFound(account string) lib.ErrorI {
	return lib.NewError(lib.CodeTokenAccountNotFound, lib.TokenModule, fmt.Sprintf("token account %s not found", account))
}

func ErrAccountAlreadyExists(account string) lib.ErrorI {
	return lib.NewError(lib.CodeAccountAlreadyExists, lib.TokenModule, fmt.Sprintf("account %s already exists", account))
}

func ErrInvalidMintAuthority(mint string) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidMintAuthority, lib.TokenModule, fmt.Sprintf("invalid authority for mint %s", mint))
}

func ErrInvalidAccountOwner(account string) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidAccountOwner, lib.TokenModule, fmt.Sprintf("invalid owner for token account %s", account))
}

func ErrSupplyOverflow(mint string) lib.ErrorI {
	return lib.NewError(lib.CodeSupplyOverflow, lib.TokenModule, fmt.Sprintf("supply of mint %s would overflow", mint))
}

func ErrTokenAmountOverflow(account string) lib.ErrorI {
	return lib.NewError(lib.CodeTokenAmountOverflow, lib.TokenModule, fmt.Sprintf("balance of token account %s would overflow", account))
}

func ErrInvalidTokenDecimals(decimals uint8) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidTokenDecimals, lib.TokenModule, fmt.Sprintf("decimals %d exceeds %d", decimals, MaxDecimals))
}

func ErrInvalidTokenInstruction(tag uint8) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidTokenInstruction, lib.TokenModule, fmt.Sprintf("unknown token instruction %d", tag))
}

func ErrMissingSignature(key string) lib.ErrorI {
	return lib.NewError(lib.CodeMissingSignature, lib.TokenModule, fmt.Sprintf("missing signature from %s", key))
}

func ErrOffCurveAddress(address string) lib.ErrorI {
	return lib.NewError(lib.CodeOffCurveAddress, lib.TokenModule, fmt.Sprintf("address %s is program derived; only its program can open it", address))
}
