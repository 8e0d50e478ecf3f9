package fsm

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
)

// This file defines error objects for the State Machine module

func ErrInvalidPoolState(pool string, status Status, op string) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidPoolState, lib.StateMachineModule, fmt.Sprintf("pool %s is %s; %s is not allowed", pool, status, op))
}

func ErrPoolNotOpen(pool string, openTime, now uint64) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidPoolState, lib.StateMachineModule, fmt.Sprintf("pool %s opens at %d, now is %d", pool, openTime, now))
}

func ErrLPSupplyNotZero(pool string, supply uint64) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidPoolState, lib.StateMachineModule, fmt.Sprintf("pool %s already has an lp supply of %d", pool, supply))
}

func ErrAccountMismatch(name, expected, got string) lib.ErrorI {
	return lib.NewError(lib.CodeAccountMismatch, lib.StateMachineModule, fmt.Sprintf("account %s: expected %s, got %s", name, expected, got))
}

func ErrNonceMismatch(expected, got uint8) lib.ErrorI {
	return lib.NewError(lib.CodeAccountMismatch, lib.StateMachineModule, fmt.Sprintf("nonce: expected %d, got %d", expected, got))
}

func ErrSlippageExceeded(msg string) lib.ErrorI {
	return lib.NewError(lib.CodeSlippageExceeded, lib.StateMachineModule, "slippage exceeded: "+msg)
}

func ErrUnauthorized(key string) lib.ErrorI {
	return lib.NewError(lib.CodeUnauthorized, lib.StateMachineModule, fmt.Sprintf("%s did not sign", key))
}

func ErrInvalidInstruction(msg string) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidInstruction, lib.StateMachineModule, "invalid instruction: "+msg)
}

func ErrUnknownInstruction(tag uint8) lib.ErrorI {
	return lib.NewError(lib.CodeUnknownInstruction, lib.StateMachineModule, fmt.Sprintf("unknown instruction tag %d", tag))
}

func ErrInvalidInstructionLen(tag uint8, err error) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidInstructionLen, lib.StateMachineModule, fmt.Sprintf("malformed data for instruction %d: %s", tag, err.Error()))
}

func ErrUnknownProgram(program string) lib.ErrorI {
	return lib.NewError(lib.CodeUnknownProgram, lib.StateMachineModule, fmt.Sprintf("no program %s", program))
}

func ErrPoolNotFound(pool string) lib.ErrorI {
	return lib.NewError(lib.CodePoolNotFound, lib.StateMachineModule, fmt.Sprintf("pool %s not found", pool))
}

func ErrInvalidStatus(status uint64) lib.ErrorI {
	return lib.NewError(lib.CodeInvalidStatus, lib.StateMachineModule, fmt.Sprintf("status %d cannot be set", status))
}

func ErrDerivationCancelled(err error) lib.ErrorI {
	return lib.NewError(lib.CodeDerivationCancelled, lib.StateMachineModule, fmt.Sprintf("derivation cancelled: %s", err.Error()))
}

func ErrInsufficientLpBalance(account string, have, need uint64) lib.ErrorI {
	return lib.NewError(lib.CodeInsufficientLiquidity, lib.StateMachineModule, fmt.Sprintf("lp account %s holds %d, withdraw needs %d", account, have, need))
}
