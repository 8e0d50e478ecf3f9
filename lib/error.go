package lib

import (
	"errors"
	"fmt"
	"math"

	"github.com/canopy-network/amm/lib/crypto"
)

type ErrorI interface {
	Code() ErrorCode     // Returns the error code
	Module() ErrorModule // Returns the error module
	error                // Implements the built-in error interface
}

var _ ErrorI = &Error{} // Ensures *Error implements ErrorI

type ErrorCode uint32 // Defines a type for error codes

type ErrorModule string // Defines a type for error modules

type Error struct {
	ECode   ErrorCode   `json:"code"`   // Error code
	EModule ErrorModule `json:"module"` // Error module
	Msg     string      `json:"msg"`    // Error message
}

func NewError(code ErrorCode, module ErrorModule, msg string) *Error {
	// Constructs a new Error instance
	return &Error{ECode: code, EModule: module, Msg: msg}
}

// Code() returns the associated error code
func (p *Error) Code() ErrorCode { return p.ECode }

// Module() returns module field
func (p *Error) Module() ErrorModule { return p.EModule }

// String() calls Error()
func (p *Error) String() string { return p.Error() }

// Error() returns a formatted string including module, code, and message
func (p *Error) Error() string {
	return fmt.Sprintf("\nModule:  %s\nCode:    %d\nMessage: %s", p.EModule, p.ECode, p.Msg)
}

// IsCode() reports whether err is an ErrorI carrying the code
func IsCode(err error, code ErrorCode) bool {
	e, ok := err.(ErrorI)
	if !ok || e == nil {
		return false
	}
	return e.Code() == code
}

const (
	NoCode ErrorCode = math.MaxUint32

	// Main Module
	MainModule ErrorModule = "main"

	// Main Module Error Codes
	CodeJSONMarshal         ErrorCode = 2
	CodeJSONUnmarshal       ErrorCode = 3
	CodeUnmarshal           ErrorCode = 4
	CodeStringToBytes       ErrorCode = 6
	CodeAccountNotFound     ErrorCode = 9
	CodeAccountOwner        ErrorCode = 10
	CodeAccountKind         ErrorCode = 11
	CodeServerTimeout       ErrorCode = 12
	CodePostRequest         ErrorCode = 13
	CodeGetRequest          ErrorCode = 14
	CodeHttpStatus          ErrorCode = 15
	CodeReadBody            ErrorCode = 16
	CodeInstructionAccounts ErrorCode = 17
	CodeOffCurveSigner      ErrorCode = 18

	// Crypto Module
	CryptoModule ErrorModule = "crypto"

	// Crypto Module Error Codes
	CodeDerivationExhausted ErrorCode = 101
	CodeInvalidSeeds        ErrorCode = 102

	// Swap Module
	SwapModule ErrorModule = "swap"

	// Swap Module Error Codes
	CodeInsufficientLiquidity ErrorCode = 201
	CodeArithmeticOverflow    ErrorCode = 202
	CodeInvalidFee            ErrorCode = 203
	CodeInvalidAmount         ErrorCode = 204

	// State Machine Module
	StateMachineModule ErrorModule = "state_machine"

	// State Machine Module Error Codes
	CodeInvalidPoolState      ErrorCode = 301
	CodeAccountMismatch       ErrorCode = 302
	CodeSlippageExceeded      ErrorCode = 303
	CodeUnauthorized          ErrorCode = 304
	CodeInvalidInstruction    ErrorCode = 305
	CodeUnknownInstruction    ErrorCode = 306
	CodeInvalidInstructionLen ErrorCode = 307
	CodeUnknownProgram        ErrorCode = 308
	CodePoolNotFound          ErrorCode = 309
	CodeInvalidStatus         ErrorCode = 310
	CodeDerivationCancelled   ErrorCode = 311

	// Token Module
	TokenModule ErrorModule = "token"

	// Token Module Error Codes
	CodeInsufficientFunds       ErrorCode = 401
	CodeMintMismatch            ErrorCode = 402
	CodeMintNotFound            ErrorCode = 403
	CodeTokenAccountNotFound    ErrorCode = 404
	CodeAccountAlreadyExists    ErrorCode = 405
	CodeInvalidMintAuthority    ErrorCode = 406
	CodeInvalidAccountOwner     ErrorCode = 407
	CodeSupplyOverflow          ErrorCode = 408
	CodeTokenAmountOverflow     ErrorCode = 409
	CodeInvalidTokenDecimals    ErrorCode = 413
	CodeInvalidTokenInstruction ErrorCode = 415
	CodeMissingSignature        ErrorCode = 416
	CodeOffCurveAddress         ErrorCode = 417

	// Market Module
	MarketModule ErrorModule = "market"

	// Market Module Error Codes
	CodeMarketNotFound      ErrorCode = 501
	CodeMarketExists        ErrorCode = 502
	CodeOpenOrdersNotFound  ErrorCode = 503
	CodeOpenOrdersExists    ErrorCode = 504
	CodeInvalidLotSize      ErrorCode = 505
	CodeOpenOrdersMarket    ErrorCode = 506
	CodeIdenticalMarketMint ErrorCode = 507

	// Storage Module
	StorageModule ErrorModule = "store"

	// Storage Module Error Codes
	CodeOpenDB         ErrorCode = 601
	CodeCloseDB        ErrorCode = 602
	CodeCommitDB       ErrorCode = 603
	CodeStoreSet       ErrorCode = 604
	CodeStoreGet       ErrorCode = 605
	CodeStoreDelete    ErrorCode = 606
	CodeInvalidKey     ErrorCode = 607
	CodeTxnConflict    ErrorCode = 608
	CodeReadOnlyStore  ErrorCode = 609
	CodeGarbageCollect ErrorCode = 610

	// RPC Module
	RPCModule ErrorModule = "rpc"

	// RPC Module Error Codes
	CodeInvalidParams ErrorCode = 701
	CodeListen        ErrorCode = 702
)

func ErrJSONMarshal(err error) ErrorI {
	return NewError(CodeJSONMarshal, MainModule, fmt.Sprintf("json.marshal() failed with err: %s", err.Error()))
}

func ErrJSONUnmarshal(err error) ErrorI {
	return NewError(CodeJSONUnmarshal, MainModule, fmt.Sprintf("json.unmarshal() failed with err: %s", err.Error()))
}

func ErrUnmarshal(err error) ErrorI {
	return NewError(CodeUnmarshal, MainModule, fmt.Sprintf("unmarshal() failed with err: %s", err.Error()))
}

func ErrStringToBytes(err error) ErrorI {
	return NewError(CodeStringToBytes, MainModule, fmt.Sprintf("stringToBytes() failed with err: %s", err.Error()))
}

func ErrAccountNotFound(address string) ErrorI {
	return NewError(CodeAccountNotFound, MainModule, fmt.Sprintf("account %s not found", address))
}

func ErrAccountOwner(address string) ErrorI {
	return NewError(CodeAccountOwner, MainModule, fmt.Sprintf("account %s is owned by a different program", address))
}

func ErrAccountKind(address string, expected, got AccountKind) ErrorI {
	return NewError(CodeAccountKind, MainModule, fmt.Sprintf("account %s has kind %s, expected %s", address, got, expected))
}

func ErrServerTimeout() ErrorI {
	return NewError(CodeServerTimeout, MainModule, "server timeout")
}

func ErrPostRequest(err error) ErrorI {
	return NewError(CodePostRequest, MainModule, fmt.Sprintf("http.post() failed with err: %s", err.Error()))
}

func ErrGetRequest(err error) ErrorI {
	return NewError(CodeGetRequest, MainModule, fmt.Sprintf("http.get() failed with err: %s", err.Error()))
}

func ErrHttpStatus(status string, statusCode int, body []byte) ErrorI {
	return NewError(CodeHttpStatus, MainModule, fmt.Sprintf("http response bad status %s with code %d and body %s", status, statusCode, body))
}

func ErrReadBody(err error) ErrorI {
	return NewError(CodeReadBody, MainModule, fmt.Sprintf("io.ReadAll(http.ResponseBody) failed with err: %s", err.Error()))
}

func ErrInvalidKey() ErrorI {
	return NewError(CodeInvalidKey, StorageModule, "found store key is invalid")
}

func ErrInstructionAccounts(expected, got int) ErrorI {
	return NewError(CodeInstructionAccounts, MainModule, fmt.Sprintf("instruction needs %d accounts, got %d", expected, got))
}

func ErrOffCurveSigner(key string) ErrorI {
	return NewError(CodeOffCurveSigner, MainModule, fmt.Sprintf("signer %s is a program derived address and cannot sign", key))
}

func ErrDerivationExhausted(what string) ErrorI {
	return NewError(CodeDerivationExhausted, CryptoModule, fmt.Sprintf("no off curve address found for %s", what))
}

func ErrInvalidSeeds(err error) ErrorI {
	return NewError(CodeInvalidSeeds, CryptoModule, fmt.Sprintf("invalid derivation seeds: %s", err.Error()))
}

// ErrDerivation() maps a crypto derivation failure onto the error taxonomy
func ErrDerivation(what string, err error) ErrorI {
	if errors.Is(err, crypto.ErrNonceExhausted) || errors.Is(err, crypto.ErrNoViableBump) {
		return ErrDerivationExhausted(what)
	}
	return ErrInvalidSeeds(err)
}

