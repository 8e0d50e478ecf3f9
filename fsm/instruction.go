package fsm

import (
	"fmt"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
)

/*
	Pool instructions carry a one byte tag followed by little-endian fields. The account list always starts with the
	pool's derived accounts in a fixed order (see PoolKeys.Accounts) followed by the user's accounts.
*/

// instruction tags
const (
	TagInitialize    uint8 = 1
	TagDeposit       uint8 = 3
	TagWithdraw      uint8 = 4
	TagSetStatus     uint8 = 6
	TagSwapBaseIn    uint8 = 9
	TagPreInitialize uint8 = 10
	TagSwapBaseOut   uint8 = 11

	TagRouteSwapBaseIn  uint8 = 16
	TagRouteSwapBaseOut uint8 = 17
)

// positions of the pool accounts
const (
	accId = iota
	accAuthority
	accLpMint
	accBaseVault
	accQuoteVault
	accLpVault
	accOpenOrders
	accTargetOrders
	accWithdrawQueue
	accMarket
	accBaseMint
	accQuoteMint
	poolAccountCount
)

// positions of the user accounts
const (
	accUserOwner = poolAccountCount + iota
	accUserBase  // userSource on swaps
	accUserQuote // userDestination on swaps
	accUserLp
)

const (
	accUserSource      = accUserBase
	accUserDestination = accUserQuote
)

// Accounts() lists the pool accounts in instruction order
func (x *PoolKeys) Accounts() []crypto.PublicKey {
	return []crypto.PublicKey{
		x.Id, x.Authority, x.LpMint, x.BaseVault, x.QuoteVault, x.LpVault, x.OpenOrders, x.TargetOrders, x.WithdrawQueue,
		x.MarketId, x.BaseMint, x.QuoteMint,
	}
}

// Payload is the decoded data of a pool instruction
type Payload interface {
	Tag() uint8
	Name() string
	encode(w *lib.BinaryWriter)
	decode(r *lib.BinaryReader)
	userAccounts() int // how many user accounts follow the pool accounts
}

// PreInitialize allocates the pool's accounts ahead of Initialize
type PreInitialize struct {
	Nonce uint8 `json:"nonce"`
}

// Initialize funds the pool and mints the first lp supply
type Initialize struct {
	Nonce     uint8  `json:"nonce"`
	OpenTime  uint64 `json:"openTime"`
	InitQuote uint64 `json:"initQuote"`
	InitBase  uint64 `json:"initBase"`
}

// Deposit adds liquidity at the pool ratio
type Deposit struct {
	MaxBase  uint64 `json:"maxBase"`
	MaxQuote uint64 `json:"maxQuote"`
	BaseSide uint64 `json:"baseSide"`
}

// Withdraw burns lp for a share of the reserves
type Withdraw struct {
	LpAmount uint64 `json:"lpAmount"`
}

// SetStatus moves an initialized pool between its operating states
type SetStatus struct {
	Status uint64 `json:"status"`
}

// SwapBaseIn swaps an exact input
type SwapBaseIn struct {
	AmountIn         uint64 `json:"amountIn"`
	MinimumAmountOut uint64 `json:"minimumAmountOut"`
}

// SwapBaseOut swaps for an exact output
type SwapBaseOut struct {
	MaximumAmountIn uint64 `json:"maximumAmountIn"`
	AmountOut       uint64 `json:"amountOut"`
}

// RouteSwapBaseIn sells an exact input through two pools
type RouteSwapBaseIn struct {
	AmountIn         uint64 `json:"amountIn"`
	MinimumAmountOut uint64 `json:"minimumAmountOut"`
}

// RouteSwapBaseOut buys an exact output through two pools
type RouteSwapBaseOut struct {
	MaximumAmountIn uint64 `json:"maximumAmountIn"`
	AmountOut       uint64 `json:"amountOut"`
}

func (x *PreInitialize) Tag() uint8 { return TagPreInitialize }
func (x *Initialize) Tag() uint8    { return TagInitialize }
func (x *Deposit) Tag() uint8       { return TagDeposit }
func (x *Withdraw) Tag() uint8      { return TagWithdraw }
func (x *SetStatus) Tag() uint8     { return TagSetStatus }
func (x *SwapBaseIn) Tag() uint8    { return TagSwapBaseIn }
func (x *SwapBaseOut) Tag() uint8   { return TagSwapBaseOut }

func (x *RouteSwapBaseIn) Tag() uint8  { return TagRouteSwapBaseIn }
func (x *RouteSwapBaseOut) Tag() uint8 { return TagRouteSwapBaseOut }

func (x *PreInitialize) Name() string { return "pre_initialize" }
func (x *Initialize) Name() string    { return "initialize" }
func (x *Deposit) Name() string       { return "deposit" }
func (x *Withdraw) Name() string      { return "withdraw" }
func (x *SetStatus) Name() string     { return "set_status" }
func (x *SwapBaseIn) Name() string    { return "swap_base_in" }
func (x *SwapBaseOut) Name() string   { return "swap_base_out" }

func (x *RouteSwapBaseIn) Name() string  { return "route_swap_base_in" }
func (x *RouteSwapBaseOut) Name() string { return "route_swap_base_out" }

func (x *PreInitialize) encode(w *lib.BinaryWriter) { w.WriteU8(x.Nonce) }
func (x *Initialize) encode(w *lib.BinaryWriter) {
	w.WriteU8(x.Nonce).WriteU64(x.OpenTime).WriteU64(x.InitQuote).WriteU64(x.InitBase)
}
func (x *Deposit) encode(w *lib.BinaryWriter)     { w.WriteU64(x.MaxBase).WriteU64(x.MaxQuote).WriteU64(x.BaseSide) }
func (x *Withdraw) encode(w *lib.BinaryWriter)    { w.WriteU64(x.LpAmount) }
func (x *SetStatus) encode(w *lib.BinaryWriter)   { w.WriteU64(x.Status) }
func (x *SwapBaseIn) encode(w *lib.BinaryWriter)  { w.WriteU64(x.AmountIn).WriteU64(x.MinimumAmountOut) }
func (x *SwapBaseOut) encode(w *lib.BinaryWriter) { w.WriteU64(x.MaximumAmountIn).WriteU64(x.AmountOut) }
func (x *RouteSwapBaseIn) encode(w *lib.BinaryWriter) {
	w.WriteU64(x.AmountIn).WriteU64(x.MinimumAmountOut)
}
func (x *RouteSwapBaseOut) encode(w *lib.BinaryWriter) {
	w.WriteU64(x.MaximumAmountIn).WriteU64(x.AmountOut)
}

func (x *PreInitialize) decode(r *lib.BinaryReader) { x.Nonce = r.ReadU8() }
func (x *Initialize) decode(r *lib.BinaryReader) {
	x.Nonce, x.OpenTime, x.InitQuote, x.InitBase = r.ReadU8(), r.ReadU64(), r.ReadU64(), r.ReadU64()
}
func (x *Deposit) decode(r *lib.BinaryReader) {
	x.MaxBase, x.MaxQuote, x.BaseSide = r.ReadU64(), r.ReadU64(), r.ReadU64()
}
func (x *Withdraw) decode(r *lib.BinaryReader)    { x.LpAmount = r.ReadU64() }
func (x *SetStatus) decode(r *lib.BinaryReader)   { x.Status = r.ReadU64() }
func (x *SwapBaseIn) decode(r *lib.BinaryReader)  { x.AmountIn, x.MinimumAmountOut = r.ReadU64(), r.ReadU64() }
func (x *SwapBaseOut) decode(r *lib.BinaryReader) { x.MaximumAmountIn, x.AmountOut = r.ReadU64(), r.ReadU64() }
func (x *RouteSwapBaseIn) decode(r *lib.BinaryReader) {
	x.AmountIn, x.MinimumAmountOut = r.ReadU64(), r.ReadU64()
}
func (x *RouteSwapBaseOut) decode(r *lib.BinaryReader) {
	x.MaximumAmountIn, x.AmountOut = r.ReadU64(), r.ReadU64()
}

func (x *PreInitialize) userAccounts() int { return 1 } // owner
func (x *Initialize) userAccounts() int    { return 4 } // owner, base, quote, lp
func (x *Deposit) userAccounts() int       { return 4 } // owner, base, quote, lp
func (x *Withdraw) userAccounts() int      { return 4 } // owner, base, quote, lp
func (x *SetStatus) userAccounts() int     { return 1 } // owner
func (x *SwapBaseIn) userAccounts() int    { return 3 } // owner, source, destination
func (x *SwapBaseOut) userAccounts() int   { return 3 } // owner, source, destination

// a route carries the second pool's accounts ahead of owner, source, intermediate and destination
func (x *RouteSwapBaseIn) userAccounts() int  { return poolAccountCount + 4 }
func (x *RouteSwapBaseOut) userAccounts() int { return poolAccountCount + 4 }

// EncodePayload() serializes a payload with its tag
func EncodePayload(p Payload) []byte {
	w := lib.NewBinaryWriter(32)
	w.WriteU8(p.Tag())
	p.encode(w)
	return w.Bytes()
}

// DecodePayload() parses instruction data into its payload
func DecodePayload(data []byte) (Payload, lib.ErrorI) {
	if len(data) == 0 {
		return nil, ErrInvalidInstructionLen(0, fmt.Errorf("empty data"))
	}
	var p Payload
	switch data[0] {
	case TagPreInitialize:
		p = new(PreInitialize)
	case TagInitialize:
		p = new(Initialize)
	case TagDeposit:
		p = new(Deposit)
	case TagWithdraw:
		p = new(Withdraw)
	case TagSetStatus:
		p = new(SetStatus)
	case TagSwapBaseIn:
		p = new(SwapBaseIn)
	case TagSwapBaseOut:
		p = new(SwapBaseOut)
	case TagRouteSwapBaseIn:
		p = new(RouteSwapBaseIn)
	case TagRouteSwapBaseOut:
		p = new(RouteSwapBaseOut)
	default:
		return nil, ErrUnknownInstruction(data[0])
	}
	r := lib.NewBinaryReader(data[1:])
	p.decode(r)
	if err := r.Finish(); err != nil {
		return nil, ErrInvalidInstructionLen(data[0], err)
	}
	return p, nil
}

// NewPoolInstruction() builds a pool instruction from the derived keys, the payload and the user accounts
func NewPoolInstruction(keys *PoolKeys, p Payload, user ...crypto.PublicKey) *lib.Instruction {
	return &lib.Instruction{
		ProgramId: keys.ProgramId,
		Accounts:  append(keys.Accounts(), user...),
		Data:      EncodePayload(p),
	}
}
