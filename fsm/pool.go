package fsm

import (
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/holiman/uint256"
)

// Status is the lifecycle state of a pool
type Status uint64

const (
	StatusUninitialized  Status = 0
	StatusInitialized    Status = 1
	StatusDisabled       Status = 2
	StatusWithdrawOnly   Status = 3
	StatusPreInitialized Status = 8
)

// String() returns the human readable status
func (x Status) String() string {
	switch x {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInitialized:
		return "initialized"
	case StatusDisabled:
		return "disabled"
	case StatusWithdrawOnly:
		return "withdraw_only"
	case StatusPreInitialized:
		return "pre_initialized"
	default:
		return "unknown"
	}
}

// Settable() reports whether an owner may move an initialized pool to this status
func (x Status) Settable() bool {
	return x == StatusInitialized || x == StatusDisabled || x == StatusWithdrawOnly
}

// SwapStats are the cumulative swap counters of a pool
type SwapStats struct {
	SwapBaseInAmount   *uint256.Int `json:"swapBaseInAmount"`   // base paid in on base to quote swaps
	SwapQuoteOutAmount *uint256.Int `json:"swapQuoteOutAmount"` // quote paid out on base to quote swaps
	SwapBaseFee        *uint256.Int `json:"swapBaseFee"`        // base fees retained
	SwapQuoteInAmount  *uint256.Int `json:"swapQuoteInAmount"`  // quote paid in on quote to base swaps
	SwapBaseOutAmount  *uint256.Int `json:"swapBaseOutAmount"`  // base paid out on quote to base swaps
	SwapQuoteFee       *uint256.Int `json:"swapQuoteFee"`       // quote fees retained
	SwapCount          uint64       `json:"swapCount"`
}

// newSwapStats() returns zeroed counters
func newSwapStats() SwapStats {
	return SwapStats{
		SwapBaseInAmount: new(uint256.Int), SwapQuoteOutAmount: new(uint256.Int), SwapBaseFee: new(uint256.Int),
		SwapQuoteInAmount: new(uint256.Int), SwapBaseOutAmount: new(uint256.Int), SwapQuoteFee: new(uint256.Int),
	}
}

// record() adds one swap to the counters
func (x *SwapStats) record(baseToQuote bool, amountIn, amountOut, fee uint64) {
	in, out, feeCounter := x.SwapQuoteInAmount, x.SwapBaseOutAmount, x.SwapQuoteFee
	if baseToQuote {
		in, out, feeCounter = x.SwapBaseInAmount, x.SwapQuoteOutAmount, x.SwapBaseFee
	}
	in.AddUint64(in, amountIn)
	out.AddUint64(out, amountOut)
	feeCounter.AddUint64(feeCounter, fee)
	x.SwapCount++
}

// Pool is the persisted record of one pool, stored at its id
type Pool struct {
	Status          Status           `json:"status"`
	Nonce           uint8            `json:"nonce"`
	OpenTime        uint64           `json:"openTime"`        // unix seconds before which swaps are refused
	FeeBps          uint64           `json:"feeBps"`          // swap fee retained by the pool
	LockedLiquidity uint64           `json:"lockedLiquidity"` // lp held by the lp vault forever
	BaseDecimals    uint8            `json:"baseDecimals"`
	QuoteDecimals   uint8            `json:"quoteDecimals"`
	BaseLotSize     uint64           `json:"baseLotSize"`
	QuoteLotSize    uint64           `json:"quoteLotSize"`
	Id              crypto.PublicKey `json:"id"`
	Authority       crypto.PublicKey `json:"authority"`
	Owner           crypto.PublicKey `json:"owner"`           // may change the status
	Market          crypto.PublicKey `json:"market"`
	MarketProgram   crypto.PublicKey `json:"marketProgram"`
	BaseMint        crypto.PublicKey `json:"baseMint"`
	QuoteMint       crypto.PublicKey `json:"quoteMint"`
	LpMint          crypto.PublicKey `json:"lpMint"`
	BaseVault       crypto.PublicKey `json:"baseVault"`
	QuoteVault      crypto.PublicKey `json:"quoteVault"`
	LpVault         crypto.PublicKey `json:"lpVault"`
	OpenOrders      crypto.PublicKey `json:"openOrders"`
	TargetOrders    crypto.PublicKey `json:"targetOrders"`
	WithdrawQueue   crypto.PublicKey `json:"withdrawQueue"`
	SwapStats
}

const poolFixedSize = 8 + 1 + 8*5 + 1 + 1 + 14*crypto.PublicKeySize + 6*32 + 8

// newPool() starts a record from derived keys
func newPool(keys *PoolKeys, marketProgram crypto.PublicKey) *Pool {
	return &Pool{
		Nonce:         keys.Nonce,
		Id:            keys.Id,
		Authority:     keys.Authority,
		Market:        keys.MarketId,
		MarketProgram: marketProgram,
		BaseMint:      keys.BaseMint,
		QuoteMint:     keys.QuoteMint,
		LpMint:        keys.LpMint,
		BaseVault:     keys.BaseVault,
		QuoteVault:    keys.QuoteVault,
		LpVault:       keys.LpVault,
		OpenOrders:    keys.OpenOrders,
		TargetOrders:  keys.TargetOrders,
		WithdrawQueue: keys.WithdrawQueue,
		SwapStats:     newSwapStats(),
	}
}

// Bytes() encodes the pool record
func (x *Pool) Bytes() []byte {
	w := lib.NewBinaryWriter(poolFixedSize)
	w.WriteU64(uint64(x.Status)).WriteU8(x.Nonce).WriteU64(x.OpenTime).WriteU64(x.FeeBps).WriteU64(x.LockedLiquidity).
		WriteU8(x.BaseDecimals).WriteU8(x.QuoteDecimals).WriteU64(x.BaseLotSize).WriteU64(x.QuoteLotSize)
	for _, pk := range x.keys() {
		w.WritePublicKey(*pk)
	}
	w.WriteU256(x.SwapBaseInAmount).WriteU256(x.SwapQuoteOutAmount).WriteU256(x.SwapBaseFee).
		WriteU256(x.SwapQuoteInAmount).WriteU256(x.SwapBaseOutAmount).WriteU256(x.SwapQuoteFee).WriteU64(x.SwapCount)
	return w.Bytes()
}

// NewPoolFromBytes() decodes a pool record
func NewPoolFromBytes(bz []byte) (*Pool, lib.ErrorI) {
	r, x := lib.NewBinaryReader(bz), new(Pool)
	x.Status, x.Nonce, x.OpenTime, x.FeeBps, x.LockedLiquidity = Status(r.ReadU64()), r.ReadU8(), r.ReadU64(), r.ReadU64(), r.ReadU64()
	x.BaseDecimals, x.QuoteDecimals, x.BaseLotSize, x.QuoteLotSize = r.ReadU8(), r.ReadU8(), r.ReadU64(), r.ReadU64()
	for _, pk := range x.keys() {
		*pk = r.ReadPublicKey()
	}
	x.SwapBaseInAmount, x.SwapQuoteOutAmount, x.SwapBaseFee = r.ReadU256(), r.ReadU256(), r.ReadU256()
	x.SwapQuoteInAmount, x.SwapBaseOutAmount, x.SwapQuoteFee = r.ReadU256(), r.ReadU256(), r.ReadU256()
	x.SwapCount = r.ReadU64()
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return x, nil
}

// keys() lists the address fields in their encoded order
func (x *Pool) keys() []*crypto.PublicKey {
	return []*crypto.PublicKey{
		&x.Id, &x.Authority, &x.Owner, &x.Market, &x.MarketProgram, &x.BaseMint, &x.QuoteMint, &x.LpMint,
		&x.BaseVault, &x.QuoteVault, &x.LpVault, &x.OpenOrders, &x.TargetOrders, &x.WithdrawQueue,
	}
}

// GetPool() loads the pool record at id; a missing record reads as an uninitialized pool
func GetPool(s lib.RStoreI, program, id crypto.PublicKey) (*Pool, lib.ErrorI) {
	bz, err := lib.GetAccountData(s, id, program, lib.AccountKindPool)
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return &Pool{Status: StatusUninitialized, Id: id, SwapStats: newSwapStats()}, nil
	}
	return NewPoolFromBytes(bz)
}

// SetPool() persists the pool record
func SetPool(s lib.RWStoreI, program crypto.PublicKey, x *Pool) lib.ErrorI {
	return lib.SetAccountData(s, x.Id, program, lib.AccountKindPool, x.Bytes())
}

// PoolRecord is the body of the target orders and withdraw queue accounts: a back pointer to the pool and a counter
type PoolRecord struct {
	Pool  crypto.PublicKey `json:"pool"`
	Count uint64           `json:"count"`
}

// Bytes() encodes the record
func (x *PoolRecord) Bytes() []byte {
	return lib.NewBinaryWriter(crypto.PublicKeySize + 8).WritePublicKey(x.Pool).WriteU64(x.Count).Bytes()
}

// NewPoolRecordFromBytes() decodes a record
func NewPoolRecordFromBytes(bz []byte) (*PoolRecord, lib.ErrorI) {
	r := lib.NewBinaryReader(bz)
	x := &PoolRecord{Pool: r.ReadPublicKey(), Count: r.ReadU64()}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return x, nil
}
