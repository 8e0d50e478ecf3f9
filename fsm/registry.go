package fsm

import (
	"context"
	"runtime"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"golang.org/x/sync/errgroup"
)

/*
	Every account of a pool is a program derived address of (program, market), so nothing needs to persist an address
	table: any process can recompute the full key set and get byte-identical results.
*/

const (
	AuthoritySeed = "amm authority" // seed of the pool authority, shared by every pool of the program

	DefaultMaxNonce = 255 // the nonce is a single byte
)

// associated account seeds
const (
	AmmAssociatedSeed           = "amm_associated_seed"
	LpMintAssociatedSeed        = "lp_mint_associated_seed"
	CoinVaultAssociatedSeed     = "coin_vault_associated_seed"
	PcVaultAssociatedSeed       = "pc_vault_associated_seed"
	TempLpTokenAssociatedSeed   = "temp_lp_token_associated_seed"
	OpenOrderAssociatedSeed     = "open_order_associated_seed"
	TargetAssociatedSeed        = "target_associated_seed"
	WithdrawQueueAssociatedSeed = "withdraw_associated_seed"
)

// PoolKeys is the full derived address set of one pool
type PoolKeys struct {
	ProgramId     crypto.PublicKey `json:"programId"`
	MarketId      crypto.PublicKey `json:"marketId"`
	BaseMint      crypto.PublicKey `json:"baseMint"`
	QuoteMint     crypto.PublicKey `json:"quoteMint"`
	Id            crypto.PublicKey `json:"id"`
	Authority     crypto.PublicKey `json:"authority"`
	Nonce         uint8            `json:"nonce"`
	LpMint        crypto.PublicKey `json:"lpMint"`
	BaseVault     crypto.PublicKey `json:"baseVault"`
	QuoteVault    crypto.PublicKey `json:"quoteVault"`
	LpVault       crypto.PublicKey `json:"lpVault"`
	OpenOrders    crypto.PublicKey `json:"openOrders"`
	TargetOrders  crypto.PublicKey `json:"targetOrders"`
	WithdrawQueue crypto.PublicKey `json:"withdrawQueue"`
}

// MarketRef identifies a pool to derive
type MarketRef struct {
	MarketId  crypto.PublicKey `json:"marketId"`
	BaseMint  crypto.PublicKey `json:"baseMint"`
	QuoteMint crypto.PublicKey `json:"quoteMint"`
}

// Registry derives pool addresses for one program
type Registry struct {
	ProgramId crypto.PublicKey
	MaxNonce  uint8 // inclusive bound of the authority nonce search
}

// NewRegistry() creates a registry; the nonce bound is capped to a single byte
func NewRegistry(programId crypto.PublicKey, maxNonce uint64) Registry {
	if maxNonce > DefaultMaxNonce {
		maxNonce = DefaultMaxNonce
	}
	return Registry{ProgramId: programId, MaxNonce: uint8(maxNonce)}
}

// DeriveNonce() returns the authority of programId and the smallest nonce producing it
func DeriveNonce(programId crypto.PublicKey) (crypto.PublicKey, uint8, lib.ErrorI) {
	return NewRegistry(programId, DefaultMaxNonce).DeriveNonce()
}

// DerivePoolKeys() derives every address of the pool trading baseMint/quoteMint on marketId
func DerivePoolKeys(programId, marketId, baseMint, quoteMint crypto.PublicKey) (*PoolKeys, lib.ErrorI) {
	return NewRegistry(programId, DefaultMaxNonce).DerivePoolKeys(marketId, baseMint, quoteMint)
}

// DerivePoolKeysBatch() derives many pools in parallel; the output order matches refs
func DerivePoolKeysBatch(ctx context.Context, programId crypto.PublicKey, refs []MarketRef) ([]*PoolKeys, lib.ErrorI) {
	return NewRegistry(programId, DefaultMaxNonce).DerivePoolKeysBatch(ctx, refs)
}

// DeriveNonce() searches nonces upward from zero for the first off curve ["amm authority", [nonce]] address
func (r Registry) DeriveNonce() (crypto.PublicKey, uint8, lib.ErrorI) {
	authority, nonce, err := crypto.FindProgramAddressAscending([][]byte{[]byte(AuthoritySeed)}, r.ProgramId, uint64(r.MaxNonce), func(n uint64) []byte {
		return []byte{byte(n)}
	})
	if err != nil {
		return authority, 0, lib.ErrDerivation("authority of program "+r.ProgramId.String(), err)
	}
	return authority, uint8(nonce), nil
}

// Authority() rebuilds the authority from a known nonce
func (r Registry) Authority(nonce uint8) (crypto.PublicKey, lib.ErrorI) {
	authority, err := crypto.CreateProgramAddress([][]byte{[]byte(AuthoritySeed), {nonce}}, r.ProgramId)
	if err != nil {
		return authority, lib.ErrDerivation("authority of program "+r.ProgramId.String(), err)
	}
	return authority, nil
}

// associated() derives [program, market, seed] under the program
func (r Registry) associated(marketId crypto.PublicKey, seed string) (crypto.PublicKey, lib.ErrorI) {
	pk, _, err := crypto.FindProgramAddress([][]byte{r.ProgramId[:], marketId[:], []byte(seed)}, r.ProgramId)
	if err != nil {
		return pk, lib.ErrDerivation(seed, err)
	}
	return pk, nil
}

// DerivePoolKeys() derives every address of the pool trading baseMint/quoteMint on marketId
func (r Registry) DerivePoolKeys(marketId, baseMint, quoteMint crypto.PublicKey) (keys *PoolKeys, err lib.ErrorI) {
	keys = &PoolKeys{ProgramId: r.ProgramId, MarketId: marketId, BaseMint: baseMint, QuoteMint: quoteMint}
	if keys.Authority, keys.Nonce, err = r.DeriveNonce(); err != nil {
		return nil, err
	}
	for _, a := range []struct {
		seed string
		dst  *crypto.PublicKey
	}{
		{AmmAssociatedSeed, &keys.Id},
		{LpMintAssociatedSeed, &keys.LpMint},
		{CoinVaultAssociatedSeed, &keys.BaseVault},
		{PcVaultAssociatedSeed, &keys.QuoteVault},
		{TempLpTokenAssociatedSeed, &keys.LpVault},
		{OpenOrderAssociatedSeed, &keys.OpenOrders},
		{TargetAssociatedSeed, &keys.TargetOrders},
		{WithdrawQueueAssociatedSeed, &keys.WithdrawQueue},
	} {
		if *a.dst, err = r.associated(marketId, a.seed); err != nil {
			return nil, err
		}
	}
	return
}

// DerivePoolKeysBatch() derives many pools in parallel; the output order matches refs
func (r Registry) DerivePoolKeysBatch(ctx context.Context, refs []MarketRef) ([]*PoolKeys, lib.ErrorI) {
	out := make([]*PoolKeys, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys, err := r.DerivePoolKeys(ref.MarketId, ref.BaseMint, ref.QuoteMint)
			if err != nil {
				return err
			}
			out[i] = keys
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if e, ok := err.(lib.ErrorI); ok {
			return nil, e
		}
		return nil, ErrDerivationCancelled(err)
	}
	return out, nil
}
