package market

import (
	"encoding/binary"

	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/token"
)

/*
	The market provider stands in for an order book program. It keeps the plain market record a pool needs (mints,
	vaults, queues and lot sizes) plus per-owner open orders whose free balances can be settled back to the owner.
	There is no matching engine: free balances only grow through Credit().

	Every function takes the store it works on so that market writes join the caller's transaction.
*/

const MaxVaultSignerNonce = 255 // upper bound (inclusive) of the vault signer nonce search

const (
	marketSize     = 7*crypto.PublicKeySize + 3*8 // mints, vaults, queues, nonce, lot sizes
	openOrdersSize = 2*crypto.PublicKeySize + 2*8 // market, owner, free balances
)

// Market is the plain record of an order book
type Market struct {
	Address          crypto.PublicKey `json:"address"`
	BaseMint         crypto.PublicKey `json:"baseMint"`
	QuoteMint        crypto.PublicKey `json:"quoteMint"`
	BaseVault        crypto.PublicKey `json:"baseVault"`
	QuoteVault       crypto.PublicKey `json:"quoteVault"`
	Bids             crypto.PublicKey `json:"bids"`
	Asks             crypto.PublicKey `json:"asks"`
	EventQueue       crypto.PublicKey `json:"eventQueue"`
	VaultSignerNonce uint64           `json:"vaultSignerNonce"`
	BaseLotSize      uint64           `json:"baseLotSize"`
	QuoteLotSize     uint64           `json:"quoteLotSize"`
}

// Bytes() encodes the market data
func (m *Market) Bytes() []byte {
	return lib.NewBinaryWriter(marketSize).
		WritePublicKey(m.BaseMint).WritePublicKey(m.QuoteMint).
		WritePublicKey(m.BaseVault).WritePublicKey(m.QuoteVault).
		WritePublicKey(m.Bids).WritePublicKey(m.Asks).WritePublicKey(m.EventQueue).
		WriteU64(m.VaultSignerNonce).WriteU64(m.BaseLotSize).WriteU64(m.QuoteLotSize).Bytes()
}

// NewMarketFromBytes() decodes market data
func NewMarketFromBytes(address crypto.PublicKey, bz []byte) (*Market, lib.ErrorI) {
	r := lib.NewBinaryReader(bz)
	m := &Market{
		Address:          address,
		BaseMint:         r.ReadPublicKey(),
		QuoteMint:        r.ReadPublicKey(),
		BaseVault:        r.ReadPublicKey(),
		QuoteVault:       r.ReadPublicKey(),
		Bids:             r.ReadPublicKey(),
		Asks:             r.ReadPublicKey(),
		EventQueue:       r.ReadPublicKey(),
		VaultSignerNonce: r.ReadU64(),
		BaseLotSize:      r.ReadU64(),
		QuoteLotSize:     r.ReadU64(),
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// OpenOrders holds the balances a market owes one owner
type OpenOrders struct {
	Address   crypto.PublicKey `json:"address"`
	Market    crypto.PublicKey `json:"market"`
	Owner     crypto.PublicKey `json:"owner"`
	BaseFree  uint64           `json:"baseFree"`
	QuoteFree uint64           `json:"quoteFree"`
}

// Bytes() encodes the open orders data
func (o *OpenOrders) Bytes() []byte {
	return lib.NewBinaryWriter(openOrdersSize).WritePublicKey(o.Market).WritePublicKey(o.Owner).
		WriteU64(o.BaseFree).WriteU64(o.QuoteFree).Bytes()
}

// NewOpenOrdersFromBytes() decodes open orders data
func NewOpenOrdersFromBytes(address crypto.PublicKey, bz []byte) (*OpenOrders, lib.ErrorI) {
	r := lib.NewBinaryReader(bz)
	o := &OpenOrders{Address: address, Market: r.ReadPublicKey(), Owner: r.ReadPublicKey(), BaseFree: r.ReadU64(), QuoteFree: r.ReadU64()}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return o, nil
}

// Provider implements the market operations for one order book program
type Provider struct {
	ProgramId crypto.PublicKey
}

// NewProvider() returns a provider for the program
func NewProvider(programId crypto.PublicKey) *Provider { return &Provider{ProgramId: programId} }

// VaultSignerNonce() finds the smallest nonce whose [market, nonce_le_u64] address is off curve
func VaultSignerNonce(programId, marketId crypto.PublicKey) (signer crypto.PublicKey, nonce uint64, err lib.ErrorI) {
	signer, nonce, e := crypto.FindProgramAddressAscending([][]byte{marketId[:]}, programId, MaxVaultSignerNonce, func(n uint64) []byte {
		return binary.LittleEndian.AppendUint64(nil, n)
	})
	if e != nil {
		return signer, 0, lib.ErrDerivation("vault signer of market "+marketId.String(), e)
	}
	return
}

// VaultSigner() rebuilds the vault signer of a stored market
func (p *Provider) VaultSigner(m *Market) (crypto.PublicKey, lib.ErrorI) {
	signer, e := crypto.CreateProgramAddress([][]byte{m.Address[:], binary.LittleEndian.AppendUint64(nil, m.VaultSignerNonce)}, p.ProgramId)
	if e != nil {
		return signer, lib.ErrDerivation("vault signer of market "+m.Address.String(), e)
	}
	return signer, nil
}

// associated() derives a market owned address from a label
func (p *Provider) associated(marketId crypto.PublicKey, label string) (crypto.PublicKey, lib.ErrorI) {
	pk, _, e := crypto.FindProgramAddress([][]byte{marketId[:], []byte(label)}, p.ProgramId)
	if e != nil {
		return pk, lib.ErrDerivation(label, e)
	}
	return pk, nil
}

// CreateMarket() registers a market for two existing mints and opens its vaults under the vault signer
func (p *Provider) CreateMarket(s lib.RWStoreI, marketId, baseMint, quoteMint crypto.PublicKey, baseLotSize, quoteLotSize uint64) (m *Market, err lib.ErrorI) {
	if baseMint == quoteMint {
		return nil, ErrIdenticalMarketMint()
	}
	if baseLotSize == 0 || quoteLotSize == 0 {
		return nil, ErrInvalidLotSize()
	}
	existing, err := lib.GetRawAccount(s, marketId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrMarketExists(marketId.String())
	}
	signer, nonce, err := VaultSignerNonce(p.ProgramId, marketId)
	if err != nil {
		return nil, err
	}
	m = &Market{Address: marketId, BaseMint: baseMint, QuoteMint: quoteMint, VaultSignerNonce: nonce, BaseLotSize: baseLotSize, QuoteLotSize: quoteLotSize}
	// derive every market owned address
	for label, dst := range map[string]*crypto.PublicKey{
		"base_vault": &m.BaseVault, "quote_vault": &m.QuoteVault, "bids": &m.Bids, "asks": &m.Asks, "event_queue": &m.EventQueue,
	} {
		if *dst, err = p.associated(marketId, label); err != nil {
			return nil, err
		}
	}
	if _, err = token.InitializeAccount(s, m.BaseVault, baseMint, signer); err != nil {
		return nil, err
	}
	if _, err = token.InitializeAccount(s, m.QuoteVault, quoteMint, signer); err != nil {
		return nil, err
	}
	return m, lib.SetAccountData(s, marketId, p.ProgramId, lib.AccountKindMarket, m.Bytes())
}

// LoadMarket() reads a market record
func (p *Provider) LoadMarket(s lib.RStoreI, marketId crypto.PublicKey) (*Market, lib.ErrorI) {
	bz, err := lib.GetAccountData(s, marketId, p.ProgramId, lib.AccountKindMarket)
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, ErrMarketNotFound(marketId.String())
	}
	return NewMarketFromBytes(marketId, bz)
}

// GetOpenOrders() reads an open orders record
func (p *Provider) GetOpenOrders(s lib.RStoreI, address crypto.PublicKey) (*OpenOrders, lib.ErrorI) {
	bz, err := lib.GetAccountData(s, address, p.ProgramId, lib.AccountKindOpenOrders)
	if err != nil {
		return nil, err
	}
	if bz == nil {
		return nil, ErrOpenOrdersNotFound(address.String())
	}
	return NewOpenOrdersFromBytes(address, bz)
}

// setOpenOrders() persists an open orders record
func (p *Provider) setOpenOrders(s lib.RWStoreI, o *OpenOrders) lib.ErrorI {
	return lib.SetAccountData(s, o.Address, p.ProgramId, lib.AccountKindOpenOrders, o.Bytes())
}

// InitOpenOrders() registers an empty open orders account for owner on the market
func (p *Provider) InitOpenOrders(s lib.RWStoreI, marketId, address, owner crypto.PublicKey) (*OpenOrders, lib.ErrorI) {
	if _, err := p.LoadMarket(s, marketId); err != nil {
		return nil, err
	}
	existing, err := lib.GetRawAccount(s, address)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOpenOrdersExists(address.String())
	}
	o := &OpenOrders{Address: address, Market: marketId, Owner: owner}
	return o, p.setOpenOrders(s, o)
}

// loadOwned() loads open orders and checks they belong to the market and owner
func (p *Provider) loadOwned(s lib.RStoreI, marketId, address, owner crypto.PublicKey) (*Market, *OpenOrders, lib.ErrorI) {
	m, err := p.LoadMarket(s, marketId)
	if err != nil {
		return nil, nil, err
	}
	o, err := p.GetOpenOrders(s, address)
	if err != nil {
		return nil, nil, err
	}
	if o.Market != marketId {
		return nil, nil, ErrOpenOrdersMarket(address.String(), marketId.String())
	}
	if o.Owner != owner {
		return nil, nil, token.ErrInvalidAccountOwner(address.String())
	}
	return m, o, nil
}

// Credit() moves funds from a holder into the market vaults and books them as free balances of the open orders;
// it stands in for fills the order book would otherwise produce
func (p *Provider) Credit(s lib.RWStoreI, marketId, address, baseSource, quoteSource, sourceOwner crypto.PublicKey, base, quote uint64) lib.ErrorI {
	m, err := p.LoadMarket(s, marketId)
	if err != nil {
		return err
	}
	o, err := p.GetOpenOrders(s, address)
	if err != nil {
		return err
	}
	if o.Market != marketId {
		return ErrOpenOrdersMarket(address.String(), marketId.String())
	}
	if base != 0 {
		if err = token.Transfer(s, baseSource, m.BaseVault, sourceOwner, base); err != nil {
			return err
		}
	}
	if quote != 0 {
		if err = token.Transfer(s, quoteSource, m.QuoteVault, sourceOwner, quote); err != nil {
			return err
		}
	}
	o.BaseFree += base
	o.QuoteFree += quote
	return p.setOpenOrders(s, o)
}

// SettleOpenOrders() pays every free balance of the open orders out of the market vaults to the owner's wallets
func (p *Provider) SettleOpenOrders(s lib.RWStoreI, marketId, address, owner, baseWallet, quoteWallet crypto.PublicKey) (base, quote uint64, err lib.ErrorI) {
	m, o, err := p.loadOwned(s, marketId, address, owner)
	if err != nil {
		return 0, 0, err
	}
	if o.BaseFree == 0 && o.QuoteFree == 0 {
		return 0, 0, nil
	}
	signer, err := p.VaultSigner(m)
	if err != nil {
		return 0, 0, err
	}
	if o.BaseFree != 0 {
		if err = token.Transfer(s, m.BaseVault, baseWallet, signer, o.BaseFree); err != nil {
			return 0, 0, err
		}
	}
	if o.QuoteFree != 0 {
		if err = token.Transfer(s, m.QuoteVault, quoteWallet, signer, o.QuoteFree); err != nil {
			return 0, 0, err
		}
	}
	base, quote = o.BaseFree, o.QuoteFree
	o.BaseFree, o.QuoteFree = 0, 0
	return base, quote, p.setOpenOrders(s, o)
}
