package rpc

import (
	"bytes"
	"io"
	"net/http"

	"github.com/canopy-network/amm/fsm"
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
	"github.com/canopy-network/amm/market"
	"github.com/cenkalti/backoff/v4"
)

// Client is a typed caller of the AMM RPC
type Client struct {
	rpcURL  string
	retries uint64 // re-submissions after a txn conflict, or a transport failure on a read
	client  http.Client
}

// NewClient() creates a client for the rpc hosted at rpcURL
func NewClient(rpcURL string, retries uint64) *Client {
	return &Client{rpcURL: rpcURL, retries: retries, client: http.Client{}}
}

func (c *Client) Version() (version *string, err lib.ErrorI) {
	version = new(string)
	err = c.get(VersionRouteName, version)
	return
}

// Transaction() submits an instruction signed by signers
func (c *Client) Transaction(ins *lib.Instruction, signers ...crypto.PublicKey) (r *fsm.Receipt, err lib.ErrorI) {
	r = new(fsm.Receipt)
	err = c.post(TxRouteName, instructionRequest{Instruction: ins, Signers: signers}, r)
	return
}

// Quote() simulates an instruction without persisting it
func (c *Client) Quote(ins *lib.Instruction, signers ...crypto.PublicKey) (r *fsm.Receipt, err lib.ErrorI) {
	r = new(fsm.Receipt)
	err = c.post(QuoteRouteName, instructionRequest{Instruction: ins, Signers: signers}, r)
	return
}

func (c *Client) Account(address crypto.PublicKey) (a *lib.Account, err lib.ErrorI) {
	resp := new(accountResponse)
	if err = c.post(AccountRouteName, addressRequest{Address: address}, resp); err != nil {
		return nil, err
	}
	return resp.Account, nil
}

func (c *Client) Pool(id crypto.PublicKey) (p *fsm.Pool, err lib.ErrorI) {
	p = new(fsm.Pool)
	err = c.post(PoolRouteName, idRequest{Id: id}, p)
	return
}

func (c *Client) Pools() (p []*fsm.Pool, err lib.ErrorI) {
	err = c.post(PoolsRouteName, struct{}{}, &p)
	return
}

func (c *Client) Keys(marketId, baseMint, quoteMint crypto.PublicKey) (k *fsm.PoolKeys, err lib.ErrorI) {
	k = new(fsm.PoolKeys)
	err = c.post(KeysRouteName, keysRequest{MarketId: marketId, BaseMint: baseMint, QuoteMint: quoteMint}, k)
	return
}

func (c *Client) Market(id crypto.PublicKey) (m *market.Market, err lib.ErrorI) {
	m = new(market.Market)
	err = c.post(MarketRouteName, idRequest{Id: id}, m)
	return
}

// CreateMarket() registers a market; a zero marketId lets the node pick one
func (c *Client) CreateMarket(marketId, baseMint, quoteMint crypto.PublicKey, baseLotSize, quoteLotSize uint64) (m *market.Market, err lib.ErrorI) {
	m = new(market.Market)
	err = c.post(CreateMarketRouteName, marketRequest{
		MarketId:     marketId,
		BaseMint:     baseMint,
		QuoteMint:    quoteMint,
		BaseLotSize:  baseLotSize,
		QuoteLotSize: quoteLotSize,
	}, m)
	return
}

func (c *Client) Config() (conf *lib.Config, err lib.ErrorI) {
	conf = new(lib.Config)
	err = c.get(ConfigRouteName, conf)
	return
}

func (c *Client) post(routeName string, request any, ptr any) lib.ErrorI {
	bz, err := lib.MarshalJSON(request)
	if err != nil {
		return err
	}
	return c.retry(routeName, func() lib.ErrorI {
		resp, e := c.client.Post(c.url(routeName), ApplicationJSON, bytes.NewBuffer(bz))
		if e != nil {
			return lib.ErrPostRequest(e)
		}
		return c.unmarshal(resp, ptr)
	})
}

func (c *Client) get(routeName string, ptr any) lib.ErrorI {
	return c.retry(routeName, func() lib.ErrorI {
		resp, e := c.client.Get(c.url(routeName))
		if e != nil {
			return lib.ErrGetRequest(e)
		}
		return c.unmarshal(resp, ptr)
	})
}

// retry() runs call with exponential backoff while its failures are retryable
func (c *Client) retry(routeName string, call func() lib.ErrorI) (err lib.ErrorI) {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries)
	_ = backoff.Retry(func() error {
		if err = call(); err == nil {
			return nil
		}
		if retryable(routeName, err.Code()) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	return
}

// writeRoutes change state when the node accepts them
var writeRoutes = map[string]bool{TxRouteName: true, CreateMarketRouteName: true}

// retryable() reports whether a failed call to routeName may be sent again: a txn conflict means nothing was
// committed, but a transport failure on a write may hide a commit
func retryable(routeName string, code lib.ErrorCode) bool {
	switch code {
	case lib.CodeTxnConflict:
		return true
	case lib.CodePostRequest, lib.CodeGetRequest:
		return !writeRoutes[routeName]
	}
	return false
}

func (c *Client) unmarshal(resp *http.Response, ptr any) lib.ErrorI {
	defer func() { _ = resp.Body.Close() }()
	bz, err := io.ReadAll(resp.Body)
	if err != nil {
		return lib.ErrReadBody(err)
	}
	if resp.StatusCode != http.StatusOK {
		// handlers reply with a typed error; anything else is reported by status
		e := new(lib.Error)
		if lib.UnmarshalJSON(bz, e) == nil && e.ECode != 0 {
			return e
		}
		return lib.ErrHttpStatus(resp.Status, resp.StatusCode, bz)
	}
	return lib.UnmarshalJSON(bz, ptr)
}

func (c *Client) url(routeName string) string {
	return c.rpcURL + routePaths[routeName].Path
}
