package rpc

import (
	"net/http"

	"github.com/canopy-network/amm/fsm"
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/market"
	"github.com/canopy-network/amm/token"
	"github.com/julienschmidt/httprouter"
)

// Version() returns the software version of the node
func (s *Server) Version(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, SoftwareVersion, http.StatusOK)
}

// Account() returns the raw account at an address plus its decoded body
func (s *Server) Account(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(addressRequest)
	if !unmarshal(w, r, req) {
		return
	}
	acc, err := s.sm.GetAccount(req.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	decoded, err := decodeAccount(acc)
	if err != nil {
		writeError(w, err)
		return
	}
	write(w, &accountResponse{Account: acc, Decoded: decoded}, http.StatusOK)
}

// Pool() returns the record of an initialized or pre-initialized pool
func (s *Server) Pool(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(idRequest)
	if !unmarshal(w, r, req) {
		return
	}
	pool, err := s.sm.GetPool(req.Id)
	if err != nil {
		writeError(w, err)
		return
	}
	write(w, pool, http.StatusOK)
}

// Pools() returns every pool of the program
func (s *Server) Pools(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	pools, err := s.sm.GetPools()
	if err != nil {
		writeError(w, err)
		return
	}
	if pools == nil {
		pools = make([]*fsm.Pool, 0)
	}
	write(w, pools, http.StatusOK)
}

// Keys() derives the address set of the pool for a market and mint pair
func (s *Server) Keys(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(keysRequest)
	if !unmarshal(w, r, req) {
		return
	}
	keys, err := s.sm.DerivePoolKeys(req.MarketId, req.BaseMint, req.QuoteMint)
	if err != nil {
		writeError(w, err)
		return
	}
	write(w, keys, http.StatusOK)
}

// Market() returns a market record
func (s *Server) Market(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(idRequest)
	if !unmarshal(w, r, req) {
		return
	}
	m, err := s.sm.GetMarket(req.Id)
	if err != nil {
		writeError(w, err)
		return
	}
	write(w, m, http.StatusOK)
}

// Quote() simulates an instruction and returns the receipt it would produce without persisting anything
func (s *Server) Quote(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(instructionRequest)
	if !unmarshal(w, r, req) {
		return
	}
	if req.Instruction == nil {
		write(w, ErrInvalidParams(errMissingInstruction), http.StatusBadRequest)
		return
	}
	receipt, err := s.sm.Quote(req.Instruction, req.Signers)
	if err != nil {
		writeError(w, err)
		return
	}
	write(w, receipt, http.StatusOK)
}

// decodeAccount() decodes the data of an account by its kind; unknown kinds decode to nothing
func decodeAccount(acc *lib.Account) (any, lib.ErrorI) {
	switch acc.Kind {
	case lib.AccountKindMint:
		return token.NewMintFromBytes(acc.Address, acc.Data)
	case lib.AccountKindToken:
		return token.NewAccountFromBytes(acc.Address, acc.Data)
	case lib.AccountKindPool:
		return fsm.NewPoolFromBytes(acc.Data)
	case lib.AccountKindTargetOrders, lib.AccountKindWithdrawQueue:
		return fsm.NewPoolRecordFromBytes(acc.Data)
	case lib.AccountKindMarket:
		return market.NewMarketFromBytes(acc.Address, acc.Data)
	case lib.AccountKindOpenOrders:
		return market.NewOpenOrdersFromBytes(acc.Address, acc.Data)
	default:
		return nil, nil
	}
}
