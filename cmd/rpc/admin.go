package rpc

import (
	"errors"
	"net/http"

	"github.com/canopy-network/amm/lib/crypto"
	"github.com/julienschmidt/httprouter"
)

var errMissingInstruction = errors.New("missing instruction")

// Transaction() applies an instruction and returns its receipt
func (s *Server) Transaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(instructionRequest)
	if !unmarshal(w, r, req) {
		return
	}
	if req.Instruction == nil {
		write(w, ErrInvalidParams(errMissingInstruction), http.StatusBadRequest)
		return
	}
	receipt, err := s.sm.ApplyInstruction(req.Instruction, req.Signers)
	if err != nil {
		writeError(w, err)
		return
	}
	write(w, receipt, http.StatusOK)
}

// CreateMarket() registers an order book market on the local provider
func (s *Server) CreateMarket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := new(marketRequest)
	if !unmarshal(w, r, req) {
		return
	}
	if req.MarketId.IsZero() {
		req.MarketId = crypto.NewRandomPublicKey()
	}
	m, err := s.sm.CreateMarket(req.MarketId, req.BaseMint, req.QuoteMint, req.BaseLotSize, req.QuoteLotSize)
	if err != nil {
		writeError(w, err)
		return
	}
	write(w, m, http.StatusOK)
}

// Config() returns the node configuration
func (s *Server) Config(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	write(w, s.config, http.StatusOK)
}
