package rpc

import (
	"github.com/canopy-network/amm/fsm"
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
)

// =====================================================
// Request Types
// =====================================================

type addressRequest struct {
	Address crypto.PublicKey `json:"address"`
}

type idRequest struct {
	Id crypto.PublicKey `json:"id"`
}

type keysRequest = fsm.MarketRef

// instructionRequest carries an instruction and the keys that authorized it
type instructionRequest struct {
	Instruction *lib.Instruction `json:"instruction"`
	Signers     lib.Signers      `json:"signers"`
}

// marketRequest creates a market; a zero marketId is replaced by a random one
type marketRequest struct {
	MarketId     crypto.PublicKey `json:"marketId"`
	BaseMint     crypto.PublicKey `json:"baseMint"`
	QuoteMint    crypto.PublicKey `json:"quoteMint"`
	BaseLotSize  uint64           `json:"baseLotSize"`
	QuoteLotSize uint64           `json:"quoteLotSize"`
}

// =====================================================
// Response Types
// =====================================================

// accountResponse is the raw envelope of an account plus its decoded data when the kind is known
type accountResponse struct {
	Account *lib.Account `json:"account"`
	Decoded any          `json:"decoded,omitempty"`
}
