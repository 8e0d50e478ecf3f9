package lib

import (
	"fmt"

	"github.com/canopy-network/amm/lib/crypto"
)

/*
	An instruction is addressed to a program and carries its accounts by position plus an opaque data payload whose
	first byte is the instruction tag. Signers travel beside the instruction as a plain set of public keys; this node
	does not verify signatures and trusts whoever submits the set, except that an off curve key (a program derived
	address) is never accepted as a signer: only its program may act for it.
*/

// Instruction is a single program call
type Instruction struct {
	ProgramId crypto.PublicKey   `json:"programId"`
	Accounts  []crypto.PublicKey `json:"accounts"`
	Data      []byte             `json:"data"`
}

// Account() returns the account at position i
func (x *Instruction) Account(i int) (crypto.PublicKey, ErrorI) {
	if i < 0 || i >= len(x.Accounts) {
		return crypto.PublicKey{}, ErrInstructionAccounts(i+1, len(x.Accounts))
	}
	return x.Accounts[i], nil
}

// RequireAccounts() ensures at least n accounts were supplied
func (x *Instruction) RequireAccounts(n int) ErrorI {
	if len(x.Accounts) < n {
		return ErrInstructionAccounts(n, len(x.Accounts))
	}
	return nil
}

// Tag() returns the first data byte
func (x *Instruction) Tag() (uint8, ErrorI) {
	if len(x.Data) == 0 {
		return 0, ErrUnmarshal(fmt.Errorf("empty instruction data"))
	}
	return x.Data[0], nil
}

// Signers is the set of keys that authorized an instruction
type Signers []crypto.PublicKey

// Contains() reports whether pk signed
func (s Signers) Contains(pk crypto.PublicKey) bool {
	for _, signer := range s {
		if signer == pk {
			return true
		}
	}
	return false
}

// RequireOnCurve() rejects the set if any signer is a program derived address
func (s Signers) RequireOnCurve() ErrorI {
	for _, signer := range s {
		if !crypto.IsOnCurve(signer[:]) {
			return ErrOffCurveSigner(signer.String())
		}
	}
	return nil
}
