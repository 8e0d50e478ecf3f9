package token

import (
	"github.com/canopy-network/amm/lib"
	"github.com/canopy-network/amm/lib/crypto"
)

// token instruction tags
const (
	TagInitializeMint    uint8 = 0
	TagInitializeAccount uint8 = 1
	TagTransfer          uint8 = 3
	TagMintTo            uint8 = 7
)

// Receipt is the outcome of a token instruction
type Receipt struct {
	Instruction string             `json:"instruction"`
	Accounts    []crypto.PublicKey `json:"accounts"`
	Amount      uint64             `json:"amount,omitempty"`
}

// Process() executes a token instruction against the store
//
//	InitializeMint    accounts: [mint, mintAuthority]          data: decimals u8
//	InitializeAccount accounts: [account, mint, owner]         data: none
//	Transfer          accounts: [source, destination, owner]   data: amount u64; owner signs
//	MintTo            accounts: [mint, destination, authority] data: amount u64; authority signs
//
// Program derived addresses never sign, and new mints and accounts are only opened at on curve addresses here:
// the derived addresses belong to the programs that derive them.
func Process(s lib.RWStoreI, ins *lib.Instruction, signers lib.Signers) (*Receipt, lib.ErrorI) {
	if err := signers.RequireOnCurve(); err != nil {
		return nil, err
	}
	tag, err := ins.Tag()
	if err != nil {
		return nil, err
	}
	if err = ins.RequireAccounts(expectedAccounts(tag)); err != nil {
		return nil, err
	}
	r := lib.NewBinaryReader(ins.Data[1:])
	receipt := &Receipt{Accounts: ins.Accounts[:expectedAccounts(tag)]}
	switch tag {
	case TagInitializeMint:
		decimals := r.ReadU8()
		if err = r.Finish(); err != nil {
			return nil, err
		}
		if err = requireOnCurve(ins.Accounts[0]); err != nil {
			return nil, err
		}
		receipt.Instruction = "initialize_mint"
		_, err = InitializeMint(s, ins.Accounts[0], ins.Accounts[1], decimals)
	case TagInitializeAccount:
		if err = r.Finish(); err != nil {
			return nil, err
		}
		if err = requireOnCurve(ins.Accounts[0]); err != nil {
			return nil, err
		}
		receipt.Instruction = "initialize_account"
		_, err = InitializeAccount(s, ins.Accounts[0], ins.Accounts[1], ins.Accounts[2])
	case TagTransfer:
		receipt.Amount = r.ReadU64()
		if err = r.Finish(); err != nil {
			return nil, err
		}
		if !signers.Contains(ins.Accounts[2]) {
			return nil, ErrMissingSignature(ins.Accounts[2].String())
		}
		receipt.Instruction = "transfer"
		err = Transfer(s, ins.Accounts[0], ins.Accounts[1], ins.Accounts[2], receipt.Amount)
	case TagMintTo:
		receipt.Amount = r.ReadU64()
		if err = r.Finish(); err != nil {
			return nil, err
		}
		if !signers.Contains(ins.Accounts[2]) {
			return nil, ErrMissingSignature(ins.Accounts[2].String())
		}
		receipt.Instruction = "mint_to"
		err = MintTo(s, ins.Accounts[0], ins.Accounts[1], ins.Accounts[2], receipt.Amount)
	default:
		return nil, ErrInvalidTokenInstruction(tag)
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func requireOnCurve(address crypto.PublicKey) lib.ErrorI {
	if !crypto.IsOnCurve(address[:]) {
		return ErrOffCurveAddress(address.String())
	}
	return nil
}

// expectedAccounts() returns how many accounts a tag consumes
func expectedAccounts(tag uint8) int {
	switch tag {
	case TagInitializeMint:
		return 2
	case TagInitializeAccount, TagTransfer, TagMintTo:
		return 3
	default:
		return 0
	}
}

// NewInitializeMintInstruction() builds an InitializeMint call
func NewInitializeMintInstruction(mint, authority crypto.PublicKey, decimals uint8) *lib.Instruction {
	return &lib.Instruction{
		ProgramId: ProgramId,
		Accounts:  []crypto.PublicKey{mint, authority},
		Data:      lib.NewBinaryWriter(2).WriteU8(TagInitializeMint).WriteU8(decimals).Bytes(),
	}
}

// NewInitializeAccountInstruction() builds an InitializeAccount call
func NewInitializeAccountInstruction(account, mint, owner crypto.PublicKey) *lib.Instruction {
	return &lib.Instruction{
		ProgramId: ProgramId,
		Accounts:  []crypto.PublicKey{account, mint, owner},
		Data:      []byte{TagInitializeAccount},
	}
}

// NewTransferInstruction() builds a Transfer call
func NewTransferInstruction(source, dest, owner crypto.PublicKey, amount uint64) *lib.Instruction {
	return &lib.Instruction{
		ProgramId: ProgramId,
		Accounts:  []crypto.PublicKey{source, dest, owner},
		Data:      lib.NewBinaryWriter(9).WriteU8(TagTransfer).WriteU64(amount).Bytes(),
	}
}

// NewMintToInstruction() builds a MintTo call
func NewMintToInstruction(mint, dest, authority crypto.PublicKey, amount uint64) *lib.Instruction {
	return &lib.Instruction{
		ProgramId: ProgramId,
		Accounts:  []crypto.PublicKey{mint, dest, authority},
		Data:      lib.NewBinaryWriter(9).WriteU8(TagMintTo).WriteU64(amount).Bytes(),
	}
}
