// Package token implements the SPL-style token program executed
// natively by the Noice ledger runtime: mints, token accounts, minting
// and transfers. The Noice program invokes it via CPI to move tips and
// paywall payments.
package token

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/runtime"
)

// ProgramID is the address the token program is registered under.
var ProgramID = solana.TokenProgramID

// Instruction tags, matching the SPL token enum discriminants for the
// supported subset.
const (
	tagInitializeMint    byte = 0
	tagInitializeAccount byte = 1
	tagTransfer          byte = 3
	tagMintTo            byte = 7
)

// Account data tags distinguishing the two token account layouts.
const (
	stateUninitialized byte = 0
	stateMint          byte = 1
	stateTokenAccount  byte = 2
)

const (
	// MintSize is the byte size of a mint account's data.
	MintSize = 1 + 1 + 32 + 8
	// AccountSize is the byte size of a token account's data.
	AccountSize = 1 + 32 + 32 + 8
)

// Program-defined errors surfaced in transaction records.
var (
	ErrNotInitialized     = &runtime.ProgramError{Code: 6000, Name: "NotInitialized", Msg: "token account or mint is not initialized"}
	ErrAlreadyInitialized = &runtime.ProgramError{Code: 6001, Name: "AlreadyInitialized", Msg: "token account or mint is already initialized"}
	ErrMintMismatch       = &runtime.ProgramError{Code: 6002, Name: "MintMismatch", Msg: "token accounts belong to different mints"}
	ErrOwnerMismatch      = &runtime.ProgramError{Code: 6003, Name: "OwnerMismatch", Msg: "authority does not own the source account"}
	ErrInsufficientFunds  = &runtime.ProgramError{Code: 6004, Name: "InsufficientFunds", Msg: "insufficient token balance"}
	ErrOverflow           = &runtime.ProgramError{Code: 6005, Name: "Overflow", Msg: "token amount overflows the supply or balance"}
)

// Mint describes a token mint.
type Mint struct {
	Decimals  uint8
	Authority solana.PublicKey
	Supply    uint64
}

// Account is a token holding account for one mint.
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// EncodeMint writes m into a MintSize buffer.
func EncodeMint(m *Mint) []byte {
	out := make([]byte, MintSize)
	out[0] = stateMint
	out[1] = m.Decimals
	copy(out[2:34], m.Authority[:])
	binary.LittleEndian.PutUint64(out[34:42], m.Supply)
	return out
}

// DecodeMint parses mint account data.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) != MintSize || data[0] != stateMint {
		return nil, ErrNotInitialized
	}
	var m Mint
	m.Decimals = data[1]
	m.Authority = solana.PublicKeyFromBytes(data[2:34])
	m.Supply = binary.LittleEndian.Uint64(data[34:42])
	return &m, nil
}

// EncodeAccount writes a into an AccountSize buffer.
func EncodeAccount(a *Account) []byte {
	out := make([]byte, AccountSize)
	out[0] = stateTokenAccount
	copy(out[1:33], a.Mint[:])
	copy(out[33:65], a.Owner[:])
	binary.LittleEndian.PutUint64(out[65:73], a.Amount)
	return out
}

// DecodeAccount parses token account data.
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) != AccountSize || data[0] != stateTokenAccount {
		return nil, ErrNotInitialized
	}
	var a Account
	a.Mint = solana.PublicKeyFromBytes(data[1:33])
	a.Owner = solana.PublicKeyFromBytes(data[33:65])
	a.Amount = binary.LittleEndian.Uint64(data[65:73])
	return &a, nil
}
