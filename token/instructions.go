package token

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/runtime"
)

// NewInitializeMintInstruction initializes a mint account previously
// created with MintSize data owned by the token program.
func NewInitializeMintInstruction(mint solana.PublicKey, decimals uint8, authority solana.PublicKey) runtime.Instruction {
	data := make([]byte, 1+1+32)
	data[0] = tagInitializeMint
	data[1] = decimals
	copy(data[2:], authority[:])
	return runtime.Instruction{
		ProgramID: ProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: mint, IsWritable: true},
		},
		Data: data,
	}
}

// NewInitializeAccountInstruction initializes a token account for mint
// held by owner.
func NewInitializeAccountInstruction(account, mint, owner solana.PublicKey) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: ProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: account, IsWritable: true},
			{PublicKey: mint},
			{PublicKey: owner},
		},
		Data: []byte{tagInitializeAccount},
	}
}

// NewTransferInstruction moves amount tokens between two accounts of
// the same mint. The source owner must sign.
func NewTransferInstruction(source, destination, owner solana.PublicKey, amount uint64) runtime.Instruction {
	data := make([]byte, 1+8)
	data[0] = tagTransfer
	binary.LittleEndian.PutUint64(data[1:], amount)
	return runtime.Instruction{
		ProgramID: ProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: source, IsWritable: true},
			{PublicKey: destination, IsWritable: true},
			{PublicKey: owner, IsSigner: true},
		},
		Data: data,
	}
}

// NewMintToInstruction mints amount new tokens to destination. The mint
// authority must sign.
func NewMintToInstruction(mint, destination, authority solana.PublicKey, amount uint64) runtime.Instruction {
	data := make([]byte, 1+8)
	data[0] = tagMintTo
	binary.LittleEndian.PutUint64(data[1:], amount)
	return runtime.Instruction{
		ProgramID: ProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: mint, IsWritable: true},
			{PublicKey: destination, IsWritable: true},
			{PublicKey: authority, IsSigner: true},
		},
		Data: data,
	}
}
