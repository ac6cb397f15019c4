package token

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/runtime"
)

// Processor is the token program's native processor.
type Processor struct{}

func (Processor) Name() string { return "token" }

func (Processor) Process(ctx *runtime.ExecContext) error {
	data := ctx.Data()
	if len(data) < 1 {
		return runtime.ErrInvalidInstruction
	}
	switch data[0] {
	case tagInitializeMint:
		return processInitializeMint(ctx, data[1:])
	case tagInitializeAccount:
		return processInitializeAccount(ctx)
	case tagTransfer:
		return processTransfer(ctx, data[1:])
	case tagMintTo:
		return processMintTo(ctx, data[1:])
	default:
		return runtime.ErrInvalidInstruction
	}
}

// loadOwned loads the i-th account and checks the token program owns it.
func loadOwned(ctx *runtime.ExecContext, i int) (solana.PublicKey, *runtime.Account, error) {
	key, err := ctx.Key(i)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	acct, err := ctx.Load(key)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	if !acct.Owner.Equals(ProgramID) {
		return solana.PublicKey{}, nil, runtime.ErrInvalidAccountOwner
	}
	return key, acct, nil
}

func processInitializeMint(ctx *runtime.ExecContext, args []byte) error {
	if len(args) != 1+32 {
		return runtime.ErrInvalidInstruction
	}
	decimals := args[0]
	authority := solana.PublicKeyFromBytes(args[1:33])

	_, acct, err := loadOwned(ctx, 0)
	if err != nil {
		return err
	}
	if len(acct.Data) != MintSize {
		return runtime.ErrInvalidAccountData
	}
	if acct.Data[0] != stateUninitialized {
		return ErrAlreadyInitialized
	}
	copy(acct.Data, EncodeMint(&Mint{Decimals: decimals, Authority: authority}))
	return nil
}

func processInitializeAccount(ctx *runtime.ExecContext) error {
	_, acct, err := loadOwned(ctx, 0)
	if err != nil {
		return err
	}
	mintKey, err := ctx.Key(1)
	if err != nil {
		return err
	}
	ownerKey, err := ctx.Key(2)
	if err != nil {
		return err
	}
	mintAcct, err := ctx.Load(mintKey)
	if err != nil {
		return err
	}
	if _, err := DecodeMint(mintAcct.Data); err != nil {
		return err
	}
	if len(acct.Data) != AccountSize {
		return runtime.ErrInvalidAccountData
	}
	if acct.Data[0] != stateUninitialized {
		return ErrAlreadyInitialized
	}
	copy(acct.Data, EncodeAccount(&Account{Mint: mintKey, Owner: ownerKey}))
	return nil
}

func processTransfer(ctx *runtime.ExecContext, args []byte) error {
	if len(args) != 8 {
		return runtime.ErrInvalidInstruction
	}
	amount := binary.LittleEndian.Uint64(args)

	srcKey, srcAcct, err := loadOwned(ctx, 0)
	if err != nil {
		return err
	}
	dstKey, dstAcct, err := loadOwned(ctx, 1)
	if err != nil {
		return err
	}
	authority, err := ctx.Key(2)
	if err != nil {
		return err
	}

	src, err := DecodeAccount(srcAcct.Data)
	if err != nil {
		return err
	}
	dst, err := DecodeAccount(dstAcct.Data)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(authority) {
		return ErrOwnerMismatch
	}
	if !ctx.IsSigner(authority) {
		return runtime.ErrMissingSignature
	}
	if !src.Mint.Equals(dst.Mint) {
		return ErrMintMismatch
	}
	if src.Amount < amount {
		return ErrInsufficientFunds
	}
	// Source and destination alias the same staged account when they
	// are the same address; writing both encodings would credit the
	// debit away. A self-transfer is balance-preserving.
	if srcKey.Equals(dstKey) {
		return nil
	}
	src.Amount -= amount
	dst.Amount += amount
	copy(srcAcct.Data, EncodeAccount(src))
	copy(dstAcct.Data, EncodeAccount(dst))
	return nil
}

func processMintTo(ctx *runtime.ExecContext, args []byte) error {
	if len(args) != 8 {
		return runtime.ErrInvalidInstruction
	}
	amount := binary.LittleEndian.Uint64(args)

	mintKey, mintAcct, err := loadOwned(ctx, 0)
	if err != nil {
		return err
	}
	_, dstAcct, err := loadOwned(ctx, 1)
	if err != nil {
		return err
	}
	authority, err := ctx.Key(2)
	if err != nil {
		return err
	}

	mint, err := DecodeMint(mintAcct.Data)
	if err != nil {
		return err
	}
	dst, err := DecodeAccount(dstAcct.Data)
	if err != nil {
		return err
	}
	if !mint.Authority.Equals(authority) {
		return ErrOwnerMismatch
	}
	if !ctx.IsSigner(authority) {
		return runtime.ErrMissingSignature
	}
	if !dst.Mint.Equals(mintKey) {
		return ErrMintMismatch
	}
	if mint.Supply+amount < mint.Supply || dst.Amount+amount < dst.Amount {
		return ErrOverflow
	}
	mint.Supply += amount
	dst.Amount += amount
	copy(mintAcct.Data, EncodeMint(mint))
	copy(dstAcct.Data, EncodeAccount(dst))
	return nil
}
