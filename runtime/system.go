package runtime

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// System program instruction tags, matching the target chain's
// enum discriminants for the subset the runtime supports.
const (
	sysCreateAccount uint32 = 0
	sysTransfer      uint32 = 2
)

// systemProgram implements account creation and lamport transfers. It
// is registered at genesis under solana.SystemProgramID.
type systemProgram struct{}

func (systemProgram) Name() string { return "system" }

func (systemProgram) Process(ctx *ExecContext) error {
	data := ctx.Data()
	if len(data) < 4 {
		return ErrInvalidInstruction
	}
	tag := binary.LittleEndian.Uint32(data[:4])
	args := data[4:]
	switch tag {
	case sysCreateAccount:
		return processCreateAccount(ctx, args)
	case sysTransfer:
		return processTransfer(ctx, args)
	default:
		return ErrInvalidInstruction
	}
}

func processCreateAccount(ctx *ExecContext, args []byte) error {
	if len(args) != 8+8+32 {
		return ErrInvalidInstruction
	}
	lamports := binary.LittleEndian.Uint64(args[0:8])
	space := binary.LittleEndian.Uint64(args[8:16])
	owner := solana.PublicKeyFromBytes(args[16:48])

	funder, err := ctx.Key(0)
	if err != nil {
		return err
	}
	newKey, err := ctx.Key(1)
	if err != nil {
		return err
	}
	// Both the funder and the created account must sign.
	if !ctx.IsSigner(funder) || !ctx.IsSigner(newKey) {
		return ErrMissingSignature
	}
	if ctx.Exists(newKey) {
		return ErrAccountAlreadyInUse
	}
	if lamports < RentExemptMinimum(space) {
		return ErrAccountNotRentExempt
	}
	from, err := ctx.Load(funder)
	if err != nil {
		return err
	}
	if from.Lamports < lamports {
		return ErrInsufficientFunds
	}
	from.Lamports -= lamports
	ctx.st.staging[newKey] = &Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     make([]byte, space),
	}
	return nil
}

func processTransfer(ctx *ExecContext, args []byte) error {
	if len(args) != 8 {
		return ErrInvalidInstruction
	}
	lamports := binary.LittleEndian.Uint64(args)

	fromKey, err := ctx.Key(0)
	if err != nil {
		return err
	}
	toKey, err := ctx.Key(1)
	if err != nil {
		return err
	}
	if !ctx.IsSigner(fromKey) {
		return ErrMissingSignature
	}
	from, err := ctx.Load(fromKey)
	if err != nil {
		return err
	}
	if from.Lamports < lamports {
		return ErrInsufficientFunds
	}
	// Transfers to a nonexistent address create a system account.
	to := ctx.st.load(toKey)
	if to == nil {
		to = &Account{Owner: solana.SystemProgramID}
		ctx.st.staging[toKey] = to
	}
	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

// NewCreateAccountInstruction builds a system create_account
// instruction. Both funder and newAccount must sign the transaction.
func NewCreateAccountInstruction(funder, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey) Instruction {
	var b bytes.Buffer
	putU32(&b, sysCreateAccount)
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], lamports)
	b.Write(u64[:])
	binary.LittleEndian.PutUint64(u64[:], space)
	b.Write(u64[:])
	b.Write(owner[:])
	return Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: funder, IsSigner: true, IsWritable: true},
			{PublicKey: newAccount, IsSigner: true, IsWritable: true},
		},
		Data: b.Bytes(),
	}
}

// NewTransferInstruction builds a system lamport transfer.
func NewTransferInstruction(from, to solana.PublicKey, lamports uint64) Instruction {
	var b bytes.Buffer
	putU32(&b, sysTransfer)
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], lamports)
	b.Write(u64[:])
	return Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: from, IsSigner: true, IsWritable: true},
			{PublicKey: to, IsWritable: true},
		},
		Data: b.Bytes(),
	}
}
