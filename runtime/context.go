package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// maxInvokeDepth bounds cross-program invocation nesting, matching the
// target chain's limit.
const maxInvokeDepth = 4

// txState is the per-transaction execution state shared by the outer
// instruction contexts and any CPI contexts they spawn.
type txState struct {
	ledger  *Ledger
	staging map[solana.PublicKey]*Account
	signers map[solana.PublicKey]bool
	logs    []string
	events  []Event
	slot    uint64
	unix    int64
	depth   int
}

// load returns the staged copy of an account, cloning it out of the
// committed state on first touch. Returns nil if the account does not
// exist anywhere.
func (st *txState) load(key solana.PublicKey) *Account {
	if acct, ok := st.staging[key]; ok {
		return acct
	}
	committed, ok := st.ledger.accounts[key]
	if !ok {
		return nil
	}
	acct := committed.Clone()
	st.staging[key] = acct
	return acct
}

// ExecContext is the view a program processor gets of one instruction:
// its account metas, its data, and the transaction-scoped ledger
// staging area.
type ExecContext struct {
	st        *txState
	programID solana.PublicKey
	accounts  []*solana.AccountMeta
	data      []byte
}

// ProgramID returns the executing program's address.
func (ctx *ExecContext) ProgramID() solana.PublicKey { return ctx.programID }

// Data returns the raw instruction data.
func (ctx *ExecContext) Data() []byte { return ctx.data }

// NumAccounts returns the instruction's account count.
func (ctx *ExecContext) NumAccounts() int { return len(ctx.accounts) }

// Meta returns the i-th account meta, or ErrNotEnoughKeys.
func (ctx *ExecContext) Meta(i int) (*solana.AccountMeta, error) {
	if i < 0 || i >= len(ctx.accounts) {
		return nil, ErrNotEnoughKeys
	}
	return ctx.accounts[i], nil
}

// Key returns the i-th account address, or ErrNotEnoughKeys.
func (ctx *ExecContext) Key(i int) (solana.PublicKey, error) {
	meta, err := ctx.Meta(i)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return meta.PublicKey, nil
}

// IsSigner reports whether the transaction carries a verified signature
// for key.
func (ctx *ExecContext) IsSigner(key solana.PublicKey) bool {
	return ctx.st.signers[key]
}

// Exists reports whether the account exists on the ledger (staged view).
func (ctx *ExecContext) Exists(key solana.PublicKey) bool {
	acct := ctx.st.load(key)
	return acct != nil && (acct.Lamports > 0 || len(acct.Data) > 0)
}

// Load returns the staged, mutable account for key. Mutations become
// visible to later instructions and are committed only if the whole
// transaction succeeds.
func (ctx *ExecContext) Load(key solana.PublicKey) (*Account, error) {
	acct := ctx.st.load(key)
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	return acct, nil
}

// CreateAccount creates a program-owned account at a program derived
// address. seeds must include the bump byte and derive exactly key for
// the executing program. The payer must be a transaction signer and
// funds the rent-exempt minimum for space.
func (ctx *ExecContext) CreateAccount(key solana.PublicKey, space uint64, owner, payer solana.PublicKey, seeds [][]byte) error {
	derived, err := solana.CreateProgramAddress(seeds, ctx.programID)
	if err != nil || !derived.Equals(key) {
		return ErrInvalidSeeds
	}
	if !ctx.IsSigner(payer) {
		return ErrMissingSignature
	}
	if ctx.Exists(key) {
		return ErrAccountAlreadyInUse
	}
	rent := RentExemptMinimum(space)
	from, err := ctx.Load(payer)
	if err != nil {
		return err
	}
	if from.Lamports < rent {
		return ErrInsufficientFunds
	}
	from.Lamports -= rent
	ctx.st.staging[key] = &Account{
		Lamports: rent,
		Owner:    owner,
		Data:     make([]byte, space),
	}
	return nil
}

// Invoke executes a cross-program invocation within the current
// transaction. Signer privileges are those of the outer transaction.
func (ctx *ExecContext) Invoke(in Instruction) error {
	if ctx.st.depth+1 > maxInvokeDepth {
		return newError(KindProgram, "LEDGER-CPI-001", "max invoke depth exceeded")
	}
	program, ok := ctx.st.ledger.programs[in.ProgramID]
	if !ok {
		return newError(KindProgram, "LEDGER-CPI-002", fmt.Sprintf("unknown program %s", in.ProgramID))
	}
	ctx.st.logf("Program %s invoke [%d]", in.ProgramID, ctx.st.depth+1)
	inner := &ExecContext{st: ctx.st, programID: in.ProgramID, accounts: in.Accounts, data: in.Data}
	ctx.st.depth++
	err := program.Process(inner)
	ctx.st.depth--
	if err != nil {
		ctx.st.logf("Program %s failed: %v", in.ProgramID, err)
		return err
	}
	ctx.st.logf("Program %s success", in.ProgramID)
	return nil
}

// Logf appends a program log line to the transaction record.
func (ctx *ExecContext) Logf(format string, args ...any) {
	ctx.st.logf("Program log: "+format, args...)
}

// Emit appends a named event, JSON-encoded, to the transaction record.
func (ctx *ExecContext) Emit(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return wrapError(KindInternal, "LEDGER-EVT-001", "event encoding failed", err)
	}
	ctx.st.events = append(ctx.st.events, Event{Name: name, Data: raw})
	return nil
}

// UnixTimestamp returns the ledger clock at execution time.
func (ctx *ExecContext) UnixTimestamp() int64 { return ctx.st.unix }

// Slot returns the slot the transaction lands in.
func (ctx *ExecContext) Slot() uint64 { return ctx.st.slot }

func (st *txState) logf(format string, args ...any) {
	st.logs = append(st.logs, fmt.Sprintf(format, args...))
}
