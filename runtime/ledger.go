package runtime

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
)

const (
	// TransactionFee is the flat per-transaction fee debited from the
	// payer, charged even when the transaction fails at the program
	// level.
	TransactionFee = 5000

	// blockhashMaxAge is how many slots a blockhash stays valid.
	blockhashMaxAge = 150

	// faucetLamports funds the genesis faucet.
	faucetLamports = uint64(1) << 62
)

// Program is a native program processor registered on the ledger.
type Program interface {
	Name() string
	Process(ctx *ExecContext) error
}

// Options configures a ledger at genesis.
type Options struct {
	// Now supplies the ledger clock. Defaults to time.Now.
	Now func() time.Time
}

// Ledger is a single-node, synchronously-executing ledger.
type Ledger struct {
	mu       sync.Mutex
	accounts map[solana.PublicKey]*Account
	programs map[solana.PublicKey]Program
	records  map[solana.Signature]*TransactionRecord

	slot      uint64
	blockhash solana.Hash
	recent    map[solana.Hash]uint64

	now    func() time.Time
	faucet solana.PrivateKey
}

// NewLedger creates a ledger with the system program registered and a
// funded genesis faucet.
func NewLedger(opts Options) (*Ledger, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	faucet, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, wrapError(KindInternal, "LEDGER-GEN-001", "faucet key generation failed", err)
	}
	l := &Ledger{
		accounts: make(map[solana.PublicKey]*Account),
		programs: make(map[solana.PublicKey]Program),
		records:  make(map[solana.Signature]*TransactionRecord),
		recent:   make(map[solana.Hash]uint64),
		now:      now,
		faucet:   faucet,
	}
	l.accounts[faucet.PublicKey()] = &Account{Lamports: faucetLamports, Owner: solana.SystemProgramID}
	l.programs[solana.SystemProgramID] = systemProgram{}
	l.accounts[solana.SystemProgramID] = &Account{Lamports: 1, Executable: true}
	l.blockhash = genesisBlockhash()
	l.recent[l.blockhash] = 0
	return l, nil
}

// Register installs a native program at id and marks its account
// executable.
func (l *Ledger) Register(id solana.PublicKey, p Program) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.programs[id] = p
	l.accounts[id] = &Account{Lamports: 1, Executable: true}
}

// LatestBlockhash returns the current blockhash for transaction
// freshness.
func (l *Ledger) LatestBlockhash() solana.Hash {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.blockhash
}

// Slot returns the most recently executed slot.
func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slot
}

// Account returns a copy of the committed account, if present.
func (l *Ledger) Account(key solana.PublicKey) (Account, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[key]
	if !ok {
		return Account{}, false
	}
	return *acct.Clone(), true
}

// Balance returns the committed lamport balance, zero if absent.
func (l *Ledger) Balance(key solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[key]
	if !ok {
		return 0
	}
	return acct.Lamports
}

// Record returns the confirmed record for a transaction signature.
func (l *Ledger) Record(sig solana.Signature) (*TransactionRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[sig]
	return rec.clone(), ok
}

// Airdrop transfers lamports from the genesis faucet to the given
// address, as a regular system transfer transaction.
func (l *Ledger) Airdrop(to solana.PublicKey, lamports uint64) (*TransactionRecord, error) {
	tx := NewTransaction(l.faucet.PublicKey(), l.LatestBlockhash(),
		NewTransferInstruction(l.faucet.PublicKey(), to, lamports))
	if err := tx.Sign(l.faucet); err != nil {
		return nil, err
	}
	return l.Execute(tx)
}

// Execute verifies and runs a transaction, committing all account
// mutations atomically. Program-level failures do not return an error:
// they produce a record with Err set (and the fee still charged).
// An error return means the transaction was rejected outright and no
// record exists.
func (l *Ledger) Execute(tx *Transaction) (*TransactionRecord, error) {
	if err := tx.VerifySignatures(); err != nil {
		return nil, err
	}
	if len(tx.Message.Instructions) == 0 {
		return nil, newError(KindRejected, "LEDGER-REJ-001", "transaction has no instructions")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	sig := tx.Signature()
	if _, dup := l.records[sig]; dup {
		return nil, newError(KindRejected, "LEDGER-REJ-002", "transaction already processed")
	}
	seenAt, known := l.recent[tx.Message.RecentBlockhash]
	if !known || l.slot-seenAt > blockhashMaxAge {
		return nil, newError(KindRejected, "LEDGER-REJ-003", "blockhash not found or expired")
	}
	payer, ok := l.accounts[tx.Message.Payer]
	if !ok || payer.Lamports < TransactionFee {
		return nil, newError(KindRejected, "LEDGER-REJ-004", "payer cannot cover transaction fee")
	}

	l.slot++
	st := &txState{
		ledger:  l,
		staging: make(map[solana.PublicKey]*Account),
		signers: make(map[solana.PublicKey]bool),
		slot:    l.slot,
		unix:    l.now().Unix(),
	}
	for _, key := range tx.Message.SignerKeys() {
		st.signers[key] = true
	}

	stagedPayer := st.load(tx.Message.Payer)
	stagedPayer.Lamports -= TransactionFee

	var execErr string
	for i, in := range tx.Message.Instructions {
		if err := l.runInstruction(st, in); err != nil {
			execErr = fmt.Sprintf("instruction %d: %v", i, err)
			break
		}
	}

	if execErr == "" {
		for key, acct := range st.staging {
			l.accounts[key] = acct
		}
	} else {
		// Roll back everything except the fee.
		l.accounts[tx.Message.Payer].Lamports -= TransactionFee
	}

	l.rotateBlockhash()

	rec := &TransactionRecord{
		Signature: sig.String(),
		Slot:      st.slot,
		BlockTime: st.unix,
		Fee:       TransactionFee,
		Logs:      st.logs,
		Events:    st.events,
		Err:       execErr,
	}
	if execErr != "" {
		rec.Events = nil
	}
	l.records[sig] = rec
	return rec.clone(), nil
}

func (l *Ledger) runInstruction(st *txState, in Instruction) error {
	program, ok := l.programs[in.ProgramID]
	if !ok {
		return newError(KindProgram, "LEDGER-EXE-001", fmt.Sprintf("unknown program %s", in.ProgramID))
	}
	st.logf("Program %s invoke [1]", in.ProgramID)
	ctx := &ExecContext{st: st, programID: in.ProgramID, accounts: in.Accounts, data: in.Data}
	st.depth = 1
	err := program.Process(ctx)
	st.depth = 0
	if err != nil {
		st.logf("Program %s failed: %v", in.ProgramID, err)
		return err
	}
	st.logf("Program %s success", in.ProgramID)
	return nil
}

// rotateBlockhash derives the next blockhash from the previous one and
// the slot, and prunes hashes past the freshness window.
func (l *Ledger) rotateBlockhash() {
	var seed [40]byte
	copy(seed[:32], l.blockhash[:])
	binary.LittleEndian.PutUint64(seed[32:], l.slot)
	l.blockhash = solana.Hash(sha256.Sum256(seed[:]))
	l.recent[l.blockhash] = l.slot
	for h, at := range l.recent {
		if l.slot-at > blockhashMaxAge {
			delete(l.recent, h)
		}
	}
}

func genesisBlockhash() solana.Hash {
	return solana.Hash(sha256.Sum256([]byte("noice-ledger-genesis")))
}
