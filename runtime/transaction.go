package runtime

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Instruction targets one program with an ordered account list and
// opaque program-defined data.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []*solana.AccountMeta
	Data      []byte
}

// Message is the signed payload of a transaction: the fee payer, a
// recent blockhash proving freshness, and the instruction list.
//
// Encode produces canonical bytes: signatures are computed over exactly
// these bytes, and two messages are equal iff their encodings are.
type Message struct {
	Payer           solana.PublicKey
	RecentBlockhash solana.Hash
	Instructions    []Instruction
}

// SignerKeys returns the unique required signers in canonical order:
// the fee payer first, then every IsSigner account meta in first
// appearance order.
func (m *Message) SignerKeys() []solana.PublicKey {
	seen := map[solana.PublicKey]bool{m.Payer: true}
	out := []solana.PublicKey{m.Payer}
	for _, in := range m.Instructions {
		for _, meta := range in.Accounts {
			if !meta.IsSigner || seen[meta.PublicKey] {
				continue
			}
			seen[meta.PublicKey] = true
			out = append(out, meta.PublicKey)
		}
	}
	return out
}

// Encode returns the canonical message bytes.
func (m *Message) Encode() []byte {
	var b bytes.Buffer
	b.Write(m.Payer[:])
	b.Write(m.RecentBlockhash[:])
	putU32(&b, uint32(len(m.Instructions)))
	for _, in := range m.Instructions {
		b.Write(in.ProgramID[:])
		putU32(&b, uint32(len(in.Accounts)))
		for _, meta := range in.Accounts {
			b.Write(meta.PublicKey[:])
			var flags byte
			if meta.IsSigner {
				flags |= 0x01
			}
			if meta.IsWritable {
				flags |= 0x02
			}
			b.WriteByte(flags)
		}
		putU32(&b, uint32(len(in.Data)))
		b.Write(in.Data)
	}
	return b.Bytes()
}

// DecodeMessage parses canonical message bytes.
func DecodeMessage(raw []byte) (*Message, error) {
	r := &byteReader{buf: raw}
	var m Message
	copy(m.Payer[:], r.take(32))
	copy(m.RecentBlockhash[:], r.take(32))
	n := r.u32()
	if n > maxInstructionsPerTx {
		return nil, newError(KindParse, "LEDGER-TX-002", "too many instructions")
	}
	for i := uint32(0); i < n; i++ {
		var in Instruction
		copy(in.ProgramID[:], r.take(32))
		na := r.u32()
		if na > maxAccountsPerInstruction {
			return nil, newError(KindParse, "LEDGER-TX-003", "too many instruction accounts")
		}
		for j := uint32(0); j < na; j++ {
			var meta solana.AccountMeta
			copy(meta.PublicKey[:], r.take(32))
			flags := r.byte()
			meta.IsSigner = flags&0x01 != 0
			meta.IsWritable = flags&0x02 != 0
			in.Accounts = append(in.Accounts, &meta)
		}
		in.Data = append([]byte(nil), r.take(int(r.u32()))...)
		m.Instructions = append(m.Instructions, in)
	}
	if r.failed || r.pos != len(raw) {
		return nil, newError(KindParse, "LEDGER-TX-001", "malformed message bytes")
	}
	return &m, nil
}

// Transaction is a message plus one signature per required signer, in
// SignerKeys order. The first (fee payer) signature, base58 encoded, is
// the transaction's identifier.
type Transaction struct {
	Signatures []solana.Signature
	Message    Message
}

func NewTransaction(payer solana.PublicKey, recent solana.Hash, instrs ...Instruction) *Transaction {
	return &Transaction{Message: Message{
		Payer:           payer,
		RecentBlockhash: recent,
		Instructions:    instrs,
	}}
}

// Sign fills Signatures from the given private keys. Every required
// signer must be covered; extra keys are ignored.
func (tx *Transaction) Sign(signers ...solana.PrivateKey) error {
	byKey := make(map[solana.PublicKey]solana.PrivateKey, len(signers))
	for _, s := range signers {
		byKey[s.PublicKey()] = s
	}
	msg := tx.Message.Encode()
	required := tx.Message.SignerKeys()
	tx.Signatures = tx.Signatures[:0]
	for _, key := range required {
		priv, ok := byKey[key]
		if !ok {
			return newError(KindSignature, "LEDGER-SIG-002", fmt.Sprintf("no private key for required signer %s", key))
		}
		sig, err := priv.Sign(msg)
		if err != nil {
			return wrapError(KindSignature, "LEDGER-SIG-003", "signing failed", err)
		}
		tx.Signatures = append(tx.Signatures, sig)
	}
	return nil
}

// Signature returns the fee payer signature, the transaction id.
func (tx *Transaction) Signature() solana.Signature {
	if len(tx.Signatures) == 0 {
		return solana.Signature{}
	}
	return tx.Signatures[0]
}

// VerifySignatures checks one valid ed25519 signature per required
// signer over the canonical message bytes.
func (tx *Transaction) VerifySignatures() error {
	required := tx.Message.SignerKeys()
	if len(tx.Signatures) != len(required) {
		return newError(KindSignature, "LEDGER-SIG-001",
			fmt.Sprintf("expected %d signatures, got %d", len(required), len(tx.Signatures)))
	}
	msg := tx.Message.Encode()
	for i, key := range required {
		if !ed25519.Verify(ed25519.PublicKey(key[:]), msg, tx.Signatures[i][:]) {
			return newError(KindSignature, "LEDGER-SIG-004",
				fmt.Sprintf("invalid signature for signer %s", key))
		}
	}
	return nil
}

// Encode returns the wire bytes submitted to the ledger service.
func (tx *Transaction) Encode() []byte {
	var b bytes.Buffer
	putU32(&b, uint32(len(tx.Signatures)))
	for _, sig := range tx.Signatures {
		b.Write(sig[:])
	}
	b.Write(tx.Message.Encode())
	return b.Bytes()
}

// DecodeTransaction parses wire bytes produced by Encode.
func DecodeTransaction(raw []byte) (*Transaction, error) {
	r := &byteReader{buf: raw}
	n := r.u32()
	if n == 0 || n > maxSignaturesPerTx {
		return nil, newError(KindParse, "LEDGER-TX-004", "signature count out of range")
	}
	var tx Transaction
	for i := uint32(0); i < n; i++ {
		var sig solana.Signature
		copy(sig[:], r.take(64))
		tx.Signatures = append(tx.Signatures, sig)
	}
	if r.failed {
		return nil, newError(KindParse, "LEDGER-TX-001", "malformed transaction bytes")
	}
	m, err := DecodeMessage(raw[r.pos:])
	if err != nil {
		return nil, err
	}
	tx.Message = *m
	return &tx, nil
}

const (
	maxInstructionsPerTx      = 64
	maxAccountsPerInstruction = 64
	maxSignaturesPerTx        = 16
)

func putU32(b *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.Write(tmp[:])
}

// byteReader consumes little-endian fields and records failure instead
// of panicking, so decoders can do a single trailing check.
type byteReader struct {
	buf    []byte
	pos    int
	failed bool
}

func (r *byteReader) take(n int) []byte {
	if r.failed || n < 0 || n > len(r.buf)-r.pos {
		r.failed = true
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *byteReader) byte() byte {
	b := r.take(1)
	if len(b) != 1 {
		return 0
	}
	return b[0]
}

func (r *byteReader) u32() uint32 {
	b := r.take(4)
	if len(b) != 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}
