package runtime

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func testKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	return key
}

func testHash(seed string) solana.Hash {
	return solana.Hash(sha256.Sum256([]byte(seed)))
}

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	payer := testKey(t).PublicKey()
	other := testKey(t).PublicKey()
	msg := Message{
		Payer:           payer,
		RecentBlockhash: testHash("blockhash"),
		Instructions: []Instruction{
			NewTransferInstruction(payer, other, 42),
			{
				ProgramID: other,
				Accounts: []*solana.AccountMeta{
					{PublicKey: payer, IsSigner: true, IsWritable: true},
					{PublicKey: other},
				},
				Data: []byte{1, 2, 3},
			},
		},
	}

	got, err := DecodeMessage(msg.Encode())
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if !bytes.Equal(got.Encode(), msg.Encode()) {
		t.Fatalf("encoding not canonical after roundtrip")
	}
}

func TestDecodeMessageRejectsMalformed(t *testing.T) {
	payer := testKey(t).PublicKey()
	msg := Message{
		Payer:           payer,
		RecentBlockhash: testHash("bh"),
		Instructions:    []Instruction{NewTransferInstruction(payer, payer, 1)},
	}
	raw := msg.Encode()

	cases := map[string][]byte{
		"empty":     nil,
		"truncated": raw[:len(raw)-3],
		"trailing":  append(append([]byte(nil), raw...), 0xFF),
	}
	for name, bad := range cases {
		if _, err := DecodeMessage(bad); err == nil {
			t.Errorf("%s: expected parse error", name)
		} else if !IsKind(err, KindParse) {
			t.Errorf("%s: expected KindParse, got %v", name, err)
		}
	}
}

func TestSignerKeysPayerFirstDeduped(t *testing.T) {
	payer := testKey(t)
	extra := testKey(t)
	msg := Message{
		Payer:           payer.PublicKey(),
		RecentBlockhash: testHash("bh"),
		Instructions: []Instruction{
			{
				ProgramID: solana.SystemProgramID,
				Accounts: []*solana.AccountMeta{
					{PublicKey: extra.PublicKey(), IsSigner: true},
					{PublicKey: payer.PublicKey(), IsSigner: true},
					{PublicKey: extra.PublicKey(), IsSigner: true},
				},
			},
		},
	}
	keys := msg.SignerKeys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 signer keys, got %d", len(keys))
	}
	if !keys[0].Equals(payer.PublicKey()) {
		t.Fatalf("payer must come first, got %s", keys[0])
	}
	if !keys[1].Equals(extra.PublicKey()) {
		t.Fatalf("expected extra signer second, got %s", keys[1])
	}
}

func TestSignAndVerify(t *testing.T) {
	payer := testKey(t)
	to := testKey(t).PublicKey()
	tx := NewTransaction(payer.PublicKey(), testHash("bh"),
		NewTransferInstruction(payer.PublicKey(), to, 100))

	if err := tx.Sign(payer); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := tx.VerifySignatures(); err != nil {
		t.Fatalf("VerifySignatures: %v", err)
	}
	if tx.Signature().IsZero() {
		t.Fatalf("expected non-zero transaction signature")
	}
}

func TestSignMissingRequiredSigner(t *testing.T) {
	payer := testKey(t)
	extra := testKey(t)
	tx := NewTransaction(payer.PublicKey(), testHash("bh"),
		NewTransferInstruction(extra.PublicKey(), payer.PublicKey(), 1))

	err := tx.Sign(payer)
	if err == nil {
		t.Fatalf("expected error for missing signer")
	}
	if !IsKind(err, KindSignature) {
		t.Fatalf("expected KindSignature, got %v", err)
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	payer := testKey(t)
	to := testKey(t).PublicKey()
	tx := NewTransaction(payer.PublicKey(), testHash("bh"),
		NewTransferInstruction(payer.PublicKey(), to, 100))
	if err := tx.Sign(payer); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tx.Message.Instructions[0].Data[4]++ // bump the lamport amount
	if err := tx.VerifySignatures(); err == nil {
		t.Fatalf("expected verification failure after tamper")
	} else if !IsKind(err, KindSignature) {
		t.Fatalf("expected KindSignature, got %v", err)
	}
}

func TestTransactionWireRoundTrip(t *testing.T) {
	payer := testKey(t)
	to := testKey(t).PublicKey()
	tx := NewTransaction(payer.PublicKey(), testHash("bh"),
		NewTransferInstruction(payer.PublicKey(), to, 7))
	if err := tx.Sign(payer); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	got, err := DecodeTransaction(tx.Encode())
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if got.Signature() != tx.Signature() {
		t.Fatalf("signature changed across the wire")
	}
	if err := got.VerifySignatures(); err != nil {
		t.Fatalf("decoded transaction fails verification: %v", err)
	}
}

func TestDecodeTransactionRejectsZeroSignatures(t *testing.T) {
	raw := []byte{0, 0, 0, 0}
	if _, err := DecodeTransaction(raw); err == nil {
		t.Fatalf("expected error for zero signature count")
	}
}
