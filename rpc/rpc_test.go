package rpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"noice.so/noice/cidutil"
	"noice.so/noice/runtime"
	"noice.so/noice/storage"
)

func startService(t *testing.T) (*Client, *runtime.Ledger, *storage.Memory) {
	t.Helper()
	ledger, err := runtime.NewLedger(runtime.Options{Now: func() time.Time { return time.Unix(1_700_000_000, 0) }})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	archive := storage.NewMemory()

	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterLedgerServer(srv, &Server{Ledger: ledger, Archive: archive})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	t.Cleanup(func() { _ = cc.Close() })

	client := NewClient(cc)
	client.Timeout = 2 * time.Second
	return client, ledger, archive
}

func TestLedgerServiceRoundTrip(t *testing.T) {
	client, _, archive := startService(t)
	ctx := context.Background()

	wallet, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	const fund = 5_000_000_000

	airdropSig, err := client.RequestAirdrop(ctx, wallet.PublicKey(), fund)
	if err != nil {
		t.Fatalf("RequestAirdrop: %v", err)
	}
	if airdropSig.IsZero() {
		t.Fatalf("expected airdrop signature")
	}
	if got, err := client.Balance(ctx, wallet.PublicKey()); err != nil || got != fund {
		t.Fatalf("Balance = %d, %v", got, err)
	}

	blockhash, err := client.LatestBlockhash(ctx)
	if err != nil {
		t.Fatalf("LatestBlockhash: %v", err)
	}

	to, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	tx := runtime.NewTransaction(wallet.PublicKey(), blockhash,
		runtime.NewTransferInstruction(wallet.PublicKey(), to.PublicKey(), 1_000_000))
	if err := tx.Sign(wallet); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig, err := client.Submit(ctx, tx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rec, err := client.Transaction(ctx, sig)
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if rec.Failed() {
		t.Fatalf("transfer failed: %s", rec.Err)
	}
	if rec.Signature != sig.String() {
		t.Fatalf("record signature = %s, want %s", rec.Signature, sig)
	}

	info, err := client.Account(ctx, to.PublicKey())
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if info.Lamports != 1_000_000 {
		t.Fatalf("account lamports = %d", info.Lamports)
	}

	// The confirmed record landed in the archive under its content id.
	raw, err := rec.CanonicalBytes()
	if err != nil {
		t.Fatalf("CanonicalBytes: %v", err)
	}
	id, err := cidutil.RecordCID(raw)
	if err != nil {
		t.Fatalf("RecordCID: %v", err)
	}
	if !archive.Has(id) {
		t.Fatalf("record not archived")
	}
}

func TestTransactionNotFound(t *testing.T) {
	client, _, _ := startService(t)
	var sig solana.Signature
	sig[0] = 1
	if _, err := client.Transaction(context.Background(), sig); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountNotFound(t *testing.T) {
	client, _, _ := startService(t)
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	if _, err := client.Account(context.Background(), key.PublicKey()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitRejectsGarbage(t *testing.T) {
	client, _, _ := startService(t)
	ctx := context.Background()

	wallet, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	// Unsigned transaction with a forged signature slot.
	tx := runtime.NewTransaction(wallet.PublicKey(), solana.Hash{},
		runtime.NewTransferInstruction(wallet.PublicKey(), wallet.PublicKey(), 1))
	tx.Signatures = []solana.Signature{{1, 2, 3}}
	if _, err := client.Submit(ctx, tx); err == nil {
		t.Fatalf("expected submit failure for invalid signature")
	}
}

func TestSubmitReturnsSignatureForProgramFailure(t *testing.T) {
	client, ledger, _ := startService(t)
	ctx := context.Background()

	wallet, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	if _, err := client.RequestAirdrop(ctx, wallet.PublicKey(), 1_000_000); err != nil {
		t.Fatalf("RequestAirdrop: %v", err)
	}

	// Target a program id nothing is registered under.
	blockhash := ledger.LatestBlockhash()
	tx := runtime.NewTransaction(wallet.PublicKey(), blockhash, runtime.Instruction{
		ProgramID: wallet.PublicKey(),
		Data:      []byte{0},
	})
	if err := tx.Sign(wallet); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig, err := client.Submit(ctx, tx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	rec, err := client.Transaction(ctx, sig)
	if err != nil {
		t.Fatalf("Transaction: %v", err)
	}
	if !rec.Failed() {
		t.Fatalf("expected failed record")
	}
}
