// Package rpc carries the Ledger gRPC service: the wire definition,
// the server wrapping a runtime ledger, and a dialable client.
package rpc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gagliardetto/solana-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"noice.so/noice/runtime"
)

// Client talks to a ledger daemon over the Ledger gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client LedgerClient

	// Timeout applies per RPC when non-zero, layered under any deadline
	// already on the caller's context.
	Timeout time.Duration
}

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

// Dial connects to a ledger daemon.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc), nil
}

// NewClient wraps an existing connection, e.g. an in-process bufconn
// in tests.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc, client: NewLedgerClient(cc)}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Submit sends an encoded, signed transaction and returns its
// signature. The transaction executed by the time Submit returns; use
// Transaction to inspect the record, including program-level failure.
func (c *Client) Submit(ctx context.Context, tx *runtime.Transaction) (solana.Signature, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.Submit(ctx, wrapperspb.Bytes(tx.Encode()))
	if err != nil {
		return solana.Signature{}, mapRPC(err)
	}
	sig, err := solana.SignatureFromBase58(reply.GetValue())
	if err != nil {
		return solana.Signature{}, err
	}
	return sig, nil
}

// Transaction fetches the confirmed record for a signature.
func (c *Client) Transaction(ctx context.Context, sig solana.Signature) (*runtime.TransactionRecord, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.GetTransaction(ctx, wrapperspb.String(sig.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	return runtime.DecodeRecord(reply.GetValue())
}

// Account fetches a ledger account.
func (c *Client) Account(ctx context.Context, key solana.PublicKey) (*AccountInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.GetAccount(ctx, wrapperspb.String(key.String()))
	if err != nil {
		return nil, mapRPC(err)
	}
	var info AccountInfo
	if err := json.Unmarshal(reply.GetValue(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Balance fetches a lamport balance (zero for absent accounts).
func (c *Client) Balance(ctx context.Context, key solana.PublicKey) (uint64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.GetBalance(ctx, wrapperspb.String(key.String()))
	if err != nil {
		return 0, mapRPC(err)
	}
	return reply.GetValue(), nil
}

// RequestAirdrop asks the daemon's faucet to fund an address.
func (c *Client) RequestAirdrop(ctx context.Context, key solana.PublicKey, lamports uint64) (solana.Signature, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	raw, err := json.Marshal(AirdropRequest{Address: key, Lamports: lamports})
	if err != nil {
		return solana.Signature{}, err
	}
	reply, err := c.client.RequestAirdrop(ctx, wrapperspb.Bytes(raw))
	if err != nil {
		return solana.Signature{}, mapRPC(err)
	}
	return solana.SignatureFromBase58(reply.GetValue())
}

// LatestBlockhash fetches the blockhash to build fresh transactions
// against.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	reply, err := c.client.LatestBlockhash(ctx, &emptypb.Empty{})
	if err != nil {
		return solana.Hash{}, mapRPC(err)
	}
	return solana.HashFromBase58(reply.GetValue())
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout > 0 {
		return context.WithTimeout(ctx, c.Timeout)
	}
	return context.WithCancel(ctx)
}
