// Package client binds a wallet and a workspace to a ledger RPC
// endpoint and submits program instructions with explicit deadlines.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/keys"
	"noice.so/noice/rpc"
	"noice.so/noice/runtime"
	"noice.so/noice/workspace"
)

// DefaultConfirmTimeout bounds SendAndConfirm when the caller's context
// carries no deadline. Submission must never wait unbounded on the
// cluster.
const DefaultConfirmTimeout = 30 * time.Second

// Provider is a configured client: a signing wallet bound to a cluster
// endpoint and a workspace registry.
type Provider struct {
	Wallet    solana.PrivateKey
	RPC       *rpc.Client
	Workspace *workspace.Workspace

	// ConfirmTimeout overrides DefaultConfirmTimeout when non-zero.
	ConfirmTimeout time.Duration
}

// New binds a wallet and workspace to an RPC client.
func New(ws *workspace.Workspace, wallet solana.PrivateKey, rpcClient *rpc.Client) *Provider {
	return &Provider{Wallet: wallet, RPC: rpcClient, Workspace: ws}
}

// NewFromEnv configures a provider entirely from ambient environment
// state: the workspace file (NOICE_WORKSPACE / ./Noice.yaml), the
// wallet keypair (workspace wallet path, NOICE_WALLET, or the default
// location), and the cluster endpoint.
func NewFromEnv() (*Provider, error) {
	ws, err := workspace.FromEnv()
	if err != nil {
		return nil, err
	}
	walletPath := ws.WalletPath
	if walletPath == "" {
		walletPath, err = keys.DefaultWalletPath()
		if err != nil {
			return nil, err
		}
	}
	wallet, err := keys.Load(walletPath)
	if err != nil {
		return nil, fmt.Errorf("client: loading wallet %s: %w", walletPath, err)
	}
	rpcClient, err := rpc.Dial(ws.Cluster, rpc.DialOptions{Timeout: 10 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("client: dialing cluster %s: %w", ws.Cluster, err)
	}
	return New(ws, wallet, rpcClient), nil
}

// Close releases the RPC connection.
func (p *Provider) Close() error {
	if p == nil || p.RPC == nil {
		return nil
	}
	return p.RPC.Close()
}

// PublicKey returns the wallet's address, the fee payer for every
// transaction the provider sends.
func (p *Provider) PublicKey() solana.PublicKey {
	return p.Wallet.PublicKey()
}

// SendAndConfirm builds a transaction from the given instructions,
// signs it with the wallet (plus any extra required signers), submits
// it, and fetches the confirmed record. The returned signature is
// non-zero whenever the ledger accepted the transaction, even if it
// then failed at the program level; in that case err is non-nil and the
// record carries the failure.
func (p *Provider) SendAndConfirm(ctx context.Context, instrs []runtime.Instruction, extraSigners ...solana.PrivateKey) (solana.Signature, *runtime.TransactionRecord, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := p.ConfirmTimeout
		if timeout == 0 {
			timeout = DefaultConfirmTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	blockhash, err := p.RPC.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, nil, err
	}
	tx := runtime.NewTransaction(p.PublicKey(), blockhash, instrs...)
	signers := append([]solana.PrivateKey{p.Wallet}, extraSigners...)
	if err := tx.Sign(signers...); err != nil {
		return solana.Signature{}, nil, err
	}

	sig, err := p.RPC.Submit(ctx, tx)
	if err != nil {
		return solana.Signature{}, nil, err
	}
	rec, err := p.RPC.Transaction(ctx, sig)
	if err != nil {
		return sig, nil, err
	}
	if rec.Failed() {
		return sig, rec, fmt.Errorf("client: transaction %s failed: %s", sig, rec.Err)
	}
	return sig, rec, nil
}
