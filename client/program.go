package client

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/noice"
	"noice.so/noice/runtime"
)

// Program is a handle to a deployed program, resolved by name from the
// provider's workspace registry.
type Program struct {
	Name string
	ID   solana.PublicKey

	provider *Provider
}

// Program resolves a deployed program by name. Resolution is purely
// local: if the name is absent, this fails with
// workspace.ErrProgramNotFound before any RPC is attempted.
func (p *Provider) Program(name string) (*Program, error) {
	id, err := p.Workspace.Program(name)
	if err != nil {
		return nil, err
	}
	return &Program{Name: name, ID: id, provider: p}, nil
}

// Noice resolves the Noice program and verifies the registry points at
// the expected deployment, since instruction PDAs derive from it.
func (p *Provider) Noice() (*Program, error) {
	prog, err := p.Program(noice.ProgramName)
	if err != nil {
		return nil, err
	}
	if !prog.ID.Equals(noice.ProgramID) {
		return nil, fmt.Errorf("client: workspace maps %s to %s, expected %s",
			noice.ProgramName, prog.ID, noice.ProgramID)
	}
	return prog, nil
}

// InitializeUser creates the wallet owner's user profile and returns
// the transaction signature.
func (prog *Program) InitializeUser(ctx context.Context) (solana.Signature, *runtime.TransactionRecord, error) {
	in, err := noice.NewInitializeUserInstruction(prog.provider.PublicKey())
	if err != nil {
		return solana.Signature{}, nil, err
	}
	return prog.provider.SendAndConfirm(ctx, []runtime.Instruction{in})
}

// Tip sends a token tip from the wallet to a recipient's token account,
// crediting the recipient's profile.
func (prog *Program) Tip(ctx context.Context, params noice.TipParams) (solana.Signature, *runtime.TransactionRecord, error) {
	params.Sender = prog.provider.PublicKey()
	in, err := noice.NewTipInstruction(params)
	if err != nil {
		return solana.Signature{}, nil, err
	}
	return prog.provider.SendAndConfirm(ctx, []runtime.Instruction{in})
}

// CreatePaywall registers a paywall for contentID owned by the wallet.
func (prog *Program) CreatePaywall(ctx context.Context, contentID string, price uint64, tokenMint solana.PublicKey) (solana.Signature, *runtime.TransactionRecord, error) {
	in, err := noice.NewCreatePaywallInstruction(prog.provider.PublicKey(), contentID, price, tokenMint)
	if err != nil {
		return solana.Signature{}, nil, err
	}
	return prog.provider.SendAndConfirm(ctx, []runtime.Instruction{in})
}

// UnlockPaywall pays a paywall's price from the wallet's token account.
func (prog *Program) UnlockPaywall(ctx context.Context, params noice.UnlockParams) (solana.Signature, *runtime.TransactionRecord, error) {
	params.User = prog.provider.PublicKey()
	in, err := noice.NewUnlockPaywallInstruction(params)
	if err != nil {
		return solana.Signature{}, nil, err
	}
	return prog.provider.SendAndConfirm(ctx, []runtime.Instruction{in})
}
