package noice

import (
	"github.com/gagliardetto/solana-go"

	"noice.so/noice/runtime"
	"noice.so/noice/token"
)

var (
	initializeUserDiscriminator = discriminator("global", "initialize_user")
	tipDiscriminator            = discriminator("global", "tip")
	createPaywallDiscriminator  = discriminator("global", "create_paywall")
	unlockPaywallDiscriminator  = discriminator("global", "unlock_paywall")
)

// NewInitializeUserInstruction creates the caller's UserProfile PDA.
// user pays for the account and must sign.
func NewInitializeUserInstruction(user solana.PublicKey) (runtime.Instruction, error) {
	profile, _, err := FindUserProfileAddress(user)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{
		ProgramID: ProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: profile, IsWritable: true},
			{PublicKey: user, IsSigner: true, IsWritable: true},
			{PublicKey: solana.SystemProgramID},
		},
		Data: initializeUserDiscriminator,
	}, nil
}

// TipParams are the arguments and accounts of a tip instruction.
type TipParams struct {
	Sender         solana.PublicKey
	Recipient      solana.PublicKey
	SenderToken    solana.PublicKey
	RecipientToken solana.PublicKey
	TokenMint      solana.PublicKey
	Amount         uint64
	Action         string
}

// NewTipInstruction tips Amount tokens of TokenMint from sender to
// recipient, crediting the recipient's profile interaction count.
func NewTipInstruction(p TipParams) (runtime.Instruction, error) {
	profile, _, err := FindUserProfileAddress(p.Recipient)
	if err != nil {
		return runtime.Instruction{}, err
	}
	var w borshWriter
	w.buf.Write(tipDiscriminator)
	w.u64(p.Amount)
	w.str(p.Action)
	w.pubkey(p.TokenMint)
	return runtime.Instruction{
		ProgramID: ProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: profile, IsWritable: true},
			{PublicKey: p.SenderToken, IsWritable: true},
			{PublicKey: p.RecipientToken, IsWritable: true},
			{PublicKey: p.Sender, IsSigner: true, IsWritable: true},
			{PublicKey: p.Recipient},
			{PublicKey: p.TokenMint},
			{PublicKey: token.ProgramID},
		},
		Data: w.bytes(),
	}, nil
}

// NewCreatePaywallInstruction creates the (creator, contentID) paywall
// priced in tokenMint.
func NewCreatePaywallInstruction(creator solana.PublicKey, contentID string, price uint64, tokenMint solana.PublicKey) (runtime.Instruction, error) {
	paywall, _, err := FindPaywallAddress(creator, contentID)
	if err != nil {
		return runtime.Instruction{}, err
	}
	var w borshWriter
	w.buf.Write(createPaywallDiscriminator)
	w.str(contentID)
	w.u64(price)
	w.pubkey(tokenMint)
	return runtime.Instruction{
		ProgramID: ProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: paywall, IsWritable: true},
			{PublicKey: creator, IsSigner: true, IsWritable: true},
			{PublicKey: solana.SystemProgramID},
		},
		Data: w.bytes(),
	}, nil
}

// UnlockParams are the arguments and accounts of an unlock_paywall
// instruction.
type UnlockParams struct {
	User         solana.PublicKey
	Creator      solana.PublicKey
	ContentID    string
	UserToken    solana.PublicKey
	CreatorToken solana.PublicKey
	TokenMint    solana.PublicKey
}

// NewUnlockPaywallInstruction pays the paywall's price from the user's
// token account to the creator's.
func NewUnlockPaywallInstruction(p UnlockParams) (runtime.Instruction, error) {
	paywall, _, err := FindPaywallAddress(p.Creator, p.ContentID)
	if err != nil {
		return runtime.Instruction{}, err
	}
	var w borshWriter
	w.buf.Write(unlockPaywallDiscriminator)
	w.str(p.ContentID)
	return runtime.Instruction{
		ProgramID: ProgramID,
		Accounts: []*solana.AccountMeta{
			{PublicKey: paywall, IsWritable: true},
			{PublicKey: p.UserToken, IsWritable: true},
			{PublicKey: p.CreatorToken, IsWritable: true},
			{PublicKey: p.User, IsSigner: true, IsWritable: true},
			{PublicKey: p.TokenMint},
			{PublicKey: token.ProgramID},
		},
		Data: w.bytes(),
	}, nil
}
