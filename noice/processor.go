package noice

import (
	"bytes"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/runtime"
	"noice.so/noice/token"
)

// Processor is the Noice program's native processor. Register it on a
// ledger under ProgramID.
type Processor struct{}

func (Processor) Name() string { return ProgramName }

func (Processor) Process(ctx *runtime.ExecContext) error {
	data := ctx.Data()
	if len(data) < 8 {
		return runtime.ErrInvalidInstruction
	}
	disc, args := data[:8], data[8:]
	switch {
	case bytes.Equal(disc, initializeUserDiscriminator):
		return processInitializeUser(ctx, args)
	case bytes.Equal(disc, tipDiscriminator):
		return processTip(ctx, args)
	case bytes.Equal(disc, createPaywallDiscriminator):
		return processCreatePaywall(ctx, args)
	case bytes.Equal(disc, unlockPaywallDiscriminator):
		return processUnlockPaywall(ctx, args)
	default:
		return runtime.ErrInvalidInstruction
	}
}

// loadProfile loads and checks a program-owned UserProfile at the
// ["user_profile", owner] PDA.
func loadProfile(ctx *runtime.ExecContext, key, owner solana.PublicKey) (*runtime.Account, *UserProfile, error) {
	expected, _, err := FindUserProfileAddress(owner)
	if err != nil || !expected.Equals(key) {
		return nil, nil, runtime.ErrInvalidSeeds
	}
	acct, err := ctx.Load(key)
	if err != nil {
		return nil, nil, err
	}
	if !acct.Owner.Equals(ProgramID) {
		return nil, nil, runtime.ErrInvalidAccountOwner
	}
	profile, err := DecodeUserProfile(acct.Data)
	if err != nil {
		return nil, nil, err
	}
	return acct, profile, nil
}

func processInitializeUser(ctx *runtime.ExecContext, args []byte) error {
	if len(args) != 0 {
		return runtime.ErrInvalidInstruction
	}
	profileKey, err := ctx.Key(0)
	if err != nil {
		return err
	}
	user, err := ctx.Key(1)
	if err != nil {
		return err
	}
	if !ctx.IsSigner(user) {
		return runtime.ErrMissingSignature
	}
	_, bump, err := FindUserProfileAddress(user)
	if err != nil {
		return runtime.ErrInvalidSeeds
	}
	seeds := [][]byte{userProfileSeed, user[:], {bump}}
	if err := ctx.CreateAccount(profileKey, UserProfileSpace, ProgramID, user, seeds); err != nil {
		return err
	}
	acct, err := ctx.Load(profileKey)
	if err != nil {
		return err
	}
	copy(acct.Data, EncodeUserProfile(&UserProfile{Owner: user}))
	ctx.Logf("Initialized user profile for: %s", user)
	return nil
}

func processTip(ctx *runtime.ExecContext, args []byte) error {
	r := &borshReader{buf: args}
	amount := r.u64()
	action := r.str()
	r.pubkey() // token_mint argument, validated against the mint account below
	if r.failed || r.pos != len(args) {
		return runtime.ErrInvalidInstruction
	}

	profileKey, err := ctx.Key(0)
	if err != nil {
		return err
	}
	senderTokenKey, err := ctx.Key(1)
	if err != nil {
		return err
	}
	recipientTokenKey, err := ctx.Key(2)
	if err != nil {
		return err
	}
	sender, err := ctx.Key(3)
	if err != nil {
		return err
	}
	recipient, err := ctx.Key(4)
	if err != nil {
		return err
	}
	mintKey, err := ctx.Key(5)
	if err != nil {
		return err
	}
	tokenProgram, err := ctx.Key(6)
	if err != nil {
		return err
	}
	if !tokenProgram.Equals(token.ProgramID) {
		return runtime.ErrIncorrectProgramID
	}
	if !ctx.IsSigner(sender) {
		return runtime.ErrMissingSignature
	}

	profileAcct, profile, err := loadProfile(ctx, profileKey, recipient)
	if err != nil {
		return err
	}
	profile.InteractionCount++

	senderTok, err := decodeTokenAccount(ctx, senderTokenKey)
	if err != nil {
		return err
	}
	recipientTok, err := decodeTokenAccount(ctx, recipientTokenKey)
	if err != nil {
		return err
	}
	if !senderTok.Mint.Equals(mintKey) || !recipientTok.Mint.Equals(mintKey) {
		return ErrInvalidTokenMint
	}

	if err := ctx.Invoke(token.NewTransferInstruction(senderTokenKey, recipientTokenKey, sender, amount)); err != nil {
		return err
	}

	copy(profileAcct.Data, EncodeUserProfile(profile))
	if err := ctx.Emit(TipEventName, TipEvent{
		Sender:    sender,
		Recipient: recipient,
		TokenMint: mintKey,
		Amount:    amount,
		Action:    action,
		Timestamp: ctx.UnixTimestamp(),
	}); err != nil {
		return err
	}
	ctx.Logf("Tipped %d tokens (%s) for %s to %s", amount, mintKey, action, recipient)
	return nil
}

func processCreatePaywall(ctx *runtime.ExecContext, args []byte) error {
	r := &borshReader{buf: args}
	contentID := r.str()
	price := r.u64()
	tokenMint := r.pubkey()
	if r.failed || r.pos != len(args) {
		return runtime.ErrInvalidInstruction
	}

	paywallKey, err := ctx.Key(0)
	if err != nil {
		return err
	}
	creator, err := ctx.Key(1)
	if err != nil {
		return err
	}
	if !ctx.IsSigner(creator) {
		return runtime.ErrMissingSignature
	}

	encoded, err := EncodePaywall(&Paywall{
		Creator:   creator,
		ContentID: contentID,
		Price:     price,
		TokenMint: tokenMint,
	})
	if err != nil {
		return err
	}
	_, bump, err := FindPaywallAddress(creator, contentID)
	if err != nil {
		return runtime.ErrInvalidSeeds
	}
	seeds := [][]byte{paywallSeed, creator[:], []byte(contentID), {bump}}
	if err := ctx.CreateAccount(paywallKey, PaywallSpace, ProgramID, creator, seeds); err != nil {
		return err
	}
	acct, err := ctx.Load(paywallKey)
	if err != nil {
		return err
	}
	copy(acct.Data, encoded)
	ctx.Logf("Created paywall for content %s with price %d (%s)", contentID, price, tokenMint)
	return nil
}

func processUnlockPaywall(ctx *runtime.ExecContext, args []byte) error {
	r := &borshReader{buf: args}
	contentID := r.str()
	if r.failed || r.pos != len(args) {
		return runtime.ErrInvalidInstruction
	}

	paywallKey, err := ctx.Key(0)
	if err != nil {
		return err
	}
	userTokenKey, err := ctx.Key(1)
	if err != nil {
		return err
	}
	creatorTokenKey, err := ctx.Key(2)
	if err != nil {
		return err
	}
	user, err := ctx.Key(3)
	if err != nil {
		return err
	}
	mintKey, err := ctx.Key(4)
	if err != nil {
		return err
	}
	tokenProgram, err := ctx.Key(5)
	if err != nil {
		return err
	}
	if !tokenProgram.Equals(token.ProgramID) {
		return runtime.ErrIncorrectProgramID
	}
	if !ctx.IsSigner(user) {
		return runtime.ErrMissingSignature
	}

	paywallAcct, err := ctx.Load(paywallKey)
	if err != nil {
		return err
	}
	if !paywallAcct.Owner.Equals(ProgramID) {
		return runtime.ErrInvalidAccountOwner
	}
	paywall, err := DecodePaywall(paywallAcct.Data)
	if err != nil {
		return err
	}
	expected, _, err := FindPaywallAddress(paywall.Creator, contentID)
	if err != nil || !expected.Equals(paywallKey) {
		return runtime.ErrInvalidSeeds
	}

	userTok, err := decodeTokenAccount(ctx, userTokenKey)
	if err != nil {
		return err
	}
	creatorTok, err := decodeTokenAccount(ctx, creatorTokenKey)
	if err != nil {
		return err
	}
	if !paywall.TokenMint.Equals(mintKey) || !userTok.Mint.Equals(mintKey) || !creatorTok.Mint.Equals(mintKey) {
		return ErrInvalidTokenMint
	}

	amount := paywall.Price
	if err := ctx.Invoke(token.NewTransferInstruction(userTokenKey, creatorTokenKey, user, amount)); err != nil {
		return err
	}

	paywall.AccessCount++
	encoded, err := EncodePaywall(paywall)
	if err != nil {
		return err
	}
	copy(paywallAcct.Data, encoded)

	if err := ctx.Emit(PaywallUnlockEventName, PaywallUnlockEvent{
		User:      user,
		Creator:   paywall.Creator,
		ContentID: contentID,
		TokenMint: paywall.TokenMint,
		Amount:    amount,
		Timestamp: ctx.UnixTimestamp(),
	}); err != nil {
		return err
	}
	ctx.Logf("Unlocked paywall for content %s by %s", paywall.ContentID, user)
	return nil
}

// decodeTokenAccount loads a token-program-owned account and decodes it.
func decodeTokenAccount(ctx *runtime.ExecContext, key solana.PublicKey) (*token.Account, error) {
	acct, err := ctx.Load(key)
	if err != nil {
		return nil, err
	}
	if !acct.Owner.Equals(token.ProgramID) {
		return nil, runtime.ErrInvalidAccountOwner
	}
	return token.DecodeAccount(acct.Data)
}
