package noice

import (
	"bytes"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/runtime"
)

var (
	userProfileDiscriminator = discriminator("account", "UserProfile")
	paywallDiscriminator     = discriminator("account", "Paywall")
)

// UserProfile is the per-user account created by initialize_user,
// stored at the ["user_profile", owner] PDA.
type UserProfile struct {
	Owner            solana.PublicKey
	InteractionCount uint64
}

// EncodeUserProfile renders the profile into its full allocated space.
func EncodeUserProfile(p *UserProfile) []byte {
	var w borshWriter
	w.buf.Write(userProfileDiscriminator)
	w.pubkey(p.Owner)
	w.u64(p.InteractionCount)
	out := make([]byte, UserProfileSpace)
	copy(out, w.bytes())
	return out
}

// DecodeUserProfile parses UserProfile account data.
func DecodeUserProfile(data []byte) (*UserProfile, error) {
	if len(data) != UserProfileSpace || !bytes.Equal(data[:8], userProfileDiscriminator) {
		return nil, runtime.ErrInvalidAccountData
	}
	r := &borshReader{buf: data, pos: 8}
	p := &UserProfile{Owner: r.pubkey(), InteractionCount: r.u64()}
	if r.failed {
		return nil, runtime.ErrInvalidAccountData
	}
	return p, nil
}

// Paywall gates one piece of content behind a token payment, stored at
// the ["paywall", creator, content_id] PDA.
type Paywall struct {
	Creator     solana.PublicKey
	ContentID   string
	Price       uint64
	TokenMint   solana.PublicKey
	AccessCount uint64
}

// MaxContentIDLen bounds content ids so the encoded paywall fits its
// allocated space.
const MaxContentIDLen = PaywallSpace - 8 - 32 - 4 - 8 - 32 - 8

// EncodePaywall renders the paywall into its full allocated space.
func EncodePaywall(p *Paywall) ([]byte, error) {
	if len(p.ContentID) > MaxContentIDLen {
		return nil, ErrContentIDTooLong
	}
	var w borshWriter
	w.buf.Write(paywallDiscriminator)
	w.pubkey(p.Creator)
	w.str(p.ContentID)
	w.u64(p.Price)
	w.pubkey(p.TokenMint)
	w.u64(p.AccessCount)
	out := make([]byte, PaywallSpace)
	copy(out, w.bytes())
	return out, nil
}

// DecodePaywall parses Paywall account data.
func DecodePaywall(data []byte) (*Paywall, error) {
	if len(data) != PaywallSpace || !bytes.Equal(data[:8], paywallDiscriminator) {
		return nil, runtime.ErrInvalidAccountData
	}
	r := &borshReader{buf: data, pos: 8}
	p := &Paywall{
		Creator:   r.pubkey(),
		ContentID: r.str(),
		Price:     r.u64(),
		TokenMint: r.pubkey(),
	}
	p.AccessCount = r.u64()
	if r.failed {
		return nil, runtime.ErrInvalidAccountData
	}
	return p, nil
}
