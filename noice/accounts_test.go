package noice

import (
	"errors"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"

	"noice.so/noice/runtime"
)

func TestPaywallCodecPreservesAccessCount(t *testing.T) {
	creator, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	want := &Paywall{
		Creator:     creator.PublicKey(),
		ContentID:   "premium/ep-42",
		Price:       1500,
		TokenMint:   solana.TokenProgramID,
		AccessCount: 7,
	}
	raw, err := EncodePaywall(want)
	if err != nil {
		t.Fatalf("EncodePaywall: %v", err)
	}
	if len(raw) != PaywallSpace {
		t.Fatalf("encoded size = %d, want %d", len(raw), PaywallSpace)
	}
	got, err := DecodePaywall(raw)
	if err != nil {
		t.Fatalf("DecodePaywall: %v", err)
	}
	if got.ContentID != want.ContentID || got.Price != want.Price || got.AccessCount != want.AccessCount {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestEncodePaywallRejectsOverlongContentID(t *testing.T) {
	_, err := EncodePaywall(&Paywall{ContentID: strings.Repeat("x", MaxContentIDLen+1)})
	if !errors.Is(err, ErrContentIDTooLong) {
		t.Fatalf("expected ErrContentIDTooLong, got %v", err)
	}
}

func TestDecodeRejectsForeignDiscriminator(t *testing.T) {
	profile := EncodeUserProfile(&UserProfile{})
	if _, err := DecodePaywall(profile); err == nil {
		t.Fatalf("DecodePaywall accepted UserProfile data")
	}
	if _, err := DecodeUserProfile(profile[:UserProfileSpace-1]); !errors.Is(err, runtime.ErrInvalidAccountData) {
		t.Fatalf("expected ErrInvalidAccountData for truncated profile, got %v", err)
	}
}

func TestProfileAndPaywallAddressesDiffer(t *testing.T) {
	owner, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey: %v", err)
	}
	profile, _, err := FindUserProfileAddress(owner.PublicKey())
	if err != nil {
		t.Fatalf("FindUserProfileAddress: %v", err)
	}
	paywall, _, err := FindPaywallAddress(owner.PublicKey(), "c")
	if err != nil {
		t.Fatalf("FindPaywallAddress: %v", err)
	}
	if profile.Equals(paywall) {
		t.Fatalf("PDA namespaces collide")
	}
}
