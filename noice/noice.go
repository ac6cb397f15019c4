// Package noice implements the Noice on-chain program: user profiles,
// token tips, and content paywalls. It provides the instruction and
// account codecs used by clients plus the native processor registered
// on the ledger runtime.
//
// Wire format follows the anchor conventions the program was deployed
// with: instruction data is an 8-byte discriminator
// (sha256("global:<method>")[:8]) followed by borsh-encoded arguments;
// account data is sha256("account:<Type>")[:8] followed by the
// borsh-encoded fields, padded to the account's allocated space.
package noice

import (
	"crypto/sha256"

	"github.com/gagliardetto/solana-go"
)

// ProgramName is the workspace registry name of the program.
const ProgramName = "NoiceSolana"

// ProgramID is the program's deployed address, derived deterministically
// so every node and workspace agrees on it without a deploy step.
var ProgramID = solana.PublicKeyFromBytes(programIDBytes())

func programIDBytes() []byte {
	sum := sha256.Sum256([]byte("program:" + ProgramName))
	return sum[:]
}

// PDA seed prefixes.
var (
	userProfileSeed = []byte("user_profile")
	paywallSeed     = []byte("paywall")
)

// Allocated account spaces: discriminator + fields + padding, matching
// the deployed layout.
const (
	UserProfileSpace = 8 + 32 + 8 + 100
	PaywallSpace     = 8 + 32 + 32 + 8 + 32 + 8 + 100
)

// discriminator returns sha256(ns + ":" + name)[:8].
func discriminator(ns, name string) []byte {
	sum := sha256.Sum256([]byte(ns + ":" + name))
	return sum[:8]
}

// FindUserProfileAddress derives the UserProfile PDA for owner.
func FindUserProfileAddress(owner solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{userProfileSeed, owner[:]}, ProgramID)
}

// FindPaywallAddress derives the Paywall PDA for (creator, contentID).
func FindPaywallAddress(creator solana.PublicKey, contentID string) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{paywallSeed, creator[:], []byte(contentID)}, ProgramID)
}
