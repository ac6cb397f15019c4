package noice

import "github.com/gagliardetto/solana-go"

// Event names as they appear in transaction records.
const (
	TipEventName           = "TipEvent"
	PaywallUnlockEventName = "PaywallUnlockEvent"
)

// TipEvent is emitted after a successful tip.
type TipEvent struct {
	Sender    solana.PublicKey `json:"sender"`
	Recipient solana.PublicKey `json:"recipient"`
	TokenMint solana.PublicKey `json:"tokenMint"`
	Amount    uint64           `json:"amount"`
	Action    string           `json:"action"`
	Timestamp int64            `json:"timestamp"`
}

// PaywallUnlockEvent is emitted after a successful unlock.
type PaywallUnlockEvent struct {
	User      solana.PublicKey `json:"user"`
	Creator   solana.PublicKey `json:"creator"`
	ContentID string           `json:"contentId"`
	TokenMint solana.PublicKey `json:"tokenMint"`
	Amount    uint64           `json:"amount"`
	Timestamp int64            `json:"timestamp"`
}
