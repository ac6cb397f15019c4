package runtime

import "github.com/gagliardetto/solana-go"

// Account is a ledger account. Data layout is defined by the owning
// program; the runtime treats it as opaque bytes.
type Account struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Data       []byte
	Executable bool
}

// Clone returns a deep copy, used for staging mutations during
// transaction execution.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Data = append([]byte(nil), a.Data...)
	return &cp
}

const (
	// accountStorageOverhead and the rent parameters mirror the target
	// chain's genesis constants; only the two-year exemption threshold
	// matters here since the runtime never collects ongoing rent.
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	rentExemptionYears     = 2
)

// RentExemptMinimum returns the lamports an account of the given data
// size must hold to be rent exempt.
func RentExemptMinimum(space uint64) uint64 {
	return (space + accountStorageOverhead) * lamportsPerByteYear * rentExemptionYears
}
