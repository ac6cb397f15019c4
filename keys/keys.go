// Package keys manages wallet keypair files in the ledger CLI's JSON
// byte-array format.
package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

// DefaultWalletPath returns ~/.config/noice/id.json.
func DefaultWalletPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "noice", "id.json"), nil
}

// Generate creates a new ed25519 wallet keypair.
func Generate() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}

// Save writes a keypair file (JSON array of the 64 private key bytes),
// refusing to overwrite an existing one. Key files are 0600.
func Save(path string, key solana.PrivateKey) error {
	if len(key) == 0 {
		return errors.New("keys: empty private key")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("keys: %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// Load reads a keypair file written by Save (or the target chain's CLI,
// which uses the same format).
func Load(path string) (solana.PrivateKey, error) {
	return solana.PrivateKeyFromSolanaKeygenFile(path)
}
