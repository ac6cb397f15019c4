// Package workspace resolves deployed program names to their on-ledger
// addresses and carries the ambient client configuration (cluster
// endpoint, wallet path).
//
// Configuration comes from a Noice.yaml file, overridable through the
// NOICE_WORKSPACE, NOICE_CLUSTER, and NOICE_WALLET environment
// variables.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"noice.so/noice/noice"
)

// DefaultCluster is the daemon's default listen address.
const DefaultCluster = "127.0.0.1:8899"

// DefaultFile is the workspace file looked up in the working directory
// when NOICE_WORKSPACE is unset.
const DefaultFile = "Noice.yaml"

// Environment variable names.
const (
	EnvWorkspace = "NOICE_WORKSPACE"
	EnvCluster   = "NOICE_CLUSTER"
	EnvWallet    = "NOICE_WALLET"
)

// ErrProgramNotFound is returned when a program name is absent from the
// registry. Resolution is local: no call reaches the cluster.
var ErrProgramNotFound = errors.New("workspace: program not found")

type fileConfig struct {
	Cluster  string            `yaml:"cluster"`
	Wallet   string            `yaml:"wallet"`
	Programs map[string]string `yaml:"programs"`
}

// Workspace is a loaded, validated workspace.
type Workspace struct {
	Cluster    string
	WalletPath string

	programs map[string]solana.PublicKey
}

// Default returns a workspace with only the builtin Noice program
// registered, pointing at the default cluster.
func Default() *Workspace {
	return &Workspace{
		Cluster: DefaultCluster,
		programs: map[string]solana.PublicKey{
			noice.ProgramName: noice.ProgramID,
		},
	}
}

// Load reads and validates a workspace file. Program ids must be valid
// base58 public keys.
func Load(path string) (*Workspace, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("workspace: parsing %s: %w", path, err)
	}
	ws := &Workspace{
		Cluster:    cfg.Cluster,
		WalletPath: cfg.Wallet,
		programs:   make(map[string]solana.PublicKey, len(cfg.Programs)),
	}
	if ws.Cluster == "" {
		ws.Cluster = DefaultCluster
	}
	for name, id := range cfg.Programs {
		key, err := solana.PublicKeyFromBase58(id)
		if err != nil {
			return nil, fmt.Errorf("workspace: program %q has invalid id %q: %w", name, id, err)
		}
		ws.programs[name] = key
	}
	return ws, nil
}

// FromEnv loads the workspace named by NOICE_WORKSPACE (falling back to
// ./Noice.yaml, then to Default), then applies NOICE_CLUSTER and
// NOICE_WALLET overrides.
func FromEnv() (*Workspace, error) {
	path := os.Getenv(EnvWorkspace)
	var ws *Workspace
	switch {
	case path != "":
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		ws = loaded
	default:
		loaded, err := Load(DefaultFile)
		if err == nil {
			ws = loaded
		} else if os.IsNotExist(err) {
			ws = Default()
		} else {
			return nil, err
		}
	}
	if v := os.Getenv(EnvCluster); v != "" {
		ws.Cluster = v
	}
	if v := os.Getenv(EnvWallet); v != "" {
		ws.WalletPath = v
	}
	return ws, nil
}

// Program resolves a deployed program's address by name.
func (w *Workspace) Program(name string) (solana.PublicKey, error) {
	key, ok := w.programs[name]
	if !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: %q", ErrProgramNotFound, name)
	}
	return key, nil
}

// Programs lists the registered program names, sorted.
func (w *Workspace) Programs() []string {
	out := make([]string, 0, len(w.programs))
	for name := range w.programs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
