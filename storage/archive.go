// Package storage defines the content-addressed archive that the
// ledger daemon writes confirmed transaction records into.
package storage

import (
	"sync"

	"github.com/ipfs/go-cid"

	"noice.so/noice/cidutil"
)

// Archive is a minimal content-addressable record store.
//
// Contract:
// - Put MUST be idempotent.
// - Stored records MUST be immutable.
// - CIDs MUST be derived from the bytes written (callers supply
//   canonical record bytes).
// - Get MUST return ErrNotFound when the CID is absent.
type Archive interface {
	Put(bytes []byte) (cid.Cid, error)
	Get(id cid.Cid) ([]byte, error)
	Has(id cid.Cid) bool
}

// Memory is an in-process Archive, used by tests and the daemon's
// default configuration.
type Memory struct {
	mu      sync.RWMutex
	objects map[cid.Cid][]byte
}

// NewMemory constructs an empty in-memory archive.
func NewMemory() *Memory {
	return &Memory{objects: make(map[cid.Cid][]byte)}
}

func (m *Memory) Put(bytes []byte) (cid.Cid, error) {
	id, err := cidutil.RecordCID(bytes)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, ErrInvalidCID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.objects[id]; ok {
		if string(existing) != string(bytes) {
			return cid.Undef, ErrImmutable
		}
		return id, nil
	}
	m.objects[id] = append([]byte(nil), bytes...)
	return id, nil
}

func (m *Memory) Get(id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Has(id cid.Cid) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id]
	return ok
}
