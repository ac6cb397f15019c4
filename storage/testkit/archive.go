// Package testkit runs the Archive conformance suite against any
// backend.
package testkit

import (
	"bytes"
	"testing"

	"github.com/ipfs/go-cid"

	"noice.so/noice/cidutil"
	"noice.so/noice/storage"
)

// NewArchive constructs a fresh, empty Archive for a test. The returned
// Archive MUST be isolated from other tests.
type NewArchive func(t *testing.T) storage.Archive

// RunArchiveConformance exercises the Archive contract: put/get
// roundtrip, idempotent put, has, and not-found semantics.
func RunArchiveConformance(t *testing.T, newArchive NewArchive) {
	t.Helper()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		a := newArchive(t)
		want := []byte(`{"signature":"sig-1","slot":1}`)

		id, err := a.Put(want)
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		wantID, err := cidutil.RecordCID(want)
		if err != nil {
			t.Fatalf("RecordCID failed: %v", err)
		}
		if id != wantID {
			t.Fatalf("Put CID mismatch: got %s want %s", id, wantID)
		}

		got, err := a.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("Get bytes mismatch")
		}
	})

	t.Run("PutIsIdempotent", func(t *testing.T) {
		a := newArchive(t)
		b := []byte(`{"signature":"sig-2","slot":2}`)
		id1, err := a.Put(b)
		if err != nil {
			t.Fatalf("first Put failed: %v", err)
		}
		id2, err := a.Put(b)
		if err != nil {
			t.Fatalf("second Put failed: %v", err)
		}
		if id1 != id2 {
			t.Fatalf("Put not idempotent: %s vs %s", id1, id2)
		}
	})

	t.Run("HasReflectsContents", func(t *testing.T) {
		a := newArchive(t)
		b := []byte(`{"signature":"sig-3","slot":3}`)
		id, err := cidutil.RecordCID(b)
		if err != nil {
			t.Fatalf("RecordCID failed: %v", err)
		}
		if a.Has(id) {
			t.Fatalf("Has true before Put")
		}
		if _, err := a.Put(b); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if !a.Has(id) {
			t.Fatalf("Has false after Put")
		}
	})

	t.Run("GetMissingReturnsNotFound", func(t *testing.T) {
		a := newArchive(t)
		id, err := cidutil.RecordCID([]byte("never stored"))
		if err != nil {
			t.Fatalf("RecordCID failed: %v", err)
		}
		if _, err := a.Get(id); !storage.IsNotFound(err) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetUndefinedCIDRejected", func(t *testing.T) {
		a := newArchive(t)
		if _, err := a.Get(cid.Undef); err == nil {
			t.Fatalf("expected error for undefined CID")
		}
	})
}
