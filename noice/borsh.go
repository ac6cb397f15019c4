package noice

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Minimal borsh reader/writer for the field types the program uses:
// u64, i64, length-prefixed strings, and raw 32-byte public keys.

type borshWriter struct {
	buf bytes.Buffer
}

func (w *borshWriter) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf.Write(tmp[:])
}

func (w *borshWriter) str(s string) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(s)))
	w.buf.Write(tmp[:])
	w.buf.WriteString(s)
}

func (w *borshWriter) pubkey(k solana.PublicKey) {
	w.buf.Write(k[:])
}

func (w *borshWriter) bytes() []byte { return w.buf.Bytes() }

type borshReader struct {
	buf    []byte
	pos    int
	failed bool
}

func (r *borshReader) take(n int) []byte {
	if r.failed || n < 0 || n > len(r.buf)-r.pos {
		r.failed = true
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *borshReader) u64() uint64 {
	b := r.take(8)
	if len(b) != 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *borshReader) str() string {
	b := r.take(4)
	if len(b) != 4 {
		return ""
	}
	return string(r.take(int(binary.LittleEndian.Uint32(b))))
}

func (r *borshReader) pubkey() solana.PublicKey {
	var k solana.PublicKey
	copy(k[:], r.take(32))
	return k
}
