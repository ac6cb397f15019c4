// Package cidutil derives the content ids used to archive confirmed
// transaction records.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// RecordCID returns the CIDv1 (raw multicodec, sha2-256 multihash) for
// canonical record bytes.
func RecordCID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// RecordCIDString returns RecordCID as a string, or "" on error.
// multihash.Sum with SHA2_256 and default length cannot fail on valid
// input, so the error branch is effectively unreachable.
func RecordCIDString(data []byte) string {
	id, err := RecordCID(data)
	if err != nil {
		return ""
	}
	return id.String()
}
