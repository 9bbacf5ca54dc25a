package store

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ComputeCID returns the CIDv1 (raw codec, sha2-256) of data. Backends that
// do not address content themselves key objects by this value.
func ComputeCID(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, mh).String(), nil
}

// ValidCID reports whether s parses as a CID (v0 "Qm..." or v1).
func ValidCID(s string) bool {
	_, err := cid.Decode(s)
	return err == nil
}
