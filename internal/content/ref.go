// Package content stores and resolves content-addressed blobs. References
// have the form ipfs://<cid>; bare CIDs are accepted on input.
package content

import (
	"fmt"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"certflow/pkg/platform/sentinel"
)

const Scheme = "ipfs://"

var rawBuilder = cid.V1Builder{Codec: cid.Raw, MhType: multihash.SHA2_256}

// ComputeCID returns the CIDv1 (raw, sha2-256) of data.
func ComputeCID(data []byte) (cid.Cid, error) {
	c, err := rawBuilder.Sum(data)
	if err != nil {
		return cid.Undef, fmt.Errorf("hash content: %w", err)
	}
	return c, nil
}

// FormatRef renders c as a content reference.
func FormatRef(c cid.Cid) string {
	return Scheme + c.String()
}

// ParseRef accepts ipfs://<cid>, /ipfs/<cid> or a bare CID.
func ParseRef(ref string) (cid.Cid, error) {
	s := strings.TrimSpace(ref)
	s = strings.TrimPrefix(s, Scheme)
	s = strings.TrimPrefix(s, "/ipfs/")
	if s == "" {
		return cid.Undef, fmt.Errorf("%w: empty content reference", sentinel.ErrInvalidInput)
	}
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("%w: content reference %q: %v", sentinel.ErrInvalidInput, ref, err)
	}
	return c, nil
}

// Verify re-hashes data and compares it with c. Only raw-codec CIDs address
// the bytes directly; others are accepted as is.
func Verify(c cid.Cid, data []byte) error {
	if c.Type() != cid.Raw {
		return nil
	}
	got, err := c.Prefix().Sum(data)
	if err != nil {
		return fmt.Errorf("hash content: %w", err)
	}
	if !got.Equals(c) {
		return fmt.Errorf("%w: expected %s, got %s", sentinel.ErrIntegrity, c, got)
	}
	return nil
}
