package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix leaves room for
// changing the algorithm later.
const (
	DomainMetadata = "advcases/metadata/v1"
	DomainState    = "advcases/state/v1"
	DomainTrace    = "advcases/trace/v1"
)

// hashWithDomain computes SHA256(domain || 0x00 || data).
// The null separator keeps domain and data from running together.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest hashes the canonical JSON of v under domain.
func Digest(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// StateDigest hashes a set of storage cells given as hex key → hex value.
// Equal cell sets produce equal digests regardless of insertion order.
func StateDigest(cells map[string]string) string {
	obj := make(Object, len(cells))
	for k, v := range cells {
		obj[k] = String(v)
	}
	// Only strings inside: canonical marshaling cannot fail.
	canonical, _ := MarshalCanonical(obj)
	return hashWithDomain(DomainState, canonical)
}
