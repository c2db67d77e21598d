package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Fingerprint identifies a reference profile's binning definition.
// Two profiles with the same fingerprint bin identically, so scores
// computed against either are comparable.
type Fingerprint Hash

// String conversion
func (f Fingerprint) String() string { return Hash(f).String() }

// ComputeFingerprint derives a fingerprint from a profile's binning definition.
// Edges and categories are folded in a stable order so the result does not
// depend on map iteration or input ordering.
func ComputeFingerprint(feature string, kind string, edges []float64, categories []string) Fingerprint {
	var data strings.Builder
	data.WriteString(feature)
	data.WriteString("|")
	data.WriteString(kind)
	for _, e := range edges {
		data.WriteString(fmt.Sprintf("|%.12g", e))
	}

	sorted := make([]string, len(categories))
	copy(sorted, categories)
	sort.Strings(sorted)
	for _, c := range sorted {
		data.WriteString("|")
		data.WriteString(c)
	}

	return Fingerprint(NewHash([]byte(data.String())))
}
