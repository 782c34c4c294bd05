// Package idgen provides cryptographically random identifier generation.
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// WithPrefix generates a random ID with a prefix (e.g. "chal_", "req_").
// Result is prefix + 24 hex chars (12 random bytes, 96 bits of entropy).
func WithPrefix(prefix string) string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return prefix + hex.EncodeToString(b)
}

// Digits generates a random numeric string of exactly n digits,
// zero-padded on the left. Drawn uniformly from [0, 10^n) so shorter
// values are not over-represented.
func Digits(n int) string {
	bound := big.NewInt(10)
	bound.Exp(bound, big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, bound)
	if err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	s := v.String()
	for len(s) < n {
		s = "0" + s
	}
	return s
}
