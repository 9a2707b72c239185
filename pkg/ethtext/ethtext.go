// Package ethtext validates and normalizes the textual forms of Ethereum
// addresses and transaction hashes. All inbound strings pass through here
// before any lookup or write; malformed input is rejected, never coerced.
package ethtext

import (
	"regexp"
	"strings"
)

var (
	addressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	txHashRe  = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
)

// IsValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// IsValidTxHash reports whether s is a 0x-prefixed 32-byte hex hash.
func IsValidTxHash(s string) bool {
	return txHashRe.MatchString(s)
}

// NormalizeAddress case-folds an address to its canonical lowercase form.
func NormalizeAddress(s string) string {
	return strings.ToLower(s)
}

// NormalizeTxHash case-folds a transaction hash to lowercase.
func NormalizeTxHash(s string) string {
	return strings.ToLower(s)
}
