package domain

import (
	"strings"
	"unicode"
)

const maxAddressLen = 128

// NormalizeAddress returns the case-insensitive cache key for an address.
// The result never aliases addr, so it is safe to keep after a request ends.
func NormalizeAddress(addr string) string {
	return strings.Clone(strings.ToLower(strings.TrimSpace(addr)))
}

// ValidateAddress accepts base58 (Solana) and 0x-hex style addresses. It is a
// shape check only; the upstream is the authority on whether a token exists.
func ValidateAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	if len(addr) < 3 || len(addr) > maxAddressLen {
		return ErrInvalidAddress
	}
	for _, r := range addr {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return ErrInvalidAddress
		}
	}
	return nil
}
