package utils

import "regexp"

// Bech32-style wallet address scheme: literal prefix followed by a
// fixed-length lowercase alphanumeric body. Every address accepted
// from the outside goes through IsValidAddress first.
const (
	AddressPrefix  = "erd1"
	AddressBodyLen = 58
)

var addressRe = regexp.MustCompile(`^erd1[0-9a-z]{58}$`)

// IsValidAddress reports whether s is a well-formed wallet address.
func IsValidAddress(s string) bool {
	return addressRe.MatchString(s)
}
