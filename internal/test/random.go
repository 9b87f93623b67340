package test

import (
	"fmt"
	"math/rand/v2"
)

const credentialAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomASCIIString returns an alphanumeric string of length in [minLen, maxLen].
func RandomASCIIString(minLen, maxLen int) string {
	minLen = max(minLen, 1)
	maxLen = max(maxLen, minLen)
	buf := make([]byte, minLen+rand.IntN(maxLen-minLen+1))
	for i := range buf {
		buf[i] = credentialAlphabet[rand.IntN(len(credentialAlphabet))]
	}
	return string(buf)
}

// RandomWalletNumber returns a Philippine mobile number in local format.
func RandomWalletNumber() string {
	return fmt.Sprintf("0917%07d", rand.IntN(10_000_000))
}
