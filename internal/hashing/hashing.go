package hashing

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
)

// Calculate returns the hex encoded SHA-512 digest of data.
func Calculate(data []byte) string {
	h := sha512.Sum512(data)
	return hex.EncodeToString(h[:])
}

func CalculateSHA512(text string) string {
	return Calculate([]byte(text))
}

func CalculateSHA256(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
