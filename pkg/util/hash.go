package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex SHA-256 digest of the concatenated parts, each
// terminated by a zero byte so ("ab","c") and ("a","bc") differ.
func SHA256Hex(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
