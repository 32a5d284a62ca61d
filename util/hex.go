package util

import (
	"encoding/hex"
	"strings"
)

// TrimHexPrefix removes a single leading "0x" or "0X".
func TrimHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}

	return s
}

// DecodeHex decodes s with or without a leading "0x" or "0X".
func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(TrimHexPrefix(s))
}

// EncodeHex returns "0x" followed by the lowercase hex of b.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
