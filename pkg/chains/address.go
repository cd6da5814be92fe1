package chains

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	addressHexLength = 40
	// TRON base58check addresses decode to a 0x41 prefix, 20 address bytes and a 4 byte checksum.
	tronAddressPrefix  = 0x41
	tronDecodedLength  = 25
	tronChecksumLength = 4
)

// NormalizeAddress renders an account as the lower-cased low 160 bits of its hex form.
// TRON base58check addresses are decoded first so they compare equal to their hex encoding.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if body, ok := decodeTronAddress(addr); ok {
		return hex.EncodeToString(body)
	}
	addr = strings.ToLower(addr)
	if len(addr) > addressHexLength {
		return addr[len(addr)-addressHexLength:]
	}
	return strings.TrimPrefix(addr, "0x")
}

// SameAddress compares two accounts ignoring case, padding and TRON encoding.
func SameAddress(a, b string) bool {
	na, nb := NormalizeAddress(a), NormalizeAddress(b)
	return na != "" && na == nb
}

// IsZeroAddress reports whether addr denotes the native coin sentinel.
func IsZeroAddress(addr string) bool {
	s := strings.TrimSpace(addr)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	return strings.Trim(s, "0") == ""
}

func decodeTronAddress(addr string) ([]byte, bool) {
	if len(addr) != 34 || addr[0] != 'T' {
		return nil, false
	}
	decoded, err := base58.Decode(addr)
	if err != nil || len(decoded) != tronDecodedLength || decoded[0] != tronAddressPrefix {
		return nil, false
	}
	payload := decoded[:tronDecodedLength-tronChecksumLength]
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(second[:tronChecksumLength], decoded[tronDecodedLength-tronChecksumLength:]) {
		return nil, false
	}
	return payload[1:], true
}
