// Package xrpl decodes the account and currency encodings XRP Ledger tokens use in bridge token pairs.
package xrpl

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxCurrencyLength truncates decoded non-standard currency codes.
	DefaultMaxCurrencyLength = 20
	// The XRP Ledger interest rules use a fixed year without leap days or leap seconds.
	yearSeconds = 31536000

	currencyCodeBytes  = 20
	demurragePrefix    = 0x01
	conciseCodePrefix  = 0x02
	conciseCodeSkipLen = 8

	explorerTokenURL = "https://livenet.xrpl.org/token/"
)

var (
	hexCurrencyCode = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	alphanumericRun = regexp.MustCompile(`[a-zA-Z0-9]{3,}`)
)

// Token is an issued currency: the currency code and the account that issued it.
type Token struct {
	Currency string
	Issuer   string
}

// Identifier renders the token the way the ledger explorer addresses it.
func (t Token) Identifier() string {
	if t.Issuer == "" {
		return t.Currency
	}
	return t.Currency + "." + t.Issuer
}

func (t Token) ExplorerURL() string {
	return explorerTokenURL + t.Identifier()
}

// DecodeASCII decodes tightly packed hex ASCII. Odd length, invalid hex or a zero byte yields "".
func DecodeASCII(raw string) string {
	raw = strings.TrimPrefix(raw, "0x")
	if len(raw)%2 != 0 {
		return ""
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return ""
	}
	for _, b := range decoded {
		if b == 0 {
			return ""
		}
	}
	return string(decoded)
}

// ParseTokenPairAccount decodes a token pair account of the form hex("issuer:currency").
// When normalize is set the currency code is run through NormalizeCurrencyCode.
func ParseTokenPairAccount(raw string, normalize bool) Token {
	text := DecodeASCII(raw)
	issuer, currency, _ := strings.Cut(text, ":")
	if normalize {
		currency = NormalizeCurrencyCode(currency, DefaultMaxCurrencyLength)
	}
	return Token{Currency: currency, Issuer: issuer}
}

// NormalizeCurrencyCode turns a ledger currency code into a display string.
// It returns "" when no rule applies and the code needs manual review.
func NormalizeCurrencyCode(code string, maxLength int) string {
	if code == "" {
		return ""
	}
	if len(code) == 3 && !strings.EqualFold(strings.TrimSpace(code), "xrp") {
		return strings.TrimSpace(code)
	}
	if !hexCurrencyCode.MatchString(code) {
		return ""
	}

	full, err := hex.DecodeString(code)
	if err != nil {
		return ""
	}
	stripped := trimTrailingZeroBytes(full)

	if len(stripped) > 0 && stripped[0] == demurragePrefix {
		demurrage, err := DecodeDemurrage(full)
		if err != nil {
			return ""
		}
		return demurrage.String()
	}
	if len(stripped) > 0 && stripped[0] == conciseCodePrefix && len(stripped) > conciseCodeSkipLen {
		if s, ok := displayCode(stripped[conciseCodeSkipLen:], maxLength); ok {
			return s
		}
	}
	if s, ok := displayCode(stripped, maxLength); ok {
		return s
	}
	return ""
}

func trimTrailingZeroBytes(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}

func displayCode(b []byte, maxLength int) (string, bool) {
	s := strings.ToValidUTF8(string(b), string(utf8.RuneError))
	if maxLength > 0 && utf8.RuneCountInString(s) > maxLength {
		s = string([]rune(s)[:maxLength])
	}
	s = strings.TrimSpace(s)
	if !alphanumericRun.MatchString(s) || strings.EqualFold(s, "xrp") {
		return "", false
	}
	return s, true
}

// Demurrage is a legacy currency code carrying a decay schedule.
type Demurrage struct {
	Code string
	// Start is the interest epoch start in ledger seconds.
	Start uint32
	// Period is the e-folding time of the decay in seconds. Negative values denote demurrage.
	Period float64
}

// AnnualInterest is the percentage the balance changes after one ledger year.
func (d Demurrage) AnnualInterest() float64 {
	return math.Exp(yearSeconds/d.Period)*100 - 100
}

func (d Demurrage) String() string {
	return fmt.Sprintf("%s (%s%% pa)", d.Code, strconv.FormatFloat(d.AnnualInterest(), 'f', -1, 64))
}

// DecodeDemurrage decodes a full 20 byte demurrage currency code.
func DecodeDemurrage(code []byte) (Demurrage, error) {
	if len(code) != currencyCodeBytes {
		return Demurrage{}, fmt.Errorf("demurrage code must be %d bytes, got %d", currencyCodeBytes, len(code))
	}
	if code[0] != demurragePrefix {
		return Demurrage{}, fmt.Errorf("demurrage code must start with 0x%02x, got 0x%02x", demurragePrefix, code[0])
	}
	return Demurrage{
		Code:   string(code[1:4]),
		Start:  binary.BigEndian.Uint32(code[4:8]),
		Period: math.Float64frombits(binary.BigEndian.Uint64(code[8:16])),
	}, nil
}
