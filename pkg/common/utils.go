package common

import (
	"errors"
	"io"
)

// MaxSafeInputSize bounds every batch file and HTTP body the auditor reads into memory.
const MaxSafeInputSize = 32 * 1024 * 1024

var ErrInputTooLarge = errors.New("input exceeds maximum safe size")

// SafeRead reads at most MaxSafeInputSize bytes from r. Larger inputs are rejected rather than truncated.
func SafeRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSafeInputSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxSafeInputSize {
		return nil, ErrInputTooLarge
	}
	return data, nil
}
