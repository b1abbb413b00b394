package utils

import (
    "crypto/rand"
    "encoding/hex"
    "fmt"
    "math/big"
)

// NewOTPCode returns a uniformly distributed six digit code, zero padded.
func NewOTPCode() (string, error) {
    n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
    if err != nil {
        return "", err
    }
    return fmt.Sprintf("%06d", n.Int64()), nil
}

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  Reset tokens use 32 bytes.
func RandomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
