package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateCode returns n random base36 characters.
func GenerateCode(n int) (string, error) {
	limit := big.NewInt(int64(len(base36)))
	code := make([]byte, n)
	for i := range code {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code[i] = base36[idx.Int64()]
	}
	return string(code), nil
}

// TicketNumber formats <CATEGORY>-<unix ms>-<6 base36 chars>.
func TicketNumber(category string, now time.Time) (string, error) {
	suffix, err := GenerateCode(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(category), now.UnixMilli(), suffix), nil
}
