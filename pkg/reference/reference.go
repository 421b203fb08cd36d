// Package reference generates short human-readable references for payable
// records, e.g. RP-20261016-7KQ2M9.
package reference

import (
	"crypto/rand"
	"fmt"
	"time"
)

// alphabet drops 0/O and 1/I so references survive being read aloud.
const alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const suffixLen = 6

// MaxRetries bounds how often callers regenerate after a unique-index clash.
const MaxRetries = 5

// New returns prefix-YYYYMMDD-XXXXXX for the given UTC day.
func New(prefix string, now time.Time) (string, error) {
	buf := make([]byte, suffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reference entropy: %w", err)
	}
	suffix := make([]byte, suffixLen)
	for i, b := range buf {
		suffix[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), suffix), nil
}
