// Package account canonicalizes stored account identifiers. Every lookup
// key, display value, and filter bound goes through Normalize first; raw
// stored values are never compared directly.
package account

import (
	"strings"

	"github.com/quarterlabs/statement-dispatch/pkg/envelope"
)

// FallbackToken replaces an account whose sanitized form is empty. It is
// part of the artifact filename contract shared with the PDF producer.
const FallbackToken = "member"

// Normalizer resolves envelopes and canonicalizes the result. A nil key
// leaves encrypted values opaque, which the codec handles by passthrough.
type Normalizer struct {
	key []byte
}

func NewNormalizer(key []byte) *Normalizer {
	return &Normalizer{key: key}
}

// Normalize decrypts raw if it is an envelope, trims surrounding
// whitespace, and removes interior spaces. Absent input maps to "".
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	decrypted := envelope.Decrypt(raw, n.key)
	return strings.ReplaceAll(strings.TrimSpace(decrypted), " ", "")
}

// Sanitize reduces an account to the artifact-safe alphabet [A-Za-z0-9_-].
// An account that sanitizes to nothing becomes the literal fallback token.
func Sanitize(account string) string {
	var b strings.Builder
	for _, r := range account {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return FallbackToken
	}
	return b.String()
}

// Compare orders two normalized accounts. When both consist only of
// digits they compare as integers, so "9" sorts before "10"; otherwise
// the comparison is lexicographic.
func Compare(a, b string) int {
	if allDigits(a) && allDigits(b) {
		return compareNumeric(a, b)
	}
	return strings.Compare(a, b)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compareNumeric compares digit strings as integers of arbitrary length:
// strip leading zeros, shorter is smaller, equal lengths compare bytewise.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
