//go:build property
// +build property

// Property-based tests for the envelope codec contract: decryption is the
// identity on unprefixed input, round-trips under both prefixes, and never
// panics on arbitrary malformed envelopes.
package envelope_test

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/quarterlabs/statement-dispatch/pkg/envelope"
)

var propKey = envelope.KeyFromHex(strings.Repeat("2a", 32))

// TestDecryptIdentityOnPlaintext verifies plaintext passthrough.
// Property: Decrypt(s, key) == s for any s without a recognized prefix.
func TestDecryptIdentityOnPlaintext(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("unprefixed values pass through unchanged", prop.ForAll(
		func(s string) bool {
			if strings.HasPrefix(s, envelope.PrefixStandard) || strings.HasPrefix(s, envelope.PrefixDeterministic) {
				return true // Skip accidental prefixes
			}
			return envelope.Decrypt(s, propKey) == s
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestEncryptDecryptRoundTrip verifies the codec round-trip for both
// envelope forms.
// Property: Decrypt(Encrypt(s)) == s
func TestEncryptDecryptRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("standard envelopes round-trip", prop.ForAll(
		func(s string) bool {
			ct, err := envelope.Encrypt(s, propKey)
			if err != nil {
				return false
			}
			return envelope.Decrypt(ct, propKey) == s
		},
		gen.AnyString(),
	))

	properties.Property("deterministic envelopes round-trip and repeat", prop.ForAll(
		func(s string) bool {
			ct1, err1 := envelope.EncryptDeterministic(s, propKey)
			ct2, err2 := envelope.EncryptDeterministic(s, propKey)
			if err1 != nil || err2 != nil {
				return false
			}
			return ct1 == ct2 && envelope.Decrypt(ct1, propKey) == s
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestDecryptNeverPanics feeds arbitrary garbage behind valid prefixes.
// Property: Decrypt is total and returns the input when it cannot decrypt.
func TestDecryptNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("malformed envelopes come back unchanged", prop.ForAll(
		func(body string, deterministic bool) bool {
			v := envelope.PrefixStandard + body
			if deterministic {
				v = envelope.PrefixDeterministic + body
			}
			return envelope.Decrypt(v, propKey) == v
		},
		gen.AnyString(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
