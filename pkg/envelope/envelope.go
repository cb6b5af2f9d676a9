// Package envelope implements the tagged-envelope codec used for account
// identifiers and member payloads at rest.
//
// A stored value is one of three forms:
//
//	plaintext                      (no prefix, returned verbatim)
//	ENC:<iv>:<tag>:<ciphertext>    (standard AES-256-GCM, hex fields)
//	DENC:<iv>:<tag>:<ciphertext>   (deterministic variant, same cipher)
//
// The DENC prefix only signals that the writer derived the IV from the
// plaintext so equal inputs encrypt to equal envelopes; decryption is
// identical for both prefixes.
//
// Decryption never fails: missing key, malformed envelope, bad hex, or a
// GCM auth mismatch all return the input unchanged. The same columns hold
// encrypted and plaintext values side by side, so an undecryptable value
// is treated as opaque plaintext rather than aborting a batch.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	// PrefixStandard tags a non-deterministic envelope.
	PrefixStandard = "ENC:"
	// PrefixDeterministic tags a deterministic envelope.
	PrefixDeterministic = "DENC:"

	ivSize  = 12
	tagSize = 16
	keySize = 32
)

// KeyFromHex decodes a 64-hex-character encryption key. Anything else
// (unset, wrong length, bad hex) yields nil, which disables decryption.
func KeyFromHex(s string) []byte {
	if len(s) != keySize*2 {
		return nil
	}
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return key
}

// Decrypt resolves an envelope to plaintext. It is total: every failure
// mode returns the input unchanged.
func Decrypt(value string, key []byte) string {
	if value == "" {
		return value
	}

	var body string
	switch {
	case strings.HasPrefix(value, PrefixStandard):
		body = value[len(PrefixStandard):]
	case strings.HasPrefix(value, PrefixDeterministic):
		body = value[len(PrefixDeterministic):]
	default:
		return value
	}

	if len(key) != keySize {
		return value
	}

	pt, ok := open(body, key)
	if !ok {
		return value
	}
	return pt
}

// DecryptJSON decrypts an envelope and parses the result as a JSON object.
// Unprefixed input is parsed directly, which covers batches whose payload
// column was written before encryption was enabled. Any decryption or
// parse failure reports ok=false.
func DecryptJSON(value string, key []byte) (map[string]any, bool) {
	if value == "" {
		return nil, false
	}

	raw := value
	if strings.HasPrefix(value, PrefixStandard) || strings.HasPrefix(value, PrefixDeterministic) {
		raw = Decrypt(value, key)
		if raw == value {
			return nil, false
		}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, false
	}
	return doc, true
}

// open splits an envelope body into iv:tag:ciphertext and runs GCM open
// with the tag reattached after the ciphertext bytes.
func open(body string, key []byte) (string, bool) {
	parts := strings.Split(body, ":")
	if len(parts) != 3 {
		return "", false
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", false
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", false
	}
	ct, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", false
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", false
	}
	if len(iv) != gcm.NonceSize() || len(tag) != tagSize {
		return "", false
	}

	pt, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return "", false
	}
	return string(pt), true
}

// Encrypt seals plaintext into a standard ENC: envelope with a random IV.
func Encrypt(plaintext string, key []byte) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("envelope: generate iv: %w", err)
	}
	return seal(PrefixStandard, plaintext, iv, key)
}

// EncryptDeterministic seals plaintext into a DENC: envelope. The IV is an
// HMAC of the plaintext under the key, so equal plaintexts produce equal
// envelopes and the ciphertext itself is usable as a lookup key.
func EncryptDeterministic(plaintext string, key []byte) (string, error) {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(plaintext))
	iv := mac.Sum(nil)[:ivSize]
	return seal(PrefixDeterministic, plaintext, iv, key)
}

func seal(prefix, plaintext string, iv, key []byte) (string, error) {
	if len(key) != keySize {
		return "", fmt.Errorf("envelope: key must be %d bytes, got %d", keySize, len(key))
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	ct := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return prefix + hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ct), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("envelope: aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("envelope: gcm: %w", err)
	}
	return gcm, nil
}
