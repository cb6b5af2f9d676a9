// Package config builds the process configuration once at startup. No
// other component reads environment state; everything receives this
// struct (or a field of it) explicitly.
package config

import (
	"fmt"
	"os"

	"github.com/quarterlabs/statement-dispatch/pkg/envelope"
)

// Config holds batch-run configuration.
type Config struct {
	DatabaseURL string

	APIBaseURL string
	APIToken   string

	// EncryptionKey is the decoded AES key, nil when the environment does
	// not carry a valid 64-hex-character key. Decryption is feature
	// flagged: a missing key leaves envelopes opaque.
	EncryptionKey []byte

	// Default statement period bounds (YYYY-MM-DD).
	StartDate string
	EndDate   string

	// ArtifactDir is the root of the per-period statement folders.
	ArtifactDir string
}

// Load reads configuration from environment variables with the same
// defaults the batch scripts have always used.
func Load() *Config {
	return &Config{
		DatabaseURL:   databaseURL(),
		APIBaseURL:    getenv("API_BASE_URL", "http://localhost:3000"),
		APIToken:      os.Getenv("QUARTERLY_PDF_API_TOKEN"),
		EncryptionKey: envelope.KeyFromHex(os.Getenv("ENCRYPTION_KEY")),
		StartDate:     getenv("START_DATE", "2025-07-01"),
		EndDate:       getenv("END_DATE", "2025-09-30"),
		ArtifactDir:   getenv("STATEMENT_DIR", "statements"),
	}
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	user := getenv("DB_USER", "postgres")
	password := os.Getenv("DB_PASSWORD")
	name := getenv("DB_NAME", "statements")
	sslmode := getenv("DB_SSLMODE", "disable")

	cred := user
	if password != "" {
		cred = user + ":" + password
	}
	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", cred, host, port, name, sslmode)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
