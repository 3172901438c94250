package secrets

import (
	"fmt"
	"os"
	"strings"
)

// RevealEnv replaces every encrypted environment value with its plaintext so
// config templates and provider auth see usable credentials. It returns the
// names of the variables it decrypted.
func RevealEnv(b *Box) ([]string, error) {
	var revealed []string
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !IsEncrypted(value) {
			continue
		}
		plain, err := b.Open(value)
		if err != nil {
			return revealed, fmt.Errorf("decrypt %s: %w", key, err)
		}
		if err := os.Setenv(key, plain); err != nil {
			return revealed, err
		}
		revealed = append(revealed, key)
	}
	return revealed, nil
}

// HasEncryptedEnv reports whether any environment value is encrypted.
func HasEncryptedEnv() bool {
	for _, kv := range os.Environ() {
		if _, value, ok := strings.Cut(kv, "="); ok && IsEncrypted(value) {
			return true
		}
	}
	return false
}
