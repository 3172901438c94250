// Package secrets keeps credentials in the dayplan .env file encrypted with
// an age X25519 key. Encrypted values look like ENC[age:<base64>].
package secrets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"

	"github.com/dohr-michael/dayplan/internal/config"
)

const (
	encPrefix = "ENC[age:"
	encSuffix = "]"
)

// ErrNotEncrypted is returned when opening a value that is not an ENC blob.
var ErrNotEncrypted = errors.New("value is not encrypted")

// KeyPath returns the default key file: $DAYPLAN_PATH/.age-key.
func KeyPath() string {
	return filepath.Join(config.DayplanPath(), ".age-key")
}

// Box seals and opens values with one age identity.
type Box struct {
	identity *age.X25519Identity
}

// LoadBox reads the identity at path. With create set, a missing key file is
// generated first.
func LoadBox(path string, create bool) (*Box, error) {
	if create {
		if err := generateIdentity(path); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open age key: %w", err)
	}
	defer f.Close()

	identities, err := age.ParseIdentities(f)
	if err != nil {
		return nil, fmt.Errorf("parse age identities: %w", err)
	}
	id, ok := identities[0].(*age.X25519Identity)
	if !ok {
		return nil, fmt.Errorf("unexpected identity type in %s", path)
	}
	return &Box{identity: id}, nil
}

// generateIdentity writes a new X25519 key pair with 0600 permissions unless
// path already exists.
func generateIdentity(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generate age identity: %w", err)
	}

	content := fmt.Sprintf("# created by dayplan\n# public key: %s\n%s\n",
		identity.Recipient().String(), identity.String())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write age key: %w", err)
	}
	return nil
}

// Recipient returns the public key values are sealed to.
func (b *Box) Recipient() string {
	return b.identity.Recipient().String()
}

// Seal encrypts plaintext into an ENC[age:...] blob.
func (b *Box) Seal(plaintext string) (string, error) {
	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, b.identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("age encrypt init: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("age encrypt write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("age encrypt close: %w", err)
	}

	return encPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()) + encSuffix, nil
}

// Open decrypts an ENC[age:...] blob.
func (b *Box) Open(blob string) (string, error) {
	if !IsEncrypted(blob) {
		return "", ErrNotEncrypted
	}

	ciphertext, err := base64.StdEncoding.DecodeString(blob[len(encPrefix) : len(blob)-len(encSuffix)])
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), b.identity)
	if err != nil {
		return "", fmt.Errorf("age decrypt: %w", err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read decrypted: %w", err)
	}
	return string(plain), nil
}

// IsEncrypted reports whether s is an ENC[age:...] blob.
func IsEncrypted(s string) bool {
	return strings.HasPrefix(s, encPrefix) && strings.HasSuffix(s, encSuffix)
}
