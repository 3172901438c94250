package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestBox(t *testing.T) (*Box, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys", ".age-key")
	box, err := LoadBox(path, true)
	if err != nil {
		t.Fatalf("LoadBox: %v", err)
	}
	return box, path
}

func TestLoadBox_CreatesKey(t *testing.T) {
	box, path := newTestBox(t)

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
	if !strings.HasPrefix(box.Recipient(), "age1") {
		t.Errorf("unexpected recipient %q", box.Recipient())
	}
}

func TestLoadBox_ReusesKey(t *testing.T) {
	box1, path := newTestBox(t)
	box2, err := LoadBox(path, true)
	if err != nil {
		t.Fatalf("second LoadBox: %v", err)
	}
	if box1.Recipient() != box2.Recipient() {
		t.Error("key was regenerated on second load")
	}
}

func TestLoadBox_MissingKey(t *testing.T) {
	if _, err := LoadBox(filepath.Join(t.TempDir(), ".age-key"), false); err == nil {
		t.Error("expected error for missing key without create")
	}
}

func TestSealOpen(t *testing.T) {
	box, path := newTestBox(t)

	for _, plaintext := range []string{"sk-test-token-abc123", ""} {
		sealed, err := box.Seal(plaintext)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		if !IsEncrypted(sealed) {
			t.Errorf("IsEncrypted(%q) = false", sealed)
		}

		// A box loaded from the same key file opens it.
		other, err := LoadBox(path, false)
		if err != nil {
			t.Fatal(err)
		}
		got, err := other.Open(sealed)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if got != plaintext {
			t.Errorf("Open = %q, want %q", got, plaintext)
		}
	}
}

func TestOpen_WrongKey(t *testing.T) {
	box1, _ := newTestBox(t)
	box2, _ := newTestBox(t)

	sealed, err := box1.Seal("secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := box2.Open(sealed); err == nil {
		t.Error("expected error opening with another key")
	}
}

func TestOpen_RejectsPlaintext(t *testing.T) {
	box, _ := newTestBox(t)
	if _, err := box.Open("not-encrypted"); !errors.Is(err, ErrNotEncrypted) {
		t.Errorf("expected ErrNotEncrypted, got %v", err)
	}
}

func TestIsEncrypted(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"ENC[age:abc123]", true},
		{"ENC[age:]", true},
		{"plaintext", false},
		{"ENC[age:abc123", false},
		{"age:abc123]", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsEncrypted(tt.input); got != tt.want {
			t.Errorf("IsEncrypted(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRevealEnv(t *testing.T) {
	box, _ := newTestBox(t)
	sealed, err := box.Seal("sk-live-123")
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("DAYPLAN_TEST_SEALED", sealed)
	t.Setenv("DAYPLAN_TEST_PLAIN", "visible")

	if !HasEncryptedEnv() {
		t.Fatal("expected an encrypted variable")
	}
	revealed, err := RevealEnv(box)
	if err != nil {
		t.Fatalf("RevealEnv: %v", err)
	}
	if len(revealed) != 1 || revealed[0] != "DAYPLAN_TEST_SEALED" {
		t.Errorf("revealed = %v", revealed)
	}
	if got := os.Getenv("DAYPLAN_TEST_SEALED"); got != "sk-live-123" {
		t.Errorf("DAYPLAN_TEST_SEALED = %q", got)
	}
	if got := os.Getenv("DAYPLAN_TEST_PLAIN"); got != "visible" {
		t.Errorf("DAYPLAN_TEST_PLAIN = %q", got)
	}
}
