package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dohr-michael/dayplan/internal/config"
)

func TestSetEntry(t *testing.T) {
	tests := []struct {
		name       string
		initial    string // "" means no file
		key, value string
		want       string
	}{
		{
			name: "creates file",
			key:  "DAYPLAN_WEBHOOK_URL", value: "https://flows.example.com/hook",
			want: "DAYPLAN_WEBHOOK_URL=https://flows.example.com/hook\n",
		},
		{
			name:    "replaces in place and keeps comments",
			initial: "# generator\nOPENAI_API_KEY=old\nDAYPLAN_LOCALE=zh\n",
			key:     "OPENAI_API_KEY", value: "sk-new",
			want: "# generator\nOPENAI_API_KEY=sk-new\nDAYPLAN_LOCALE=zh\n",
		},
		{
			name:    "appends unknown key",
			initial: "DAYPLAN_LOCALE=en\n",
			key:     "ANTHROPIC_API_KEY", value: "ENC[age:YWJj]",
			want: "DAYPLAN_LOCALE=en\nANTHROPIC_API_KEY=ENC[age:YWJj]\n",
		},
		{
			name:    "rewrites exported entry",
			initial: "export TOKEN=old\n",
			key:     "TOKEN", value: "new",
			want: "TOKEN=new\n",
		},
		{
			name: "quotes whitespace and escapes quotes",
			key:  "GREETING", value: `say "hi" now`,
			want: "GREETING=\"say \\\"hi\\\" now\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", ".env")
			if tt.initial != "" {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, []byte(tt.initial), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			if err := SetEntry(path, tt.key, tt.value); err != nil {
				t.Fatalf("SetEntry: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("content = %q, want %q", data, tt.want)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != 0o600 {
				t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
			}
		})
	}
}

func TestSetEntry_InvalidKey(t *testing.T) {
	for _, key := range []string{"BAD KEY", "1ST", "A-B", ""} {
		if err := SetEntry(filepath.Join(t.TempDir(), ".env"), key, "v"); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}

func TestSetEntry_ReadBackByLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	value := `pa ss "word" \ #1`
	if err := SetEntry(path, "DAYPLAN_ROUNDTRIP", value); err != nil {
		t.Fatal(err)
	}

	os.Unsetenv("DAYPLAN_ROUNDTRIP")
	t.Cleanup(func() { os.Unsetenv("DAYPLAN_ROUNDTRIP") })
	if err := config.LoadDotenv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("DAYPLAN_ROUNDTRIP"); got != value {
		t.Errorf("got %q, want %q", got, value)
	}
}
