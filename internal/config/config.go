package config

import "time"

// Config is the root configuration for dayplan.
type Config struct {
	Gateway    GatewayConfig    `json:"gateway"`
	Storage    StorageConfig    `json:"storage"`
	Events     EventsConfig     `json:"events"`
	Models     ModelsConfig     `json:"models"`
	Generation GenerationConfig `json:"generation"`
	Assistant  AssistantConfig  `json:"assistant"`
}

// GatewayConfig holds the HTTP server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageConfig locates persistent state.
type StorageConfig struct {
	Path        string `json:"path"`          // SQLite database (default: $DAYPLAN_PATH/dayplan.db)
	EventLogDir string `json:"event_log_dir"` // JSONL event log (default: $DAYPLAN_PATH/logs)
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int    `json:"buffer_size"`
	LogLevel   string `json:"log_level"`
	// Persisted limits the on-disk event log to these event types. Empty
	// persists every event.
	Persisted []string `json:"persisted,omitempty"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver    string         `json:"driver"` // "anthropic", "openai", "ollama"
	Model     string         `json:"model"`
	BaseURL   string         `json:"base_url,omitempty"`
	Auth      AuthConfig     `json:"auth"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // Direct API key or ${{ .Env.VAR }} template
}

// Primary generator drivers.
const (
	DriverWebhook = "webhook"
	DriverModel   = "model"
	DriverNone    = "none"
)

// PolicyConfig bounds a remote call: per-attempt timeout, attempt count and
// fixed delay between attempts.
type PolicyConfig struct {
	Timeout     Duration `json:"timeout"`
	MaxAttempts int      `json:"max_attempts"`
	Backoff     Duration `json:"backoff"`
}

// PrimaryConfig selects and configures the remote primary generator.
type PrimaryConfig struct {
	Driver  string            `json:"driver"` // "webhook", "model", "none"
	URL     string            `json:"url,omitempty"`
	Model   string            `json:"model,omitempty"` // provider name in models.providers
	Headers map[string]string `json:"headers,omitempty"`
	Policy  PolicyConfig      `json:"policy"`
}

// PreferencesConfig holds generation defaults applied when a request omits them.
type PreferencesConfig struct {
	TaskCount   int      `json:"task_count"`
	MaxDuration int      `json:"max_duration"` // minutes
	Priorities  []string `json:"priorities"`
}

// GenerationConfig configures the daily task generator.
type GenerationConfig struct {
	Locale      string            `json:"locale"` // "en" or "zh"
	Primary     PrimaryConfig     `json:"primary"`
	Preferences PreferencesConfig `json:"preferences"`
}

// AssistantConfig configures the conversational assistant.
type AssistantConfig struct {
	Driver   string       `json:"driver"` // "webhook", "model", "none"
	URL      string       `json:"url,omitempty"`
	Model    string       `json:"model,omitempty"`
	Policy   PolicyConfig `json:"policy"`
	Strategy string       `json:"strategy"` // fallback replies: "keyword" or "fixed"
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
