// Settings file support (.glotto.yaml / .glotto.toml).
//
// The file is optional. It supplies defaults for module and maxkeys and
// tunes the remote client; explicit command-line flags always win.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/glotto/prompt"
	"github.com/minios-linux/glotto/translate"
)

// FileNames are the settings files looked up in the working directory, in
// order of preference.
var FileNames = []string{".glotto.yaml", ".glotto.yml", ".glotto.toml"}

// DefaultDiagnosticsDir receives raw responses when diagnostics are enabled.
const DefaultDiagnosticsDir = "./tmp/"

// ---------------------------------------------------------------------------
// File schema
// ---------------------------------------------------------------------------

// File is the settings file structure. Every field is optional.
type File struct {
	// Module selects the translation module (default "gemini").
	Module string `yaml:"module,omitempty" toml:"module,omitempty"`
	// Model is the remote model identifier.
	Model string `yaml:"model,omitempty" toml:"model,omitempty"`
	// MaxKeys is the number of keys per request.
	MaxKeys int `yaml:"maxkeys,omitempty" toml:"maxkeys,omitempty"`
	// BaseURL overrides the API endpoint base.
	BaseURL string `yaml:"base_url,omitempty" toml:"base_url,omitempty"`
	// Proxy is an HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty" toml:"proxy,omitempty"`
	// Timeout is the per-request timeout, e.g. "90s".
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	// MaxRetries bounds retries of transient transport failures (0 disables).
	MaxRetries *int `yaml:"max_retries,omitempty" toml:"max_retries,omitempty"`
	// Diagnostics toggles the per-chunk raw response snapshots.
	Diagnostics *bool `yaml:"diagnostics,omitempty" toml:"diagnostics,omitempty"`
	// DiagnosticsDir is where snapshots are written.
	DiagnosticsDir string `yaml:"diagnostics_dir,omitempty" toml:"diagnostics_dir,omitempty"`
	// SystemPrompt overrides the system instruction ({{from}}/{{to}} placeholders).
	SystemPrompt string `yaml:"system_prompt,omitempty" toml:"system_prompt,omitempty"`
	// UserPrompt overrides the user instruction ({{from}}/{{to}} placeholders).
	UserPrompt string `yaml:"user_prompt,omitempty" toml:"user_prompt,omitempty"`

	path string
}

// Path returns the file the settings were read from.
func (f *File) Path() string {
	if f == nil {
		return ""
	}
	return f.path
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the settings file. An explicit path must exist; otherwise the
// FileNames are tried in dir. Returns nil if no file is found.
func Load(dir, explicit string) (*File, error) {
	if explicit != "" {
		return LoadFile(explicit)
	}

	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("checking %s: %w", path, err)
		}
		return LoadFile(path)
	}
	return nil, nil
}

// LoadFile reads and validates a single settings file. The format is chosen
// by extension: .toml is TOML, anything else YAML.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f File
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.path = path

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.MaxKeys < 0 {
		return fmt.Errorf("maxkeys must be at least 1, got %d", f.MaxKeys)
	}
	if f.MaxRetries != nil && (*f.MaxRetries < 0 || *f.MaxRetries > translate.MaxRetriesLimit) {
		return fmt.Errorf("max_retries must be between 0 and %d, got %d", translate.MaxRetriesLimit, *f.MaxRetries)
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", f.Timeout)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resolved settings
// ---------------------------------------------------------------------------

// Settings tune the remote client and diagnostics for one run.
type Settings struct {
	Model          string
	BaseURL        string
	Proxy          string
	Timeout        time.Duration
	MaxRetries     int
	Diagnostics    bool
	DiagnosticsDir string
	Prompts        prompt.Templates
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		Model:          translate.DefaultModel,
		BaseURL:        translate.DefaultBaseURL,
		Timeout:        translate.DefaultTimeout,
		MaxRetries:     translate.DefaultMaxRetries,
		Diagnostics:    true,
		DiagnosticsDir: DefaultDiagnosticsDir,
	}
}

// Settings overlays the file onto the defaults. A nil file yields the
// defaults.
func (f *File) Settings() Settings {
	s := DefaultSettings()
	if f == nil {
		return s
	}

	if f.Model != "" {
		s.Model = f.Model
	}
	if f.BaseURL != "" {
		s.BaseURL = f.BaseURL
	}
	if f.Proxy != "" {
		s.Proxy = f.Proxy
	}
	if d, err := time.ParseDuration(f.Timeout); err == nil && d > 0 {
		s.Timeout = d
	}
	if f.MaxRetries != nil {
		s.MaxRetries = *f.MaxRetries
	}
	if f.Diagnostics != nil {
		s.Diagnostics = *f.Diagnostics
	}
	if f.DiagnosticsDir != "" {
		s.DiagnosticsDir = f.DiagnosticsDir
	}
	s.Prompts = prompt.Templates{System: f.SystemPrompt, User: f.UserPrompt}
	return s
}
