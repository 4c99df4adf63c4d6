package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minios-linux/glotto/translate"
)

func validArgs() Args {
	return Args{
		ArgKey:     "API_KEY",
		ArgModule:  "gemini",
		ArgInput:   "./en.json",
		ArgOutput:  "./tr.json",
		ArgFrom:    "English",
		ArgTo:      "Turkish",
		ArgMaxKeys: "5",
	}
}

func TestValidate_Success(t *testing.T) {
	cfg, err := Validate(validArgs())
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	want := Config{
		APIKey:  "API_KEY",
		Module:  "gemini",
		Input:   "./en.json",
		Output:  "./tr.json",
		From:    "English",
		To:      "Turkish",
		MaxKeys: 5,
	}
	if *cfg != want {
		t.Fatalf("Validate() = %+v, want %+v", *cfg, want)
	}
}

func TestValidate_MissingTo(t *testing.T) {
	args := validArgs()
	delete(args, ArgTo)

	_, err := Validate(args)
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("Validate error = %v, want ErrMissingParameter", err)
	}
	var pe *ParameterError
	if !errors.As(err, &pe) || pe.Name != ArgTo {
		t.Fatalf("Validate error = %#v, want parameter %q", err, ArgTo)
	}
}

func TestValidate_ReportsFirstMissingInOrder(t *testing.T) {
	tests := []struct {
		name  string
		clear []string
		want  string
	}{
		{name: "all missing", clear: []string{ArgKey, ArgModule, ArgInput, ArgOutput, ArgFrom, ArgTo}, want: ArgKey},
		{name: "input and to", clear: []string{ArgInput, ArgTo}, want: ArgInput},
		{name: "output and from", clear: []string{ArgFrom, ArgOutput}, want: ArgOutput},
		{name: "module only", clear: []string{ArgModule}, want: ArgModule},
		{name: "from only", clear: []string{ArgFrom}, want: ArgFrom},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := validArgs()
			for _, k := range tc.clear {
				args[k] = ""
			}
			_, err := Validate(args)
			var pe *ParameterError
			if !errors.As(err, &pe) || pe.Name != tc.want {
				t.Fatalf("Validate error = %v, want missing %q", err, tc.want)
			}
		})
	}
}

func TestValidate_WhitespaceCountsAsMissing(t *testing.T) {
	args := validArgs()
	args[ArgKey] = "   "

	_, err := Validate(args)
	var pe *ParameterError
	if !errors.As(err, &pe) || pe.Name != ArgKey || !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("Validate error = %v, want missing key", err)
	}
}

func TestValidate_MaxKeys(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: DefaultMaxKeys},
		{raw: "1", want: 1},
		{raw: " 20 ", want: 20},
		{raw: "5.0", want: 5},
		{raw: "1e1", want: 10},
		{raw: "abc", wantErr: true},
		{raw: "0", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "2.5", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "Inf", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			args := validArgs()
			args[ArgMaxKeys] = tc.raw

			cfg, err := Validate(args)
			if tc.wantErr {
				var pe *ParameterError
				if !errors.Is(err, ErrInvalidParameter) || !errors.As(err, &pe) || pe.Name != ArgMaxKeys {
					t.Fatalf("Validate(maxkeys=%q) error = %v, want invalid maxkeys", tc.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate(maxkeys=%q) error: %v", tc.raw, err)
			}
			if cfg.MaxKeys != tc.want {
				t.Fatalf("MaxKeys = %d, want %d", cfg.MaxKeys, tc.want)
			}
		})
	}
}

func TestValidate_AbsentMaxKeysUsesDefault(t *testing.T) {
	args := validArgs()
	delete(args, ArgMaxKeys)

	cfg, err := Validate(args)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cfg.MaxKeys != 5 {
		t.Fatalf("MaxKeys = %d, want 5", cfg.MaxKeys)
	}
}

func TestValidate_Module(t *testing.T) {
	args := validArgs()
	args[ArgModule] = " Gemini "
	cfg, err := Validate(args)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if cfg.Module != ModuleGemini {
		t.Fatalf("Module = %q, want %q", cfg.Module, ModuleGemini)
	}

	args[ArgModule] = "openai"
	_, err = Validate(args)
	var pe *ParameterError
	if !errors.Is(err, ErrInvalidParameter) || !errors.As(err, &pe) || pe.Name != ArgModule {
		t.Fatalf("Validate(module=openai) error = %v, want invalid module", err)
	}
}

func TestParameterError_Message(t *testing.T) {
	missing := &ParameterError{Name: ArgTo, Err: ErrMissingParameter}
	if got := missing.Error(); got != "missing required parameter: --to" {
		t.Fatalf("Error() = %q", got)
	}

	invalid := &ParameterError{Name: ArgMaxKeys, Value: "x", Reason: "must be a number", Err: ErrInvalidParameter}
	if got := invalid.Error(); got != `invalid parameter --maxkeys "x": must be a number` {
		t.Fatalf("Error() = %q", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".glotto.yaml"), `module: gemini
model: gemini-2.0-flash
maxkeys: 20
timeout: 30s
max_retries: 0
diagnostics: false
system_prompt: "Translate {{from}} into {{to}}."
`)

	f, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f == nil {
		t.Fatal("Load returned nil, want settings")
	}
	if f.Path() != filepath.Join(dir, ".glotto.yaml") {
		t.Fatalf("Path() = %q", f.Path())
	}
	if f.MaxKeys != 20 || f.Module != "gemini" {
		t.Fatalf("unexpected file: %+v", f)
	}

	s := f.Settings()
	if s.Model != "gemini-2.0-flash" {
		t.Fatalf("Model = %q", s.Model)
	}
	if s.Timeout != 30*time.Second {
		t.Fatalf("Timeout = %v, want 30s", s.Timeout)
	}
	if s.MaxRetries != 0 {
		t.Fatalf("MaxRetries = %d, want 0", s.MaxRetries)
	}
	if s.Diagnostics {
		t.Fatal("Diagnostics = true, want false")
	}
	if s.BaseURL != translate.DefaultBaseURL || s.DiagnosticsDir != DefaultDiagnosticsDir {
		t.Fatalf("defaults not kept: %+v", s)
	}
	if got := s.Prompts.Build("en", "tr").System; got != "Translate en into tr." {
		t.Fatalf("system prompt = %q", got)
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	writeFile(t, path, `model = "gemini-2.5-pro"
maxkeys = 3
base_url = "http://localhost:8080"
diagnostics_dir = "diag"
`)

	f, err := Load(dir, path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	s := f.Settings()
	if f.MaxKeys != 3 || s.Model != "gemini-2.5-pro" || s.BaseURL != "http://localhost:8080" || s.DiagnosticsDir != "diag" {
		t.Fatalf("unexpected settings: file=%+v settings=%+v", f, s)
	}
	if !s.Diagnostics || s.MaxRetries != translate.DefaultMaxRetries {
		t.Fatalf("defaults not kept: %+v", s)
	}
}

func TestLoad_NoFile(t *testing.T) {
	f, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if f != nil {
		t.Fatalf("Load() = %+v, want nil", f)
	}
	if s := f.Settings(); s != DefaultSettings() {
		t.Fatalf("nil Settings() = %+v, want defaults", s)
	}
}

func TestLoad_ExplicitMissing(t *testing.T) {
	_, err := Load(t.TempDir(), filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "bad yaml", file: ".glotto.yaml", content: "model: [unclosed"},
		{name: "bad toml", file: ".glotto.toml", content: "model = "},
		{name: "negative maxkeys", file: ".glotto.yaml", content: "maxkeys: -2"},
		{name: "negative retries", file: ".glotto.yaml", content: "max_retries: -1"},
		{name: "too many retries", file: ".glotto.yaml", content: "max_retries: 64"},
		{name: "bad timeout", file: ".glotto.yaml", content: "timeout: soon"},
		{name: "zero timeout", file: ".glotto.yaml", content: "timeout: 0s"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, filepath.Join(dir, tc.file), tc.content)
			if _, err := Load(dir, ""); err == nil {
				t.Fatalf("Load(%s) succeeded, want error", tc.content)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "GLOTTO_API_KEY=from-dotenv\nGLOTTO_MODEL=from-dotenv\n")

	t.Setenv(EnvAPIKey, "")
	os.Unsetenv(EnvAPIKey)
	t.Setenv(EnvModel, "from-env")

	if err := LoadDotEnv(dir); err != nil {
		t.Fatalf("LoadDotEnv error: %v", err)
	}
	if got := os.Getenv(EnvAPIKey); got != "from-dotenv" {
		t.Fatalf("%s = %q, want from-dotenv", EnvAPIKey, got)
	}
	if got := os.Getenv(EnvModel); got != "from-env" {
		t.Fatalf("%s = %q, existing variable was overridden", EnvModel, got)
	}

	if err := LoadDotEnv(t.TempDir()); err != nil {
		t.Fatalf("LoadDotEnv(no file) error: %v", err)
	}
}

func TestArgsFill(t *testing.T) {
	t.Setenv(EnvAPIKey, "env-key")

	base := Args{ArgKey: "", ArgModule: DefaultModule, ArgMaxKeys: "5", ArgTo: "tr"}
	file := &File{Module: "gemini", MaxKeys: 12}

	t.Run("nothing explicit", func(t *testing.T) {
		got := base.Fill(func(string) bool { return false }, file)
		if got[ArgKey] != "env-key" || got[ArgMaxKeys] != "12" || got[ArgTo] != "tr" {
			t.Fatalf("Fill() = %v", got)
		}
		if base[ArgKey] != "" {
			t.Fatal("Fill modified its receiver")
		}
	})

	t.Run("explicit flags win", func(t *testing.T) {
		explicit := Args{ArgKey: "flag-key", ArgModule: DefaultModule, ArgMaxKeys: "7"}
		got := explicit.Fill(func(name string) bool { return name == ArgKey || name == ArgMaxKeys }, file)
		if got[ArgKey] != "flag-key" || got[ArgMaxKeys] != "7" {
			t.Fatalf("Fill() = %v", got)
		}
	})

	t.Run("no file", func(t *testing.T) {
		got := base.Fill(func(string) bool { return false }, nil)
		if got[ArgMaxKeys] != "5" {
			t.Fatalf("Fill() = %v", got)
		}
	})
}
