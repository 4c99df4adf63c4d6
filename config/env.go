package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables consulted when the matching flag is not given.
const (
	EnvAPIKey = "GLOTTO_API_KEY"
	EnvModel  = "GLOTTO_MODEL"
	EnvLang   = "GLOTTO_LANG"
)

// DotEnvFile is loaded from the working directory when present.
const DotEnvFile = ".env"

// LoadDotEnv loads dir/.env into the process environment. Variables that are
// already set are left untouched; a missing file is not an error.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, DotEnvFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Fill supplies values for parameters that were not given explicitly.
// Lookup order: explicit flag, environment, settings file, the value
// already in args (the flag default).
func (a Args) Fill(explicit func(name string) bool, f *File) Args {
	out := make(Args, len(a)+1)
	for k, v := range a {
		out[k] = v
	}

	if !explicit(ArgKey) {
		if v := os.Getenv(EnvAPIKey); v != "" {
			out[ArgKey] = v
		}
	}
	if f != nil {
		if !explicit(ArgModule) && f.Module != "" {
			out[ArgModule] = f.Module
		}
		if !explicit(ArgMaxKeys) && f.MaxKeys > 0 {
			out[ArgMaxKeys] = strconv.Itoa(f.MaxKeys)
		}
	}
	return out
}
