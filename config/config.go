// Package config validates the run parameters given on the command line and
// loads the optional settings file that tunes the remote client.
package config

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parameter names, as accepted on the command line.
const (
	ArgKey     = "key"
	ArgModule  = "module"
	ArgInput   = "input"
	ArgOutput  = "output"
	ArgFrom    = "from"
	ArgTo      = "to"
	ArgMaxKeys = "maxkeys"
)

// ModuleGemini is the Google Gemini translation module.
const ModuleGemini = "gemini"

// DefaultModule is used when no module is given.
const DefaultModule = ModuleGemini

// DefaultMaxKeys is the number of keys sent per request when none is given.
const DefaultMaxKeys = 5

// SupportedModules lists the translation modules that can be selected.
var SupportedModules = []string{ModuleGemini}

// requiredArgs are checked in this order; the first missing one is reported.
var requiredArgs = []string{ArgKey, ArgModule, ArgInput, ArgOutput, ArgFrom, ArgTo}

var (
	// ErrMissingParameter indicates a required parameter was not given.
	ErrMissingParameter = errors.New("missing required parameter")
	// ErrInvalidParameter indicates a parameter has an unusable value.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ParameterError reports a problem with a single named parameter.
type ParameterError struct {
	Name   string
	Value  string
	Reason string
	Err    error
}

func (e *ParameterError) Error() string {
	if errors.Is(e.Err, ErrMissingParameter) {
		return fmt.Sprintf("%v: --%s", e.Err, e.Name)
	}
	msg := fmt.Sprintf("%v --%s %q", e.Err, e.Name, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *ParameterError) Unwrap() error { return e.Err }

// Args holds raw parameter values keyed by parameter name.
type Args map[string]string

// Config is the validated set of run parameters.
type Config struct {
	APIKey  string
	Module  string
	Input   string
	Output  string
	From    string
	To      string
	MaxKeys int
}

// Validate checks that every required parameter is present and converts the
// batch size to a number. An absent maxkeys takes DefaultMaxKeys.
func Validate(args Args) (*Config, error) {
	for _, name := range requiredArgs {
		if strings.TrimSpace(args[name]) == "" {
			return nil, &ParameterError{Name: name, Err: ErrMissingParameter}
		}
	}

	module := strings.ToLower(strings.TrimSpace(args[ArgModule]))
	if !isSupportedModule(module) {
		return nil, &ParameterError{
			Name:   ArgModule,
			Value:  args[ArgModule],
			Reason: "supported modules: " + strings.Join(SupportedModules, ", "),
			Err:    ErrInvalidParameter,
		}
	}

	maxKeys, err := parseMaxKeys(args[ArgMaxKeys])
	if err != nil {
		return nil, err
	}

	return &Config{
		APIKey:  strings.TrimSpace(args[ArgKey]),
		Module:  module,
		Input:   args[ArgInput],
		Output:  args[ArgOutput],
		From:    strings.TrimSpace(args[ArgFrom]),
		To:      strings.TrimSpace(args[ArgTo]),
		MaxKeys: maxKeys,
	}, nil
}

func isSupportedModule(module string) bool {
	for _, m := range SupportedModules {
		if m == module {
			return true
		}
	}
	return false
}

// parseMaxKeys accepts any numeric literal that denotes a whole number of at
// least 1 ("5", "5.0", "1e1").
func parseMaxKeys(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DefaultMaxKeys, nil
	}

	invalid := &ParameterError{
		Name:   ArgMaxKeys,
		Value:  raw,
		Reason: "must be a whole number of at least 1",
		Err:    ErrInvalidParameter,
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, invalid
	}
	if f != math.Trunc(f) || f < 1 || f > math.MaxInt32 {
		return 0, invalid
	}
	return int(f), nil
}
