// Package langmeta resolves the language identifiers given on the command
// line into the names used in model instructions and log output.
//
// Both BCP 47 codes ("tr", "pt_BR") and free-text names ("turkish") are
// accepted. Codes are expanded to their English display name so the model
// always receives a readable language name; anything that is not a known
// code passes through unchanged.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes a resolved language.
type Meta struct {
	// Input is the identifier as given.
	Input string
	// Tag is the parsed language tag, or language.Und for free-text names.
	Tag language.Tag
	// Name is the English name (e.g. "Turkish"), or Input when unknown.
	Name string
	// Native is the language's name for itself (e.g. "Türkçe"), or Input.
	Native string
}

// Known reports whether the identifier was recognized as a language code.
func (m Meta) Known() bool {
	return m.Tag != language.Und
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for lang.
func Resolve(lang string) Meta {
	m := Meta{Input: lang, Tag: language.Und, Name: lang, Native: lang}

	code := canonicalize(lang)
	if code == "" {
		return m
	}

	tag, err := language.Parse(code)
	if err != nil || tag == language.Und {
		return m
	}

	base, _ := tag.Base()
	name := display.English.Languages().Name(base)
	if name == "" {
		return m
	}

	m.Tag = tag
	m.Name = name + qualifier(tag)
	if native := display.Self.Name(base); native != "" {
		m.Native = native
	}
	return m
}

// qualifier names the explicitly given script and region, as in
// "Serbian (Latin)" or "Portuguese (Brazil)".
func qualifier(tag language.Tag) string {
	var parts []string
	if script, conf := tag.Script(); conf == language.Exact {
		if s := display.English.Scripts().Name(script); s != "" {
			parts = append(parts, s)
		}
	}
	if region, conf := tag.Region(); conf == language.Exact {
		if r := display.English.Regions().Name(region); r != "" {
			parts = append(parts, r)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
