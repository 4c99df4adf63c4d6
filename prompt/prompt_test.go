package prompt

import (
	"strings"
	"testing"
)

func TestBuild_SubstitutesLanguages(t *testing.T) {
	p := Build("English", "Turkish")

	for name, text := range map[string]string{"system": p.System, "user": p.User} {
		if strings.Contains(text, FromPlaceholder) || strings.Contains(text, ToPlaceholder) {
			t.Fatalf("%s prompt still has placeholders:\n%s", name, text)
		}
		if !strings.Contains(text, "Turkish") {
			t.Fatalf("%s prompt does not mention target language", name)
		}
	}

	if !strings.Contains(p.System, "from English to Turkish") {
		t.Fatalf("system prompt missing language pair:\n%s", p.System)
	}
	if !strings.Contains(p.User, "Verify no text is left in English") {
		t.Fatalf("user prompt missing source language:\n%s", p.User)
	}
}

func TestBuild_KeepsInterpolationExamples(t *testing.T) {
	p := Build("en", "de")
	if !strings.Contains(p.System, "{{name}}") || !strings.Contains(p.User, "{{name}}") {
		t.Fatal("interpolation example {{name}} must survive substitution")
	}
	if !strings.Contains(p.User, "Must be valid JSON") {
		t.Fatal("user prompt must require JSON output")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	if Build("English", "French") != Build("English", "French") {
		t.Fatal("Build is not deterministic")
	}
}

func TestTemplates_Override(t *testing.T) {
	tpl := Templates{System: "Translate {{from}} into {{to}}. JSON only."}
	p := tpl.Build("English", "Polish")

	if p.System != "Translate English into Polish. JSON only." {
		t.Fatalf("System = %q", p.System)
	}
	if p.User != Build("English", "Polish").User {
		t.Fatal("empty user template should fall back to the default")
	}
}
