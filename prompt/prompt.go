// Package prompt holds the instructions sent to the model with every chunk.
//
// The text is policy for the remote model only: nothing here is enforced
// locally beyond the JSON validity check done on each response.
package prompt

import "strings"

// Placeholders substituted in templates.
const (
	FromPlaceholder = "{{from}}"
	ToPlaceholder   = "{{to}}"
)

// Prompts is the instruction pair for one translation run.
type Prompts struct {
	System string
	User   string
}

// Templates optionally overrides the built-in instruction text. Empty fields
// fall back to the defaults.
type Templates struct {
	System string
	User   string
}

// Build returns the default prompts for translating from one language to
// another.
func Build(from, to string) Prompts {
	return Templates{}.Build(from, to)
}

// Build renders the templates for the given language pair.
func (t Templates) Build(from, to string) Prompts {
	system := t.System
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemTemplate
	}
	user := t.User
	if strings.TrimSpace(user) == "" {
		user = DefaultUserTemplate
	}

	r := strings.NewReplacer(FromPlaceholder, from, ToPlaceholder, to)
	return Prompts{
		System: r.Replace(system),
		User:   r.Replace(user),
	}
}

// DefaultSystemTemplate is the system instruction.
const DefaultSystemTemplate = `You are a specialized i18next JSON translation expert. Your role is to translate content from {{from}} to {{to}} with these strict requirements:

1. COMPLETE TRANSLATION:
   - Translate ALL text values comprehensively
   - Double-check to ensure no text is left untranslated
   - Pay special attention to arrays and nested objects to ensure everything is translated
   - If unsure about any translation, provide the most accurate and natural translation possible

2. TRANSLATION QUALITY:
   - Use natural, context-appropriate language
   - Maintain consistent terminology throughout the translation
   - Use formal language unless the source is clearly casual
   - Preserve the exact meaning and tone of the original text
   - For UI elements, use standard localized terms common in {{to}} applications

3. STRUCTURAL PRESERVATION:
   - Keep all JSON structure and keys exactly as they are
   - Maintain all variables and interpolation patterns ({{name}}, __VARIABLE__, $t(), etc.)
   - Preserve all HTML tags and markdown formatting
   - Keep all whitespace, nesting, and formatting intact

4. VALIDATION:
   - Return only valid JSON
   - Verify that all text is translated
   - Ensure no source language text remains
   - Confirm all arrays and nested objects are fully translated`

// DefaultUserTemplate is the user instruction that accompanies the payload.
const DefaultUserTemplate = `Please translate this i18next JSON file with these specific requirements:

1. THOROUGH TRANSLATION:
   - Translate every single text value from {{from}} to {{to}}
   - Pay special attention to arrays and nested objects
   - Verify no text is left in {{from}}
   - Double-check all translations for completeness

2. PRESERVE STRUCTURE:
   - Keep all keys unchanged (e.g. "button.submit")
   - Maintain all variables: {{name}}, __VAR__, $t()
   - Preserve HTML tags and markdown
   - Keep all special characters
   - Maintain exact JSON structure

3. QUALITY REQUIREMENTS:
   - Use natural {{to}} language
   - Maintain consistent terminology
   - Use formal language unless source is casual
   - Ensure translations match the context
   - Use standard {{to}} UI terminology for interface elements

4. OUTPUT:
   - Return only the translated JSON
   - No explanations or comments
   - No additional text
   - No formatting changes
   - Must be valid JSON`
