// Package merge combines per-chunk translation results back into a single
// dictionary and renders the final output file.
package merge

import (
	"github.com/minios-linux/glotto/dict"
)

// Indent is the indentation used for output files.
const Indent = "  "

// Merge unions results left to right into a new dictionary.
// - Keys appear in the order they are first seen.
// - On collision the later value wins but the key keeps its first position.
// - Nested objects are not merged recursively; the later value replaces them.
// Nil entries are ignored.
func Merge(results []*dict.Dictionary) *dict.Dictionary {
	out := dict.New()
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, k := range r.Keys() {
			v, _ := r.Get(k)
			out.Set(k, v)
		}
	}
	return out
}

// Encode renders d as JSON indented with two spaces, without a trailing
// newline.
func Encode(d *dict.Dictionary) ([]byte, error) {
	if d == nil {
		d = dict.New()
	}
	return d.MarshalIndent("", Indent)
}
