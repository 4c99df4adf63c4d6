package merge

import (
	"fmt"
	"testing"

	"github.com/minios-linux/glotto/chunk"
	"github.com/minios-linux/glotto/dict"
)

func mustParse(t *testing.T, s string) *dict.Dictionary {
	t.Helper()
	d, err := dict.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse(%s): %v", s, err)
	}
	return d
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		inputs []string
		want   string
	}{
		{name: "collision later wins", inputs: []string{`{"a":1}`, `{"a":2}`}, want: `{"a":2}`},
		{name: "disjoint union", inputs: []string{`{"a":1}`, `{"b":2}`}, want: `{"a":1,"b":2}`},
		{name: "collision keeps first position", inputs: []string{`{"a":1,"b":2}`, `{"c":3,"a":4}`}, want: `{"a":4,"b":2,"c":3}`},
		{name: "nested replaced not deep merged", inputs: []string{`{"n":{"x":1,"y":2}}`, `{"n":{"z":3}}`}, want: `{"n":{"z":3}}`},
		{name: "no inputs", inputs: nil, want: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []*dict.Dictionary
			for _, in := range tt.inputs {
				results = append(results, mustParse(t, in))
			}
			if got := string(Merge(results).Bytes()); got != tt.want {
				t.Fatalf("Merge() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMergeSkipsNil(t *testing.T) {
	got := Merge([]*dict.Dictionary{nil, mustParse(t, `{"a":"1"}`), nil})
	if string(got.Bytes()) != `{"a":"1"}` {
		t.Fatalf("Merge() = %s", got.Bytes())
	}
}

func TestMergeIdentityRoundTrip(t *testing.T) {
	src := mustParse(t, `{"title":"Hi","menu":{"open":"Open","close":"Close"},"items":["a","b"],"n":3,"ok":true,"nil":null,"last":"{{count}} left"}`)

	for _, maxKeys := range []int{1, 2, 3, 7, 100} {
		t.Run(fmt.Sprintf("maxKeys=%d", maxKeys), func(t *testing.T) {
			chunks, err := chunk.Split(src, maxKeys)
			if err != nil {
				t.Fatalf("Split error: %v", err)
			}

			var results []*dict.Dictionary
			for _, c := range chunks {
				results = append(results, mustParse(t, string(c.Data)))
			}

			if got := Merge(results); !got.Equal(src) {
				t.Fatalf("round trip = %s, want %s", got.Bytes(), src.Bytes())
			}
		})
	}
}

func TestEncode(t *testing.T) {
	out, err := Encode(Merge([]*dict.Dictionary{
		mustParse(t, `{"a":"Merhaba"}`),
		mustParse(t, `{"b":"Dünya"}`),
	}))
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	want := "{\n  \"a\": \"Merhaba\",\n  \"b\": \"Dünya\"\n}"
	if string(out) != want {
		t.Fatalf("Encode() = %q, want %q", out, want)
	}

	empty, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil) error: %v", err)
	}
	if string(empty) != "{}" {
		t.Fatalf("Encode(nil) = %q, want {}", empty)
	}
}
