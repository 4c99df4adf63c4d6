// Package translate sends dictionary chunks to a text generation service and
// collects the translated sub-dictionaries that come back.
//
// Chunks are processed one at a time, in order. A chunk whose response is
// empty or not a JSON object is logged and skipped; the run continues. Remote
// failures that survive the client's retries abort the run.
package translate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/minios-linux/glotto/chunk"
	"github.com/minios-linux/glotto/dict"
	"github.com/minios-linux/glotto/merge"
	"github.com/minios-linux/glotto/prompt"
)

// Request is one generation call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	// Payload is attached as inline data of type PayloadMIME.
	Payload     []byte
	PayloadMIME string
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// NewGenerator returns the generator for a translation module.
func NewGenerator(module string, cfg GeminiConfig) (Generator, error) {
	switch strings.ToLower(module) {
	case "gemini":
		return NewGemini(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
}

// Reasons a chunk is skipped.
var (
	ErrEmptyResponse   = errors.New("empty response")
	ErrInvalidResponse = errors.New("response is not a JSON object")
)

// PayloadMIME is the declared type of chunk payloads.
const PayloadMIME = "text/plain"

// ---------------------------------------------------------------------------
// Options and result
// ---------------------------------------------------------------------------

// Options controls a translation run.
type Options struct {
	// Prompts are sent with every chunk.
	Prompts prompt.Prompts
	// Target names the output language; it is used in diagnostic file names.
	Target string
	// DiagnosticsDir receives the raw text of each accepted response as
	// {Target}_{n}.json, n counting accepted responses from 1. Empty disables.
	DiagnosticsDir string
	// Logger receives per-chunk events. The zero value discards them.
	Logger zerolog.Logger
	// OnProgress is called after each chunk, accepted or skipped.
	OnProgress func(done, total int)
}

// Result is the outcome of a translation run.
type Result struct {
	// Dictionary is the union of all accepted chunk results.
	Dictionary *dict.Dictionary
	// Chunks is the number of chunks processed.
	Chunks int
	// Accepted is the number of chunks that produced a result.
	Accepted int
	// Skipped lists the positions of chunks that produced no result.
	Skipped []int
}

// ---------------------------------------------------------------------------
// Translation loop
// ---------------------------------------------------------------------------

// Translate sends each chunk to gen and merges the accepted results. The
// first remote error, or cancellation of ctx, aborts the run with no result.
func Translate(ctx context.Context, gen Generator, chunks []chunk.Chunk, opts Options) (*Result, error) {
	log := opts.Logger
	results := make([]*dict.Dictionary, 0, len(chunks))
	res := &Result{Chunks: len(chunks)}

	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Debug().Int("chunk", c.Position).Int("keys", len(c.Keys)).Int("bytes", len(c.Data)).Msg("translating chunk")

		text, err := gen.Generate(ctx, Request{
			SystemPrompt: opts.Prompts.System,
			UserPrompt:   opts.Prompts.User,
			Payload:      c.Data,
			PayloadMIME:  PayloadMIME,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%s: %w", c, err)
		}

		d, err := decodeResponse(text)
		if err != nil {
			log.Error().Int("chunk", c.Position).Strs("keys", c.Keys).Str("reason", err.Error()).Msg("skipping chunk")
			res.Skipped = append(res.Skipped, c.Position)
		} else {
			results = append(results, d)
			res.Accepted++
			if opts.DiagnosticsDir != "" {
				path, werr := writeDiagnostic(opts.DiagnosticsDir, opts.Target, res.Accepted, text)
				if werr != nil {
					log.Warn().Err(werr).Int("chunk", c.Position).Msg("could not write diagnostic file")
				} else {
					log.Debug().Str("path", path).Msg("saved raw response")
				}
			}
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(chunks))
		}
	}

	res.Dictionary = merge.Merge(results)
	return res, nil
}

var markdownCodeBlock = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// decodeResponse validates model output as a JSON object. A single markdown
// code fence around the JSON is tolerated.
func decodeResponse(text string) (*dict.Dictionary, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, ErrEmptyResponse
	}
	if m := markdownCodeBlock.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	d, err := dict.Parse([]byte(s))
	if err != nil {
		if errors.Is(err, dict.ErrEmptyInput) {
			return nil, ErrEmptyResponse
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return d, nil
}

// DiagnosticName returns the file name used for the n-th accepted response.
func DiagnosticName(target string, n int) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, target)
	return fmt.Sprintf("%s_%d.json", name, n)
}

func writeDiagnostic(dir, target string, n int, text string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, DiagnosticName(target, n))
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", err
	}
	return path, nil
}
