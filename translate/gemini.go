package translate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Generation parameters sent with every request.
const (
	candidateCount   = 1
	responseMIMEType = "application/json"
	temperature      = 0.3
	topP             = 0.7
	topK             = 20
)

// Defaults for a Gemini client.
const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultTimeout    = 120 * time.Second
	DefaultMaxRetries = 3
	// MaxRetriesLimit bounds the configurable retry count.
	MaxRetriesLimit = 10
	// maxBackoff caps the delay between transport retries.
	maxBackoff = 60 * time.Second
	// maxRateLimitWait caps the delay a 429 response may ask for.
	maxRateLimitWait = 10 * time.Minute
)

var (
	// ErrRemote indicates the remote service failed or could not be reached.
	ErrRemote = errors.New("remote service error")
	// ErrUnknownModule is returned by NewGenerator for an unsupported module.
	ErrUnknownModule = errors.New("unknown translation module")
)

// APIError is a non-success HTTP response from the remote service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return ErrRemote }

// retryable reports whether the status is worth another attempt.
func (e *APIError) retryable() bool {
	return e.StatusCode >= 500 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusRequestTimeout
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// GeminiConfig configures a Gemini client. Zero values take the defaults.
type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Proxy      string
	Timeout    time.Duration
	MaxRetries int
	Logger     zerolog.Logger
	// HTTPClient replaces the client built from Proxy and Timeout.
	HTTPClient *http.Client
}

// Gemini calls the Google Generative Language generateContent endpoint.
type Gemini struct {
	apiKey     string
	endpoint   string
	maxRetries int
	client     *http.Client
	log        zerolog.Logger

	// backoffBase is the first transport retry delay; it doubles per attempt.
	backoffBase time.Duration
	// rateLimitPad is added to the delay the server asks for on 429.
	rateLimitPad time.Duration
}

// NewGemini returns a Gemini client for cfg.
func NewGemini(cfg GeminiConfig) *Gemini {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRetries := cfg.MaxRetries
	maxRetries = max(0, min(maxRetries, MaxRetriesLimit))
	client := cfg.HTTPClient
	if client == nil {
		client = makeHTTPClient(cfg.Proxy, timeout)
	}

	return &Gemini{
		apiKey:       cfg.APIKey,
		endpoint:     fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, url.PathEscape(model)),
		maxRetries:   maxRetries,
		client:       client,
		log:          cfg.Logger,
		backoffBase:  time.Second,
		rateLimitPad: 5 * time.Second,
	}
}

// makeHTTPClient honours an explicit proxy URL, falling back to the
// HTTP_PROXY/HTTPS_PROXY environment.
func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Wire format
// ---------------------------------------------------------------------------

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	CandidateCount   int     `json:"candidateCount"`
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	TopK             int     `json:"topK"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// buildGeminiRequest assembles the generateContent body. The payload travels
// base64-encoded as inline data after both instructions.
func buildGeminiRequest(req Request) ([]byte, error) {
	mime := req.PayloadMIME
	if mime == "" {
		mime = "text/plain"
	}

	parts := make([]part, 0, 3)
	if req.SystemPrompt != "" {
		parts = append(parts, part{Text: req.SystemPrompt})
	}
	if req.UserPrompt != "" {
		parts = append(parts, part{Text: req.UserPrompt})
	}
	parts = append(parts, part{InlineData: &inlineData{
		MIMEType: mime,
		Data:     base64.StdEncoding.EncodeToString(req.Payload),
	}})

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			CandidateCount:   candidateCount,
			ResponseMIMEType: responseMIMEType,
			Temperature:      temperature,
			TopP:             topP,
			TopK:             topK,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}
	return json.Marshal(body)
}

// extractText concatenates the text parts of the first candidate. A response
// without candidates yields an empty string.
func extractText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: invalid response body: %w", ErrRemote, err)
	}
	if len(resp.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// errorMessage pulls error.message out of a Google error body.
func errorMessage(body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return truncate(strings.TrimSpace(string(body)), 500)
}

// parseRetryDelay extracts the delay from Google's RetryInfo detail in a 429
// body, capped at maxRateLimitWait. Returns fallback when none is present.
func parseRetryDelay(body []byte, fallback time.Duration) time.Duration {
	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return fallback
	}

	for _, detail := range errResp.Error.Details {
		if !strings.Contains(detail.Type, "RetryInfo") || detail.RetryDelay == "" {
			continue
		}
		// "30s", "1.5s"
		if d, err := time.ParseDuration(detail.RetryDelay); err == nil && d >= 0 {
			return min(d, maxRateLimitWait)
		}
		if secs, err := strconv.ParseFloat(strings.TrimSuffix(detail.RetryDelay, "s"), 64); err == nil && secs >= 0 {
			if secs >= maxRateLimitWait.Seconds() {
				return maxRateLimitWait
			}
			return time.Duration(secs * float64(time.Second))
		}
	}
	return fallback
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// Generate sends one request and returns the model's text. Transport errors,
// 5xx, 408 and 429 are retried up to the configured limit.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	body, err := buildGeminiRequest(req)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		g.log.Debug().Int("attempt", attempt+1).Str("endpoint", g.endpoint).Int("bytes", len(body)).Msg("POST generateContent")

		text, wait, err := g.do(ctx, body, attempt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return "", err
		}
		if attempt == g.maxRetries {
			break
		}

		g.log.Warn().Err(err).Dur("wait", wait).Int("attempt", attempt+1).Int("max_retries", g.maxRetries).Msg("request failed, retrying")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	if g.maxRetries > 0 {
		return "", fmt.Errorf("giving up after %d retries: %w", g.maxRetries, lastErr)
	}
	return "", lastErr
}

// do performs a single attempt. On failure it also returns how long to wait
// before the next one.
func (g *Gemini) do(ctx context.Context, body []byte, attempt int) (string, time.Duration, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", g.backoff(attempt), fmt.Errorf("%w: %w", ErrRemote, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", g.backoff(attempt), fmt.Errorf("%w: reading response: %w", ErrRemote, err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
		wait := g.backoff(attempt)
		if resp.StatusCode == http.StatusTooManyRequests {
			wait = parseRetryDelay(respBody, 60*time.Second) + g.rateLimitPad
		}
		return "", wait, apiErr
	}

	text, err := extractText(respBody)
	if err != nil {
		return "", g.backoff(attempt), err
	}
	return text, 0, nil
}

// backoff returns base·2^attempt plus up to one base of jitter, capped at
// maxBackoff.
func (g *Gemini) backoff(attempt int) time.Duration {
	if g.backoffBase <= 0 {
		return 0
	}
	d := maxBackoff
	// Doubling past maxBackoff would only be clamped (or overflow).
	if attempt >= 0 && attempt < 63 && g.backoffBase <= maxBackoff>>attempt {
		d = g.backoffBase << attempt
	}
	d += rand.N(g.backoffBase)
	return min(d, maxBackoff)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
