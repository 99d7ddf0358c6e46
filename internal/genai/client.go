// Package genai is the gateway to the generative-model provider. It
// speaks the Gemini HTTP API in two transport modes: one-shot
// generateContent and SSE streamGenerateContent. The transport mode is
// a deployment choice fixed at construction, never a per-call decision.
package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kalambet/wingman/internal/prompt"
)

const (
	defaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel         = "gemini-flash-latest"
	defaultTimeout       = 60 * time.Second
	defaultStreamTimeout = 300 * time.Second
)

// Mode selects the response transport.
type Mode string

const (
	ModeSync   Mode = "sync"
	ModeStream Mode = "stream"
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	Mode          Mode
	Timeout       time.Duration
	StreamTimeout time.Duration
}

// Client calls a Gemini-compatible generative model over HTTP.
type Client struct {
	apiKey        string
	baseURL       string
	model         string
	mode          Mode
	timeout       time.Duration
	streamTimeout time.Duration
	httpClient    *http.Client
}

// NewClient creates a gateway client. Per-request deadlines come from
// the configured timeouts, so the underlying http.Client has none.
func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:        opts.APIKey,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		model:         opts.Model,
		mode:          opts.Mode,
		timeout:       opts.Timeout,
		streamTimeout: opts.StreamTimeout,
		httpClient:    &http.Client{Timeout: 0},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.mode == "" {
		c.mode = ModeSync
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.streamTimeout <= 0 {
		c.streamTimeout = defaultStreamTimeout
	}
	return c
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// generateResponse covers both the one-shot response and each streamed
// chunk; only the candidate text is of interest.
type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() string {
	var sb strings.Builder
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		break // only the first candidate is requested
	}
	return sb.String()
}

// Generate sends the compiled request and returns the complete raw
// model output. In stream mode fragments are concatenated in arrival
// order and the call returns only after end-of-stream. The provider's
// schema constraint is attached as an optimization; validation remains
// the decoder's job.
func (c *Client) Generate(ctx context.Context, req prompt.Compiled) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Task}}}},
		SystemInstruction: &content{
			Parts: []part{{Text: req.System}},
		},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   req.Schema.MarshalGenAI(),
		},
	})
	if err != nil {
		return "", &GatewayError{Kind: KindTransport, Err: fmt.Errorf("marshalling request: %w", err)}
	}

	if c.mode == ModeStream {
		return c.generateStream(ctx, body)
	}
	return c.generateSync(ctx, body)
}

func (c *Client) generateSync(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(ctx, ":generateContent", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", classify(fmt.Errorf("decoding response: %w", err))
	}

	text := result.text()
	if text == "" {
		return "", &GatewayError{Kind: KindTransport, Err: fmt.Errorf("empty model response")}
	}
	return text, nil
}

func (c *Client) generateStream(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.streamTimeout)
	defer cancel()

	resp, err := c.post(ctx, ":streamGenerateContent?alt=sse", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", classify(fmt.Errorf("decoding stream chunk: %w", err))
		}
		sb.WriteString(chunk.text())
	}
	if err := scanner.Err(); err != nil {
		// Mid-stream failure: the transport broke before end-of-stream.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", classify(ctxErr)
		}
		return "", classify(fmt.Errorf("reading stream: %w", err))
	}

	if sb.Len() == 0 {
		return "", &GatewayError{Kind: KindTransport, Err: fmt.Errorf("empty model response")}
	}
	return sb.String(), nil
}

func (c *Client) post(ctx context.Context, action string, body []byte) (*http.Response, error) {
	url := fmt.Sprintf("%s/models/%s%s", c.baseURL, c.model, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, classify(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if isAuthStatus(resp.StatusCode, respBody) {
			return nil, &GatewayError{Kind: KindAuth, Err: fmt.Errorf("provider rejected credentials (HTTP %d)", resp.StatusCode)}
		}
		return nil, &GatewayError{Kind: KindTransport, Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, respBody)}
	}
	return resp, nil
}

// isAuthStatus reports whether the provider response indicates a
// credentials problem. Gemini signals an invalid key with HTTP 400 and
// an API_KEY_INVALID reason rather than 401.
func isAuthStatus(status int, body []byte) bool {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}
	return status == http.StatusBadRequest && bytes.Contains(body, []byte("API_KEY_INVALID"))
}
