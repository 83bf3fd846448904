// Package relation_extractor turns extracted entities into knowledge-graph
// relations by prompting a chat-completion model, and can draft Cypher MERGE
// statements grounded on the current graph schema.
package relation_extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// LLMClient abstracts the chat-completion endpoint so the extractor can be
// tested against a canned implementation.
type LLMClient interface {
	// Complete sends one system/user exchange and returns the assistant
	// message content.
	Complete(ctx context.Context, system, user string) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible /v1/chat/completions endpoint.
type OpenAIClient struct {
	cfg        config.LLMConfig
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
}

var _ LLMClient = (*OpenAIClient)(nil)

// ClientOption configures an OpenAIClient.
type ClientOption func(*OpenAIClient)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *OpenAIClient) { c.httpClient = hc }
}

// NewOpenAIClient builds a chat-completion client from configuration.
func NewOpenAIClient(cfg config.LLMConfig, log logging.Logger, opts ...ClientOption) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.InvalidParam("llm base_url is required")
	}
	if cfg.Model == "" {
		return nil, errors.InvalidParam("llm model is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	c := &OpenAIClient{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("llm"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements LLMClient.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMRequestFailed, "encoding chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMRequestFailed, "building chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMRequestFailed, "chat endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.New(errors.ErrCodeLLMRequestFailed,
			fmt.Sprintf("chat endpoint returned status %d: %s",
				resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	out := &chatResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeLLMResponseInvalid, "decoding chat response")
	}
	if out.Error != nil {
		return "", errors.New(errors.ErrCodeLLMRequestFailed, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New(errors.ErrCodeLLMResponseInvalid, "chat response has no choices")
	}

	content := out.Choices[0].Message.Content
	c.log.Debug("chat completion finished",
		logging.String("model", c.cfg.Model),
		logging.Int("response_len", len(content)),
		logging.Duration("elapsed", time.Since(started)))
	return content, nil
}
