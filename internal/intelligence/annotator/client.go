// Package annotator is the HTTP adapter to the external NLP annotation
// service.  The service performs tokenisation, named-entity recognition, and
// (on request) coreference resolution over a submitted text; this package
// translates its wire JSON into the parse and chain values the extraction
// pipeline consumes.
package annotator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// Config holds the connection parameters for the annotation service.
type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 120 * time.Second
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	return c
}

// Client talks to the annotation service over HTTP and implements
// entity_extractor.Engine.
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *http.Client
	log        logging.Logger
}

var _ entity_extractor.Engine = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds an annotation service client.
func NewClient(cfg Config, log logging.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.InvalidParam("annotator base_url is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	cfg = cfg.withDefaults()

	c := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log.Named("annotator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Wire format
// ─────────────────────────────────────────────────────────────────────────────

type annotateRequest struct {
	Text  string `json:"text"`
	Coref bool   `json:"coref"`
}

type wireEntity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type wireToken struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

type wireChainMention struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type wireChain struct {
	ID             int                `json:"id"`
	Mentions       []wireChainMention `json:"mentions"`
	Representative int                `json:"representative"`
}

type annotateResponse struct {
	Entities []wireEntity `json:"entities"`
	Tokens   []wireToken  `json:"tokens"`
	Chains   []wireChain  `json:"chains"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine implementation
// ─────────────────────────────────────────────────────────────────────────────

// AnnotateChunk runs tokenisation and NER over text without coreference.
func (c *Client) AnnotateChunk(ctx context.Context, text string) (*entity_extractor.Parse, error) {
	resp, err := c.annotate(ctx, text, false)
	if err != nil {
		return nil, err
	}
	return resp.toParse(text), nil
}

// AnnotateDocument runs the full pipeline including coreference resolution.
func (c *Client) AnnotateDocument(ctx context.Context, text string) (*entity_extractor.Parse, []entity_extractor.Chain, error) {
	resp, err := c.annotate(ctx, text, true)
	if err != nil {
		return nil, nil, err
	}
	return resp.toParse(text), resp.toChains(), nil
}

// Health probes the service's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeAnnotatorUnavailable, "building health request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeAnnotatorUnavailable, "annotation service unreachable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeAnnotatorUnavailable,
			fmt.Sprintf("annotation service unhealthy: status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) annotate(ctx context.Context, text string, coref bool) (*annotateResponse, error) {
	body, err := json.Marshal(annotateRequest{Text: text, Coref: coref})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnnotationFailed, "encoding annotate request")
	}

	started := time.Now()
	resp, err := c.doWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.New(errors.ErrCodeAnnotationFailed,
			fmt.Sprintf("annotation service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))))
	}

	out := &annotateResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnnotatorBadResponse, "decoding annotate response")
	}

	c.log.Debug("annotation completed",
		logging.Int("text_len", len(text)),
		logging.Bool("coref", coref),
		logging.Int("entities", len(out.Entities)),
		logging.Int("chains", len(out.Chains)),
		logging.Duration("elapsed", time.Since(started)))
	return out, nil
}

// doWithRetry posts body to /annotate, retrying transport errors and 5xx
// responses with exponential backoff.  The request body is rebuilt on every
// attempt.
func (c *Client) doWithRetry(ctx context.Context, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeAnnotatorUnavailable, "annotate cancelled")
			case <-time.After(c.cfg.RetryBackoff * time.Duration(1<<(attempt-1))):
			}
			c.log.Warn("retrying annotate request", logging.Int("attempt", attempt), logging.Err(lastErr))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/annotate", bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAnnotationFailed, "building annotate request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
			continue
		}
		return resp, nil
	}
	return nil, errors.Wrap(lastErr, errors.ErrCodeAnnotatorUnavailable, "annotation service unreachable")
}

// ─────────────────────────────────────────────────────────────────────────────
// Wire → domain translation
// ─────────────────────────────────────────────────────────────────────────────

func (r *annotateResponse) toParse(text string) *entity_extractor.Parse {
	p := &entity_extractor.Parse{
		Text:     text,
		Entities: make([]entity_extractor.EntitySpan, 0, len(r.Entities)),
		Tokens:   make([]entity_extractor.Span, 0, len(r.Tokens)),
	}
	for _, e := range r.Entities {
		p.Entities = append(p.Entities, entity_extractor.EntitySpan{
			Text:  e.Text,
			Label: e.Label,
			Start: e.Start,
			End:   e.End,
		})
	}
	for _, t := range r.Tokens {
		p.Tokens = append(p.Tokens, entity_extractor.Span{Start: t.Start, End: t.End})
	}
	return p
}

func (r *annotateResponse) toChains() []entity_extractor.Chain {
	chains := make([]entity_extractor.Chain, 0, len(r.Chains))
	for _, wc := range r.Chains {
		ch := entity_extractor.Chain{
			ID:             wc.ID,
			Mentions:       make([]entity_extractor.ChainMention, 0, len(wc.Mentions)),
			Representative: wc.Representative,
		}
		for _, m := range wc.Mentions {
			ch.Mentions = append(ch.Mentions, entity_extractor.ChainMention{
				Start: m.Start,
				End:   m.End,
				Text:  m.Text,
			})
		}
		chains = append(chains, ch)
	}
	return chains
}
