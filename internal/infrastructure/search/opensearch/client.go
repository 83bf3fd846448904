// Package opensearch provides full-text indexing and search over imported
// patent applications.
package opensearch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// BulkResult summarises a bulk indexing call.
type BulkResult struct {
	Took   int
	Failed int
}

// SearchHit is one matching document.
type SearchHit struct {
	ID     string
	Source json.RawMessage
}

// SearchResult holds the hits of a search call.
type SearchResult struct {
	Total int64
	Hits  []SearchHit
}

// SearchAPI is the narrow surface the indexer needs, abstracted for testing.
type SearchAPI interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, name string, mapping io.Reader) error
	Bulk(ctx context.Context, body io.Reader) (*BulkResult, error)
	Search(ctx context.Context, index string, body io.Reader) (*SearchResult, error)
}

// Client wraps the typed OpenSearch client.
type Client struct {
	api    *opensearchapi.Client
	logger logging.Logger
}

var _ SearchAPI = (*Client)(nil)

// NewClient connects to the cluster and verifies it responds.
func NewClient(ctx context.Context, cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New(errors.ErrCodeBadRequest, "opensearch addresses are required")
	}

	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:     cfg.Addresses,
			Username:      cfg.User,
			Password:      cfg.Password,
			Transport:     transport,
			MaxRetries:    3,
			RetryOnStatus: []int{429, 502, 503, 504},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "failed to create opensearch client")
	}

	c := &Client{api: api, logger: log.Named("opensearch")}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	log.Info("OpenSearch client connected",
		logging.String("addresses", strings.Join(cfg.Addresses, ",")))
	return c, nil
}

// Ping checks cluster reachability.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.api.Ping(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "opensearch ping failed")
	}
	if resp != nil && resp.IsError() {
		return errors.Newf(errors.ErrCodeSearchError, "opensearch ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) IndexExists(ctx context.Context, name string) (bool, error) {
	resp, err := c.api.Indices.Exists(ctx, opensearchapi.IndicesExistsReq{Indices: []string{name}})
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSearchError, "failed to check index existence")
	}
	return true, nil
}

func (c *Client) CreateIndex(ctx context.Context, name string, mapping io.Reader) error {
	_, err := c.api.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: name,
		Body:  mapping,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to create index "+name)
	}
	c.logger.Info("Created index", logging.String("index", name))
	return nil
}

func (c *Client) Bulk(ctx context.Context, body io.Reader) (*BulkResult, error) {
	resp, err := c.api.Bulk(ctx, opensearchapi.BulkReq{Body: body})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "bulk indexing failed")
	}

	result := &BulkResult{Took: resp.Took}
	if resp.Errors {
		for _, item := range resp.Items {
			for _, op := range item {
				if op.Error != nil {
					result.Failed++
				}
			}
		}
	}
	return result, nil
}

func (c *Client) Search(ctx context.Context, index string, body io.Reader) (*SearchResult, error) {
	resp, err := c.api.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    body,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "search failed")
	}

	result := &SearchResult{Total: int64(resp.Hits.Total.Value)}
	for _, hit := range resp.Hits.Hits {
		result.Hits = append(result.Hits, SearchHit{
			ID:     hit.ID,
			Source: hit.Source,
		})
	}
	return result, nil
}
