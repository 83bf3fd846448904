package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

const defaultBulkBatchSize = 500

// patentMapping keeps the searchable text fields analysed and the
// identifiers as keywords.
const patentMapping = `{
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	},
	"mappings": {
		"properties": {
			"application_number": {"type": "keyword"},
			"publication_number": {"type": "keyword"},
			"title":              {"type": "text"},
			"abstract":           {"type": "text"},
			"claims":             {"type": "text"},
			"decision":           {"type": "keyword"},
			"main_cpc_label":     {"type": "keyword"},
			"filing_date":        {"type": "date"}
		}
	}
}`

// patentDoc is the indexed projection of an application.
type patentDoc struct {
	ApplicationNumber string    `json:"application_number"`
	PublicationNumber string    `json:"publication_number,omitempty"`
	Title             string    `json:"title"`
	Abstract          string    `json:"abstract,omitempty"`
	Claims            string    `json:"claims,omitempty"`
	Decision          string    `json:"decision,omitempty"`
	MainCPCLabel      string    `json:"main_cpc_label,omitempty"`
	FilingDate        time.Time `json:"filing_date"`
}

// PatentIndexer maintains the full-text index over imported applications.
type PatentIndexer struct {
	api       SearchAPI
	index     string
	batchSize int
	logger    logging.Logger
}

// NewPatentIndexer builds an indexer writing to "<prefix>-patents".
func NewPatentIndexer(api SearchAPI, indexPrefix string, batchSize int, log logging.Logger) *PatentIndexer {
	if indexPrefix == "" {
		indexPrefix = "ipclaim"
	}
	if batchSize <= 0 {
		batchSize = defaultBulkBatchSize
	}
	return &PatentIndexer{
		api:       api,
		index:     indexPrefix + "-patents",
		batchSize: batchSize,
		logger:    log.Named("patent_indexer"),
	}
}

// Index returns the target index name.
func (i *PatentIndexer) Index() string { return i.index }

// EnsureIndex creates the patent index if it does not exist yet.
func (i *PatentIndexer) EnsureIndex(ctx context.Context) error {
	exists, err := i.api.IndexExists(ctx, i.index)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return i.api.CreateIndex(ctx, i.index, strings.NewReader(patentMapping))
}

// IndexApplication indexes a single application.
func (i *PatentIndexer) IndexApplication(ctx context.Context, app *patent.Application) error {
	_, err := i.IndexBatch(ctx, []*patent.Application{app})
	return err
}

// IndexBatch bulk-indexes the applications in batches and returns how many
// documents were accepted.
func (i *PatentIndexer) IndexBatch(ctx context.Context, apps []*patent.Application) (int, error) {
	if len(apps) == 0 {
		return 0, nil
	}

	indexed := 0
	for start := 0; start < len(apps); start += i.batchSize {
		end := start + i.batchSize
		if end > len(apps) {
			end = len(apps)
		}
		batch := apps[start:end]

		body, err := i.bulkBody(batch)
		if err != nil {
			return indexed, err
		}

		result, err := i.api.Bulk(ctx, body)
		if err != nil {
			return indexed, err
		}
		if result.Failed > 0 {
			i.logger.Warn("Bulk indexing had failures",
				logging.Int("failed", result.Failed),
				logging.Int("batch", len(batch)))
		}
		indexed += len(batch) - result.Failed
	}

	i.logger.Debug("Indexed applications",
		logging.Int("indexed", indexed),
		logging.Int("total", len(apps)))
	return indexed, nil
}

func (i *PatentIndexer) bulkBody(apps []*patent.Application) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	for _, app := range apps {
		id := app.Metadata.PublicationNumber
		if id == "" {
			id = app.Metadata.ApplicationNumber
		}
		if id == "" {
			return nil, errors.New(errors.ErrCodeBadRequest, "application has no identifier to index by")
		}

		action := map[string]map[string]string{
			"index": {"_index": i.index, "_id": id},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal bulk action")
		}

		doc := patentDoc{
			ApplicationNumber: app.Metadata.ApplicationNumber,
			PublicationNumber: app.Metadata.PublicationNumber,
			Title:             app.Metadata.Title,
			Abstract:          app.Content.Abstract,
			Claims:            app.Content.Claims,
			Decision:          app.Metadata.Decision,
			MainCPCLabel:      app.Classification.MainCPCLabel,
			FilingDate:        app.Dates.FilingDate,
		}
		docLine, err := json.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal document")
		}

		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}
	return &buf, nil
}

// Search runs a full-text query over title, abstract, and claims and returns
// the matching publication numbers (or application numbers when a document
// was never published).
func (i *PatentIndexer) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "search query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title^2", "abstract", "claims"},
			},
		},
		"_source": []string{"application_number", "publication_number"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal search body")
	}

	result, err := i.api.Search(ctx, i.index, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var src struct {
			ApplicationNumber string `json:"application_number"`
			PublicationNumber string `json:"publication_number"`
		}
		if err := json.Unmarshal(hit.Source, &src); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search hit")
		}
		if src.PublicationNumber != "" {
			ids = append(ids, src.PublicationNumber)
		} else {
			ids = append(ids, src.ApplicationNumber)
		}
	}
	return ids, nil
}
