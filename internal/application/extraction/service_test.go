package extraction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/pkg/errors"
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

var testMentions = []entity_extractor.Mention{
	{Text: "graphene", Label: "MATERIAL", Start: 0, End: 8},
	{Text: "electrode", Label: "COMPONENT", Start: 12, End: 21},
}

type stubExtractor struct {
	mentions []entity_extractor.Mention
	err      error
	calls    int
}

func (s *stubExtractor) Extract(context.Context, string) ([]entity_extractor.Mention, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.mentions, nil
}

type stubCache struct {
	entries map[string][]entity_extractor.Mention
	getErr  error
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string][]entity_extractor.Mention{}}
}

func (c *stubCache) key(text, profile string) string { return profile + "|" + text }

func (c *stubCache) Get(_ context.Context, text, profile string) ([]entity_extractor.Mention, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	mentions, ok := c.entries[c.key(text, profile)]
	return mentions, ok, nil
}

func (c *stubCache) Set(_ context.Context, text, profile string, mentions []entity_extractor.Mention) error {
	c.sets++
	c.entries[c.key(text, profile)] = mentions
	return nil
}

type stubGraph struct {
	created int64
	err     error
	apps    []string
	counts  []int
}

func (g *stubGraph) MergeMentions(_ context.Context, appNumber string, mentions []entity_extractor.Mention) (int64, error) {
	if g.err != nil {
		return 0, g.err
	}
	g.apps = append(g.apps, appNumber)
	g.counts = append(g.counts, len(mentions))
	return g.created, nil
}

type stubPublisher struct {
	events []common.Event
	err    error
}

func (p *stubPublisher) PublishEvent(_ context.Context, event common.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type singleAppRepo struct {
	app *patent.Application
}

func (r *singleAppRepo) Insert(context.Context, *patent.Application) error { return nil }

func (r *singleAppRepo) FindByApplicationNumber(_ context.Context, n string) (*patent.Application, error) {
	if r.app != nil && r.app.Metadata.ApplicationNumber == n {
		return r.app, nil
	}
	return nil, errors.New(errors.ErrCodePatentNotFound, "not found")
}

func (r *singleAppRepo) FindByPublicationNumber(_ context.Context, n string) (*patent.Application, error) {
	if r.app != nil && r.app.Metadata.PublicationNumber == n {
		return r.app, nil
	}
	return nil, errors.New(errors.ErrCodePatentNotFound, "not found")
}

func (r *singleAppRepo) ExistsByPublicationNumber(context.Context, string) (bool, error) {
	return r.app != nil, nil
}

func (r *singleAppRepo) List(context.Context, patent.Filter) ([]*patent.Application, error) {
	return nil, nil
}

func (r *singleAppRepo) Count(context.Context, patent.Filter) (int64, error) { return 0, nil }

func storedApplication() *patent.Application {
	return &patent.Application{
		Metadata: patent.Metadata{
			ApplicationNumber: "13261748",
			PublicationNumber: "US20130123456A1",
			Title:             "Graphene electrode",
			Decision:          patent.DecisionAccepted,
		},
		Dates: patent.Dates{
			FilingDate: time.Date(2011, 9, 15, 0, 0, 0, 0, time.UTC),
		},
		Content: patent.Content{
			Abstract: "A graphene electrode for batteries.",
			Claims:   "1. An electrode comprising graphene.",
		},
	}
}

type deps struct {
	repo      *singleAppRepo
	extractor *stubExtractor
	cache     *stubCache
	graph     *stubGraph
	publisher *stubPublisher
}

func newTestService(t *testing.T, cacheEnabled bool) (*Service, *deps) {
	t.Helper()
	d := &deps{
		repo:      &singleAppRepo{app: storedApplication()},
		extractor: &stubExtractor{mentions: testMentions},
		cache:     newStubCache(),
		graph:     &stubGraph{created: 2},
		publisher: &stubPublisher{},
	}
	svc, err := NewService(
		config.ExtractionConfig{MaxChunkSize: 100_000, CacheEnabled: cacheEnabled},
		d.repo, d.extractor, d.cache, d.graph, d.publisher, nil, logging.NewNopLogger())
	require.NoError(t, err)
	return svc, d
}

func TestExtractPatentFullRun(t *testing.T) {
	svc, d := newTestService(t, true)

	result, err := svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.NoError(t, err)

	assert.Equal(t, "13261748", result.ApplicationNumber)
	assert.Equal(t, testMentions, result.Mentions)
	assert.Equal(t, 1, result.ChunkCount)
	assert.False(t, result.CacheHit)
	assert.Equal(t, int64(2), result.NodesCreated)

	require.Len(t, d.graph.apps, 1)
	assert.Equal(t, "13261748", d.graph.apps[0])
	assert.Equal(t, 2, d.graph.counts[0])

	require.Len(t, d.publisher.events, 1)
	extracted, ok := d.publisher.events[0].(*patent.ExtractedEvent)
	require.True(t, ok)
	assert.Equal(t, 2, extracted.MentionCount)
	assert.False(t, extracted.CacheHit)

	assert.Equal(t, 1, d.cache.sets)
}

func TestExtractPatentCacheHitSkipsPipeline(t *testing.T) {
	svc, d := newTestService(t, true)

	_, err := svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.NoError(t, err)
	require.Equal(t, 1, d.extractor.calls)

	result, err := svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.NoError(t, err)
	assert.True(t, result.CacheHit)
	assert.Equal(t, 1, d.extractor.calls)
	assert.Equal(t, testMentions, result.Mentions)
}

func TestExtractPatentCacheDisabled(t *testing.T) {
	svc, d := newTestService(t, false)

	_, err := svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.NoError(t, err)
	_, err = svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.NoError(t, err)

	assert.Equal(t, 2, d.extractor.calls)
	assert.Zero(t, d.cache.sets)
}

func TestExtractPatentCacheLookupFailureFallsThrough(t *testing.T) {
	svc, d := newTestService(t, true)
	d.cache.getErr = errors.New(errors.ErrCodeCacheError, "redis down")

	result, err := svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, 1, d.extractor.calls)
}

func TestExtractPatentUnknownPublication(t *testing.T) {
	svc, _ := newTestService(t, true)

	_, err := svc.ExtractPatent(context.Background(), "US-GONE")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePatentNotFound))
}

func TestExtractPatentPipelineFailureWritesNothing(t *testing.T) {
	svc, d := newTestService(t, true)
	d.extractor.err = errors.New(errors.ErrCodeAnnotationFailed, "engine down")

	_, err := svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAnnotationFailed))
	assert.Empty(t, d.graph.apps)
	assert.Empty(t, d.publisher.events)
	assert.Zero(t, d.cache.sets)
}

func TestExtractPatentGraphFailureAborts(t *testing.T) {
	svc, d := newTestService(t, true)
	d.graph.err = errors.New(errors.ErrCodeDatabaseError, "neo4j down")

	_, err := svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.Error(t, err)
	assert.Empty(t, d.publisher.events)
}

func TestExtractPatentPublishFailureIsNotFatal(t *testing.T) {
	svc, d := newTestService(t, true)
	d.publisher.err = errors.New(errors.ErrCodeMessageQueueError, "kafka down")

	result, err := svc.ExtractPatent(context.Background(), "US20130123456A1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.NodesCreated)
}

func TestExtractByApplicationNumber(t *testing.T) {
	svc, _ := newTestService(t, true)

	result, err := svc.ExtractByApplicationNumber(context.Background(), "13261748")
	require.NoError(t, err)
	assert.Equal(t, "13261748", result.ApplicationNumber)
}

func TestExtractText(t *testing.T) {
	svc, d := newTestService(t, true)

	mentions, cacheHit, err := svc.ExtractText(context.Background(), "graphene in an electrode")
	require.NoError(t, err)
	assert.Equal(t, testMentions, mentions)
	assert.False(t, cacheHit)
	assert.Empty(t, d.graph.apps)
	assert.Empty(t, d.publisher.events)

	_, cacheHit, err = svc.ExtractText(context.Background(), "graphene in an electrode")
	require.NoError(t, err)
	assert.True(t, cacheHit)
}

func TestExtractTextRequiresText(t *testing.T) {
	svc, _ := newTestService(t, true)

	_, _, err := svc.ExtractText(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(config.ExtractionConfig{}, nil, &stubExtractor{}, nil, nil, nil, nil, nil)
	require.Error(t, err)

	_, err = NewService(config.ExtractionConfig{}, &singleAppRepo{}, nil, nil, nil, nil, nil, nil)
	require.Error(t, err)
}
