package repositories

import (
	"context"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

func newTestRepo(t *testing.T) (KnowledgeGraphRepository, *MockTransaction) {
	t.Helper()
	d, tx := newMockDriver()
	repo := NewKnowledgeGraphRepository(d, logging.NewNopLogger())
	return repo, tx
}

func cypherContains(substr string) interface{} {
	return mock.MatchedBy(func(cypher string) bool {
		return strings.Contains(cypher, substr)
	})
}

func TestMergeMentionsGroupsByLabel(t *testing.T) {
	repo, tx := newTestRepo(t)

	tx.On("Run", mock.Anything, cypherContains("MERGE (d:Document"), mock.Anything).
		Return(&MockResult{}, nil).Once()
	tx.On("Run", mock.Anything, cypherContains(":Entity:ORG"), mock.Anything).
		Return(&MockResult{Summary: summaryWithNodes(2)}, nil).Once()
	tx.On("Run", mock.Anything, cypherContains(":Entity:PERSON"), mock.Anything).
		Return(&MockResult{Summary: summaryWithNodes(1)}, nil).Once()

	mentions := []entity_extractor.Mention{
		{Text: "Apple Inc.", Label: "ORG", Start: 0, End: 10},
		{Text: "John Smith", Label: "PERSON", Start: 20, End: 30},
		{Text: "Samsung", Label: "ORG", Start: 40, End: 47},
	}

	created, err := repo.MergeMentions(context.Background(), "US1234567", mentions)
	require.NoError(t, err)
	assert.Equal(t, int64(3), created)
	tx.AssertExpectations(t)

	// Both ORG mentions travel in the same batch.
	for _, call := range tx.Calls {
		cypher := call.Arguments.String(1)
		if !strings.Contains(cypher, ":Entity:ORG") {
			continue
		}
		params := call.Arguments.Get(2).(map[string]any)
		batch := params["batch"].([]map[string]any)
		assert.Len(t, batch, 2)
		assert.Equal(t, "US1234567", params["app"])
	}
}

func TestMergeMentionsSkipsUnusableLabels(t *testing.T) {
	repo, tx := newTestRepo(t)

	tx.On("Run", mock.Anything, cypherContains("MERGE (d:Document"), mock.Anything).
		Return(&MockResult{}, nil).Once()

	mentions := []entity_extractor.Mention{
		{Text: "whatever", Label: "BAD LABEL) DETACH DELETE", Start: 0, End: 8},
	}

	created, err := repo.MergeMentions(context.Background(), "US1234567", mentions)
	require.NoError(t, err)
	assert.Zero(t, created)
	tx.AssertExpectations(t)
	tx.AssertNumberOfCalls(t, "Run", 1)
}

func TestMergeMentionsRequiresApplicationNumber(t *testing.T) {
	repo, tx := newTestRepo(t)

	_, err := repo.MergeMentions(context.Background(), "", []entity_extractor.Mention{
		{Text: "Apple Inc.", Label: "ORG"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
	tx.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestMergeMentionsEmptyInput(t *testing.T) {
	repo, tx := newTestRepo(t)

	created, err := repo.MergeMentions(context.Background(), "US1234567", nil)
	require.NoError(t, err)
	assert.Zero(t, created)
	tx.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestMergeRelationsSanitizesPredicate(t *testing.T) {
	repo, tx := newTestRepo(t)

	tx.On("Run", mock.Anything, cypherContains("-[:DEVELOPED_BY]->"), mock.Anything).
		Return(&MockResult{Summary: summaryWithRelationships(1)}, nil).Once()

	created, err := repo.MergeRelations(context.Background(), []RelationInput{
		{Subject: "iPhone", Predicate: "developed by", Object: "Apple Inc."},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)
	tx.AssertExpectations(t)
}

func TestMergeRelationsRejectsEmptyEndpoints(t *testing.T) {
	repo, tx := newTestRepo(t)

	_, err := repo.MergeRelations(context.Background(), []RelationInput{
		{Subject: "", Predicate: "uses", Object: "Apple Inc."},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
	tx.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
}

func TestMergeRelationsRejectsUnusablePredicate(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.MergeRelations(context.Background(), []RelationInput{
		{Subject: "a", Predicate: "###", Object: "b"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestSanitizeRelType(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain word", in: "uses", want: "USES"},
		{name: "spaces to underscores", in: "developed by", want: "DEVELOPED_BY"},
		{name: "already upper snake", in: "PART_OF", want: "PART_OF"},
		{name: "punctuation stripped", in: "relates-to (loosely)", want: "RELATES_TO_LOOSELY"},
		{name: "leading digit rejected", in: "3d printing", wantErr: true},
		{name: "empty rejected", in: "", wantErr: true},
		{name: "symbols only rejected", in: "!!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizeRelType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSchemaSummary(t *testing.T) {
	repo, tx := newTestRepo(t)

	tx.On("Run", mock.Anything, cypherContains("db.labels"), mock.Anything).
		Return(&MockResult{Records: []*neo4j.Record{
			newRecord([]string{"label"}, []any{"ORG"}),
			newRecord([]string{"label"}, []any{"Document"}),
			newRecord([]string{"label"}, []any{"Entity"}),
		}}, nil).Once()
	tx.On("Run", mock.Anything, cypherContains("db.relationshipTypes"), mock.Anything).
		Return(&MockResult{Records: []*neo4j.Record{
			newRecord([]string{"relationshipType"}, []any{"MENTIONS"}),
			newRecord([]string{"relationshipType"}, []any{"DEVELOPED_BY"}),
		}}, nil).Once()

	schema, err := repo.SchemaSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Document", "Entity", "ORG"}, schema.Labels)
	assert.Equal(t, []string{"DEVELOPED_BY", "MENTIONS"}, schema.RelationshipTypes)
	tx.AssertExpectations(t)

	described := schema.Describe()
	assert.Contains(t, described, "Node labels: Document, Entity, ORG")
	assert.Contains(t, described, "Relationship types: DEVELOPED_BY, MENTIONS")
}

func TestEnsureConstraints(t *testing.T) {
	repo, tx := newTestRepo(t)

	tx.On("Run", mock.Anything, cypherContains("CREATE CONSTRAINT"), mock.Anything).
		Return(&MockResult{}, nil).Twice()

	require.NoError(t, repo.EnsureConstraints(context.Background()))
	tx.AssertExpectations(t)
}

func TestDocumentEntities(t *testing.T) {
	repo, tx := newTestRepo(t)

	tx.On("Run", mock.Anything, cypherContains("[:MENTIONS]->(e:Entity)"), mock.Anything).
		Return(&MockResult{Records: []*neo4j.Record{
			newRecord([]string{"name", "label"}, []any{"Apple Inc.", "ORG"}),
			newRecord([]string{"name", "label"}, []any{"John Smith", "PERSON"}),
		}}, nil).Once()

	entities, err := repo.DocumentEntities(context.Background(), "US1234567")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, GraphEntity{Name: "Apple Inc.", Label: "ORG"}, entities[0])
	assert.Equal(t, GraphEntity{Name: "John Smith", Label: "PERSON"}, entities[1])
	tx.AssertExpectations(t)
}

func TestDocumentEntitiesRequiresApplicationNumber(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.DocumentEntities(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}
