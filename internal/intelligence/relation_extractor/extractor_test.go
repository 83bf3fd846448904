package relation_extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Qubut/IP-Claim/internal/infrastructure/database/neo4j/repositories"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

type cannedLLM struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (c *cannedLLM) Complete(_ context.Context, system, user string) (string, error) {
	c.lastSystem = system
	c.lastUser = user
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func TestExtractRelationsParsesTriples(t *testing.T) {
	llm := &cannedLLM{response: `{"relations": [
		{"e_1": "graphene", "rel": "material_of", "e_2": "electrode"},
		{"e_1": "electrode", "rel": "component_of", "e_2": "battery"}
	]}`}
	ex := NewExtractor(llm, logging.NewNopLogger())

	relations, err := ex.ExtractRelations(context.Background(),
		"A battery with a graphene electrode.",
		[]string{"graphene", "electrode", "battery"})
	require.NoError(t, err)
	require.Len(t, relations, 2)
	assert.Equal(t, repositories.RelationInput{
		Subject: "graphene", Predicate: "material_of", Object: "electrode",
	}, relations[0])

	assert.Contains(t, llm.lastUser, "- graphene")
	assert.Contains(t, llm.lastSystem, `{"relations"`)
}

func TestExtractRelationsFencedJSON(t *testing.T) {
	llm := &cannedLLM{response: "```json\n" +
		`{"relations": [{"e_1": "anode", "rel": "comprises", "e_2": "cathode"}]}` +
		"\n```"}
	ex := NewExtractor(llm, logging.NewNopLogger())

	relations, err := ex.ExtractRelations(context.Background(), "text",
		[]string{"anode", "cathode"})
	require.NoError(t, err)
	require.Len(t, relations, 1)
	assert.Equal(t, "comprises", relations[0].Predicate)
}

func TestExtractRelationsDropsUnknownEntities(t *testing.T) {
	llm := &cannedLLM{response: `{"relations": [
		{"e_1": "graphene", "rel": "material_of", "e_2": "electrode"},
		{"e_1": "graphene", "rel": "invented_by", "e_2": "somebody else"},
		{"e_1": "graphene", "rel": "", "e_2": "electrode"}
	]}`}
	ex := NewExtractor(llm, logging.NewNopLogger())

	relations, err := ex.ExtractRelations(context.Background(), "text",
		[]string{"graphene", "electrode"})
	require.NoError(t, err)
	require.Len(t, relations, 1)
	assert.Equal(t, "material_of", relations[0].Predicate)
}

func TestExtractRelationsInvalidJSON(t *testing.T) {
	llm := &cannedLLM{response: "I could not find any relations, sorry."}
	ex := NewExtractor(llm, logging.NewNopLogger())

	_, err := ex.ExtractRelations(context.Background(), "text", []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRelationParseFailed))
}

func TestExtractRelationsNoEntities(t *testing.T) {
	ex := NewExtractor(&cannedLLM{}, logging.NewNopLogger())

	relations, err := ex.ExtractRelations(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.Empty(t, relations)
}

func TestExtractRelationsRequiresText(t *testing.T) {
	ex := NewExtractor(&cannedLLM{}, logging.NewNopLogger())

	_, err := ex.ExtractRelations(context.Background(), "  ", []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))
}

func TestCypherFromTextGroundsOnSchema(t *testing.T) {
	llm := &cannedLLM{response: "```cypher\nMERGE (a:Material {name: 'graphene'})\n```"}
	ex := NewExtractor(llm, logging.NewNopLogger())

	schema := &repositories.Schema{
		Labels:            []string{"Document", "Entity", "Material"},
		RelationshipTypes: []string{"MENTIONS"},
	}
	statement, err := ex.CypherFromText(context.Background(), "graphene text", schema)
	require.NoError(t, err)
	assert.Equal(t, "MERGE (a:Material {name: 'graphene'})", statement)
	assert.Contains(t, llm.lastUser, "Material")
	assert.Contains(t, llm.lastUser, "MENTIONS")
}

func TestCypherFromTextEmptySchema(t *testing.T) {
	llm := &cannedLLM{response: "MERGE (a:Entity {name: 'x'})"}
	ex := NewExtractor(llm, logging.NewNopLogger())

	statement, err := ex.CypherFromText(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, statement)
	assert.Contains(t, llm.lastUser, "(empty graph)")
}

func TestCypherFromTextEmptyResponse(t *testing.T) {
	llm := &cannedLLM{response: "```\n\n```"}
	ex := NewExtractor(llm, logging.NewNopLogger())

	_, err := ex.CypherFromText(context.Background(), "text", nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMResponseInvalid))
}

func TestExtractRelationsPropagatesClientError(t *testing.T) {
	llm := &cannedLLM{err: errors.New(errors.ErrCodeLLMRequestFailed, "boom")}
	ex := NewExtractor(llm, logging.NewNopLogger())

	_, err := ex.ExtractRelations(context.Background(), "text", []string{"a"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLLMRequestFailed))
}
