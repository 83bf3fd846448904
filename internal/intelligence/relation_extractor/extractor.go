package relation_extractor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Qubut/IP-Claim/internal/infrastructure/database/neo4j/repositories"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

const relationSystemPrompt = `You identify relationships between entities in patent text.

Instructions:
- Only identify relationships between the provided entities.
- Use common relationship types like: material_of, method_step, component_of, cites, improves, alternative_to, comprises, depends_on.
- For ambiguous relationships, choose the most specific type.
- Respond with JSON only, in the format: {"relations": [{"e_1": str, "rel": str, "e_2": str}]}`

const cypherSystemPrompt = `You write Cypher MERGE statements that model all entities and relationships found in a text.

Instructions:
- Refer to the provided schema and use existing or similar nodes, properties or relationships before creating new ones.
- Use generic categories for node and relationship labels.
- Respond with the Cypher statement only.`

// Extractor prompts the model for entity relations and Cypher statements.
type Extractor struct {
	llm LLMClient
	log logging.Logger
}

// NewExtractor builds an Extractor over the given chat client.
func NewExtractor(llm LLMClient, log logging.Logger) *Extractor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Extractor{llm: llm, log: log.Named("relation_extractor")}
}

type relationsPayload struct {
	Relations []repositories.RelationInput `json:"relations"`
}

// ExtractRelations asks the model which of the supplied entities are related
// in the text and returns the triples.  Entities the model invents that were
// not supplied are dropped.
func (e *Extractor) ExtractRelations(ctx context.Context, text string, entities []string) ([]repositories.RelationInput, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.InvalidParam("text is required")
	}
	if len(entities) == 0 {
		return nil, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Text:\n")
	prompt.WriteString(text)
	prompt.WriteString("\n\nEntities:\n")
	for _, entity := range entities {
		prompt.WriteString("- ")
		prompt.WriteString(entity)
		prompt.WriteString("\n")
	}

	raw, err := e.llm.Complete(ctx, relationSystemPrompt, prompt.String())
	if err != nil {
		return nil, err
	}

	payload, err := parseRelations(raw)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(entities))
	for _, entity := range entities {
		known[strings.ToLower(strings.TrimSpace(entity))] = struct{}{}
	}

	relations := payload.Relations[:0]
	dropped := 0
	for _, r := range payload.Relations {
		_, okSubject := known[strings.ToLower(strings.TrimSpace(r.Subject))]
		_, okObject := known[strings.ToLower(strings.TrimSpace(r.Object))]
		if !okSubject || !okObject || strings.TrimSpace(r.Predicate) == "" {
			dropped++
			continue
		}
		relations = append(relations, r)
	}
	if dropped > 0 {
		e.log.Warn("Dropped relations naming unknown entities",
			logging.Int("dropped", dropped),
			logging.Int("kept", len(relations)))
	}
	return relations, nil
}

// CypherFromText asks the model for a Cypher MERGE statement modelling the
// text, grounded on the knowledge graph's current schema summary.
func (e *Extractor) CypherFromText(ctx context.Context, text string, schema *repositories.Schema) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.InvalidParam("text is required")
	}

	var prompt strings.Builder
	prompt.WriteString("Text:\n")
	prompt.WriteString(text)
	prompt.WriteString("\n\nCurrent graph schema:\n")
	if schema != nil {
		prompt.WriteString(schema.Describe())
	} else {
		prompt.WriteString("(empty graph)")
	}

	raw, err := e.llm.Complete(ctx, cypherSystemPrompt, prompt.String())
	if err != nil {
		return "", err
	}

	statement := strings.TrimSpace(stripFence(raw))
	if statement == "" {
		return "", errors.New(errors.ErrCodeLLMResponseInvalid, "model returned an empty statement")
	}
	return statement, nil
}

// parseRelations decodes the model's relations JSON.  Models frequently wrap
// JSON in a Markdown code fence, so a fenced block is tried before giving up.
func parseRelations(raw string) (*relationsPayload, error) {
	candidates := []string{strings.TrimSpace(raw)}
	if fenced := stripFence(raw); fenced != raw {
		candidates = append(candidates, strings.TrimSpace(fenced))
	}

	var lastErr error
	for _, candidate := range candidates {
		payload := &relationsPayload{}
		if err := json.Unmarshal([]byte(candidate), payload); err != nil {
			lastErr = err
			continue
		}
		return payload, nil
	}
	return nil, errors.Wrap(lastErr, errors.ErrCodeRelationParseFailed,
		"model response is not valid relations JSON")
}

// stripFence removes a surrounding Markdown code fence (``` or ```json) if
// present, returning the input unchanged otherwise.
func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return raw
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	if i := strings.LastIndex(trimmed, "```"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return trimmed
}
