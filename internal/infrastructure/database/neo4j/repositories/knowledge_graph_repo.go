// Package repositories contains the Neo4j-backed knowledge graph store.
package repositories

import (
	"context"
	"regexp"
	"sort"
	"strings"

	driver "github.com/Qubut/IP-Claim/internal/infrastructure/database/neo4j"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// KnowledgeGraphRepository persists extracted entities and relations as a
// property graph. Entity nodes carry the generic Entity label plus a label
// derived from the NER category, and are linked to the Document node of the
// patent they were found in.
type KnowledgeGraphRepository interface {
	// MergeMentions upserts one entity node per distinct (text, label) pair
	// and a MENTIONS edge from the document to each. Returns the number of
	// nodes created by this call.
	MergeMentions(ctx context.Context, applicationNumber string, mentions []entity_extractor.Mention) (int64, error)

	// MergeRelations upserts subject/object entity nodes and a typed edge
	// between them. Returns the number of relationships created.
	MergeRelations(ctx context.Context, relations []RelationInput) (int64, error)

	// SchemaSummary reports the node labels and relationship types present
	// in the graph, both sorted.
	SchemaSummary(ctx context.Context) (*Schema, error)

	// EnsureConstraints creates the uniqueness constraints the merge
	// queries rely on. Idempotent.
	EnsureConstraints(ctx context.Context) error

	// DocumentEntities lists the entities linked to a document, ordered by
	// name.
	DocumentEntities(ctx context.Context, applicationNumber string) ([]GraphEntity, error)
}

// RelationInput is one subject-predicate-object triple to merge.
type RelationInput struct {
	Subject   string `json:"e_1"`
	Predicate string `json:"rel"`
	Object    string `json:"e_2"`
}

// GraphEntity is an entity node as stored in the graph.
type GraphEntity struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Schema summarises the labels and relationship types in the graph.
type Schema struct {
	Labels            []string `json:"labels"`
	RelationshipTypes []string `json:"relationship_types"`
}

// Describe renders the schema as a prompt-friendly block.
func (s *Schema) Describe() string {
	var b strings.Builder
	b.WriteString("Node labels: ")
	b.WriteString(strings.Join(s.Labels, ", "))
	b.WriteString("\nRelationship types: ")
	b.WriteString(strings.Join(s.RelationshipTypes, ", "))
	return b.String()
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// sanitizeRelType normalises a free-text predicate into a Cypher
// relationship type: upper snake case, alphanumerics and underscores only.
func sanitizeRelType(predicate string) (string, error) {
	cleaned := strings.TrimSpace(predicate)
	cleaned = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, cleaned)
	cleaned = strings.Trim(cleaned, "_")
	cleaned = strings.ToUpper(cleaned)
	for strings.Contains(cleaned, "__") {
		cleaned = strings.ReplaceAll(cleaned, "__", "_")
	}
	if cleaned == "" || !identifierPattern.MatchString(cleaned) {
		return "", errors.Newf(errors.ErrCodeBadRequest, "predicate %q cannot be used as a relationship type", predicate)
	}
	return cleaned, nil
}

// validLabel reports whether an NER label can be used verbatim as a node
// label. Labels are never interpolated unless they pass this check.
func validLabel(label string) bool {
	return identifierPattern.MatchString(label)
}

type knowledgeGraphRepo struct {
	driver driver.DriverInterface
	log    logging.Logger
}

// NewKnowledgeGraphRepository returns a Neo4j-backed implementation.
func NewKnowledgeGraphRepository(d driver.DriverInterface, log logging.Logger) KnowledgeGraphRepository {
	return &knowledgeGraphRepo{
		driver: d,
		log:    log.Named("knowledge_graph"),
	}
}

func (r *knowledgeGraphRepo) MergeMentions(ctx context.Context, applicationNumber string, mentions []entity_extractor.Mention) (int64, error) {
	if applicationNumber == "" {
		return 0, errors.New(errors.ErrCodeBadRequest, "application number is required")
	}
	if len(mentions) == 0 {
		return 0, nil
	}

	// Labels cannot be query parameters, so mentions are grouped by label
	// and merged one label at a time. Duplicate (name, label) pairs within
	// a group collapse in the MERGE.
	byLabel := make(map[string][]map[string]any)
	for _, m := range mentions {
		label := m.Label
		if !validLabel(label) {
			r.log.Warn("Skipping mention with unusable label",
				logging.String("label", m.Label),
				logging.String("text", m.Text))
			continue
		}
		byLabel[label] = append(byLabel[label], map[string]any{
			"name": m.Text,
		})
	}

	var created int64
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		if _, err := tx.Run(ctx,
			"MERGE (d:Document {application_number: $app})",
			map[string]any{"app": applicationNumber}); err != nil {
			return nil, err
		}

		for label, batch := range byLabel {
			query := `
				MATCH (d:Document {application_number: $app})
				UNWIND $batch AS m
				MERGE (e:Entity:` + label + ` {name: m.name})
				ON CREATE SET e.label = $label
				MERGE (d)-[:MENTIONS]->(e)
			`
			result, err := tx.Run(ctx, query, map[string]any{
				"app":   applicationNumber,
				"batch": batch,
				"label": label,
			})
			if err != nil {
				return nil, err
			}
			summary, err := result.Consume(ctx)
			if err != nil {
				return nil, err
			}
			if summary != nil {
				created += int64(summary.Counters().NodesCreated())
			}
		}
		return nil, nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug("Merged entity mentions",
		logging.String("application_number", applicationNumber),
		logging.Int("mentions", len(mentions)),
		logging.Int64("nodes_created", created))
	return created, nil
}

func (r *knowledgeGraphRepo) MergeRelations(ctx context.Context, relations []RelationInput) (int64, error) {
	if len(relations) == 0 {
		return 0, nil
	}

	// Relationship types cannot be parameters either, so triples are
	// grouped by their sanitized type.
	byType := make(map[string][]map[string]any)
	for _, rel := range relations {
		if rel.Subject == "" || rel.Object == "" {
			return 0, errors.New(errors.ErrCodeBadRequest, "relation subject and object are required")
		}
		relType, err := sanitizeRelType(rel.Predicate)
		if err != nil {
			return 0, err
		}
		byType[relType] = append(byType[relType], map[string]any{
			"subject": rel.Subject,
			"object":  rel.Object,
		})
	}

	var created int64
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		for relType, batch := range byType {
			query := `
				UNWIND $batch AS r
				MERGE (a:Entity {name: r.subject})
				MERGE (b:Entity {name: r.object})
				MERGE (a)-[:` + relType + `]->(b)
			`
			result, err := tx.Run(ctx, query, map[string]any{"batch": batch})
			if err != nil {
				return nil, err
			}
			summary, err := result.Consume(ctx)
			if err != nil {
				return nil, err
			}
			if summary != nil {
				created += int64(summary.Counters().RelationshipsCreated())
			}
		}
		return nil, nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug("Merged relations",
		logging.Int("triples", len(relations)),
		logging.Int64("relationships_created", created))
	return created, nil
}

func (r *knowledgeGraphRepo) SchemaSummary(ctx context.Context) (*Schema, error) {
	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		labels, err := collectStrings(ctx, tx, "CALL db.labels() YIELD label RETURN label")
		if err != nil {
			return nil, err
		}
		relTypes, err := collectStrings(ctx, tx, "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType")
		if err != nil {
			return nil, err
		}
		sort.Strings(labels)
		sort.Strings(relTypes)
		return &Schema{Labels: labels, RelationshipTypes: relTypes}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(*Schema), nil
}

func (r *knowledgeGraphRepo) EnsureConstraints(ctx context.Context) error {
	statements := []string{
		"CREATE CONSTRAINT document_application_number IF NOT EXISTS FOR (d:Document) REQUIRE d.application_number IS UNIQUE",
		"CREATE CONSTRAINT entity_name IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE",
	}

	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		for _, stmt := range statements {
			result, err := tx.Run(ctx, stmt, nil)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	r.log.Info("Ensured knowledge graph constraints", logging.Int("constraints", len(statements)))
	return nil
}

func (r *knowledgeGraphRepo) DocumentEntities(ctx context.Context, applicationNumber string) ([]GraphEntity, error) {
	if applicationNumber == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "application number is required")
	}

	query := `
		MATCH (d:Document {application_number: $app})-[:MENTIONS]->(e:Entity)
		RETURN e.name AS name, e.label AS label
		ORDER BY name
	`

	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"app": applicationNumber})
		if err != nil {
			return nil, err
		}
		var entities []GraphEntity
		for result.Next(ctx) {
			rec := result.Record()
			var entity GraphEntity
			if name, ok := rec.Get("name"); ok {
				entity.Name, _ = name.(string)
			}
			if label, ok := rec.Get("label"); ok {
				entity.Label, _ = label.(string)
			}
			entities = append(entities, entity)
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		return entities, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]GraphEntity), nil
}

func collectStrings(ctx context.Context, tx driver.Transaction, query string) ([]string, error) {
	result, err := tx.Run(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	var values []string
	for result.Next(ctx) {
		rec := result.Record()
		if len(rec.Values) > 0 {
			if s, ok := rec.Values[0].(string); ok {
				values = append(values, s)
			}
		}
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	return values, nil
}
