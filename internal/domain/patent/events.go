package patent

import (
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

// Event type discriminators carried on the message bus.
const (
	EventTypeImported  = "patent.imported"
	EventTypeExtracted = "patent.extracted"
)

// ImportedEvent is published after an application has been persisted by the
// bulk importer.
type ImportedEvent struct {
	common.BaseEvent
	ApplicationNumber string `json:"application_number"`
	PublicationNumber string `json:"publication_number,omitempty"`
	Title             string `json:"title"`
	Decision          string `json:"decision"`
	FilingYear        int    `json:"filing_year"`
}

func (ImportedEvent) EventType() string { return EventTypeImported }

// NewImportedEvent builds an ImportedEvent for app.
func NewImportedEvent(app *Application) *ImportedEvent {
	return &ImportedEvent{
		BaseEvent:         common.NewBaseEvent(app.Metadata.ApplicationNumber),
		ApplicationNumber: app.Metadata.ApplicationNumber,
		PublicationNumber: app.Metadata.PublicationNumber,
		Title:             app.Metadata.Title,
		Decision:          app.Metadata.Decision,
		FilingYear:        app.FilingYear(),
	}
}

// ExtractedEvent is published after entity extraction completed for an
// application and its mentions were written to the knowledge graph.
type ExtractedEvent struct {
	common.BaseEvent
	ApplicationNumber string `json:"application_number"`
	MentionCount      int    `json:"mention_count"`
	ChunkCount        int    `json:"chunk_count"`
	CacheHit          bool   `json:"cache_hit"`
}

func (ExtractedEvent) EventType() string { return EventTypeExtracted }

// NewExtractedEvent builds an ExtractedEvent.
func NewExtractedEvent(applicationNumber string, mentionCount, chunkCount int, cacheHit bool) *ExtractedEvent {
	return &ExtractedEvent{
		BaseEvent:         common.NewBaseEvent(applicationNumber),
		ApplicationNumber: applicationNumber,
		MentionCount:      mentionCount,
		ChunkCount:        chunkCount,
		CacheHit:          cacheHit,
	}
}
