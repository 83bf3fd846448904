package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/internal/infrastructure/database/neo4j/repositories"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// EntityLister reads the entities linked to a document in the knowledge graph.
type EntityLister interface {
	DocumentEntities(ctx context.Context, applicationNumber string) ([]repositories.GraphEntity, error)
}

// PatentSearcher runs full-text queries over the patent index.
type PatentSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

// PatentHandler serves stored applications, their graph entities, and search.
type PatentHandler struct {
	repo     patent.Repository
	entities EntityLister
	searcher PatentSearcher
}

// NewPatentHandler builds a PatentHandler.  Entities and searcher may be nil;
// the corresponding endpoints then report the capability as unavailable.
func NewPatentHandler(repo patent.Repository, entities EntityLister, searcher PatentSearcher) *PatentHandler {
	return &PatentHandler{repo: repo, entities: entities, searcher: searcher}
}

// Get handles GET /v1/patents/:publication_number.
func (h *PatentHandler) Get(c *gin.Context) {
	app, err := h.repo.FindByPublicationNumber(c.Request.Context(), c.Param("publication_number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, app)
}

type entitiesResponse struct {
	ApplicationNumber string                     `json:"application_number"`
	Entities          []repositories.GraphEntity `json:"entities"`
}

// Entities handles GET /v1/patents/:publication_number/entities.
func (h *PatentHandler) Entities(c *gin.Context) {
	if h.entities == nil {
		respondError(c, errors.New(errors.ErrCodeServiceUnavailable, "knowledge graph is not configured"))
		return
	}

	app, err := h.repo.FindByPublicationNumber(c.Request.Context(), c.Param("publication_number"))
	if err != nil {
		respondError(c, err)
		return
	}

	entities, err := h.entities.DocumentEntities(c.Request.Context(), app.Metadata.ApplicationNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	if entities == nil {
		entities = []repositories.GraphEntity{}
	}
	c.JSON(http.StatusOK, entitiesResponse{
		ApplicationNumber: app.Metadata.ApplicationNumber,
		Entities:          entities,
	})
}

type searchResponse struct {
	Query   string   `json:"query"`
	Results []string `json:"results"`
}

// Search handles GET /v1/patents/search?q=...&limit=N.
func (h *PatentHandler) Search(c *gin.Context) {
	if h.searcher == nil {
		respondError(c, errors.New(errors.ErrCodeServiceUnavailable, "search index is not configured"))
		return
	}

	query := c.Query("q")
	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respondError(c, errors.InvalidParam("limit must be an integer between 1 and 100"))
			return
		}
		limit = n
	}

	results, err := h.searcher.Search(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []string{}
	}
	c.JSON(http.StatusOK, searchResponse{Query: query, Results: results})
}
