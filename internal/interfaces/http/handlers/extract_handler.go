package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Qubut/IP-Claim/internal/application/extraction"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// ExtractionService is the slice of the extraction application service the
// handlers call.
type ExtractionService interface {
	ExtractText(ctx context.Context, text string) ([]entity_extractor.Mention, bool, error)
	ExtractPatent(ctx context.Context, publicationNumber string) (*extraction.Result, error)
}

// ExtractHandler exposes the extraction pipeline over HTTP.
type ExtractHandler struct {
	service ExtractionService
}

// NewExtractHandler builds an ExtractHandler.
func NewExtractHandler(service ExtractionService) *ExtractHandler {
	return &ExtractHandler{service: service}
}

type extractTextRequest struct {
	Text string `json:"text" binding:"required"`
}

type extractTextResponse struct {
	Mentions []entity_extractor.Mention `json:"mentions"`
	CacheHit bool                       `json:"cache_hit"`
}

// ExtractText handles POST /v1/extract.
func (h *ExtractHandler) ExtractText(c *gin.Context) {
	req := extractTextRequest{}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.InvalidParam("request body must carry a non-empty text field"))
		return
	}

	mentions, cacheHit, err := h.service.ExtractText(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	if mentions == nil {
		mentions = []entity_extractor.Mention{}
	}
	c.JSON(http.StatusOK, extractTextResponse{Mentions: mentions, CacheHit: cacheHit})
}

// ExtractPatent handles POST /v1/patents/:publication_number/extract.
func (h *ExtractHandler) ExtractPatent(c *gin.Context) {
	pub := c.Param("publication_number")
	if pub == "" {
		respondError(c, errors.InvalidParam("publication number is required"))
		return
	}

	result, err := h.service.ExtractPatent(c.Request.Context(), pub)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
