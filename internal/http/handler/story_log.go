package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealerops.dev/storyline/internal/http/dto"
	"dealerops.dev/storyline/internal/store"
)

type StoryLogHandler struct {
	logs store.StoryLogStore // nil when no database is configured
}

func NewStoryLogHandler(logs store.StoryLogStore) *StoryLogHandler {
	return &StoryLogHandler{logs: logs}
}

func (h *StoryLogHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	if h.logs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "story log disabled"})
		return
	}

	limit := int32(50)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 500"})
			return
		}
		limit = int32(parsed)
	}

	records, err := h.logs.ListRecent(ctx, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list story logs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list story logs"})
		return
	}

	resp := make([]dto.StoryLogResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, dto.ToStoryLogResponse(rec))
	}
	c.JSON(http.StatusOK, gin.H{"logs": resp})
}

func (h *StoryLogHandler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()

	if h.logs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "story log disabled"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid story log id"})
		return
	}

	rec, err := h.logs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "story log not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load story log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load story log"})
		return
	}

	c.JSON(http.StatusOK, dto.ToStoryLogResponse(*rec))
}
