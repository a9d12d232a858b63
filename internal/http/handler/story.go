package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/openai/openai-go"

	"dealerops.dev/storyline/common/logger"
	"dealerops.dev/storyline/internal/generate"
	"dealerops.dev/storyline/internal/http/dto"
	"dealerops.dev/storyline/internal/model"
)

// upstreamDetailLimit caps how much of an upstream error body is echoed
// back to the caller.
const upstreamDetailLimit = 2000

type StoryHandler struct {
	generator generate.Service
}

func NewStoryHandler(generator generate.Service) *StoryHandler {
	return &StoryHandler{generator: generator}
}

func (h *StoryHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid story request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ro := req.ToRepairOrder()
	if msg := mandatoryInputError(ro); msg != "" {
		slog.WarnContext(ctx, "story request missing mandatory input", "reason", msg)
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	story, err := h.generator.Generate(ctx, ro)
	if err != nil {
		h.writeGenerateError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StoryResponse{Story: story})
}

// mandatoryInputError checks that the order carries enough source text
// for its section mode to write from. Returns "" when it does.
func mandatoryInputError(ro model.RepairOrder) string {
	mode := ro.SectionModeValue()
	if mode.IncludesDiagnosis() && strings.TrimSpace(ro.Concern) == "" && strings.TrimSpace(ro.Diagnosis) == "" {
		return fmt.Sprintf("concern or diagnosis is required for %s", mode)
	}
	if mode.IncludesRepair() && strings.TrimSpace(ro.Repair) == "" {
		return fmt.Sprintf("repair is required for %s", mode)
	}
	return ""
}

func (h *StoryHandler) writeGenerateError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var vErr *generate.ValidationError
	if errors.As(err, &vErr) {
		slog.WarnContext(ctx, "story rejected after retries", "violations", vErr.Details())
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "story failed validation",
			"details": vErr.Details(),
		})
		return
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		detail := apiErr.RawJSON()
		if detail == "" {
			detail = apiErr.Message
		}
		slog.ErrorContext(ctx, "model API error", "status_code", apiErr.StatusCode, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   fmt.Sprintf("OpenAI HTTPError %d", apiErr.StatusCode),
			"details": logger.Truncate(detail, upstreamDetailLimit),
		})
		return
	}

	slog.ErrorContext(ctx, "story generation failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
