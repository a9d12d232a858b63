package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dealerops.dev/storyline/common/id"
	"dealerops.dev/storyline/common/llm"
	"dealerops.dev/storyline/common/logger"
	"dealerops.dev/storyline/internal/model"
	"dealerops.dev/storyline/internal/normalize"
	"dealerops.dev/storyline/internal/prompt"
	"dealerops.dev/storyline/internal/store"
	"dealerops.dev/storyline/internal/story"
	"dealerops.dev/storyline/internal/vehicle"
)

// Per-call ceiling, independent of how many attempts the budget allows.
const llmCallTimeout = 30 * time.Second

// ValidationError is returned when every attempt produced output that
// failed validation. It carries the violations from the final attempt.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "story failed validation: " + e.Details()
}

// Details joins the violations for response payloads.
func (e *ValidationError) Details() string {
	return strings.Join(e.Violations, "; ")
}

type Config struct {
	MaxAttempts      int
	MaxTokens        int
	StructuredOutput bool
}

// Service is the handler-facing surface of the generator.
type Service interface {
	Generate(ctx context.Context, ro model.RepairOrder) (string, error)
}

// Generator runs the full pipeline for one repair order: input
// normalization, prompt building, the bounded retry loop against the
// model, and deterministic post-processing of what comes back.
type Generator struct {
	llm      llm.Client
	vehicles *vehicle.Resolver
	prompts  *prompt.Builder
	format   *story.Formatter
	logs     store.StoryLogStore // nil disables audit logging
	cfg      Config
}

var _ Service = (*Generator)(nil)

func New(client llm.Client, vehicles *vehicle.Resolver, prompts *prompt.Builder, formatter *story.Formatter, logs store.StoryLogStore, cfg Config) *Generator {
	return &Generator{
		llm:      client,
		vehicles: vehicles,
		prompts:  prompts,
		format:   formatter,
		logs:     logs,
		cfg:      cfg,
	}
}

// Generate produces the story text for a repair order.
func (g *Generator) Generate(ctx context.Context, ro model.RepairOrder) (string, error) {
	ro = normalize.Normalize(ro)

	requestID := id.New()
	jobType := string(ro.JobTypeValue())
	sectionMode := string(ro.SectionModeValue())
	modelID := llm.ResolveModel(ro.Model, "")

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RequestID:   logger.Ptr(requestID),
		VIN:         logger.Ptr(ro.VIN),
		JobType:     logger.Ptr(jobType),
		SectionMode: logger.Ptr(sectionMode),
		Component:   "generate",
	})
	sc := logger.StartSpan(ctx, "story.generate")
	defer sc.End()
	ctx = sc.Context()

	maxAttempts := g.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	start := time.Now()
	var text string
	var violations []string
	var attempts int
	var usage *llm.Response
	var err error

	if g.cfg.StructuredOutput {
		text, violations, attempts, usage, err = g.generateStructured(ctx, ro, modelID, maxAttempts)
	} else {
		text, violations, attempts, usage, err = g.generateFreeText(ctx, ro, modelID, maxAttempts)
	}
	latency := time.Since(start)

	rec := g.newRecord(requestID, ro, modelID, attempts, latency, usage)
	switch {
	case err != nil:
		sc.RecordError(err)
		rec.Status = model.StoryStatusFailed
		rec.Violations = logger.Ptr(logger.Truncate(err.Error(), 2000))
		g.logStory(ctx, rec)
		return "", err
	case len(violations) > 0:
		rec.Status = model.StoryStatusFailed
		rec.Violations = logger.Ptr(strings.Join(violations, "; "))
		g.logStory(ctx, rec)
		return "", &ValidationError{Violations: violations}
	}

	rec.Status = model.StoryStatusSucceeded
	rec.Story = logger.Ptr(text)
	g.logStory(ctx, rec)

	slog.InfoContext(ctx, "story generated",
		"attempts", attempts,
		"latency_ms", latency.Milliseconds(),
		"story_chars", len(text))
	return text, nil
}

func (g *Generator) generateStructured(ctx context.Context, ro model.RepairOrder, modelID string, maxAttempts int) (string, []string, int, *llm.Response, error) {
	caps, err := g.vehicles.Capabilities(ctx, ro.VIN)
	if err != nil {
		return "", nil, 0, nil, err
	}

	basePrompt, err := g.prompts.StructuredPrompt(ro)
	if err != nil {
		return "", nil, 0, nil, err
	}
	mode := ro.SectionModeValue()
	schemaName, schema := schemaFor(mode)

	userPrompt := basePrompt
	var lastViolations []string
	var usage *llm.Response

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		actx := logger.WithLogFields(ctx, logger.LogFields{Attempt: logger.Ptr(attempt)})
		asc := logger.StartSpan(actx, "generate.attempt")

		callCtx, cancel := context.WithTimeout(asc.Context(), llmCallTimeout)
		var payload map[string]any
		resp, err := g.llm.Chat(callCtx, llm.Request{
			SystemPrompt: g.prompts.SystemPrompt(),
			UserPrompt:   userPrompt,
			SchemaName:   schemaName,
			Schema:       schema,
			Model:        modelID,
			MaxTokens:    g.cfg.MaxTokens,
			Temperature:  llm.Temp(0.2),
		}, &payload)
		cancel()
		if resp != nil {
			usage = resp
		}
		if err != nil {
			if isMalformedJSON(err) {
				lastViolations = []string{"model output was not a JSON object"}
				slog.WarnContext(actx, "story attempt rejected", "violations", lastViolations[0])
				asc.End()
				userPrompt = prompt.AppendCorrections(basePrompt, lastViolations)
				continue
			}
			asc.RecordError(err)
			asc.End()
			return "", nil, attempt, usage, fmt.Errorf("story generation: %w", err)
		}
		asc.End()

		_, violations := story.ValidatePayload(mode, payload)
		violations = append(violations, story.ScanVocabulary(mode, payload)...)
		if len(violations) == 0 {
			return g.format.Format(mode, payload, ro, caps), nil, attempt, usage, nil
		}

		lastViolations = violations
		slog.WarnContext(actx, "story attempt rejected", "violations", strings.Join(violations, "; "))
		userPrompt = prompt.AppendCorrections(basePrompt, violations)
	}

	return "", lastViolations, maxAttempts, usage, nil
}

func (g *Generator) generateFreeText(ctx context.Context, ro model.RepairOrder, modelID string, maxAttempts int) (string, []string, int, *llm.Response, error) {
	basePrompt, err := g.prompts.UserPrompt(ro)
	if err != nil {
		return "", nil, 0, nil, err
	}

	userPrompt := basePrompt
	var lastViolations []string
	var usage *llm.Response

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		actx := logger.WithLogFields(ctx, logger.LogFields{Attempt: logger.Ptr(attempt)})
		asc := logger.StartSpan(actx, "generate.attempt")

		callCtx, cancel := context.WithTimeout(asc.Context(), llmCallTimeout)
		text, resp, err := g.llm.ChatText(callCtx, llm.TextRequest{
			SystemPrompt: g.prompts.SystemPrompt(),
			UserPrompt:   userPrompt,
			Model:        modelID,
			MaxTokens:    g.cfg.MaxTokens,
			Temperature:  llm.Temp(0.2),
		})
		cancel()
		if resp != nil {
			usage = resp
		}
		if err != nil {
			asc.RecordError(err)
			asc.End()
			return "", nil, attempt, usage, fmt.Errorf("story generation: %w", err)
		}
		asc.End()

		violations := story.ValidateFreeText(text)
		if len(violations) == 0 {
			return story.NormalizeStory(text, ro), nil, attempt, usage, nil
		}

		lastViolations = violations
		slog.WarnContext(actx, "story attempt rejected", "violations", strings.Join(violations, "; "))
		userPrompt = prompt.AppendCorrections(basePrompt, violations)
	}

	return "", lastViolations, maxAttempts, usage, nil
}

func (g *Generator) newRecord(requestID int64, ro model.RepairOrder, modelID string, attempts int, latency time.Duration, usage *llm.Response) *model.StoryRecord {
	if modelID == "" {
		modelID = g.llm.Model()
	}
	rec := &model.StoryRecord{
		ID:          id.New(),
		RequestID:   requestID,
		VIN:         strings.TrimSpace(ro.VIN),
		JobType:     ro.JobTypeValue(),
		SectionMode: ro.SectionModeValue(),
		Model:       modelID,
		Attempts:    attempts,
		LatencyMs:   logger.Ptr(int(latency.Milliseconds())),
	}
	if usage != nil {
		rec.PromptTokens = logger.Ptr(usage.PromptTokens)
		rec.CompletionTokens = logger.Ptr(usage.CompletionTokens)
	}
	return rec
}

func (g *Generator) logStory(ctx context.Context, rec *model.StoryRecord) {
	if g.logs == nil {
		return
	}
	if _, err := g.logs.Create(ctx, rec); err != nil {
		// Audit logging is observability, not the critical path.
		slog.ErrorContext(ctx, "failed to write story log", "error", err, "request_id", rec.RequestID)
	}
}

func isMalformedJSON(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
