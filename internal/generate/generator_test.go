package generate_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go"

	"dealerops.dev/storyline/common/llm"
	"dealerops.dev/storyline/internal/generate"
	"dealerops.dev/storyline/internal/model"
	"dealerops.dev/storyline/internal/prompt"
	"dealerops.dev/storyline/internal/store"
	"dealerops.dev/storyline/internal/story"
	"dealerops.dev/storyline/internal/vehicle"
)

type mockClient struct {
	chatFn     func(ctx context.Context, req llm.Request, result any) (*llm.Response, error)
	chatTextFn func(ctx context.Context, req llm.TextRequest) (string, *llm.Response, error)
	prompts    []string
	chatCalls  int
	textCalls  int
}

func (m *mockClient) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	m.chatCalls++
	m.prompts = append(m.prompts, req.UserPrompt)
	return m.chatFn(ctx, req, result)
}

func (m *mockClient) ChatText(ctx context.Context, req llm.TextRequest) (string, *llm.Response, error) {
	m.textCalls++
	m.prompts = append(m.prompts, req.UserPrompt)
	return m.chatTextFn(ctx, req)
}

func (m *mockClient) Model() string { return "gpt-4.1" }

type mockStoryLog struct {
	createFn func(ctx context.Context, rec *model.StoryRecord) (*model.StoryRecord, error)
	records  []*model.StoryRecord
}

func (m *mockStoryLog) Create(ctx context.Context, rec *model.StoryRecord) (*model.StoryRecord, error) {
	m.records = append(m.records, rec)
	if m.createFn != nil {
		return m.createFn(ctx, rec)
	}
	return rec, nil
}

func (m *mockStoryLog) GetByID(ctx context.Context, id int64) (*model.StoryRecord, error) {
	return nil, store.ErrNotFound
}

func (m *mockStoryLog) ListRecent(ctx context.Context, limit int32) ([]model.StoryRecord, error) {
	return nil, nil
}

type mockDecoder struct {
	decodeFn func(ctx context.Context, vin string) (vehicle.Attributes, error)
	calls    int
}

func (m *mockDecoder) Decode(ctx context.Context, vin string) (vehicle.Attributes, error) {
	m.calls++
	return m.decodeFn(ctx, vin)
}

func fillPayload(result any, data map[string]any) {
	*(result.(*map[string]any)) = data
}

func validDiagRepairPayload() map[string]any {
	return map[string]any{
		"verification":             "Verified intermittent no crank",
		"diagnosis":                "Located chafed battery feed at grommet",
		"cause":                    "Chafed battery feed harness",
		"repair_performed":         "Replaced battery feed harness",
		"post_repair_verification": "Verified crank after repair",
	}
}

var _ = Describe("Generator", func() {
	var (
		client   *mockClient
		decoder  *mockDecoder
		logs     *mockStoryLog
		cfg      generate.Config
		ro       model.RepairOrder
		builder  *prompt.Builder
		formatpr *story.Formatter
	)

	newGenerator := func() *generate.Generator {
		resolver := vehicle.NewResolver(decoder, vehicle.NewCache())
		return generate.New(client, resolver, builder, formatpr, logs, cfg)
	}

	BeforeEach(func() {
		promptStore, err := prompt.NewStore("")
		Expect(err).NotTo(HaveOccurred())
		builder = prompt.NewBuilder(promptStore)

		filter, err := story.NewClaimFilter()
		Expect(err).NotTo(HaveOccurred())
		formatpr = story.NewFormatter(filter)

		client = &mockClient{}
		decoder = &mockDecoder{decodeFn: func(ctx context.Context, vin string) (vehicle.Attributes, error) {
			return vehicle.Attributes{}, nil
		}}
		logs = &mockStoryLog{}
		cfg = generate.Config{MaxAttempts: 3, MaxTokens: 1200, StructuredOutput: true}
		ro = model.RepairOrder{
			Concern:     "No crank at random",
			Diagnosis:   "Checked power and ground at module",
			Repair:      "replaced battery feed harness",
			Mode:        "Warranty",
			SectionMode: "diag_repair",
		}
	})

	Context("structured output", func() {
		It("formats a valid first attempt", func() {
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				fillPayload(result, validDiagRepairPayload())
				return &llm.Response{PromptTokens: 410, CompletionTokens: 96}, nil
			}

			text, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.chatCalls).To(Equal(1))
			Expect(text).To(ContainSubstring("Verified intermittent no crank."))
			Expect(text).To(ContainSubstring("Root cause - Chafed battery feed harness."))
			Expect(text).To(ContainSubstring("Causal Part: Not provided"))
			Expect(text).To(ContainSubstring("Labor Op: Not provided"))

			Expect(logs.records).To(HaveLen(1))
			rec := logs.records[0]
			Expect(rec.Status).To(Equal(model.StoryStatusSucceeded))
			Expect(rec.Attempts).To(Equal(1))
			Expect(rec.Story).NotTo(BeNil())
			Expect(rec.PromptTokens).To(HaveValue(Equal(410)))
		})

		It("retries a rejected payload and succeeds", func() {
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				if client.chatCalls == 1 {
					fillPayload(result, map[string]any{
						"verification":     "Verified intermittent no crank",
						"diagnosis":        "Likely a chafed harness",
						"cause":            "N/A",
						"repair_performed": "Replaced battery feed harness",
					})
					return &llm.Response{}, nil
				}
				fillPayload(result, validDiagRepairPayload())
				return &llm.Response{}, nil
			}

			text, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.chatCalls).To(Equal(2))
			Expect(text).To(ContainSubstring("Root cause - Chafed battery feed harness."))

			Expect(client.prompts[1]).To(ContainSubstring("Your previous attempt broke these rules:"))
			Expect(client.prompts[1]).To(ContainSubstring("placeholder text"))
			Expect(client.prompts[1]).To(ContainSubstring(`forbidden word "likely"`))
		})

		It("returns a validation error when attempts run out", func() {
			cfg.MaxAttempts = 2
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				fillPayload(result, map[string]any{
					"verification":     "Verified concern",
					"diagnosis":        "Checked circuit",
					"repair_performed": "Replaced harness",
				})
				return &llm.Response{}, nil
			}

			text, err := newGenerator().Generate(context.Background(), ro)
			Expect(text).To(BeEmpty())
			Expect(client.chatCalls).To(Equal(2))

			var vErr *generate.ValidationError
			Expect(errors.As(err, &vErr)).To(BeTrue())
			Expect(vErr.Violations).To(ContainElement(ContainSubstring(`required field "cause"`)))

			Expect(logs.records).To(HaveLen(1))
			rec := logs.records[0]
			Expect(rec.Status).To(Equal(model.StoryStatusFailed))
			Expect(rec.Attempts).To(Equal(2))
			Expect(rec.Violations).NotTo(BeNil())
		})

		It("treats malformed model JSON as a retryable violation", func() {
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				if client.chatCalls == 1 {
					err := json.Unmarshal([]byte("not json"), result)
					return nil, fmt.Errorf("unmarshal response: %w", err)
				}
				fillPayload(result, validDiagRepairPayload())
				return &llm.Response{}, nil
			}

			text, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.chatCalls).To(Equal(2))
			Expect(text).NotTo(BeEmpty())
			Expect(client.prompts[1]).To(ContainSubstring("not a JSON object"))
		})

		It("passes upstream errors through without retrying", func() {
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				return nil, fmt.Errorf("openai chat: %w", &openai.Error{StatusCode: 503})
			}

			_, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).To(HaveOccurred())
			Expect(client.chatCalls).To(Equal(1))

			var apiErr *openai.Error
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(503))

			Expect(logs.records).To(HaveLen(1))
			Expect(logs.records[0].Status).To(Equal(model.StoryStatusFailed))
		})

		It("applies decoded vehicle capability to claim filtering", func() {
			ro.VIN = "1FTFW1E50NFA00001"
			ro.Concern = "third row latch rattles"
			decoder.decodeFn = func(ctx context.Context, vin string) (vehicle.Attributes, error) {
				return vehicle.Attributes{Model: "F-150", BodyClass: "Crew Cab Pickup", Trim: "SuperCrew"}, nil
			}
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				payload := validDiagRepairPayload()
				payload["cause"] = "Third row latch out of adjustment"
				fillPayload(result, payload)
				return &llm.Response{}, nil
			}

			text, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoder.calls).To(Equal(1))
			Expect(text).To(ContainSubstring("Root cause - Not provided."))
			Expect(text).NotTo(ContainSubstring("Third row"))
		})

		It("treats an attempt budget below one as a single attempt", func() {
			cfg.MaxAttempts = 0
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				fillPayload(result, map[string]any{"verification": "x"})
				return &llm.Response{}, nil
			}

			_, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).To(HaveOccurred())
			Expect(client.chatCalls).To(Equal(1))
		})

		It("succeeds without an audit store", func() {
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				fillPayload(result, validDiagRepairPayload())
				return &llm.Response{}, nil
			}

			resolver := vehicle.NewResolver(decoder, vehicle.NewCache())
			g := generate.New(client, resolver, builder, formatpr, nil, cfg)
			text, err := g.Generate(context.Background(), ro)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).NotTo(BeEmpty())
		})

		It("never fails the request on audit store errors", func() {
			logs.createFn = func(ctx context.Context, rec *model.StoryRecord) (*model.StoryRecord, error) {
				return nil, errors.New("connection refused")
			}
			client.chatFn = func(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
				fillPayload(result, validDiagRepairPayload())
				return &llm.Response{}, nil
			}

			text, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).NotTo(BeEmpty())
		})
	})

	Context("free text output", func() {
		BeforeEach(func() {
			cfg.StructuredOutput = false
		})

		It("retries a format violation then returns the normalized story", func() {
			client.chatTextFn = func(ctx context.Context, req llm.TextRequest) (string, *llm.Response, error) {
				if client.textCalls == 1 {
					return "• invalid", &llm.Response{}, nil
				}
				return "Verified concern and followed provided diagnostic steps with no additional assumptions", &llm.Response{}, nil
			}

			text, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).NotTo(HaveOccurred())
			Expect(client.textCalls).To(Equal(2))
			Expect(text).To(ContainSubstring("Verified concern"))
			Expect(client.prompts[1]).To(ContainSubstring("bullet markers"))
			Expect(decoder.calls).To(BeZero())
		})

		It("normalizes accepted output", func() {
			client.chatTextFn = func(ctx context.Context, req llm.TextRequest) (string, *llm.Response, error) {
				return "Verified concern at 10 miles and re-secured harness", &llm.Response{}, nil
			}

			text, err := newGenerator().Generate(context.Background(), ro)
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Verified concern at 16 km and re-secured harness"))
		})

		It("returns the final violations when attempts run out", func() {
			cfg.MaxAttempts = 2
			client.chatTextFn = func(ctx context.Context, req llm.TextRequest) (string, *llm.Response, error) {
				return "1. still a list", &llm.Response{}, nil
			}

			_, err := newGenerator().Generate(context.Background(), ro)
			var vErr *generate.ValidationError
			Expect(errors.As(err, &vErr)).To(BeTrue())
			Expect(vErr.Violations).To(ContainElement("output contains numbered list markers"))
			Expect(client.textCalls).To(Equal(2))
		})
	})
})
