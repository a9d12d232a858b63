package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"dealerops.dev/storyline/internal/http/handler"
	"dealerops.dev/storyline/internal/model"
)

var _ = Describe("StoryLogHandler", func() {
	var (
		router *gin.Engine
		logs   *mockStoryLogStore
	)

	setup := func(h *handler.StoryLogHandler) {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.GET("/api/v1/story/logs", h.List)
		router.GET("/api/v1/story/logs/:id", h.GetByID)
	}

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	record := func(id int64) model.StoryRecord {
		story := "Verified no start. Replaced battery."
		return model.StoryRecord{
			ID:          id,
			RequestID:   id + 1000,
			VIN:         "1FTFW1E50NFA00001",
			JobType:     model.JobTypeWarranty,
			SectionMode: model.SectionModeDiagRepair,
			Model:       "gpt-4.1",
			Status:      model.StoryStatusSucceeded,
			Attempts:    1,
			Story:       &story,
			CreatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		}
	}

	Context("with a configured store", func() {
		BeforeEach(func() {
			logs = &mockStoryLogStore{}
			setup(handler.NewStoryLogHandler(logs))
		})

		It("lists recent records", func() {
			logs.listRecentFn = func(_ context.Context, limit int32) ([]model.StoryRecord, error) {
				Expect(limit).To(Equal(int32(50)))
				return []model.StoryRecord{record(1), record(2)}, nil
			}

			w := get("/api/v1/story/logs")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string][]map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["logs"]).To(HaveLen(2))
			Expect(resp["logs"][0]["id"]).To(Equal("1"))
			Expect(resp["logs"][0]["status"]).To(Equal("succeeded"))
		})

		It("passes an explicit limit through", func() {
			logs.listRecentFn = func(_ context.Context, limit int32) ([]model.StoryRecord, error) {
				Expect(limit).To(Equal(int32(5)))
				return nil, nil
			}

			Expect(get("/api/v1/story/logs?limit=5").Code).To(Equal(http.StatusOK))
		})

		It("rejects a limit outside the allowed range", func() {
			Expect(get("/api/v1/story/logs?limit=0").Code).To(Equal(http.StatusBadRequest))
			Expect(get("/api/v1/story/logs?limit=700").Code).To(Equal(http.StatusBadRequest))
			Expect(get("/api/v1/story/logs?limit=abc").Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 when listing fails", func() {
			logs.listRecentFn = func(_ context.Context, _ int32) ([]model.StoryRecord, error) {
				return nil, errors.New("connection refused")
			}

			Expect(get("/api/v1/story/logs").Code).To(Equal(http.StatusInternalServerError))
		})

		It("returns one record by id", func() {
			logs.getByIDFn = func(_ context.Context, id int64) (*model.StoryRecord, error) {
				rec := record(id)
				return &rec, nil
			}

			w := get("/api/v1/story/logs/42")

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("42"))
			Expect(resp["story"]).To(Equal("Verified no start. Replaced battery."))
		})

		It("returns 404 for an unknown id", func() {
			Expect(get("/api/v1/story/logs/42").Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a non-numeric id", func() {
			Expect(get("/api/v1/story/logs/abc").Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("without a configured store", func() {
		BeforeEach(func() {
			setup(handler.NewStoryLogHandler(nil))
		})

		It("answers 503 on both routes", func() {
			for _, path := range []string{"/api/v1/story/logs", "/api/v1/story/logs/42"} {
				w := get(path)
				Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
				var resp map[string]string
				Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp["error"]).To(Equal("story log disabled"))
			}
		})
	})
})
