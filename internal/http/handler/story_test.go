package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/openai/openai-go"

	"dealerops.dev/storyline/internal/generate"
	"dealerops.dev/storyline/internal/http/handler"
	"dealerops.dev/storyline/internal/http/middleware"
	"dealerops.dev/storyline/internal/model"
)

var _ = Describe("StoryHandler", func() {
	var (
		router *gin.Engine
		svc    *mockStoryService
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		router.Use(middleware.CORS("*"))
		svc = &mockStoryService{}
		h := handler.NewStoryHandler(svc)
		router.POST("/api/v1/story", h.Generate)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/story", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns 200 with the story on success", func() {
		svc.generateFn = func(_ context.Context, ro model.RepairOrder) (string, error) {
			Expect(ro.Concern).To(Equal("no start"))
			return "Verified no start. Replaced battery.", nil
		}

		w := post(`{"concern":"no start","diagnosis":"dead battery","repair":"replaced battery","mode":"Warranty","sectionMode":"diag_repair"}`)

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp map[string]string
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["story"]).To(Equal("Verified no start. Replaced battery."))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
	})

	It("returns 400 on a malformed body", func() {
		w := post(`{`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(svc.calls).To(BeZero())
	})

	It("returns 400 when a repair-bearing mode has no repair text", func() {
		w := post(`{"concern":"rattle","sectionMode":"repair_only"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var resp map[string]string
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["error"]).To(ContainSubstring("repair is required"))
		Expect(svc.calls).To(BeZero())
	})

	It("returns 400 when a diagnostic mode has neither concern nor diagnosis", func() {
		w := post(`{"repair":"replaced hose","sectionMode":"diag_only"}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		var resp map[string]string
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["error"]).To(ContainSubstring("concern or diagnosis is required"))
		Expect(svc.calls).To(BeZero())
	})

	It("returns 400 on oversized fields", func() {
		w := post(fmt.Sprintf(`{"vin":%q,"concern":"x","repair":"y"}`, strings.Repeat("V", 40)))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(svc.calls).To(BeZero())
	})

	It("returns 422 when the story failed validation after retries", func() {
		svc.generateFn = func(_ context.Context, _ model.RepairOrder) (string, error) {
			return "", &generate.ValidationError{Violations: []string{
				`required field "cause" is missing or empty`,
				"output contains bullet markers",
			}}
		}

		w := post(`{"concern":"no start","repair":"replaced battery"}`)

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		var resp map[string]string
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["error"]).To(Equal("story failed validation"))
		Expect(resp["details"]).To(ContainSubstring(`required field "cause"`))
		Expect(resp["details"]).To(ContainSubstring("; output contains bullet markers"))
	})

	It("returns 502 with truncated detail on an upstream API error", func() {
		svc.generateFn = func(_ context.Context, _ model.RepairOrder) (string, error) {
			apiErr := &openai.Error{StatusCode: 401, Message: strings.Repeat("x", 2500)}
			return "", fmt.Errorf("story generation: %w", apiErr)
		}

		w := post(`{"concern":"no start","repair":"replaced battery"}`)

		Expect(w.Code).To(Equal(http.StatusBadGateway))
		var resp map[string]string
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["error"]).To(Equal("OpenAI HTTPError 401"))
		Expect(resp["details"]).To(HaveLen(2003))
		Expect(resp["details"]).To(HaveSuffix("..."))
	})

	It("returns 500 on any other failure", func() {
		svc.generateFn = func(_ context.Context, _ model.RepairOrder) (string, error) {
			return "", errors.New("template parse failed")
		}

		w := post(`{"concern":"no start","repair":"replaced battery"}`)

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		var resp map[string]string
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["error"]).To(Equal("template parse failed"))
	})

	It("answers preflight requests without touching the generator", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/story", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		Expect(w.Header().Get("Access-Control-Allow-Headers")).To(Equal("content-type"))
		Expect(w.Header().Get("Access-Control-Allow-Methods")).To(Equal("POST,OPTIONS"))

		var resp map[string]bool
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["ok"]).To(BeTrue())
		Expect(svc.calls).To(BeZero())
	})
})
