package dto

import (
	"time"

	"dealerops.dev/storyline/internal/model"
)

// GenerateStoryRequest is the inbound field bag. Everything is optional
// free text; which fields are mandatory depends on the section mode and
// is checked by the handler, not the binding layer.
type GenerateStoryRequest struct {
	VIN             string `json:"vin" binding:"omitempty,max=32"`
	Mileage         string `json:"mileage" binding:"omitempty,max=32"`
	Concern         string `json:"concern" binding:"omitempty,max=8000"`
	Diagnosis       string `json:"diagnosis" binding:"omitempty,max=8000"`
	Repair          string `json:"repair" binding:"omitempty,max=8000"`
	Parts           string `json:"parts" binding:"omitempty,max=4000"`
	Time            string `json:"time" binding:"omitempty,max=256"`
	Extra           string `json:"extra" binding:"omitempty,max=8000"`
	Comment         string `json:"comment" binding:"omitempty,max=2000"`
	CausalPart      string `json:"causalPart" binding:"omitempty,max=256"`
	LaborOp         string `json:"laborOp" binding:"omitempty,max=256"`
	Model           string `json:"model" binding:"omitempty,max=64"`
	Mode            string `json:"mode" binding:"omitempty,max=32"`
	SectionMode     string `json:"sectionMode" binding:"omitempty,max=32"`
	VehicleFeatures string `json:"vehicle_features" binding:"omitempty,max=4000"`
}

func (r GenerateStoryRequest) ToRepairOrder() model.RepairOrder {
	return model.RepairOrder{
		VIN:             r.VIN,
		Mileage:         r.Mileage,
		Concern:         r.Concern,
		Diagnosis:       r.Diagnosis,
		Repair:          r.Repair,
		Parts:           r.Parts,
		Time:            r.Time,
		Extra:           r.Extra,
		Comment:         r.Comment,
		CausalPart:      r.CausalPart,
		LaborOp:         r.LaborOp,
		Model:           r.Model,
		Mode:            r.Mode,
		SectionMode:     r.SectionMode,
		VehicleFeatures: r.VehicleFeatures,
	}
}

type StoryResponse struct {
	Story string `json:"story"`
}

type StoryLogResponse struct {
	ID               int64     `json:"id,string"`
	RequestID        int64     `json:"request_id,string"`
	VIN              string    `json:"vin"`
	JobType          string    `json:"job_type"`
	SectionMode      string    `json:"section_mode"`
	Model            string    `json:"model"`
	Status           string    `json:"status"`
	Attempts         int       `json:"attempts"`
	Story            *string   `json:"story,omitempty"`
	Violations       *string   `json:"violations,omitempty"`
	LatencyMs        *int      `json:"latency_ms,omitempty"`
	PromptTokens     *int      `json:"prompt_tokens,omitempty"`
	CompletionTokens *int      `json:"completion_tokens,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func ToStoryLogResponse(rec model.StoryRecord) StoryLogResponse {
	return StoryLogResponse{
		ID:               rec.ID,
		RequestID:        rec.RequestID,
		VIN:              rec.VIN,
		JobType:          string(rec.JobType),
		SectionMode:      string(rec.SectionMode),
		Model:            rec.Model,
		Status:           string(rec.Status),
		Attempts:         rec.Attempts,
		Story:            rec.Story,
		Violations:       rec.Violations,
		LatencyMs:        rec.LatencyMs,
		PromptTokens:     rec.PromptTokens,
		CompletionTokens: rec.CompletionTokens,
		CreatedAt:        rec.CreatedAt,
	}
}
