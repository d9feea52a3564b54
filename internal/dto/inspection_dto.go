package dto

import "time"

type AnalyzeImageRequest struct {
	Query      string `json:"query" validate:"required"`
	ImageInput string `json:"image_input" validate:"required"`
	Structured *bool  `json:"structured"`
}

type AnalyzeImageResponse struct {
	SessionID      string `json:"session_id"`
	VisualAnalysis string `json:"visual_analysis"`
	ModelUsed      string `json:"model_used"`
}

type CompleteAnswerRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type CompleteAnswerResponse struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

type QueryRequest struct {
	Query      string `json:"query" validate:"required"`
	ImageInput string `json:"image_input"`
	Structured *bool  `json:"structured"`
}

type QueryResponse struct {
	Answer         string     `json:"answer"`
	VisualAnalysis string     `json:"visual_analysis,omitempty"`
	Citations      []Citation `json:"citations"`
}

// Citation points the caller back at the manual passage an answer leaned on.
type Citation struct {
	Source         string  `json:"source"`
	IndicatorTitle string  `json:"indicator_title,omitempty"`
	Snippet        string  `json:"snippet"`
	Score          float64 `json:"score"`
}

type SubmitJobResponse struct {
	JobID string `json:"job_id"`
	Queue string `json:"queue"`
}

type JobStatusResponse struct {
	JobID      string     `json:"job_id"`
	Queue      string     `json:"queue"`
	Status     string     `json:"status"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
}
