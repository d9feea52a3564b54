package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/QRui6/urban-inspection-rag/internal/dto"
	"github.com/QRui6/urban-inspection-rag/pkg/jobs"
)

// InspectionJobHandlers maps each queue onto the service operation it runs.
// The same map feeds the direct runner and the queued worker, so both modes
// execute identical code.
func InspectionJobHandlers(svc IInspectionService) map[string]jobs.Handler {
	return map[string]jobs.Handler{
		jobs.QueueImageAnalysis: func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
			var req dto.AnalyzeImageRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("invalid image-analysis payload: %w", err)
			}
			resp, err := svc.AnalyzeImage(ctx, &req)
			if err != nil {
				return nil, err
			}
			return json.Marshal(resp)
		},
		jobs.QueueAnswerGeneration: func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
			var req dto.CompleteAnswerRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("invalid answer-generation payload: %w", err)
			}
			resp, err := svc.CompleteAnswer(ctx, &req)
			if err != nil {
				return nil, err
			}
			return json.Marshal(resp)
		},
		jobs.QueueFullQuery: func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
			var req dto.QueryRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("invalid full-query payload: %w", err)
			}
			resp, err := svc.Query(ctx, &req)
			if err != nil {
				return nil, err
			}
			return json.Marshal(resp)
		},
	}
}
