package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QRui6/urban-inspection-rag/internal/dto"
	"github.com/QRui6/urban-inspection-rag/internal/pkg/logger"
	"github.com/QRui6/urban-inspection-rag/internal/pkg/serverutils"
	"github.com/QRui6/urban-inspection-rag/internal/service"
	"github.com/QRui6/urban-inspection-rag/pkg/jobs"
)

type stubInspectionService struct {
	queryErr    error
	completeErr error
}

func (s *stubInspectionService) AnalyzeImage(ctx context.Context, req *dto.AnalyzeImageRequest) (*dto.AnalyzeImageResponse, error) {
	return &dto.AnalyzeImageResponse{
		SessionID:      "sess-1",
		VisualAnalysis: "外墙脱落",
		ModelUsed:      "doubao-vision",
	}, nil
}

func (s *stubInspectionService) CompleteAnswer(ctx context.Context, req *dto.CompleteAnswerRequest) (*dto.CompleteAnswerResponse, error) {
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	return &dto.CompleteAnswerResponse{Answer: "报告"}, nil
}

func (s *stubInspectionService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &dto.QueryResponse{Answer: "报告"}, nil
}

type stubPublisher struct {
	published []*dto.IngestChunkMessage
}

func (s *stubPublisher) PublishChunk(ctx context.Context, msg *dto.IngestChunkMessage) error {
	s.published = append(s.published, msg)
	return nil
}

type testLogger struct{}

func (testLogger) Debug(string, string, map[string]interface{})             {}
func (testLogger) Info(string, string, map[string]interface{})              {}
func (testLogger) Warn(string, string, map[string]interface{})              {}
func (testLogger) Error(string, string, map[string]interface{})             {}
func (testLogger) Sync() error                                              { return nil }
func (testLogger) GetLogs(string, int, int) ([]logger.LogEntry, error)      { return nil, nil }
func (testLogger) GetLogById(string) (*logger.LogEntry, error)              { return nil, nil }

func newTestApp(svc service.IInspectionService, pub *stubPublisher) *fiber.App {
	runner := jobs.NewDirectRunner(
		jobs.NewMemoryStore(),
		service.InspectionJobHandlers(svc),
		nil,
		log.New(io.Discard, "", 0),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: serverutils.ErrorHandler(testLogger{}),
	})
	api := app.Group("/api")
	NewInspectionController(runner, pub, nil, testLogger{}).RegisterRoutes(api)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) (int, map[string]any) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func TestQueryEndpoint(t *testing.T) {
	app := newTestApp(&stubInspectionService{}, &stubPublisher{})

	status, body := postJSON(t, app, "/api/inspection/v1/query", dto.QueryRequest{Query: "外墙脱落怎么办"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "报告", data["answer"])
}

func TestQueryValidation(t *testing.T) {
	app := newTestApp(&stubInspectionService{}, &stubPublisher{})

	status, _ := postJSON(t, app, "/api/inspection/v1/query", map[string]string{})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestCompleteAnswerSessionNotFound(t *testing.T) {
	app := newTestApp(&stubInspectionService{completeErr: service.ErrSessionNotFound}, &stubPublisher{})

	status, _ := postJSON(t, app, "/api/inspection/v1/complete-answer", dto.CompleteAnswerRequest{SessionID: "missing"})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAnalyzeImageAsyncSubmit(t *testing.T) {
	app := newTestApp(&stubInspectionService{}, &stubPublisher{})

	status, body := postJSON(t, app, "/api/inspection/v1/analyze-image?async=true", dto.AnalyzeImageRequest{
		Query:      "这面墙有什么问题",
		ImageInput: "https://example.com/wall.jpg",
	})
	assert.Equal(t, fiber.StatusAccepted, status)

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	jobID, _ := data["job_id"].(string)
	assert.NotEmpty(t, jobID)

	// Direct mode executes inline, so the job is already terminal.
	req := httptest.NewRequest("GET", "/api/inspection/v1/jobs/"+jobID, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var statusBody map[string]any
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(raw, &statusBody))
	statusData := statusBody["data"].(map[string]any)
	assert.Equal(t, string(jobs.StatusFinished), statusData["status"])
}

func TestJobStatusNotFound(t *testing.T) {
	app := newTestApp(&stubInspectionService{}, &stubPublisher{})

	req := httptest.NewRequest("GET", "/api/inspection/v1/jobs/does-not-exist", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestIngestChunkAccepted(t *testing.T) {
	pub := &stubPublisher{}
	app := newTestApp(&stubInspectionService{}, pub)

	status, _ := postJSON(t, app, "/api/inspection/v1/chunks", dto.IngestChunkMessage{
		ID:        "0c9dfe0e-55a7-4e3b-bd3e-1f1ea6f7c86a",
		Content:   "外墙保温层脱落应及时修复",
		ChunkType: "indicator_complete",
	})
	assert.Equal(t, fiber.StatusAccepted, status)
	require.Len(t, pub.published, 1)
	assert.Equal(t, "indicator_complete", pub.published[0].ChunkType)
}
