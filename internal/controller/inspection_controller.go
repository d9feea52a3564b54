package controller

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/QRui6/urban-inspection-rag/internal/dto"
	"github.com/QRui6/urban-inspection-rag/internal/pkg/logger"
	"github.com/QRui6/urban-inspection-rag/internal/pkg/serverutils"
	"github.com/QRui6/urban-inspection-rag/internal/service"
	internalWS "github.com/QRui6/urban-inspection-rag/internal/websocket"
	"github.com/QRui6/urban-inspection-rag/pkg/jobs"
)

type IInspectionController interface {
	RegisterRoutes(r fiber.Router)
	AnalyzeImage(ctx *fiber.Ctx) error
	CompleteAnswer(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
	IngestChunk(ctx *fiber.Ctx) error
	JobStatus(ctx *fiber.Ctx) error
	CancelJob(ctx *fiber.Ctx) error
	ServeJobStream(ctx *fiber.Ctx) error
}

type inspectionController struct {
	runner    jobs.Runner
	publisher service.IPublisherService
	hub       *internalWS.Hub
	logger    logger.ILogger
}

func NewInspectionController(runner jobs.Runner, publisher service.IPublisherService, hub *internalWS.Hub, appLogger logger.ILogger) IInspectionController {
	return &inspectionController{
		runner:    runner,
		publisher: publisher,
		hub:       hub,
		logger:    appLogger,
	}
}

func (c *inspectionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/inspection/v1")
	h.Post("analyze-image", c.AnalyzeImage)
	h.Post("complete-answer", c.CompleteAnswer)
	h.Post("query", c.Query)
	h.Post("chunks", c.IngestChunk)
	h.Get("jobs/:id", c.JobStatus)
	h.Delete("jobs/:id", c.CancelJob)
	h.Get("jobs/:id/ws", c.ServeJobStream)
}

func (c *inspectionController) AnalyzeImage(ctx *fiber.Ctx) error {
	var req dto.AnalyzeImageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	return c.submit(ctx, jobs.QueueImageAnalysis, &req, "Image analyzed")
}

func (c *inspectionController) CompleteAnswer(ctx *fiber.Ctx) error {
	var req dto.CompleteAnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	return c.submit(ctx, jobs.QueueAnswerGeneration, &req, "Answer generated")
}

func (c *inspectionController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	return c.submit(ctx, jobs.QueueFullQuery, &req, "Query answered")
}

// submit runs a request through the job runner. By default the handler
// waits for the result up to the queue's ceiling; with ?async=true the job
// id comes back immediately and the caller polls or streams.
func (c *inspectionController) submit(ctx *fiber.Ctx, queue string, payload any, message string) error {
	jobID, err := c.runner.Submit(ctx.Context(), queue, payload)
	if err != nil {
		return c.mapJobError(err)
	}

	if ctx.QueryBool("async") {
		return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Job accepted", dto.SubmitJobResponse{
			JobID: jobID,
			Queue: queue,
		}))
	}

	job, err := c.runner.Await(ctx.Context(), jobID, jobs.AwaitCeiling(queue))
	if err != nil {
		if errors.Is(err, jobs.ErrAwaitTimeout) {
			return serverutils.AwaitTimeout("job " + jobID + " still running")
		}
		return c.mapJobError(err)
	}
	return c.respondTerminal(ctx, job, message)
}

func (c *inspectionController) respondTerminal(ctx *fiber.Ctx, job *jobs.Job, message string) error {
	switch job.Status {
	case jobs.StatusFinished:
		var result any
		if len(job.Result) > 0 {
			if err := json.Unmarshal(job.Result, &result); err != nil {
				return serverutils.Upstream("malformed job result")
			}
		}
		return ctx.JSON(serverutils.SuccessResponse(message, result))
	case jobs.StatusCancelled:
		return serverutils.NewHTTPError(fiber.StatusConflict, "job was cancelled")
	default:
		// Error typing does not survive the queue, so the session case is
		// recovered from the message.
		if strings.Contains(job.Error, service.ErrSessionNotFound.Error()) {
			return serverutils.NotFound(job.Error)
		}
		return serverutils.Upstream(job.Error)
	}
}

// IngestChunk hands a manual chunk to the background indexer.
func (c *inspectionController) IngestChunk(ctx *fiber.Ctx) error {
	var req dto.IngestChunkMessage
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if err := c.publisher.PublishChunk(ctx.Context(), &req); err != nil {
		return serverutils.Upstream(err.Error())
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Chunk accepted", fiber.Map{"id": req.ID}))
}

func (c *inspectionController) JobStatus(ctx *fiber.Ctx) error {
	job, err := c.runner.Status(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return c.mapJobError(err)
	}

	resp := dto.JobStatusResponse{
		JobID:      job.ID,
		Queue:      job.Queue,
		Status:     string(job.Status),
		Error:      job.Error,
		EnqueuedAt: job.EnqueuedAt,
		StartedAt:  job.StartedAt,
		EndedAt:    job.EndedAt,
	}
	if len(job.Result) > 0 {
		var result any
		if err := json.Unmarshal(job.Result, &result); err == nil {
			resp.Result = result
		}
	}
	return ctx.JSON(serverutils.SuccessResponse("Job status", resp))
}

func (c *inspectionController) CancelJob(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	if err := c.runner.Cancel(ctx.Context(), id); err != nil {
		return c.mapJobError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Job cancelled", dto.SubmitJobResponse{JobID: id}))
}

func (c *inspectionController) ServeJobStream(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	jobID := ctx.Params("id")
	if _, err := c.runner.Status(ctx.Context(), jobID); err != nil {
		return c.mapJobError(err)
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("InspectionController", "Job stream opened", map[string]interface{}{"job_id": jobID})
		internalWS.ServeWs(c.hub, conn, jobID)
		c.logger.Info("InspectionController", "Job stream closed", map[string]interface{}{"job_id": jobID})
	})(ctx)
}

func (c *inspectionController) mapJobError(err error) error {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		return serverutils.NotFound("job not found")
	case errors.Is(err, jobs.ErrUnknownQueue):
		return serverutils.BadRequest(err.Error())
	default:
		return serverutils.Upstream(err.Error())
	}
}
