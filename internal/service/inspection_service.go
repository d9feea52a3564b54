package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/QRui6/urban-inspection-rag/internal/config"
	"github.com/QRui6/urban-inspection-rag/internal/dto"
	"github.com/QRui6/urban-inspection-rag/internal/pkg/logger"
	"github.com/QRui6/urban-inspection-rag/pkg/embedding"
	"github.com/QRui6/urban-inspection-rag/pkg/llm"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/fusion"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/prompt"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/rerank"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/retrieval"
	"github.com/QRui6/urban-inspection-rag/pkg/store"
)

// ErrSessionNotFound is returned when a completion references a session that
// never existed, expired, or was already consumed.
var ErrSessionNotFound = errors.New("session not found or already consumed")

// IVisionAnalyzer is the slice of the vision analyzer the service needs.
type IVisionAnalyzer interface {
	Analyze(ctx context.Context, imageRef, prompt string, structured bool) (text, modelUsed string, err error)
}

type IInspectionService interface {
	AnalyzeImage(ctx context.Context, req *dto.AnalyzeImageRequest) (*dto.AnalyzeImageResponse, error)
	CompleteAnswer(ctx context.Context, req *dto.CompleteAnswerRequest) (*dto.CompleteAnswerResponse, error)
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
}

type inspectionService struct {
	vision        IVisionAnalyzer
	textEmbedder  embedding.Provider
	imageEmbedder embedding.Provider
	llmProvider   llm.LLMProvider
	sessions      store.SessionStore
	retriever     *retrieval.Retriever
	reranker      *rerank.Reranker
	fusionCfg     fusion.Config
	prompts       config.PromptConfig
	logger        logger.ILogger
}

func NewInspectionService(
	vision IVisionAnalyzer,
	textEmbedder embedding.Provider,
	imageEmbedder embedding.Provider,
	llmProvider llm.LLMProvider,
	sessions store.SessionStore,
	retriever *retrieval.Retriever,
	reranker *rerank.Reranker,
	fusionCfg fusion.Config,
	prompts config.PromptConfig,
	appLogger logger.ILogger,
) IInspectionService {
	return &inspectionService{
		vision:        vision,
		textEmbedder:  textEmbedder,
		imageEmbedder: imageEmbedder,
		llmProvider:   llmProvider,
		sessions:      sessions,
		retriever:     retriever,
		reranker:      reranker,
		fusionCfg:     fusionCfg,
		prompts:       prompts,
		logger:        appLogger,
	}
}

// AnalyzeImage runs the vision model over the uploaded photo and parks the
// result in a one-shot session. The session is committed last, so a session
// id handed to the caller always resolves to a finished analysis.
func (s *inspectionService) AnalyzeImage(ctx context.Context, req *dto.AnalyzeImageRequest) (*dto.AnalyzeImageResponse, error) {
	structured := true
	if req.Structured != nil {
		structured = *req.Structured
	}

	visionPrompt := s.prompts.VisionAnalysis
	if !structured {
		visionPrompt = s.prompts.SimpleDescription
	}

	analysis, modelUsed, err := s.vision.Analyze(ctx, req.ImageInput, visionPrompt, structured)
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}

	session := &store.Session{
		ID:             uuid.New().String(),
		Query:          req.Query,
		ImageInput:     req.ImageInput,
		VisualAnalysis: analysis,
		CreatedAt:      time.Now(),
	}
	s.sessions.Save(session)

	s.logger.Info("inspection", "image analyzed", map[string]interface{}{
		"session_id": session.ID,
		"model":      modelUsed,
	})

	return &dto.AnalyzeImageResponse{
		SessionID:      session.ID,
		VisualAnalysis: analysis,
		ModelUsed:      modelUsed,
	}, nil
}

// CompleteAnswer consumes the session and runs the evidence pipeline over
// the stored analysis. The session is gone after this call either way.
func (s *inspectionService) CompleteAnswer(ctx context.Context, req *dto.CompleteAnswerRequest) (*dto.CompleteAnswerResponse, error) {
	session, ok := s.sessions.Consume(req.SessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	answer, citations, err := s.runPipeline(ctx, session.Query, session.ImageInput, session.VisualAnalysis)
	if err != nil {
		return nil, err
	}
	return &dto.CompleteAnswerResponse{Answer: answer, Citations: citations}, nil
}

// Query is the single-shot flow. With a photo it chains vision analysis
// into the evidence pipeline; without one it runs plain text retrieval.
func (s *inspectionService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	if req.ImageInput == "" {
		answer, citations, err := s.runPipeline(ctx, req.Query, "", "")
		if err != nil {
			return nil, err
		}
		return &dto.QueryResponse{Answer: answer, Citations: citations}, nil
	}

	structured := true
	if req.Structured != nil {
		structured = *req.Structured
	}
	visionPrompt := s.prompts.VisionAnalysis
	if !structured {
		visionPrompt = s.prompts.SimpleDescription
	}

	analysis, modelUsed, err := s.vision.Analyze(ctx, req.ImageInput, visionPrompt, structured)
	if err != nil {
		return nil, fmt.Errorf("vision analysis failed: %w", err)
	}
	s.logger.Info("inspection", "image analyzed for combined query", map[string]interface{}{
		"model": modelUsed,
	})

	answer, citations, err := s.runPipeline(ctx, req.Query, req.ImageInput, analysis)
	if err != nil {
		return nil, err
	}
	return &dto.QueryResponse{
		Answer:         answer,
		VisualAnalysis: analysis,
		Citations:      citations,
	}, nil
}

// runPipeline executes retrieve, fuse, rerank and compose. visualAnalysis
// may be empty for text-only queries, in which case the query itself drives
// both embedding and reranking.
func (s *inspectionService) runPipeline(ctx context.Context, query, imageRef, visualAnalysis string) (string, []dto.Citation, error) {
	textKey := visualAnalysis
	if textKey == "" {
		textKey = query
	}

	var textCands []*candidate.Candidate
	textVec, err := s.textEmbedder.EmbedText(ctx, textKey)
	if err != nil {
		s.logger.Warn("inspection", "text embedding failed, text path empty", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		textCands = s.retriever.Retrieve(ctx, textVec, retrieval.PathText)
	}

	var imageCands []*candidate.Candidate
	if imageRef != "" {
		imgVec, err := s.imageEmbedder.EmbedImage(ctx, imageRef)
		if err != nil {
			s.logger.Warn("inspection", "image embedding failed, image path empty", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			imageCands = s.retriever.Retrieve(ctx, imgVec, retrieval.PathImage)
		}
	}

	fused, err := fusion.Merge(textCands, imageCands, s.fusionCfg)
	if err != nil {
		return "", nil, err
	}

	if len(fused) == 0 {
		s.logger.Info("inspection", "no evidence retrieved", map[string]interface{}{
			"query": query,
		})
		return fmt.Sprintf(s.prompts.NoEvidenceFormat, textKey), nil, nil
	}

	reranked := s.reranker.Rerank(ctx, textKey, fused)
	if len(reranked) == 0 {
		// Everything was filtered during reranking; fall back to the
		// fused order so the evidence still reaches the report.
		reranked = fused
	}

	systemPrompt, userPrompt := prompt.Build(
		prompt.Templates{System: s.prompts.ReportSystem, UserQuery: s.prompts.UserQuery},
		prompt.Input{
			Query:           query,
			UserPhoto:       imageRef,
			VisualAnalysis:  visualAnalysis,
			Candidates:      reranked,
			ImageCandidates: imageCands,
		},
	)

	answer, err := llm.GenerateWithSystem(ctx, s.llmProvider, systemPrompt, userPrompt)
	if err != nil {
		return "", nil, fmt.Errorf("answer generation failed: %w", err)
	}

	answer = appendReferences(answer, reranked)
	return answer, buildCitations(reranked), nil
}

// appendReferences attaches the numbered source list and markdown image
// embeds to a composed answer.
func appendReferences(answer string, cands []*candidate.Candidate) string {
	var refs []string
	for i, c := range cands {
		source := c.MetaString(candidate.MetaSource)
		if source == "" {
			source = "未知文件"
		}
		ref := fmt.Sprintf("[%d] 文件: %s", i+1, source)
		if c.ID != "" {
			ref += fmt.Sprintf(", chunk_id: %s", c.ID)
		}
		if img := c.MetaString(candidate.MetaImgPath); img != "" {
			ref += fmt.Sprintf(", 图片: %s", img)
		}
		refs = append(refs, ref)
	}
	if len(refs) > 0 {
		answer += "\n\n参考资料：\n" + strings.Join(refs, "\n")
	}

	for _, c := range cands {
		img := c.MetaString(candidate.MetaImgPath)
		if img != "" && !strings.HasPrefix(img, "data:") {
			answer += fmt.Sprintf("\n\n![](%s)", img)
		}
	}
	return answer
}

func buildCitations(cands []*candidate.Candidate) []dto.Citation {
	citations := make([]dto.Citation, 0, len(cands))
	for _, c := range cands {
		score := c.RerankScore
		if score == 0 {
			score = c.FinalScore
		}
		citations = append(citations, dto.Citation{
			Source:         sourceOrUnknownName(c),
			IndicatorTitle: c.IndicatorTitle(),
			Snippet:        snippet(c),
			Score:          score,
		})
	}
	return citations
}

func sourceOrUnknownName(c *candidate.Candidate) string {
	if name := c.SourceName(); name != "" && name != "." {
		return name
	}
	return "未知来源"
}

// snippet returns the first 100 runes of the citable text.
func snippet(c *candidate.Candidate) string {
	text := c.Content
	if text == "" {
		text = c.MetaString(candidate.MetaContext)
	}
	runes := []rune(text)
	if len(runes) > 100 {
		return string(runes[:100]) + "…"
	}
	return text
}
