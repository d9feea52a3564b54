package rerank

import (
	"context"
	"log"
	"sort"

	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
	"github.com/QRui6/urban-inspection-rag/pkg/scorer"
)

// Config encapsulates reranking parameters.
type Config struct {
	TopK int
}

// DefaultConfig returns the default reranking configuration.
func DefaultConfig() Config {
	return Config{TopK: 3}
}

// Reranker re-scores fused candidates against the semantic key extracted
// from the vision-analysis narrative.
type Reranker struct {
	scorer scorer.RelevanceScorer
	cfg    Config
	logger *log.Logger
}

func NewReranker(s scorer.RelevanceScorer, cfg Config, logger *log.Logger) *Reranker {
	return &Reranker{
		scorer: s,
		cfg:    cfg,
		logger: logger,
	}
}

// Rerank extracts the problem name from query, scores it against each
// candidate's indicator title in one batch, and returns the top candidates
// by relevance. Candidates without an indicator title cannot be scored and
// are dropped with a warning: the retrieval layer is responsible for
// supplying indicator-bearing chunks.
//
// A scorer failure degrades to the fused order rather than failing the
// request; the fused ranking is already usable evidence.
func (r *Reranker) Rerank(ctx context.Context, query string, cands []*candidate.Candidate) []*candidate.Candidate {
	if len(cands) == 0 {
		return nil
	}

	key := ExtractKey(query)
	r.logger.Printf("[RERANK] extracted key: %q", key)

	scorable := make([]*candidate.Candidate, 0, len(cands))
	keys := make([]string, 0, len(cands))
	for _, c := range cands {
		title := c.IndicatorTitle()
		if title == "" {
			r.logger.Printf("[WARN] candidate %s has no indicator_title, skipping rerank", c.ID)
			continue
		}
		scorable = append(scorable, c)
		keys = append(keys, title)
	}

	if len(scorable) == 0 {
		return truncate(cands, r.cfg.TopK)
	}

	scores, err := r.scorer.Score(ctx, key, keys)
	if err != nil || len(scores) != len(scorable) {
		r.logger.Printf("[WARN] relevance scoring failed (%v), falling back to fused order", err)
		return truncate(scorable, r.cfg.TopK)
	}

	for i, c := range scorable {
		c.RerankScore = scores[i]
	}
	sort.SliceStable(scorable, func(i, j int) bool {
		return scorable[i].RerankScore > scorable[j].RerankScore
	})

	return truncate(scorable, r.cfg.TopK)
}

func truncate(cands []*candidate.Candidate, topK int) []*candidate.Candidate {
	if topK > 0 && len(cands) > topK {
		return cands[:topK]
	}
	return cands
}
