package fusion

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

// ErrMissingCandidateID is returned when the index produced a candidate
// without a stable id. Cross-path dedup is impossible without stable ids,
// so this is treated as a knowledge-base configuration error instead of
// falling back to list positions.
var ErrMissingCandidateID = fmt.Errorf("fusion: candidate without stable id")

// Config encapsulates fusion parameters.
type Config struct {
	TextWeight  float64
	ImageWeight float64
	TopK        int
}

// DefaultConfig returns the default fusion configuration.
func DefaultConfig() Config {
	return Config{
		TextWeight:  0.6,
		ImageWeight: 0.4,
		TopK:        5,
	}
}

// accumulator keys scored contributions by candidate id.
type accumulator struct {
	cand       *candidate.Candidate
	textScore  float64
	imageScore float64
	finalScore float64
	order      int // insertion order, stable tiebreak
}

// Merge reconciles the two independently scored retrieval paths into one
// ranked list. Distances are converted to scores (1-d, clamped at d=1), a
// candidate present in both lists accumulates both weighted contributions,
// and the result is sorted by final score descending and truncated to TopK.
//
// When either input is empty the other is returned truncated to TopK: there
// is nothing to reconcile, and re-weighting a single path would only shrink
// every score by a constant factor.
func Merge(textCands, imageCands []*candidate.Candidate, cfg Config) ([]*candidate.Candidate, error) {
	if err := requireStableIDs(textCands); err != nil {
		return nil, err
	}
	if err := requireStableIDs(imageCands); err != nil {
		return nil, err
	}

	if len(textCands) == 0 {
		return truncate(imageCands, cfg.TopK), nil
	}
	if len(imageCands) == 0 {
		return truncate(textCands, cfg.TopK), nil
	}

	acc := make(map[string]*accumulator, len(textCands)+len(imageCands))
	order := 0

	for _, c := range textCands {
		score := distanceToScore(c.Distance)
		backfillContent(c)
		acc[c.ID] = &accumulator{
			cand:       c,
			textScore:  score,
			finalScore: score * cfg.TextWeight,
			order:      order,
		}
		order++
	}

	for _, c := range imageCands {
		score := distanceToScore(c.Distance)
		backfillContent(c)
		if a, ok := acc[c.ID]; ok {
			a.imageScore = score
			a.finalScore += score * cfg.ImageWeight
			continue
		}
		acc[c.ID] = &accumulator{
			cand:       c,
			imageScore: score,
			finalScore: score * cfg.ImageWeight,
			order:      order,
		}
		order++
	}

	merged := make([]*accumulator, 0, len(acc))
	for _, a := range acc {
		merged = append(merged, a)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].finalScore != merged[j].finalScore {
			return merged[i].finalScore > merged[j].finalScore
		}
		return merged[i].order < merged[j].order
	})

	out := make([]*candidate.Candidate, 0, cfg.TopK)
	for _, a := range merged {
		a.cand.TextScore = a.textScore
		a.cand.ImageScore = a.imageScore
		a.cand.FinalScore = a.finalScore
		out = append(out, a.cand)
		if len(out) == cfg.TopK {
			break
		}
	}
	return out, nil
}

// distanceToScore normalizes an index distance into [0,1]. Distances above 1
// (possible with non-normalized embeddings) clamp to zero relevance.
func distanceToScore(d float64) float64 {
	if d > 1 {
		return 0
	}
	return 1 - d
}

// backfillContent deterministically fills a missing content field from
// metadata so downstream prompt building never sees an empty passage.
func backfillContent(c *candidate.Candidate) {
	if c.Content != "" {
		return
	}
	if ctx := c.MetaString(candidate.MetaContext); ctx != "" {
		c.Content = fmt.Sprintf("图片文档: %s", ctx)
		return
	}
	if img := c.MetaString(candidate.MetaImgPath); img != "" {
		c.Content = fmt.Sprintf("图片文档: %s", filepath.Base(img))
		return
	}
	if src := c.MetaString(candidate.MetaSource); src != "" {
		c.Content = fmt.Sprintf("来自%s的文本文档", src)
		return
	}
	c.Content = "未命名文档"
}

func requireStableIDs(cands []*candidate.Candidate) error {
	for i, c := range cands {
		if c.ID == "" {
			return fmt.Errorf("%w (position %d)", ErrMissingCandidateID, i)
		}
	}
	return nil
}

func truncate(cands []*candidate.Candidate, topK int) []*candidate.Candidate {
	if topK > 0 && len(cands) > topK {
		return cands[:topK]
	}
	return cands
}
