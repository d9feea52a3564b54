package retrieval

import (
	"context"
	"log"
	"sort"
	"strings"

	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

// Path identifies one of the two independent retrieval pipelines.
type Path string

const (
	PathText  Path = "text"
	PathImage Path = "image"
)

// Index is the raw nearest-neighbor surface the retriever sits on. It has
// no notion of indicator structure; that is this package's job.
type Index interface {
	Query(ctx context.Context, vector []float32, k int) ([]*candidate.Candidate, error)
}

// Config encapsulates retrieval parameters.
type Config struct {
	TopK int
	// MinIndicatorRatio is the indicator share of TopK below which the
	// keyword widening heuristic kicks in.
	MinIndicatorRatio float64
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() Config {
	return Config{
		TopK:              5,
		MinIndicatorRatio: 0.3,
	}
}

// Keywords that mark a chunk as regulation-bearing even when its chunk_type
// was not labeled at ingest time.
var indicatorKeywords = []string{"指标", "问题", "隐患", "整治", "改造", "标准"}

// Retriever executes indicator-aware retrieval over a raw vector index.
//
// The knowledge base mixes regulation-bearing indicator passages with
// boilerplate; pure distance ranking starves the answer of citable text.
// So the retriever over-fetches far past TopK, partitions by chunk type and
// fills the final slots indicator-first.
type Retriever struct {
	index  Index
	cfg    Config
	logger *log.Logger
}

func NewRetriever(index Index, cfg Config, logger *log.Logger) *Retriever {
	return &Retriever{
		index:  index,
		cfg:    cfg,
		logger: logger,
	}
}

// Retrieve returns up to cfg.TopK candidates for the query vector, ranked by
// distance ascending with indicator chunks taking priority over general
// ones. An index failure yields an empty list, not an error: missing
// evidence is an answerable outcome, a broken dependency is logged.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, path Path) []*candidate.Candidate {
	k := r.cfg.TopK
	fetch := overFetchSize(k)

	cands, err := r.index.Query(ctx, vector, fetch)
	if err != nil {
		r.logger.Printf("[WARN] %s-path index query failed, treating as no evidence: %v", path, err)
		return nil
	}
	r.logger.Printf("[RETRIEVE] %s path: fetched %d of %d requested", path, len(cands), fetch)

	indicators, general := partition(cands)

	// Indicator supply too thin: reclassify general chunks whose title or
	// body matches a domain keyword.
	if float64(len(indicators)) < r.cfg.MinIndicatorRatio*float64(k) {
		widened, rest := widenByKeyword(general)
		if len(widened) > 0 {
			r.logger.Printf("[RETRIEVE] %s path: widened indicator pool by %d keyword matches", path, len(widened))
		}
		indicators = append(indicators, widened...)
		general = rest
	}

	sortByDistance(indicators)
	sortByDistance(general)

	// Fill indicator-first, pad with general only when supply is short.
	out := make([]*candidate.Candidate, 0, k)
	for _, c := range indicators {
		if len(out) == k {
			break
		}
		out = append(out, c)
	}
	for _, c := range general {
		if len(out) == k {
			break
		}
		out = append(out, c)
	}
	return out
}

// overFetchSize widens the index query well past k so the indicator
// partition has material to work with.
func overFetchSize(k int) int {
	if n := k * 10; n > 200 {
		return n
	}
	return 200
}

func partition(cands []*candidate.Candidate) (indicators, general []*candidate.Candidate) {
	for _, c := range cands {
		if c.IsIndicator() {
			indicators = append(indicators, c)
		} else {
			general = append(general, c)
		}
	}
	return indicators, general
}

func widenByKeyword(general []*candidate.Candidate) (widened, rest []*candidate.Candidate) {
	for _, c := range general {
		if matchesIndicatorKeyword(c) {
			widened = append(widened, c)
		} else {
			rest = append(rest, c)
		}
	}
	return widened, rest
}

func matchesIndicatorKeyword(c *candidate.Candidate) bool {
	title := c.IndicatorTitle()
	for _, kw := range indicatorKeywords {
		if title != "" && strings.Contains(title, kw) {
			return true
		}
		if strings.Contains(c.Content, kw) {
			return true
		}
	}
	return false
}

func sortByDistance(cands []*candidate.Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Distance < cands[j].Distance
	})
}
