package scorer

import "context"

// RelevanceScorer scores a query key against candidate keys. Implementations
// are expected to batch the whole slice in one upstream call and return one
// score per candidate key, in order.
type RelevanceScorer interface {
	Score(ctx context.Context, key string, candidateKeys []string) ([]float64, error)
}
