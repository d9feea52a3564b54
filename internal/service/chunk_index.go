package service

import (
	"context"

	"github.com/QRui6/urban-inspection-rag/internal/mapper"
	"github.com/QRui6/urban-inspection-rag/internal/repository/contract"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/retrieval"
)

// chunkIndex adapts the manual-chunk repository to the nearest-neighbor
// surface the retriever expects.
type chunkIndex struct {
	repo   contract.ManualChunkRepository
	mapper *mapper.ManualChunkMapper
}

func NewChunkIndex(repo contract.ManualChunkRepository) retrieval.Index {
	return &chunkIndex{
		repo:   repo,
		mapper: mapper.NewManualChunkMapper(),
	}
}

func (ci *chunkIndex) Query(ctx context.Context, vector []float32, k int) ([]*candidate.Candidate, error) {
	scored, err := ci.repo.SearchSimilar(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	out := make([]*candidate.Candidate, 0, len(scored))
	for _, s := range scored {
		out = append(out, ci.mapper.ToCandidate(s.Chunk, s.Distance))
	}
	return out, nil
}
