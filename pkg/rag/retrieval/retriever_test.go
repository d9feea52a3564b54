package retrieval

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

type stubIndex struct {
	cands     []*candidate.Candidate
	err       error
	gotK      int
	gotVector []float32
}

func (s *stubIndex) Query(_ context.Context, vector []float32, k int) ([]*candidate.Candidate, error) {
	s.gotK = k
	s.gotVector = vector
	if s.err != nil {
		return nil, s.err
	}
	if k < len(s.cands) {
		return s.cands[:k], nil
	}
	return s.cands, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func chunk(id, chunkType, title string, distance float64) *candidate.Candidate {
	return &candidate.Candidate{
		ID:       id,
		Content:  "正文 " + id,
		Distance: distance,
		Metadata: map[string]any{
			candidate.MetaChunkType:      chunkType,
			candidate.MetaIndicatorTitle: title,
		},
	}
}

func TestOverFetchSize(t *testing.T) {
	assert.Equal(t, 200, overFetchSize(5))
	assert.Equal(t, 200, overFetchSize(20))
	assert.Equal(t, 250, overFetchSize(25))
	assert.Equal(t, 1000, overFetchSize(100))
}

func TestRetrievePrefersIndicatorChunks(t *testing.T) {
	idx := &stubIndex{}
	// General chunks are closer, but indicator supply covers k, so no
	// general chunk may appear in the result.
	for i := 0; i < 10; i++ {
		idx.cands = append(idx.cands, chunk(fmt.Sprintf("g%d", i), candidate.ChunkTypeGeneral, "", 0.01*float64(i)))
	}
	for i := 0; i < 6; i++ {
		idx.cands = append(idx.cands, chunk(fmt.Sprintf("i%d", i), candidate.ChunkTypeIndicatorComplete, "某指标", 0.5+0.01*float64(i)))
	}

	r := NewRetriever(idx, DefaultConfig(), discardLogger())
	out := r.Retrieve(context.Background(), []float32{1, 0}, PathText)

	require.Len(t, out, 5)
	for _, c := range out {
		assert.True(t, c.IsIndicator(), "candidate %s must be indicator-typed", c.ID)
	}
	assert.Equal(t, "i0", out[0].ID, "indicator partition sorted by distance ascending")
	assert.Equal(t, 200, idx.gotK, "must over-fetch")
}

func TestRetrievePadsWithGeneralWhenIndicatorSupplyShort(t *testing.T) {
	idx := &stubIndex{cands: []*candidate.Candidate{
		chunk("g1", candidate.ChunkTypeGeneral, "", 0.1),
		chunk("i1", candidate.ChunkTypeIndicatorImage, "指标甲", 0.9),
		chunk("g2", candidate.ChunkTypeGeneral, "", 0.2),
	}}

	// Keyword widening would reclassify keyword-bearing general chunks;
	// these contain none.
	idx.cands[0].Content = "无关内容"
	idx.cands[2].Content = "无关内容"

	r := NewRetriever(idx, DefaultConfig(), discardLogger())
	out := r.Retrieve(context.Background(), []float32{1}, PathImage)

	require.Len(t, out, 3)
	assert.Equal(t, "i1", out[0].ID)
	assert.Equal(t, "g1", out[1].ID)
	assert.Equal(t, "g2", out[2].ID)
}

func TestRetrieveWidensByKeywordWhenIndicatorsThin(t *testing.T) {
	idx := &stubIndex{cands: []*candidate.Candidate{
		chunk("plain", candidate.ChunkTypeGeneral, "", 0.1),
		chunk("kw", candidate.ChunkTypeGeneral, "", 0.3),
	}}
	idx.cands[0].Content = "与主题无关的段落"
	idx.cands[1].Content = "该小区存在消防安全隐患，应限期整改"

	r := NewRetriever(idx, Config{TopK: 2, MinIndicatorRatio: 0.3}, discardLogger())
	out := r.Retrieve(context.Background(), []float32{1}, PathText)

	require.Len(t, out, 2)
	// The keyword-matched chunk is promoted ahead of the closer plain one.
	assert.Equal(t, "kw", out[0].ID)
	assert.Equal(t, "plain", out[1].ID)
}

func TestRetrieveIndexFailureIsEmptyNotError(t *testing.T) {
	idx := &stubIndex{err: fmt.Errorf("connection refused")}
	r := NewRetriever(idx, DefaultConfig(), discardLogger())
	out := r.Retrieve(context.Background(), []float32{1}, PathText)
	assert.Empty(t, out)
}
