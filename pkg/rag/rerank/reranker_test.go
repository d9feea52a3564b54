package rerank

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

func TestExtractKey(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "two bold segments",
			query: "**A**\n**B**\nfree text",
			want:  "B",
		},
		{
			name:  "realistic analysis header",
			query: "**二、 小区与公共空间**\n**公共区域无障碍与步行道问题**\n\n图片显示人行道破损严重",
			want:  "公共区域无障碍与步行道问题",
		},
		{
			name:  "bold segments on one line",
			query: "**类别** 说明 **楼道堆物隐患** 后续描述",
			want:  "楼道堆物隐患",
		},
		{
			name:  "keyword line without bold markers",
			query: "现场情况如下\n存在明显的消防通道堵塞问题\n后续为很长的自由描述文本",
			want:  "存在明显的消防通道堵塞问题",
		},
		{
			name:  "no structure at all truncates to 50 runes",
			query: strings.Repeat("这", 80),
			want:  strings.Repeat("这", 50) + "...",
		},
		{
			name:  "short unstructured text returned whole",
			query: "短文本",
			want:  "短文本",
		},
		{
			name:  "empty input",
			query: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKey(tt.query))
		})
	}
}

type stubScorer struct {
	scores map[string]float64
	err    error
	calls  int
}

func (s *stubScorer) Score(_ context.Context, _ string, candidateKeys []string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(candidateKeys))
	for i, k := range candidateKeys {
		out[i] = s.scores[k]
	}
	return out, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func titled(id, title string) *candidate.Candidate {
	return &candidate.Candidate{
		ID:      id,
		Content: "content-" + id,
		Metadata: map[string]any{
			candidate.MetaChunkType:      candidate.ChunkTypeIndicatorComplete,
			candidate.MetaIndicatorTitle: title,
		},
	}
}

func TestRerankOrdersByScoreAndTruncates(t *testing.T) {
	s := &stubScorer{scores: map[string]float64{
		"消防通道堵塞": 0.9,
		"步行道破损":  0.7,
		"违章搭建":   0.4,
		"绿化缺失":   0.2,
	}}
	r := NewReranker(s, DefaultConfig(), discardLogger())

	cands := []*candidate.Candidate{
		titled("a", "绿化缺失"),
		titled("b", "消防通道堵塞"),
		titled("c", "违章搭建"),
		titled("d", "步行道破损"),
	}

	out := r.Rerank(context.Background(), "**类别**\n**消防通道问题**\n描述", cands)
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "d", out[1].ID)
	assert.Equal(t, "c", out[2].ID)
	assert.Equal(t, 1, s.calls, "scoring must be a single batched call")
}

func TestRerankDropsUntitledCandidates(t *testing.T) {
	s := &stubScorer{scores: map[string]float64{"消防通道堵塞": 0.9}}
	r := NewReranker(s, DefaultConfig(), discardLogger())

	untitled := &candidate.Candidate{ID: "x", Content: "no title"}
	out := r.Rerank(context.Background(), "query", []*candidate.Candidate{
		untitled,
		titled("b", "消防通道堵塞"),
	})
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ID)
}

func TestRerankScorerFailureFallsBackToFusedOrder(t *testing.T) {
	s := &stubScorer{err: fmt.Errorf("scorer down")}
	r := NewReranker(s, Config{TopK: 2}, discardLogger())

	cands := []*candidate.Candidate{
		titled("first", "甲"),
		titled("second", "乙"),
		titled("third", "丙"),
	}
	out := r.Rerank(context.Background(), "query", cands)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].ID)
	assert.Equal(t, "second", out[1].ID)
}

func TestRerankEmptyInput(t *testing.T) {
	r := NewReranker(&stubScorer{}, DefaultConfig(), discardLogger())
	assert.Nil(t, r.Rerank(context.Background(), "query", nil))
}
