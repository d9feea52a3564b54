package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

func mkCand(id string, distance float64) *candidate.Candidate {
	return &candidate.Candidate{
		ID:       id,
		Content:  "content-" + id,
		Distance: distance,
		Metadata: map[string]any{},
	}
}

func TestDistanceToScore(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0.0, 1.0},
		{0.25, 0.75},
		{1.0, 0.0},
		{1.5, 0.0},
		{7.0, 0.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, distanceToScore(tt.distance), 1e-9, "distance %v", tt.distance)
	}
}

func TestMergeEmptySidePassthrough(t *testing.T) {
	image := []*candidate.Candidate{
		mkCand("a", 0.1), mkCand("b", 0.2), mkCand("c", 0.3),
		mkCand("d", 0.4), mkCand("e", 0.5), mkCand("f", 0.6),
	}

	merged, err := Merge(nil, image, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, merged, 5)
	for i, c := range merged {
		assert.Equal(t, image[i].ID, c.ID)
	}

	merged, err = Merge(image, nil, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, merged, 5)
	assert.Equal(t, "a", merged[0].ID)
}

func TestMergeBothEmpty(t *testing.T) {
	merged, err := Merge(nil, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, merged)
}

func TestMergeAccumulatesSharedCandidate(t *testing.T) {
	shared := mkCand("shared", 0.2) // text score 0.8
	text := []*candidate.Candidate{shared, mkCand("t1", 0.5)}
	image := []*candidate.Candidate{mkCand("shared", 0.4), mkCand("i1", 0.5)} // image score 0.6

	merged, err := Merge(text, image, DefaultConfig())
	require.NoError(t, err)
	require.NotEmpty(t, merged)

	top := merged[0]
	require.Equal(t, "shared", top.ID)
	assert.InDelta(t, 0.8*0.6+0.6*0.4, top.FinalScore, 1e-9)
	assert.InDelta(t, 0.8, top.TextScore, 1e-9)
	assert.InDelta(t, 0.6, top.ImageScore, 1e-9)

	// Accumulated score strictly beats either weighted component alone.
	assert.Greater(t, top.FinalScore, 0.8*0.6)
	assert.Greater(t, top.FinalScore, 0.6*0.4)

	// The shared candidate appears exactly once.
	seen := 0
	for _, c := range merged {
		if c.ID == "shared" {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestMergeSortsByFinalScoreAndTruncates(t *testing.T) {
	text := []*candidate.Candidate{
		mkCand("t1", 0.1), mkCand("t2", 0.2), mkCand("t3", 0.3), mkCand("t4", 0.4),
	}
	image := []*candidate.Candidate{
		mkCand("i1", 0.05), mkCand("i2", 0.15), mkCand("i3", 0.25),
	}

	merged, err := Merge(text, image, Config{TextWeight: 0.6, ImageWeight: 0.4, TopK: 3})
	require.NoError(t, err)
	require.Len(t, merged, 3)
	for i := 1; i < len(merged); i++ {
		assert.GreaterOrEqual(t, merged[i-1].FinalScore, merged[i].FinalScore)
	}
	// text path dominates with 0.6 weight: t1 has 0.9*0.6 = 0.54, best overall
	assert.Equal(t, "t1", merged[0].ID)
}

func TestMergeBackfillsMissingContent(t *testing.T) {
	imgCand := &candidate.Candidate{
		ID:       "img",
		Distance: 0.3,
		Metadata: map[string]any{
			candidate.MetaContext: "楼道内堆放杂物",
			candidate.MetaImgPath: "/kb/images/blocked_exit.jpg",
		},
	}
	srcCand := &candidate.Candidate{
		ID:       "src",
		Distance: 0.4,
		Metadata: map[string]any{candidate.MetaSource: "城市体检工作手册.md"},
	}

	merged, err := Merge(
		[]*candidate.Candidate{srcCand},
		[]*candidate.Candidate{imgCand},
		DefaultConfig(),
	)
	require.NoError(t, err)
	require.Len(t, merged, 2)

	byID := map[string]*candidate.Candidate{}
	for _, c := range merged {
		byID[c.ID] = c
	}
	assert.Equal(t, "图片文档: 楼道内堆放杂物", byID["img"].Content)
	assert.Equal(t, "来自城市体检工作手册.md的文本文档", byID["src"].Content)
}

func TestMergeRejectsMissingID(t *testing.T) {
	text := []*candidate.Candidate{mkCand("ok", 0.1), {Distance: 0.2}}
	_, err := Merge(text, []*candidate.Candidate{mkCand("i", 0.1)}, DefaultConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCandidateID)
}
