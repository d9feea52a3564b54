package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

var testTemplates = Templates{
	System: "照片：<user_photo_placeholder>\n" +
		"依据1：{retrieved_chunk_1_content}（{retrieved_chunk_1_metadata}）\n" +
		"依据2：{retrieved_chunk_2_content}（{retrieved_chunk_2_metadata}）\n" +
		"案例1：<retrieved_case_photo_1_placeholder>\n" +
		"案例2：<retrieved_case_photo_2_placeholder>",
	UserQuery: "问题：{query}",
}

func textChunk(id, content, source string) *candidate.Candidate {
	return &candidate.Candidate{
		ID:      id,
		Content: content,
		Metadata: map[string]any{
			candidate.MetaChunkType: candidate.ChunkTypeIndicatorComplete,
			candidate.MetaSource:    source,
		},
	}
}

func imageChunk(id, imgPath, context string) *candidate.Candidate {
	return &candidate.Candidate{
		ID: id,
		Metadata: map[string]any{
			candidate.MetaChunkType: candidate.ChunkTypeIndicatorImage,
			candidate.MetaImgPath:   imgPath,
			candidate.MetaContext:   context,
		},
	}
}

func TestBuildFillsAllSlots(t *testing.T) {
	system, user := Build(testTemplates, Input{
		Query:          "是否存在安全隐患?",
		UserPhoto:      "/uploads/photo.jpg",
		VisualAnalysis: "楼道被堆放的杂物堵塞",
		Candidates: []*candidate.Candidate{
			textChunk("c1", "消防通道应保持畅通", "docs/手册.md"),
			imageChunk("c2", "/kb/img/case.jpg", "某小区消防通道堵塞案例"),
			textChunk("c3", "楼道严禁堆放可燃物", "docs/规范.md"),
		},
		ImageCandidates: []*candidate.Candidate{
			imageChunk("i1", "/kb/img/case1.jpg", ""),
			imageChunk("i2", "/kb/img/case2.jpg", ""),
			imageChunk("i3", "/kb/img/case3.jpg", ""),
		},
	})

	assert.Contains(t, system, "照片：/uploads/photo.jpg")
	assert.Contains(t, system, "依据1：消防通道应保持畅通（手册.md）")
	// The image chunk sits between the two text chunks; its context becomes
	// the second citable passage.
	assert.Contains(t, system, "依据2：某小区消防通道堵塞案例")
	assert.Contains(t, system, "案例1：/kb/img/case1.jpg")
	assert.Contains(t, system, "案例2：/kb/img/case2.jpg")
	assert.NotContains(t, system, "/kb/img/case3.jpg", "only the two closest case photos are cited")
	assert.False(t, strings.Contains(system, "placeholder"), "no placeholder may survive")

	assert.Contains(t, user, "问题：是否存在安全隐患?")
	assert.Contains(t, user, "[视觉分析结果]: \"视觉模型分析结果：楼道被堆放的杂物堵塞\"")
	assert.Contains(t, user, "[手册.md]: \"消防通道应保持畅通\"")
	assert.Contains(t, user, "[规范.md]: \"楼道严禁堆放可燃物\"")
}

func TestBuildEmptyEvidenceFallbacks(t *testing.T) {
	system, user := Build(testTemplates, Input{
		Query:          "q",
		VisualAnalysis: "分析文本",
	})

	assert.Contains(t, system, "依据1：未找到相关文本内容（无）")
	assert.Contains(t, system, "依据2：（）")
	assert.Contains(t, system, "案例1：无相关案例图片")
	assert.Contains(t, system, "案例2：无相关案例图片")
	assert.Contains(t, user, "[视觉分析结果]")
}

func TestBuildSingleTextChunk(t *testing.T) {
	system, _ := Build(testTemplates, Input{
		Query:      "q",
		Candidates: []*candidate.Candidate{textChunk("c1", "内容甲", "")},
	})
	assert.Contains(t, system, "依据1：内容甲（未知来源）")
	assert.Contains(t, system, "依据2：（）")
}
