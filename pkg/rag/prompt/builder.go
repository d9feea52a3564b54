package prompt

import (
	"fmt"
	"strings"

	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

// Placeholders recognized in the system template.
const (
	PlaceholderUserPhoto     = "<user_photo_placeholder>"
	PlaceholderChunk1Content = "{retrieved_chunk_1_content}"
	PlaceholderChunk1Source  = "{retrieved_chunk_1_metadata}"
	PlaceholderChunk2Content = "{retrieved_chunk_2_content}"
	PlaceholderChunk2Source  = "{retrieved_chunk_2_metadata}"
	PlaceholderCasePhoto1    = "<retrieved_case_photo_1_placeholder>"
	PlaceholderCasePhoto2    = "<retrieved_case_photo_2_placeholder>"
	PlaceholderQuery         = "{query}"
)

// Templates holds the report templates the builder substitutes into.
type Templates struct {
	System    string
	UserQuery string
}

// Input carries everything one composition call needs. The builder is a
// pure function over this value; nothing is injected through shared state.
type Input struct {
	Query          string
	UserPhoto      string
	VisualAnalysis string
	// Candidates is the reranked evidence set.
	Candidates []*candidate.Candidate
	// ImageCandidates is the image-path retrieval result, the source of the
	// illustrative case photos.
	ImageCandidates []*candidate.Candidate
}

// Build fills the fixed report template: two text-passage citation slots,
// two case-photo slots and the user-photo slot in the system prompt, plus a
// user prompt carrying the question and the textual evidence.
func Build(t Templates, in Input) (systemPrompt, userPrompt string) {
	textDocs := selectTextDocs(in.Candidates)

	systemPrompt = t.System
	systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderUserPhoto, in.UserPhoto)

	if len(textDocs) >= 1 {
		systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderChunk1Content, textDocs[0].content)
		systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderChunk1Source, textDocs[0].source)
	} else {
		systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderChunk1Content, "未找到相关文本内容")
		systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderChunk1Source, "无")
	}
	if len(textDocs) >= 2 {
		systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderChunk2Content, textDocs[1].content)
		systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderChunk2Source, textDocs[1].source)
	} else {
		systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderChunk2Content, "")
		systemPrompt = strings.ReplaceAll(systemPrompt, PlaceholderChunk2Source, "")
	}

	casePhotos := selectCasePhotos(in.ImageCandidates, 2)
	for i, placeholder := range []string{PlaceholderCasePhoto1, PlaceholderCasePhoto2} {
		if i < len(casePhotos) {
			systemPrompt = strings.ReplaceAll(systemPrompt, placeholder, casePhotos[i])
		} else {
			systemPrompt = strings.ReplaceAll(systemPrompt, placeholder, "无相关案例图片")
		}
	}

	userPrompt = buildUserPrompt(t, in)
	return systemPrompt, userPrompt
}

type textDoc struct {
	content string
	source  string
}

// selectTextDocs splits the evidence into citable text passages. Image
// chunks contribute their surrounding context instead of raw content;
// image chunks without context have nothing citable and are skipped.
func selectTextDocs(cands []*candidate.Candidate) []textDoc {
	var docs []textDoc
	for _, c := range cands {
		if c.IsImage() {
			if ctx := c.MetaString(candidate.MetaContext); ctx != "" {
				docs = append(docs, textDoc{content: ctx, source: sourceOrUnknown(c)})
			}
			continue
		}
		if c.Content != "" {
			docs = append(docs, textDoc{content: c.Content, source: sourceOrUnknown(c)})
		}
	}
	return docs
}

func sourceOrUnknown(c *candidate.Candidate) string {
	if name := c.SourceName(); name != "" && name != "." {
		return name
	}
	return "未知来源"
}

func selectCasePhotos(imageCands []*candidate.Candidate, max int) []string {
	var photos []string
	for _, c := range imageCands {
		if len(photos) == max {
			break
		}
		if p := c.MetaString(candidate.MetaImgPath); p != "" {
			photos = append(photos, p)
		}
	}
	return photos
}

func buildUserPrompt(t Templates, in Input) string {
	var b strings.Builder
	b.WriteString(strings.ReplaceAll(t.UserQuery, PlaceholderQuery, in.Query))
	b.WriteString("\n\n参考资料：\n")

	if in.VisualAnalysis != "" {
		fmt.Fprintf(&b, "[视觉分析结果]: \"视觉模型分析结果：%s\"\n", in.VisualAnalysis)
	}
	for i, c := range in.Candidates {
		if c.IsImage() {
			continue
		}
		name := c.SourceName()
		if name == "" || name == "." {
			name = fmt.Sprintf("检索到的文本块 %d", i+1)
		}
		fmt.Fprintf(&b, "[%s]: \"%s\"\n", name, c.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
