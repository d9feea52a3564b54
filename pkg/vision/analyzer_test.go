package vision

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	text string
	err  error
	seen []string
}

func (s *stubProvider) Analyze(_ context.Context, imageRef, _ string, _ bool) (string, error) {
	s.seen = append(s.seen, imageRef)
	return s.text, s.err
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestLocalizeKeys(t *testing.T) {
	raw := `{"indicator_classification":"小区维度 - 18","specific_problem":"18.1","detailed_description":"路面破损"}`
	got := LocalizeKeys(raw)
	assert.Contains(t, got, `"指标分类"`)
	assert.Contains(t, got, `"具体问题"`)
	assert.Contains(t, got, `"详细描述"`)
	assert.NotContains(t, got, "indicator_classification")
}

func TestLocalizeKeysPassesThroughFreeText(t *testing.T) {
	raw := "图中存在 indicator_classification 相关隐患"
	assert.Equal(t, raw, LocalizeKeys(raw))
}

func TestAnalyzePrimarySucceeds(t *testing.T) {
	primary := &stubProvider{text: "分析结果"}
	a := NewAnalyzer(Model{Name: "qwen-vl", Provider: primary}, nil, quietLogger())

	text, model, err := a.Analyze(context.Background(), "https://example.com/a.jpg", "p", false)
	require.NoError(t, err)
	assert.Equal(t, "分析结果", text)
	assert.Equal(t, "qwen-vl", model)
}

func TestAnalyzeFallsBack(t *testing.T) {
	primary := &stubProvider{err: errors.New("quota")}
	backup := &stubProvider{text: "备用结果"}
	a := NewAnalyzer(
		Model{Name: "qwen-vl", Provider: primary},
		[]Model{{Name: "doubao-vision", Provider: backup}},
		quietLogger(),
	)

	text, model, err := a.Analyze(context.Background(), "https://example.com/a.jpg", "p", false)
	require.NoError(t, err)
	assert.Equal(t, "备用结果", text)
	assert.Equal(t, "doubao-vision (备用)", model)
}

func TestAnalyzeAllFail(t *testing.T) {
	primary := &stubProvider{err: errors.New("down")}
	a := NewAnalyzer(Model{Name: "qwen-vl", Provider: primary}, nil, quietLogger())

	_, _, err := a.Analyze(context.Background(), "https://example.com/a.jpg", "p", false)
	assert.ErrorIs(t, err, ErrAllModelsFailed)
}

func TestAnalyzeStructuredLocalizes(t *testing.T) {
	primary := &stubProvider{text: `{"indicator_classification":"a","specific_problem":"b","detailed_description":"c"}`}
	a := NewAnalyzer(Model{Name: "qwen-vl", Provider: primary}, nil, quietLogger())

	text, _, err := a.Analyze(context.Background(), "https://example.com/a.jpg", "p", true)
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "指标分类"))
}
