package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QRui6/urban-inspection-rag/internal/constant"
)

func TestLoadPromptsDefaults(t *testing.T) {
	prompts := LoadPrompts("")
	assert.Equal(t, constant.VisionAnalysisPrompt, prompts.VisionAnalysis)
	assert.Equal(t, constant.ReportSystemPrompt, prompts.ReportSystem)
	assert.Equal(t, constant.NoEvidenceAnswerFormat, prompts.NoEvidenceFormat)
}

func TestLoadPromptsPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user_query: \"问题：{query}\"\n"), 0o644))

	prompts := LoadPrompts(path)
	assert.Equal(t, "问题：{query}", prompts.UserQuery)
	// Untouched fields keep their defaults.
	assert.Equal(t, constant.VisionAnalysisPrompt, prompts.VisionAnalysis)
}

func TestLoadPromptsMissingFileFallsBack(t *testing.T) {
	prompts := LoadPrompts(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, constant.ReportSystemPrompt, prompts.ReportSystem)
}
