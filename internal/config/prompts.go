package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/QRui6/urban-inspection-rag/internal/constant"
)

// PromptConfig carries the active prompt templates. Defaults come from
// internal/constant; a YAML file can override any subset for prompt tuning
// without a rebuild.
type PromptConfig struct {
	VisionAnalysis    string `yaml:"vision_analysis"`
	SimpleDescription string `yaml:"simple_description"`
	ReportSystem      string `yaml:"report_system"`
	UserQuery         string `yaml:"user_query"`
	NoEvidenceFormat  string `yaml:"no_evidence_format"`
}

func defaultPrompts() PromptConfig {
	return PromptConfig{
		VisionAnalysis:    constant.VisionAnalysisPrompt,
		SimpleDescription: constant.SimpleDescriptionPrompt,
		ReportSystem:      constant.ReportSystemPrompt,
		UserQuery:         constant.UserQueryTemplate,
		NoEvidenceFormat:  constant.NoEvidenceAnswerFormat,
	}
}

// LoadPrompts returns the defaults merged with the optional override file.
func LoadPrompts(path string) PromptConfig {
	prompts := defaultPrompts()
	if path == "" {
		return prompts
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warn: cannot read prompt config %s: %v, using defaults", path, err)
		return prompts
	}

	var override PromptConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		log.Printf("Warn: invalid prompt config %s: %v, using defaults", path, err)
		return prompts
	}

	if override.VisionAnalysis != "" {
		prompts.VisionAnalysis = override.VisionAnalysis
	}
	if override.SimpleDescription != "" {
		prompts.SimpleDescription = override.SimpleDescription
	}
	if override.ReportSystem != "" {
		prompts.ReportSystem = override.ReportSystem
	}
	if override.UserQuery != "" {
		prompts.UserQuery = override.UserQuery
	}
	if override.NoEvidenceFormat != "" {
		prompts.NoEvidenceFormat = override.NoEvidenceFormat
	}
	return prompts
}
