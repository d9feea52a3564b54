// Package vision analyzes inspection photos with multimodal models and
// normalizes their structured output.
package vision

import (
	"encoding/json"
	"strings"
)

// Analysis is the structured result a vision model returns for a city
// inspection photo.
type Analysis struct {
	// 维度名称 - 二级指标序号 二级指标名称
	IndicatorClassification string `json:"indicator_classification"`
	// 三级问题序号 - 具体问题描述
	SpecificProblem string `json:"specific_problem"`
	// 客观、量化的专业描述
	DetailedDescription string `json:"detailed_description"`
}

var keyLocalizer = strings.NewReplacer(
	"indicator_classification", "指标分类",
	"specific_problem", "具体问题",
	"detailed_description", "详细描述",
)

// LocalizeKeys rewrites the structured JSON keys into the Chinese labels
// the report templates and downstream retrieval expect. Non-JSON text
// passes through unchanged.
func LocalizeKeys(raw string) string {
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return raw
	}
	return keyLocalizer.Replace(raw)
}
