package rerank

import (
	"regexp"
	"strings"
)

// The vision model conventionally formats its analysis as two bold-marked
// segments (indicator category, then problem name) followed by free prose:
//
//	**二、 小区与公共空间**
//	**公共区域无障碍与步行道问题**
//
//	图片显示...
//
// The second bold segment is the semantic key the reranker matches against
// indicator titles. The narrative comes from an unvalidated external text
// generator, so extraction degrades through layered fallbacks instead of
// trusting the format.
var (
	doubleBoldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*.*?\*\*([^*]+)\*\*`)
	boldRunPattern    = regexp.MustCompile(`\*+`)
)

const maxKeyLen = 50

var keyKeywords = []string{"问题", "隐患", "改造", "数量"}

// ExtractKey recovers the problem name from a vision-analysis narrative.
// It never fails: malformed input falls through to a deterministic
// truncation of the cleaned text.
func ExtractKey(query string) string {
	// 1. Two consecutive bold spans on one line; take the second.
	if m := doubleBoldPattern.FindStringSubmatch(query); m != nil {
		if name := strings.TrimSpace(m[2]); name != "" {
			return name
		}
	}

	// 2. Manual split on the bold delimiter. A well-formed header yields at
	// least 5 parts: "", category, separator, problem name, rest.
	if parts := strings.Split(query, "**"); len(parts) >= 5 {
		if name := strings.TrimSpace(parts[3]); name != "" {
			return name
		}
	}

	// 3. Scan for a short line carrying a domain keyword.
	for _, line := range strings.Split(query, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "*", ""))
		if line == "" {
			continue
		}
		for _, kw := range keyKeywords {
			if strings.Contains(line, kw) && len([]rune(line)) < maxKeyLen {
				return line
			}
		}
	}

	// 4. First 50 characters of the delimiter-stripped text.
	clean := strings.TrimSpace(boldRunPattern.ReplaceAllString(query, ""))
	clean = strings.ReplaceAll(clean, "\n", " ")
	runes := []rune(clean)
	if len(runes) > maxKeyLen {
		return string(runes[:maxKeyLen]) + "..."
	}
	return clean
}
