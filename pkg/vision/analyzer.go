package vision

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/QRui6/urban-inspection-rag/pkg/imageutil"
)

// ErrAllModelsFailed means the primary model and every fallback returned
// nothing usable for the photo.
var ErrAllModelsFailed = errors.New("vision: all models failed to analyze image")

// Model pairs a provider with the name reported back to the caller.
type Model struct {
	Name     string
	Provider Provider
}

// Analyzer runs a photo through the primary model, falls back through the
// configured alternates, and as a last resort re-sends a local file inlined
// as base64. Remote endpoints often cannot reach a path-style reference.
type Analyzer struct {
	primary   Model
	fallbacks []Model
	logger    *log.Logger
}

func NewAnalyzer(primary Model, fallbacks []Model, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.New(os.Stderr, "[vision] ", log.LstdFlags)
	}
	return &Analyzer{primary: primary, fallbacks: fallbacks, logger: logger}
}

// Analyze returns the analysis text and the name of the model that produced
// it. Structured results come back with localized JSON keys.
func (a *Analyzer) Analyze(ctx context.Context, imageRef, prompt string, structured bool) (text, modelUsed string, err error) {
	text, modelUsed = a.tryAll(ctx, imageRef, prompt, structured)

	if text == "" && imageutil.Classify(imageRef) == imageutil.KindPath {
		if _, statErr := os.Stat(imageRef); statErr == nil {
			a.logger.Printf("尝试使用base64方式调用视觉模型")
			if b64, convErr := imageutil.ToBase64(imageRef); convErr == nil {
				text, modelUsed = a.tryAll(ctx, b64, prompt, structured)
				if text != "" {
					modelUsed += " (本地文件转base64)"
				}
			}
		}
	}

	if text == "" {
		return "", "", ErrAllModelsFailed
	}
	if structured {
		text = LocalizeKeys(text)
	}
	return text, modelUsed, nil
}

func (a *Analyzer) tryAll(ctx context.Context, imageRef, prompt string, structured bool) (string, string) {
	text, err := a.primary.Provider.Analyze(ctx, imageRef, prompt, structured)
	if err == nil && text != "" {
		return text, a.primary.Name
	}
	if err != nil {
		a.logger.Printf("主视觉模型 %s 分析失败: %v", a.primary.Name, err)
	}

	for _, m := range a.fallbacks {
		if ctx.Err() != nil {
			return "", ""
		}
		a.logger.Printf("尝试使用备用视觉模型: %s", m.Name)
		text, err = m.Provider.Analyze(ctx, imageRef, prompt, structured)
		if err == nil && text != "" {
			return text, m.Name + " (备用)"
		}
		if err != nil {
			a.logger.Printf("备用视觉模型 %s 分析失败: %v", m.Name, err)
		}
	}
	return "", ""
}
