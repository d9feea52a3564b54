package vision

import "context"

// Provider is a single multimodal backend. Structured mode asks the model
// for the Analysis JSON shape; plain mode returns free text.
type Provider interface {
	Analyze(ctx context.Context, imageRef, prompt string, structured bool) (string, error)
}
