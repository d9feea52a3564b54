package embedding

import (
	"context"
	"errors"
)

// ErrImageNotSupported is returned by text-only providers when asked to
// embed an image.
var ErrImageNotSupported = errors.New("embedding: provider does not support image input")

// Provider defines the contract for embedding backends. Image references
// may be local paths, URLs or data-URL base64 strings.
type Provider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, imageRef string) ([]float32, error)
}
