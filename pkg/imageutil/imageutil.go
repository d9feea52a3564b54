// Package imageutil normalizes the image references the API accepts: local
// paths, remote URLs and data-URL base64 payloads.
package imageutil

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind classifies an image reference.
type Kind string

const (
	KindBase64 Kind = "base64"
	KindURL    Kind = "url"
	KindPath   Kind = "path"
)

const dataURLPrefix = "data:image"

// Classify reports how an image reference should be handled downstream.
func Classify(ref string) Kind {
	switch {
	case strings.HasPrefix(ref, dataURLPrefix):
		return KindBase64
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return KindURL
	default:
		return KindPath
	}
}

// ToBase64 reads a local image file and returns it as a data URL, inferring
// the MIME type from the file extension. Unknown extensions fall back to
// JPEG, matching what most camera uploads actually are.
func ToBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", path, err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("data:%s;base64,%s", mimeFromExt(filepath.Ext(path)), encoded), nil
}

// Normalize converts a reference into something a multimodal API accepts:
// URLs and data URLs pass through, local paths are inlined as base64.
func Normalize(ref string) (string, error) {
	if Classify(ref) == KindPath {
		return ToBase64(ref)
	}
	return ref, nil
}

// MIMEType infers the MIME type of any reference form.
func MIMEType(ref string) string {
	if strings.HasPrefix(ref, dataURLPrefix) {
		rest := strings.TrimPrefix(ref, "data:")
		if i := strings.IndexAny(rest, ";,"); i > 0 {
			return rest[:i]
		}
		return "image/jpeg"
	}
	return mimeFromExt(filepath.Ext(stripQuery(ref)))
}

func stripQuery(ref string) string {
	if i := strings.IndexByte(ref, '?'); i >= 0 {
		return ref[:i]
	}
	return ref
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

var imageURLPattern = regexp.MustCompile(`(?i)(https?://\S+\.(jpg|jpeg|png|gif|bmp|webp))`)

// ExtractURL pulls the first image URL out of free text and returns the
// remaining text alongside it. When no URL is present the text comes back
// unchanged and the URL is empty.
func ExtractURL(text string) (cleanText, imageURL string) {
	url := imageURLPattern.FindString(text)
	if url == "" {
		return text, ""
	}
	return strings.TrimSpace(strings.Replace(text, url, "", 1)), url
}
