package imageutil

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		ref  string
		want Kind
	}{
		{"data:image/jpeg;base64,AAAA", KindBase64},
		{"data:image/png;base64,BBBB", KindBase64},
		{"https://example.com/a.jpg", KindURL},
		{"http://example.com/a.png", KindURL},
		{"/uploads/photo.jpg", KindPath},
		{"photo.jpg", KindPath},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.ref), tt.ref)
	}
}

func TestToBase64(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	got, err := ToBase64(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestToBase64MissingFile(t *testing.T) {
	_, err := ToBase64(filepath.Join(t.TempDir(), "nope.jpg"))
	assert.Error(t, err)
}

func TestNormalizePassThrough(t *testing.T) {
	for _, ref := range []string{"https://example.com/a.jpg", "data:image/jpeg;base64,AAAA"} {
		got, err := Normalize(ref)
		require.NoError(t, err)
		assert.Equal(t, ref, got)
	}
}

func TestMIMEType(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"data:image/png;base64,AAAA", "image/png"},
		{"data:image/webp;base64,AAAA", "image/webp"},
		{"https://example.com/pic.GIF", "image/gif"},
		{"https://example.com/pic.png?size=large", "image/png"},
		{"/tmp/shot.jpeg", "image/jpeg"},
		{"/tmp/shot.unknown", "image/jpeg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MIMEType(tt.ref), tt.ref)
	}
}

func TestExtractURL(t *testing.T) {
	text, url := ExtractURL("这里有安全隐患 https://example.com/scene.jpg 请分析")
	assert.Equal(t, "https://example.com/scene.jpg", url)
	assert.Equal(t, "这里有安全隐患  请分析", text)

	text, url = ExtractURL("没有图片的问题")
	assert.Empty(t, url)
	assert.Equal(t, "没有图片的问题", text)
}
