package upload

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	_, header, err := req.FormFile("file")
	require.NoError(t, err)
	return header
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 1, G: 2, B: 3, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	content := pngBytes(t, 32, 16)

	// The misleading extension must not matter
	header := multipartFile(t, "shot.jpg", content)
	result, err := SaveImage(header, dir, "photos", 1<<20)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Path, "/uploads/photos/"))
	assert.True(t, strings.HasSuffix(result.Path, ".png"), "extension follows the decoded format")
	assert.Equal(t, 32, result.Width)
	assert.Equal(t, 16, result.Height)
	assert.Equal(t, "png", result.Format)
	assert.Equal(t, int64(len(content)), result.Size)

	stored, err := os.ReadFile(FilePath(dir, result.Path))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestSaveImageRejectsNonImage(t *testing.T) {
	dir := t.TempDir()

	header := multipartFile(t, "evil.png", []byte("#!/bin/sh\necho nope\n"))
	_, err := SaveImage(header, dir, "photos", 1<<20)
	assert.ErrorIs(t, err, ErrNotAnImage)

	entries, err := filepath.Glob(filepath.Join(dir, "photos", "*"))
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave no file behind")
}

func TestSaveImageSizeCap(t *testing.T) {
	dir := t.TempDir()
	content := pngBytes(t, 64, 64)

	header := multipartFile(t, "big.png", content)
	_, err := SaveImage(header, dir, "photos", 10)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestFilePathRoundTrip(t *testing.T) {
	got := FilePath("uploads", "/uploads/avatars/a.png")
	assert.Equal(t, filepath.Join("uploads", "avatars", "a.png"), got)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	content := pngBytes(t, 4, 4)

	header := multipartFile(t, "a.png", content)
	result, err := SaveImage(header, dir, "avatars", 0)
	require.NoError(t, err)

	require.NoError(t, Remove(dir, result.Path))
	_, err = os.Stat(FilePath(dir, result.Path))
	assert.True(t, os.IsNotExist(err))

	// Removing again, or removing nothing, is not an error
	assert.NoError(t, Remove(dir, result.Path))
	assert.NoError(t, Remove(dir, ""))
}
