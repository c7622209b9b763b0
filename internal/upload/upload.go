// Package upload validates and stores multipart image uploads. The MIME
// type is sniffed from file content, never trusted from the filename.
package upload

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// WebPrefix is the URL prefix under which stored files are served.
const WebPrefix = "/uploads"

var (
	ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")
	ErrNotAnImage   = errors.New("file is not a supported image type")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Result describes a stored image.
type Result struct {
	Path   string // web path, e.g. /uploads/photos/<name>.jpeg
	Size   int64
	Width  int
	Height int
	Format string
}

// SaveImage validates fileHeader as an image, stores it under
// baseDir/entity with a random filename and returns its metadata.
func SaveImage(fileHeader *multipart.FileHeader, baseDir, entity string, maxSize int64) (*Result, error) {
	if maxSize > 0 && fileHeader.Size > maxSize {
		return nil, ErrFileTooLarge
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer file.Close()

	// Sniff the real content type from the first 512 bytes
	buffer := make([]byte, 512)
	if _, err := file.Read(buffer); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	if !allowedImageTypes[http.DetectContentType(buffer)] {
		return nil, ErrNotAnImage
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind uploaded file: %w", err)
	}

	// Decode the header for dimensions and the real format
	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, ErrNotAnImage
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind uploaded file: %w", err)
	}

	dir := filepath.Join(baseDir, entity)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	// Extension comes from the decoder, not the original filename
	name := uuid.New().String() + "." + format
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create stored file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		return nil, fmt.Errorf("write stored file: %w", err)
	}

	return &Result{
		Path:   path.Join(WebPrefix, entity, name),
		Size:   written,
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}, nil
}

// FilePath maps a stored web path back to its location on disk.
func FilePath(baseDir, webPath string) string {
	rel := strings.TrimPrefix(webPath, WebPrefix+"/")
	return filepath.Join(baseDir, filepath.FromSlash(rel))
}

// Remove deletes the stored file behind a web path. A missing file is
// not an error.
func Remove(baseDir, webPath string) error {
	if webPath == "" {
		return nil
	}
	err := os.Remove(FilePath(baseDir, webPath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
