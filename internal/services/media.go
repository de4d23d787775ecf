package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/anonto42/yatube/backend/internal/validators"
	"github.com/anonto42/yatube/backend/pkg/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// MaxImageSide bounds both dimensions of a stored post image.
	MaxImageSide = 1920
	// MaxImagePixels bounds the decoded size of an upload before it is allocated.
	MaxImagePixels = 40_000_000
)

const invalidImageMsg = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// ImageUpload is an image as it arrives from the client.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

// Image is a decoded, normalized upload ready to be written.
type Image struct {
	data        []byte
	ext         string
	contentType string
}

var formatInfo = map[imaging.Format]struct{ ext, contentType string }{
	imaging.JPEG: {".jpg", "image/jpeg"},
	imaging.PNG:  {".png", "image/png"},
	imaging.GIF:  {".gif", "image/gif"},
	imaging.TIFF: {".tiff", "image/tiff"},
	imaging.BMP:  {".bmp", "image/bmp"},
}

// MediaService owns post images in the storage backend.
type MediaService struct {
	store storage.Storage
	log   *zap.Logger
}

func NewMediaService(store storage.Storage, log *zap.Logger) *MediaService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MediaService{store: store, log: log}
}

// Decode validates the upload, refuses images above MaxImagePixels and shrinks it to fit MaxImageSide, keeping its format.
// Files whose extension names no known format are re-encoded as JPEG.
func (m *MediaService) Decode(upload *ImageUpload) (*Image, error) {
	raw, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, validators.NewValidationError("image", invalidImageMsg)
	}

	src, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, validators.NewValidationError("image", invalidImageMsg)
	}

	format, err := imaging.FormatFromFilename(upload.Filename)
	if err != nil {
		format = imaging.JPEG
	}

	b := src.Bounds()
	if b.Dx() > MaxImageSide || b.Dy() > MaxImageSide {
		src = imaging.Fit(src, MaxImageSide, MaxImageSide, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, format, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	info := formatInfo[format]
	return &Image{data: buf.Bytes(), ext: info.ext, contentType: info.contentType}, nil
}

// Store writes a decoded image and returns its storage key.
func (m *MediaService) Store(ctx context.Context, img *Image) (string, error) {
	key := path.Join("posts", uuid.NewString()+img.ext)
	if err := m.store.Write(ctx, key, bytes.NewReader(img.data), int64(len(img.data)), img.contentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// Delete removes a stored image. Failures are only logged.
func (m *MediaService) Delete(ctx context.Context, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if err := m.store.Delete(ctx, key); err != nil {
		m.log.Warn("delete image failed", zap.String("key", key), zap.Error(err))
	}
}

func (m *MediaService) URL(key string) string {
	return m.store.URL(key)
}
