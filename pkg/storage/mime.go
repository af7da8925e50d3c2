package storage

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
)

// MIMEOctetStream is returned when nothing better is known.
const MIMEOctetStream = "application/octet-stream"

const mimeDetectionBytes = 512

// imageTypes lists the image types accepted for template images.
var imageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/bmp":     ".bmp",
}

// DetectImageType sniffs data and falls back to the key extension, which
// catches SVG since it sniffs as text.
func DetectImageType(key string, data []byte) string {
	ct := normalizeMIME(http.DetectContentType(head(data)))
	if _, ok := imageTypes[ct]; ok {
		return ct
	}
	if byExt := normalizeMIME(mime.TypeByExtension(path.Ext(key))); byExt != "" {
		if _, ok := imageTypes[byExt]; ok {
			return byExt
		}
	}
	return ct
}

// IsImage reports whether contentType is an accepted image type.
func IsImage(contentType string) bool {
	_, ok := imageTypes[normalizeMIME(contentType)]
	return ok
}

// ExtFromMIME returns the preferred extension for an image type, or "".
func ExtFromMIME(contentType string) string {
	return imageTypes[normalizeMIME(contentType)]
}

// readImage buffers r, enforcing maxSize, and returns the data with its
// detected content type.
func readImage(key string, r io.Reader, maxSize int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read %s: %w", ErrUploadFailed, key, err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", fmt.Errorf("%w: %s is over %d bytes", ErrFileTooLarge, key, maxSize)
	}

	ct := DetectImageType(key, data)
	if !IsImage(ct) {
		return nil, "", fmt.Errorf("%w: %s is %s", ErrNotImage, key, ct)
	}
	return data, ct, nil
}

func head(data []byte) []byte {
	if len(data) > mimeDetectionBytes {
		return data[:mimeDetectionBytes]
	}
	return data
}

func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}
