// Package storage persists recipe images and avatars.
package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidImage is returned for payloads that are not a base64 image data URI.
var ErrInvalidImage = errors.New("image must be a base64 data URI of type image/*")

const maxImageBytes = 10 << 20

// Image is a decoded upload.
type Image struct {
	ContentType string
	Ext         string
	Data        []byte
}

// ImageStore saves images and returns their public URL.
type ImageStore interface {
	Save(ctx context.Context, prefix string, img *Image) (string, error)
	// Delete removes an image by the URL Save returned. Unknown URLs are ignored.
	Delete(ctx context.Context, url string) error
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>".
func DecodeDataURI(s string) (*Image, error) {
	meta, payload, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return nil, ErrInvalidImage
	}

	mediaType, found := strings.CutPrefix(meta, "data:")
	if !found {
		return nil, ErrInvalidImage
	}
	contentType, encoding, _ := strings.Cut(mediaType, ";")
	contentType = strings.ToLower(contentType)
	if encoding != "base64" || !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidImage
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 || len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: size must be between 1 byte and %d bytes", ErrInvalidImage, maxImageBytes)
	}

	return &Image{ContentType: contentType, Ext: extensionFor(contentType), Data: data}, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		return "." + sub
	}
	return ""
}

// objectKey builds a unique key under prefix.
func objectKey(prefix string, img *Image) string {
	return strings.Trim(prefix, "/") + "/" + uuid.NewString() + img.Ext
}
