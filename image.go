package gallery

import (
	"encoding/base64"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadBytes is the default limit on decoded image size (10MB).
const DefaultMaxUploadBytes = 10 * 1024 * 1024

// ImagePayload is a decoded image with its sniffed content type.
type ImagePayload struct {
	Data        []byte
	ContentType string
	Extension   string
}

// IsImageType reports whether a sniffed content type is an image of any format.
func IsImageType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// DecodeImageData decodes an upload payload given either as a data URI
// ("data:image/png;base64,...") or as raw base64. The content type is sniffed
// from the bytes, not taken from the URI header. maxBytes <= 0 disables the
// size check.
func DecodeImageData(s string, maxBytes int) (*ImagePayload, error) {
	p, err := decodePayload(s)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && len(p.Data) > maxBytes {
		return nil, Invalid("Image exceeds maximum size of %d bytes", maxBytes)
	}
	if !IsImageType(p.ContentType) {
		return nil, Invalid("Image data is not an image (detected %q)", p.ContentType)
	}
	return p, nil
}

// DecodeInlineImage decodes stored inline image data without applying upload
// restrictions.
func DecodeInlineImage(s string) (*ImagePayload, error) {
	return decodePayload(s)
}

func decodePayload(s string) (*ImagePayload, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		header, body, ok := strings.Cut(s, ",")
		if !ok {
			return nil, Invalid("Malformed data URI")
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, Invalid("Data URI must be base64 encoded")
		}
		s = body
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, Invalid("No image data provided")
	}

	data, err := decodeBase64(s)
	if err != nil {
		return nil, WrapError(EINVALID, "Image data is not valid base64", err)
	}
	if len(data) == 0 {
		return nil, Invalid("No image data provided")
	}

	mt := mimetype.Detect(data)
	return &ImagePayload{
		Data:        data,
		ContentType: mt.String(),
		Extension:   mt.Extension(),
	}, nil
}

func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
