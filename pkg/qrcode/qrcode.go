// Package qrcode renders visitor credential tokens as PNG images.
package qrcode

import (
	"errors"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels used when no size is configured.
const DefaultSize = 250

// ErrEmptyContent is returned when asked to encode an empty token.
var ErrEmptyContent = errors.New("qrcode: content is empty")

// Encoder produces PNG encoded QR codes.
type Encoder struct {
	size  int
	level goqrcode.RecoveryLevel
}

// NewEncoder returns an encoder producing images of the given size.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{size: size, level: goqrcode.Medium}
}

// PNG renders content as a PNG image.
func (e *Encoder) PNG(content string) ([]byte, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	return goqrcode.Encode(content, e.level, e.size)
}
