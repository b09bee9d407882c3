// Package dataurl handles the base64 data URLs chart screenshots travel as.
package dataurl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrMalformed = errors.New("malformed data URL")
	ErrNotImage  = errors.New("data URL is not an image")
	ErrTooLarge  = errors.New("image is too large")
)

type DataURL struct {
	MimeType string
	Base64   string
}

// Parse splits "data:<mime>;base64,<payload>". Only base64 payloads are
// accepted.
func Parse(s string) (DataURL, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return DataURL{}, ErrMalformed
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return DataURL{}, ErrMalformed
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return DataURL{}, ErrMalformed
	}
	return DataURL{MimeType: strings.ToLower(mime), Base64: payload}, nil
}

// ValidateImage checks that s is an image data URL whose decoded size does
// not exceed maxBytes. maxBytes <= 0 disables the size check.
func ValidateImage(s string, maxBytes int) (DataURL, error) {
	d, err := Parse(s)
	if err != nil {
		return DataURL{}, err
	}
	if !strings.HasPrefix(d.MimeType, "image/") {
		return DataURL{}, ErrNotImage
	}
	raw, err := base64.StdEncoding.DecodeString(d.Base64)
	if err != nil {
		return DataURL{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if maxBytes > 0 && len(raw) > maxBytes {
		return DataURL{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}
	return d, nil
}

// Encode builds a data URL, sniffing the type when mime is empty.
func Encode(mime string, data []byte) string {
	if mime == "" {
		mime = http.DetectContentType(data)
		if i := strings.Index(mime, ";"); i >= 0 {
			mime = mime[:i]
		}
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
