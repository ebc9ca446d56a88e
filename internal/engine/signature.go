package engine

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
)

// DefaultMaxSignatureBytes is the default decoded-size cap for signature
// payloads (5 MiB)
const DefaultMaxSignatureBytes = 5 * 1024 * 1024

// DecodeSignature decodes a base64-encoded signature image and normalizes
// it to PNG. An optional data URI prefix (data:image/png;base64,...) is
// stripped first. The decoded size is computed from the encoded length and
// checked against maxSize before the payload is decoded, so an oversized
// payload is rejected cheaply.
func DecodeSignature(payload string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSignatureBytes
	}

	clean := stripDataURIPrefix(payload)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, &InvalidEncodingError{Reason: "empty payload"}
	}

	if size := decodedSize(clean); size > maxSize {
		return nil, &PayloadTooLargeError{Size: size, MaxSize: maxSize}
	}

	raw, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, &InvalidEncodingError{Reason: err.Error()}
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &UnsupportedImageFormatError{Reason: err.Error()}
	}

	if format == "png" {
		return raw, nil
	}

	// Normalize to canonical PNG
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &UnsupportedImageFormatError{Reason: err.Error()}
	}
	return buf.Bytes(), nil
}

// stripDataURIPrefix removes a leading data:<mime>;base64, prefix if present
func stripDataURIPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}

// decodedSize computes the decoded byte count from the encoded length.
// Base64 encodes 3 bytes into 4 characters.
func decodedSize(encoded string) int64 {
	padding := int64(0)
	for i := len(encoded) - 1; i >= 0 && encoded[i] == '='; i-- {
		padding++
	}
	return int64(len(encoded))*3/4 - padding
}
