package engine

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func testImageBytes(t *testing.T, encode func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for x := 0; x < 8; x++ {
		img.Set(x, 1, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func testPNG(t *testing.T) []byte {
	return testImageBytes(t, func(buf *bytes.Buffer, img image.Image) error {
		return png.Encode(buf, img)
	})
}

func testJPEG(t *testing.T) []byte {
	return testImageBytes(t, func(buf *bytes.Buffer, img image.Image) error {
		return jpeg.Encode(buf, img, nil)
	})
}

func TestDecodeSignaturePNG(t *testing.T) {
	raw := testPNG(t)
	encoded := base64.StdEncoding.EncodeToString(raw)

	out, err := DecodeSignature(encoded, 0)
	if err != nil {
		t.Fatalf("DecodeSignature: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Error("PNG payload should pass through unchanged")
	}
}

func TestDecodeSignatureDataURIPrefix(t *testing.T) {
	raw := testPNG(t)
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	out, err := DecodeSignature(payload, 0)
	if err != nil {
		t.Fatalf("DecodeSignature: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Error("data URI prefix should be stripped before decoding")
	}
}

func TestDecodeSignatureNormalizesJPEGToPNG(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(testJPEG(t))

	out, err := DecodeSignature(encoded, 0)
	if err != nil {
		t.Fatalf("DecodeSignature: %v", err)
	}

	_, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode normalized image: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
}

func TestDecodeSignatureEmpty(t *testing.T) {
	for _, payload := range []string{"", "   ", "data:image/png;base64,"} {
		var encErr *InvalidEncodingError
		if _, err := DecodeSignature(payload, 0); !errors.As(err, &encErr) {
			t.Errorf("DecodeSignature(%q) = %v, want InvalidEncodingError", payload, err)
		}
	}
}

func TestDecodeSignatureInvalidBase64(t *testing.T) {
	var encErr *InvalidEncodingError
	if _, err := DecodeSignature("not@valid@base64!", 0); !errors.As(err, &encErr) {
		t.Errorf("err = %v, want InvalidEncodingError", err)
	}
}

func TestDecodeSignatureNotAnImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("plain text, not an image"))

	var imgErr *UnsupportedImageFormatError
	if _, err := DecodeSignature(encoded, 0); !errors.As(err, &imgErr) {
		t.Errorf("err = %v, want UnsupportedImageFormatError", err)
	}
}

func TestDecodeSignatureTooLargeBeforeDecode(t *testing.T) {
	// Syntactically invalid base64, but long enough to exceed the cap;
	// the size check must reject it before any decoding happens
	payload := strings.Repeat("!", 4000)

	var sizeErr *PayloadTooLargeError
	if _, err := DecodeSignature(payload, 1024); !errors.As(err, &sizeErr) {
		t.Fatalf("err = %v, want PayloadTooLargeError", err)
	}
	if sizeErr.MaxSize != 1024 {
		t.Errorf("MaxSize = %d, want 1024", sizeErr.MaxSize)
	}
}

func TestDecodedSize(t *testing.T) {
	cases := []struct {
		data []byte
	}{
		{[]byte("a")},
		{[]byte("ab")},
		{[]byte("abc")},
		{[]byte("abcd")},
		{make([]byte, 300)},
	}
	for _, tc := range cases {
		encoded := base64.StdEncoding.EncodeToString(tc.data)
		if got := decodedSize(encoded); got != int64(len(tc.data)) {
			t.Errorf("decodedSize(%d bytes encoded) = %d, want %d", len(tc.data), got, len(tc.data))
		}
	}
}
