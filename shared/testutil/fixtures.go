// Package testutil provides byte fixtures with real content signatures for
// tests across the module.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	return img
}

func PNG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h)); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func JPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(w, h), nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func GIF(t testing.TB, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, solid(w, h), nil); err != nil {
		t.Fatalf("gif.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// MP4 is an ftyp box with the isom brand followed by padding.
func MP4() []byte {
	b := []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2avc1mp41")
	return append(b, make([]byte, 64)...)
}

func WebP() []byte {
	b := []byte("RIFF\x24\x00\x00\x00WEBPVP8 \x18\x00\x00\x00")
	return append(b, make([]byte, 24)...)
}

func WAV() []byte {
	b := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00\x44\xac\x00\x00\x88\x58\x01\x00\x02\x00\x10\x00data\x00\x00\x00\x00")
	return b
}

func MP3() []byte {
	b := []byte("ID3\x03\x00\x00\x00\x00\x00\x0a")
	return append(b, make([]byte, 32)...)
}

func PDF() []byte {
	return []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
}

// Binary has no recognisable signature.
func Binary() []byte {
	return []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xfd, 0x00, 0x10, 0x9c, 0x00}
}

// WriteTemp writes data to a fresh file in dir and returns its path.
func WriteTemp(t testing.TB, dir string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, "upload-"+uuid.NewString())
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	return p
}
