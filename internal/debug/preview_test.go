package debug

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/deanbilledo/zen-drive/internal/terrain"
)

func TestPreviewIsDeterministic(t *testing.T) {
	a, err := Preview(terrain.NewClassifier(12345), 0, 0, 2000, 64, 64)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	b, err := Preview(terrain.NewClassifier(12345), 0, 0, 2000, 64, 64)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	var bufA, bufB bytes.Buffer
	if err := png.Encode(&bufA, a); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := png.Encode(&bufB, b); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(bufA.Bytes(), bufB.Bytes()) {
		t.Error("previews of the same seed differ")
	}
}

func TestPreviewDownscales(t *testing.T) {
	img, err := Preview(terrain.NewClassifier(7), 500, -500, 1000, 128, 32)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if got := img.Bounds().Dx(); got != 32 {
		t.Errorf("output width = %d, want 32", got)
	}
}

func TestPreviewRejectsBadDimensions(t *testing.T) {
	if _, err := Preview(terrain.NewClassifier(1), 0, 0, 100, 1, 32); err == nil {
		t.Error("expected error for a single sample")
	}
	if _, err := Preview(terrain.NewClassifier(1), 0, 0, 100, 64, 0); err == nil {
		t.Error("expected error for zero output size")
	}
}

func TestSavePreviewWritesDecodablePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "biomes.png")
	if err := SavePreview(path, terrain.NewClassifier(12345), 0, 0, 2000, 64, 64); err != nil {
		t.Fatalf("SavePreview: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 64 {
		t.Errorf("decoded size = %v, want 64x64", img.Bounds())
	}
}
