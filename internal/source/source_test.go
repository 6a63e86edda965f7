package source

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"), "ffprobe")
	if !errors.Is(err, ErrUnreadableVideo) {
		t.Fatalf("err = %v, want ErrUnreadableVideo", err)
	}
}

func TestOpenFileDirectory(t *testing.T) {
	_, err := OpenFile(context.Background(), t.TempDir(), "ffprobe")
	if !errors.Is(err, ErrUnreadableVideo) {
		t.Fatalf("err = %v, want ErrUnreadableVideo", err)
	}
}

func TestOpenFileWithoutProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0644); err != nil {
		t.Fatal(err)
	}

	v, err := OpenFile(context.Background(), path, "procdoc-no-such-ffprobe")
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if v.Path() != path {
		t.Errorf("Path = %q", v.Path())
	}
	if v.Duration().Seconds() != 0 {
		t.Errorf("Duration = %v, want 0 without ffprobe", v.Duration())
	}
	if err := v.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := v.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestReadImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := ReadImage(path)
	if err != nil {
		t.Fatalf("ReadImage: %v", err)
	}
	if got.Bounds().Dx() != 8 || got.Bounds().Dy() != 4 {
		t.Errorf("bounds = %v", got.Bounds())
	}

	w, h, err := ImageSize(path)
	if err != nil || w != 8 || h != 4 {
		t.Errorf("ImageSize = %d, %d, %v", w, h, err)
	}
}
