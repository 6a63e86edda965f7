package analyzer

import (
	"image"
	"image/color"
	"sync"
	"testing"
)

func solid(w, h int, c color.Gray) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, c)
		}
	}
	return img
}

func TestContrastDetectorBlankFrame(t *testing.T) {
	detector := NewContrastDetector()

	for _, c := range []color.Gray{{Y: 0}, {Y: 128}, {Y: 255}} {
		res := detector.Detect(solid(640, 360, c))
		if !res.Blank {
			t.Errorf("solid %d frame not reported blank (edge ratio %.4f)", c.Y, res.EdgeRatio)
		}
	}
}

func TestContrastDetectorScreenLikeFrame(t *testing.T) {
	img := solid(640, 360, color.Gray{Y: 240})

	// A few dark "text rows" and a button outline.
	for row := 40; row < 300; row += 30 {
		for y := row; y < row+8; y++ {
			for x := 40; x < 500; x++ {
				img.SetGray(x, y, color.Gray{Y: 30})
			}
		}
	}

	res := NewContrastDetector().Detect(img)
	if res.Blank {
		t.Fatalf("screen-like frame reported blank (edge ratio %.4f)", res.EdgeRatio)
	}
	t.Logf("edge ratio %.4f", res.EdgeRatio)
}

func TestContrastDetectorTinyImage(t *testing.T) {
	res := NewContrastDetector().Detect(solid(2, 2, color.Gray{Y: 10}))
	if !res.Blank || res.EdgeRatio != 0 {
		t.Errorf("tiny image: %+v", res)
	}
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantNil bool
		wantErr bool
	}{
		{"contrast", false, false},
		{"", true, false},
		{"none", true, false},
		{"ocr", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)

			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantNil != (detector == nil) {
				t.Errorf("detector = %v, wantNil %v", detector, tt.wantNil)
			}
		})
	}
}

func screenLike(w, h int) *image.Gray {
	img := solid(w, h, color.Gray{Y: 240})
	for row := h / 10; row < h*8/10; row += h / 12 {
		for y := row; y < row+h/45+1; y++ {
			for x := w / 16; x < w*3/4; x++ {
				img.SetGray(x, y, color.Gray{Y: 30})
			}
		}
	}
	return img
}

func TestDetectReusesScratchWithoutLeaking(t *testing.T) {
	d := NewContrastDetector()
	before := samples.sizes()

	// Same recording size each time: one pool, and a blank frame after a busy
	// one must not see the previous frame's pixels.
	for i := 0; i < 3; i++ {
		if res := d.Detect(screenLike(1280, 720)); res.Blank {
			t.Fatalf("pass %d: screen-like frame reported blank", i)
		}
		if res := d.Detect(solid(1280, 720, color.Gray{Y: 90})); !res.Blank {
			t.Fatalf("pass %d: solid frame after a busy one not blank (edge ratio %.4f)", i, res.EdgeRatio)
		}
	}
	if got := samples.sizes() - before; got > 1 {
		t.Errorf("%d new sample sizes for one frame size", got)
	}
}

func TestDetectConcurrent(t *testing.T) {
	d := NewContrastDetector()
	busy, blank := screenLike(800, 600), solid(800, 600, color.Gray{Y: 10})

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if d.Detect(busy).Blank {
					errs <- "busy frame reported blank"
				}
				if !d.Detect(blank).Blank {
					errs <- "blank frame reported busy"
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
		break
	}
}

func TestSampleSize(t *testing.T) {
	d := NewContrastDetector()
	tests := []struct {
		in   image.Rectangle
		want image.Point
	}{
		{image.Rect(0, 0, 1920, 1080), image.Pt(320, 180)},
		{image.Rect(0, 0, 200, 100), image.Pt(200, 100)},
		{image.Rect(0, 0, 6400, 10), image.Pt(320, 1)},
	}
	for _, tt := range tests {
		if got := d.sampleSize(tt.in); got != tt.want {
			t.Errorf("sampleSize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
