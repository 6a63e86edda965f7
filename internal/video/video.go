// Package video pulls single still frames out of a recording.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/ivlev/procdoc/internal/analyzer"
	"github.com/ivlev/procdoc/internal/source"
	"github.com/ivlev/procdoc/internal/timecode"
)

var (
	// ErrNoFrameAtOffset is the recoverable failure: the offset is past the
	// end of the stream, the segment is damaged, or the decoder timed out.
	ErrNoFrameAtOffset = errors.New("no frame at offset")

	// ErrDecoderInit means no decoder could be started at all. It aborts a batch.
	ErrDecoderInit = errors.New("decoder initialization failed")
)

const DefaultTimeout = 20 * time.Second

// Extractor decodes the frame shown at a given offset of a recording.
type Extractor interface {
	Extract(ctx context.Context, v source.Video, at timecode.TimeCode) (image.Image, error)
}

// FFmpegExtractor starts one ffmpeg process per frame. Processes share
// nothing, so Extract may be called from several goroutines.
type FFmpegExtractor struct {
	Binary   string
	Timeout  time.Duration
	MaxWidth int               // 0 keeps the native width
	Detector analyzer.Detector // optional; blank frames count as missing
}

func NewFFmpegExtractor(binary string) *FFmpegExtractor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegExtractor{
		Binary:  binary,
		Timeout: DefaultTimeout,
	}
}

func (e *FFmpegExtractor) Extract(ctx context.Context, v source.Video, at timecode.TimeCode) (image.Image, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(callCtx, e.Binary, e.buildFFmpegArgs(v.Path(), at)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s: %v", ErrDecoderInit, e.Binary, err)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case callCtx.Err() != nil:
		return nil, noFrame(at, "decoder timed out after %s", timeout)
	case err != nil:
		return nil, noFrame(at, "%v: %s", err, lastLine(stderr.String()))
	case stdout.Len() == 0:
		return nil, noFrame(at, "decoder produced no frame")
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, noFrame(at, "decode png: %v", err)
	}

	if e.Detector != nil {
		if res := e.Detector.Detect(img); res.Blank {
			return nil, noFrame(at, "blank frame (edge ratio %.4f)", res.EdgeRatio)
		}
	}

	return FitWidth(img, e.MaxWidth), nil
}

// buildFFmpegArgs puts -ss before -i so ffmpeg seeks the input instead of
// decoding everything up to the offset.
func (e *FFmpegExtractor) buildFFmpegArgs(path string, at timecode.TimeCode) []string {
	return []string{
		"-nostdin",
		"-v", "error",
		"-ss", fmt.Sprintf("%.3f", at.Seconds()),
		"-i", path,
		"-frames:v", "1",
		"-an",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

func noFrame(at timecode.TimeCode, format string, args ...any) error {
	return fmt.Errorf("%w %s: %s", ErrNoFrameAtOffset, at, fmt.Sprintf(format, args...))
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
