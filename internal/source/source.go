// Package source opens recordings for frame extraction.
package source

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/ivlev/procdoc/internal/system"
	"github.com/ivlev/procdoc/internal/timecode"
)

var ErrUnreadableVideo = errors.New("video file unreadable")

// Video is an open recording. Frame extractors seek it by path, the handle
// keeps the file pinned for the duration of a batch.
type Video interface {
	Path() string
	Duration() timecode.TimeCode
	Close() error
}

// FileVideo is a recording on the local filesystem.
type FileVideo struct {
	path     string
	file     *os.File
	duration timecode.TimeCode
	once     sync.Once
	closeErr error
}

// OpenFile opens path and probes its duration with ffprobe. A missing ffprobe
// only costs the duration; a file ffprobe cannot read is fatal.
func OpenFile(ctx context.Context, path, ffprobe string) (*FileVideo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableVideo, err)
	}

	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		f.Close()
		if err == nil {
			err = fmt.Errorf("%s is not a regular file", path)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadableVideo, err)
	}

	v := &FileVideo{path: path, file: f}

	seconds, err := system.ProbeDuration(ctx, ffprobe, path)
	switch {
	case errors.Is(err, system.ErrMissingBinary):
		log.Printf("[!] %v; recording duration unknown", err)
	case err != nil:
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreadableVideo, err)
	default:
		v.duration = timecode.FromSeconds(seconds)
	}

	return v, nil
}

func (v *FileVideo) Path() string { return v.path }

// Duration is zero when it could not be probed.
func (v *FileVideo) Duration() timecode.TimeCode { return v.duration }

// Close releases the file handle. Calling it more than once is harmless.
func (v *FileVideo) Close() error {
	v.once.Do(func() {
		v.closeErr = v.file.Close()
	})
	return v.closeErr
}
