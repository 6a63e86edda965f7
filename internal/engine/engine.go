// Package engine turns a committed moment list into an ordered frame sequence.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/procdoc/internal/moments"
	"github.com/ivlev/procdoc/internal/source"
	"github.com/ivlev/procdoc/internal/video"
)

// ErrNothingToExtract is returned for an empty moment list. It wraps
// moments.ErrEmptyCommit so callers can treat both the same way.
var ErrNothingToExtract = fmt.Errorf("nothing to extract: %w", moments.ErrEmptyCommit)

// Frame is a decoded still bound to the moment it was taken for. Ordinal is
// its position in the extracted sequence.
type Frame struct {
	Moment  moments.Moment
	Image   image.Image
	Ordinal int
}

// Batch extracts one frame per moment. A moment whose frame cannot be
// decoded is dropped; the rest keep their order.
type Batch struct {
	Extractor  video.Extractor
	Workers    int
	OnProgress func(done, total int)
	OnDrop     func(m moments.Moment, err error)
}

func NewBatch(ex video.Extractor, workers int) *Batch {
	return &Batch{
		Extractor: ex,
		Workers:   workers,
		OnProgress: func(done, total int) {
			fmt.Printf("[>] Ready: %d/%d\n", done, total)
		},
	}
}

// Run extracts frames for list, which must already be in time order. Run
// takes ownership of v and closes it before returning. A decoder that cannot
// start, or a cancelled ctx, aborts the whole batch.
func (b *Batch) Run(ctx context.Context, v source.Video, list []moments.Moment) ([]Frame, error) {
	defer v.Close()

	if len(list) == 0 {
		return nil, ErrNothingToExtract
	}

	workers := b.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(list) {
		workers = len(list)
	}

	startTime := time.Now()
	images := make([]image.Image, len(list))

	var mu sync.Mutex
	done := 0
	finish := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if b.OnProgress != nil {
			b.OnProgress(done, len(list))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, m := range list {
		// Cancellation is checked between extractions, not inside one.
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			img, err := b.Extractor.Extract(gctx, v, m.Time)
			switch {
			case errors.Is(err, video.ErrNoFrameAtOffset):
				log.Printf("[!] Dropping moment %d at %s: %v", m.ID, m.Time, err)
				if b.OnDrop != nil {
					mu.Lock()
					b.OnDrop(m, err)
					mu.Unlock()
				}
			case err != nil:
				return fmt.Errorf("moment %d at %s: %w", m.ID, m.Time, err)
			default:
				images[i] = img
			}

			finish()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// The loop can stop early on cancellation without any goroutine failing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frames := make([]Frame, 0, len(list))
	for i, img := range images {
		if img == nil {
			continue
		}
		frames = append(frames, Frame{
			Moment:  list[i],
			Image:   img,
			Ordinal: len(frames),
		})
	}

	log.Printf("[*] Extracted %d/%d frames in %.2fs", len(frames), len(list), time.Since(startTime).Seconds())
	return frames, nil
}
