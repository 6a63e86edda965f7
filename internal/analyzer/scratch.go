package analyzer

import (
	"image"
	"sync"
)

// scratch holds the buffers of one analysis pass: the downsampled frame and
// its luma plane.
type scratch struct {
	rgba *image.RGBA
	gray *image.Gray
}

// scratchPool recycles scratch buffers per sample size. Every frame of a
// recording downsamples to the same size, so a batch keeps reusing the
// buffers of at most one or two sizes.
type scratchPool struct {
	mu    sync.Mutex
	pools map[image.Point]*sync.Pool
}

var samples = &scratchPool{pools: make(map[image.Point]*sync.Pool)}

func (p *scratchPool) get(size image.Point) *scratch {
	p.mu.Lock()
	pool, ok := p.pools[size]
	if !ok {
		pool = &sync.Pool{
			New: func() any {
				r := image.Rect(0, 0, size.X, size.Y)
				return &scratch{rgba: image.NewRGBA(r), gray: image.NewGray(r)}
			},
		}
		p.pools[size] = pool
	}
	p.mu.Unlock()

	return pool.Get().(*scratch)
}

func (p *scratchPool) put(s *scratch) {
	if s == nil {
		return
	}
	p.mu.Lock()
	pool := p.pools[s.rgba.Rect.Size()]
	p.mu.Unlock()

	if pool != nil {
		pool.Put(s)
	}
}

// sizes reports how many sample sizes have a pool.
func (p *scratchPool) sizes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools)
}
