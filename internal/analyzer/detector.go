// Package analyzer inspects decoded frames before they are accepted.
package analyzer

import "image"

// Result describes how much visible structure a frame has.
type Result struct {
	EdgeRatio float64 // share of sampled pixels on an edge, 0.0-1.0
	Blank     bool    // no usable content (solid black, grey or white frame)
}

// Detector is the interface for frame analysis strategies
type Detector interface {
	Detect(img image.Image) Result
}
