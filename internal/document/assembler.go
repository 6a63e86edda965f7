package document

import (
	"log"

	"github.com/ivlev/procdoc/internal/engine"
)

// Resolve binds screenshot node i to frames[i]. Binding is by position only:
// a frame dropped during extraction shifts every later screenshot by one.
// References past the end of frames resolve to a missing-image marker.
func Resolve(nodes []Node, frames []engine.Frame) []ResolvedNode {
	out := make([]ResolvedNode, len(nodes))
	for i, n := range nodes {
		out[i] = ResolvedNode{Node: n}
		if n.Kind != KindScreenshot {
			continue
		}
		if n.Index >= 0 && n.Index < len(frames) {
			fr := frames[n.Index]
			out[i].Frame = &fr
		} else {
			out[i].Missing = true
		}
	}
	return out
}

// Assemble parses text with the default rules and resolves it against frames.
func Assemble(text string, frames []engine.Frame) []ResolvedNode {
	resolved := Resolve(Parse(text), frames)

	s := Summarize(resolved, len(frames))
	if s.Missing > 0 {
		log.Printf("[!] %d of %d screenshot references have no frame (%d frames available)", s.Missing, s.Screenshots, len(frames))
	}
	if s.Unused > 0 {
		log.Printf("[*] %d extracted frames are not referenced by the document", s.Unused)
	}
	return resolved
}

// Summary counts how the screenshot references of a document resolved.
type Summary struct {
	Nodes       int `json:"nodes"`
	Screenshots int `json:"screenshots"`
	Bound       int `json:"bound"`
	Missing     int `json:"missing"`
	Unused      int `json:"unused"` // frames no reference reached
}

func Summarize(nodes []ResolvedNode, frameCount int) Summary {
	s := Summary{Nodes: len(nodes)}
	for _, n := range nodes {
		if n.Kind != KindScreenshot {
			continue
		}
		s.Screenshots++
		if n.Missing {
			s.Missing++
		} else {
			s.Bound++
		}
	}
	if frameCount > s.Bound {
		s.Unused = frameCount - s.Bound
	}
	return s
}
