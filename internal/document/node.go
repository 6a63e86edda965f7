// Package document parses generated procedure text and binds its screenshot
// markers to extracted frames.
package document

import "github.com/ivlev/procdoc/internal/engine"

// Kind tags a document node.
type Kind int

const (
	KindText Kind = iota
	KindTitle
	KindSection
	KindSubsection
	KindStep
	KindBullet
	KindScreenshot
)

var kindNames = map[Kind]string{
	KindText:       "text",
	KindTitle:      "title",
	KindSection:    "section",
	KindSubsection: "subsection",
	KindStep:       "step",
	KindBullet:     "bullet",
	KindScreenshot: "screenshot",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Node is one line of the parsed document. Index is only meaningful for
// screenshots: it is the zero-based count of screenshot markers before it.
// Text on a screenshot node is an optional caption.
type Node struct {
	Kind  Kind
	Text  string
	Index int
}

// ResolvedNode is a node with its screenshot, if any, looked up. Frame is
// nil and Missing is true when the document references more screenshots
// than were extracted.
type ResolvedNode struct {
	Node
	Frame   *engine.Frame
	Missing bool
}
