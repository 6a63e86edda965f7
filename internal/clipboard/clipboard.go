// Package clipboard copies rendered documents to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

var ErrEmpty = errors.New("nothing to copy")

// Available reports whether a clipboard utility was found on this system.
func Available() bool {
	return !clipboard.Unsupported
}

// WriteAll replaces the clipboard content with text.
func WriteAll(text string) error {
	if text == "" {
		return ErrEmpty
	}
	if !Available() {
		return errors.New("no clipboard utility available (install xclip, xsel or wl-clipboard)")
	}
	return clipboard.WriteAll(text)
}
