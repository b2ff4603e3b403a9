// Package clipboard provides the payload model and thin, exec-based
// access to the operating system clipboard. The platform glue reads and
// writes raw bytes; classification always goes through the sniffer so a
// payload's kind reflects its content, never just what the OS reported.
package clipboard

import (
	"context"
	"errors"

	"github.com/alexjbarnes/clip-sync/internal/sniff"
)

// ErrEmpty is returned when the system clipboard holds nothing usable.
var ErrEmpty = errors.New("clipboard is empty")

// ErrUnavailable is returned when no clipboard tool is present on the
// system (e.g. a headless host without xclip or wl-clipboard).
var ErrUnavailable = errors.New("no clipboard tool available")

// Payload is one clipboard snapshot in transit between the system
// clipboard and the remote slot.
type Payload struct {
	// Kind is derived from content inspection via the sniffer.
	Kind sniff.Kind

	// Data is the raw payload bytes.
	Data []byte

	// Ext is the suggested display extension, without a leading dot.
	Ext string

	// TempPath, when non-empty, names a staging file backing this
	// payload. The consumer removes it after the payload is consumed,
	// on every exit path.
	TempPath string
}

// Reader captures the current clipboard contents.
type Reader interface {
	Read(ctx context.Context) (Payload, error)
}

// Writer replaces the clipboard contents.
type Writer interface {
	Write(ctx context.Context, p Payload) error
}

// classify builds a Payload from captured bytes. hint is the MIME type
// the OS reported, used only as a fallback per the sniffer's rules.
func classify(data []byte, hint string) Payload {
	res := sniff.Classify(data, hint)

	return Payload{
		Kind: res.Kind,
		Data: data,
		Ext:  res.Ext,
	}
}
