//go:build linux

package clipboard

import (
	"context"
	"os"
	"strings"

	"github.com/alexjbarnes/clip-sync/internal/sniff"
)

// System accesses the clipboard through wl-clipboard on Wayland or
// xclip on X11, whichever the session provides.
type System struct{}

// NewSystem creates a clipboard accessor for the current session.
func NewSystem() *System {
	return &System{}
}

func useWayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != "" && haveCommand("wl-paste")
}

// Read captures the clipboard. Image content is preferred when the
// clipboard offers it, matching what a paste into an image-aware
// application would produce; otherwise the text selection is taken.
func (s *System) Read(ctx context.Context) (Payload, error) {
	switch {
	case useWayland():
		return s.readWayland(ctx)
	case haveCommand("xclip"):
		return s.readX11(ctx)
	default:
		return Payload{}, ErrUnavailable
	}
}

func (s *System) readWayland(ctx context.Context) (Payload, error) {
	types, err := runCapture(ctx, "wl-paste", "--list-types")
	if err != nil {
		// wl-paste exits non-zero on an empty clipboard.
		return Payload{}, ErrEmpty
	}

	if strings.Contains(string(types), "image/png") {
		data, err := runCapture(ctx, "wl-paste", "--type", "image/png")
		if err != nil {
			return Payload{}, err
		}

		return classify(data, "image/png"), nil
	}

	data, err := runCapture(ctx, "wl-paste", "--no-newline")
	if err != nil {
		return Payload{}, err
	}

	if len(data) == 0 {
		return Payload{}, ErrEmpty
	}

	return classify(data, ""), nil
}

func (s *System) readX11(ctx context.Context) (Payload, error) {
	targets, err := runCapture(ctx, "xclip", "-selection", "clipboard", "-t", "TARGETS", "-o")
	if err != nil {
		return Payload{}, ErrEmpty
	}

	if strings.Contains(string(targets), "image/png") {
		data, err := runCapture(ctx, "xclip", "-selection", "clipboard", "-t", "image/png", "-o")
		if err != nil {
			return Payload{}, err
		}

		return classify(data, "image/png"), nil
	}

	data, err := runCapture(ctx, "xclip", "-selection", "clipboard", "-o")
	if err != nil {
		return Payload{}, err
	}

	if len(data) == 0 {
		return Payload{}, ErrEmpty
	}

	return classify(data, ""), nil
}

// Write replaces the clipboard contents with the payload.
func (s *System) Write(ctx context.Context, p Payload) error {
	switch {
	case os.Getenv("WAYLAND_DISPLAY") != "" && haveCommand("wl-copy"):
		if p.Kind == sniff.Binary {
			return runFeed(ctx, p.Data, "wl-copy", "--type", "image/png")
		}

		return runFeed(ctx, p.Data, "wl-copy")
	case haveCommand("xclip"):
		if p.Kind == sniff.Binary {
			return runFeed(ctx, p.Data, "xclip", "-selection", "clipboard", "-t", "image/png")
		}

		return runFeed(ctx, p.Data, "xclip", "-selection", "clipboard")
	default:
		return ErrUnavailable
	}
}
