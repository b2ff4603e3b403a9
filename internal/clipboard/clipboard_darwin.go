//go:build darwin

package clipboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexjbarnes/clip-sync/internal/sniff"
)

// System accesses the macOS clipboard through pbpaste/pbcopy for text
// and osascript for PNG image data.
type System struct{}

// NewSystem creates a clipboard accessor for macOS.
func NewSystem() *System {
	return &System{}
}

// Read captures the clipboard, preferring PNG image data when present.
// Image bytes are staged through a temporary file because osascript
// can only hand binary pasteboard classes to a file; the staging path
// is reported on the payload so the consumer can remove it.
func (s *System) Read(ctx context.Context) (Payload, error) {
	if data, path, err := s.readImage(ctx); err == nil && len(data) > 0 {
		p := classify(data, "image/png")
		p.TempPath = path

		return p, nil
	}

	data, err := runCapture(ctx, "pbpaste")
	if err != nil {
		return Payload{}, fmt.Errorf("reading clipboard: %w", err)
	}

	if len(data) == 0 {
		return Payload{}, ErrEmpty
	}

	return classify(data, ""), nil
}

// readImage asks the pasteboard for PNG data, writing it to a staging
// file. A pasteboard without image content makes osascript fail, which
// the caller treats as "fall back to text".
func (s *System) readImage(ctx context.Context) ([]byte, string, error) {
	stage := filepath.Join(os.TempDir(), fmt.Sprintf("clip-sync-%d.png", os.Getpid()))

	script := fmt.Sprintf(
		`set pngData to the clipboard as «class PNGf»
set f to open for access POSIX file %q with write permission
set eof of f to 0
write pngData to f
close access f`, stage)

	if _, err := runCapture(ctx, "osascript", "-e", script); err != nil {
		os.Remove(stage)
		return nil, "", err
	}

	data, err := os.ReadFile(stage) //nolint:gosec // G304: path built from os.TempDir above
	if err != nil {
		os.Remove(stage)
		return nil, "", err
	}

	return data, stage, nil
}

// Write replaces the clipboard contents with the payload.
func (s *System) Write(ctx context.Context, p Payload) error {
	if p.Kind == sniff.Binary {
		return s.writeImage(ctx, p)
	}

	return runFeed(ctx, p.Data, "pbcopy")
}

func (s *System) writeImage(ctx context.Context, p Payload) error {
	// A payload already staged on disk is read in place.
	stage := p.TempPath
	if stage == "" {
		stage = filepath.Join(os.TempDir(), fmt.Sprintf("clip-sync-restore-%d.png", os.Getpid()))
		defer os.Remove(stage)

		if err := os.WriteFile(stage, p.Data, 0o600); err != nil {
			return fmt.Errorf("staging image for clipboard: %w", err)
		}
	}

	script := fmt.Sprintf(`set the clipboard to (read (POSIX file %q) as «class PNGf»)`, stage)
	if _, err := runCapture(ctx, "osascript", "-e", script); err != nil {
		return fmt.Errorf("writing image to clipboard: %w", err)
	}

	return nil
}
