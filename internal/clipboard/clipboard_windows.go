//go:build windows

package clipboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexjbarnes/clip-sync/internal/sniff"
)

// System accesses the Windows clipboard through PowerShell's
// Get-Clipboard and Set-Clipboard cmdlets.
type System struct{}

// NewSystem creates a clipboard accessor for Windows.
func NewSystem() *System {
	return &System{}
}

func powershell(ctx context.Context, script string) ([]byte, error) {
	return runCapture(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

// Read captures the clipboard, preferring image content when present.
// Image bytes are staged through a temporary PNG because Get-Clipboard
// can only hand image data to a file; the staging path is reported on
// the payload so the consumer can remove it.
func (s *System) Read(ctx context.Context) (Payload, error) {
	stage := filepath.Join(os.TempDir(), fmt.Sprintf("clip-sync-%d.png", os.Getpid()))

	script := fmt.Sprintf(
		`$img = Get-Clipboard -Format Image; if ($img -ne $null) { $img.Save(%q, [System.Drawing.Imaging.ImageFormat]::Png); Write-Output "image" }`,
		stage)

	out, err := powershell(ctx, script)
	if err == nil && strings.Contains(string(out), "image") {
		data, err := os.ReadFile(stage) //nolint:gosec // G304: path built from os.TempDir above
		if err == nil && len(data) > 0 {
			p := classify(data, "image/png")
			p.TempPath = stage

			return p, nil
		}
	}

	os.Remove(stage)

	out, err = powershell(ctx, `Get-Clipboard -Raw`)
	if err != nil {
		return Payload{}, fmt.Errorf("reading clipboard: %w", err)
	}

	if len(out) == 0 {
		return Payload{}, ErrEmpty
	}

	return classify(out, ""), nil
}

// Write replaces the clipboard contents with the payload.
func (s *System) Write(ctx context.Context, p Payload) error {
	if p.Kind == sniff.Binary {
		// A payload already staged on disk is read in place.
		stage := p.TempPath
		if stage == "" {
			stage = filepath.Join(os.TempDir(), fmt.Sprintf("clip-sync-restore-%d.png", os.Getpid()))
			defer os.Remove(stage)

			if err := os.WriteFile(stage, p.Data, 0o600); err != nil {
				return fmt.Errorf("staging image for clipboard: %w", err)
			}
		}

		script := fmt.Sprintf(
			`Add-Type -AssemblyName System.Windows.Forms; $img = [System.Drawing.Image]::FromFile(%q); [System.Windows.Forms.Clipboard]::SetImage($img)`,
			stage)

		if _, err := powershell(ctx, script); err != nil {
			return fmt.Errorf("writing image to clipboard: %w", err)
		}

		return nil
	}

	return runFeed(ctx, p.Data, "powershell", "-NoProfile", "-NonInteractive", "-Command", "$input | Set-Clipboard")
}
