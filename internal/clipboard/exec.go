package clipboard

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"golang.org/x/sync/errgroup"
)

// runCapture runs a command and returns its stdout. Stderr is folded
// into the error on failure.
func runCapture(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running %s: %w (%s)", name, err, bytes.TrimSpace(stderr.Bytes()))
	}

	return stdout.Bytes(), nil
}

// runFeed runs a command with data on its stdin. The stdin pump and the
// process wait run as a goroutine pair so a tool that exits without
// draining stdin cannot wedge the write.
func runFeed(ctx context.Context, data []byte, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening stdin for %s: %w", name, err)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", name, err)
	}

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer stdin.Close()

		if _, err := stdin.Write(data); err != nil {
			return fmt.Errorf("feeding %s: %w", name, err)
		}

		return nil
	})

	g.Go(func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("running %s: %w (%s)", name, err, bytes.TrimSpace(stderr.Bytes()))
		}

		return nil
	})

	return g.Wait()
}

// haveCommand reports whether a tool is present on PATH.
func haveCommand(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
