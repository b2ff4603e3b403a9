package clipboard

import (
	"context"
	"os/exec"
	"testing"

	"github.com/alexjbarnes/clip-sync/internal/sniff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_TextPayload(t *testing.T) {
	p := classify([]byte("hello"), "")
	assert.Equal(t, sniff.Text, p.Kind)
	assert.Equal(t, "txt", p.Ext)
	assert.Equal(t, []byte("hello"), p.Data)
	assert.Empty(t, p.TempPath)
}

func TestClassify_ImagePayloadFromOSHint(t *testing.T) {
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

	p := classify(png, "image/png")
	assert.Equal(t, sniff.Binary, p.Kind)
	assert.Equal(t, "png", p.Ext)
}

func TestClassify_DeclaredImageMIMEBeatsASCIICheck(t *testing.T) {
	// A declared image MIME outranks the printable-ASCII rule.
	p := classify([]byte("definitely text"), "image/png")
	assert.Equal(t, sniff.Binary, p.Kind)
}

// --- exec helpers ---

func requireTool(t *testing.T, name string) {
	t.Helper()

	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestRunCapture_CollectsStdout(t *testing.T) {
	requireTool(t, "echo")

	out, err := runCapture(context.Background(), "echo", "-n", "captured")
	require.NoError(t, err)
	assert.Equal(t, []byte("captured"), out)
}

func TestRunCapture_FailureIncludesStderr(t *testing.T) {
	requireTool(t, "sh")

	_, err := runCapture(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oops")
}

func TestRunFeed_PipesStdinThrough(t *testing.T) {
	requireTool(t, "sh")

	// cat consumes stdin fully; success means the pump and wait both finished.
	err := runFeed(context.Background(), []byte("payload bytes"), "sh", "-c", "cat > /dev/null")
	assert.NoError(t, err)
}

func TestRunFeed_CommandFailure(t *testing.T) {
	requireTool(t, "sh")

	err := runFeed(context.Background(), []byte("x"), "sh", "-c", "exit 5")
	require.Error(t, err)
}

func TestHaveCommand(t *testing.T) {
	assert.False(t, haveCommand("definitely-not-a-real-tool-name"))
}
