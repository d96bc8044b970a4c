package capture

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsRequireOneTarget(t *testing.T) {
	_, err := PNG(context.Background(), Options{})
	assert.Error(t, err)

	_, err = PNG(context.Background(), Options{URL: "http://x", HTML: []byte("<p>")})
	assert.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{URL: "http://127.0.0.1"}
	require.NoError(t, o.normalize())
	assert.Equal(t, DefaultWidth, o.Width)
	assert.Equal(t, DefaultHeight, o.Height)
	assert.Equal(t, 30*time.Second, o.Timeout)
}

func TestWriteFileWithChromium(t *testing.T) {
	found := false
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("no Chromium binary available")
	}

	out := filepath.Join(t.TempDir(), "preview.png")
	err := WriteFile(context.Background(), out, Options{
		HTML:    []byte(`<!DOCTYPE html><html><body data-ready="true"><table><tr><td>A3HA</td></tr></table></body></html>`),
		Timeout: 20 * time.Second,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}
