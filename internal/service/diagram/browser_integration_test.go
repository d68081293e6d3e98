//go:build integration

package diagram

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Rod downloads Chromium on the first run if ROD_BROWSER_BIN is not set.
func TestBrowserRenderIntegration(t *testing.T) {
	b := Browser{Bin: os.Getenv("ROD_BROWSER_BIN"), NoSandbox: os.Getenv("CI") == "true"}
	require.NoError(t, b.Init())
	defer b.Close()

	svg, err := b.Render(context.Background(), "diagram-0", "graph TD\nA-->B")
	require.NoError(t, err)
	require.Contains(t, svg, "<svg")
	require.Contains(t, svg, `id="diagram-0"`)

	_, err = b.Render(context.Background(), "diagram-1", "this is not a diagram")
	require.Error(t, err)
}
