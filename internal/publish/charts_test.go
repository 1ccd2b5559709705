package publish

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSentimentWritesPNG(t *testing.T) {
	renderer := NewChartRenderer(t.TempDir())

	path, err := renderer.RenderSentiment(
		"Morning Sentiment",
		[]string{"us_futures", "european_futures", "volatility"},
		[]float64{0.8, -0.3, 1.2},
	)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	// PNG magic bytes.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestRenderSentimentValidatesInput(t *testing.T) {
	renderer := NewChartRenderer(t.TempDir())

	_, err := renderer.RenderSentiment("t", nil, nil)
	assert.Error(t, err)

	_, err = renderer.RenderSentiment("t", []string{"a", "b"}, []float64{1})
	assert.Error(t, err)
}

func TestCleanupRemovesChart(t *testing.T) {
	renderer := NewChartRenderer(t.TempDir())

	path, err := renderer.RenderSentiment("t", []string{"fx"}, []float64{0.5})
	require.NoError(t, err)

	renderer.Cleanup(path)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Cleanup of an empty path is a no-op.
	renderer.Cleanup("")
}
