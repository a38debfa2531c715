package spec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRunSpec(t *testing.T) {
	specYAML := `
run:
  input: /data/tiles/test_dem.tif
  timeout_seconds: 600
  poll_interval_seconds: 5
  failure_threshold: 5
`
	params, err := ParseRunSpec(specYAML)
	require.NoError(t, err)

	assert.Equal(t, "/data/tiles/test_dem.tif", params.LocalPath)
	assert.Equal(t, "test_dem.tif", params.Filename, "filename defaults to the input basename")
	assert.False(t, params.SkipUpload)
	assert.Equal(t, 600*time.Second, params.Policy.MaxWait)
	assert.Equal(t, 5*time.Second, params.Policy.Interval)
	assert.Equal(t, 5, params.Policy.FailureThreshold)
}

func TestParseRunSpecDefaults(t *testing.T) {
	params, err := ParseRunSpec("run:\n  input: ./tile.tif\n")
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, params.Policy.MaxWait)
	assert.Equal(t, 10*time.Second, params.Policy.Interval)
	assert.Equal(t, 3, params.Policy.FailureThreshold)
}

func TestParseRunSpecSkipUpload(t *testing.T) {
	specYAML := `
run:
  filename: staged.tif
  skip_upload: true
`
	params, err := ParseRunSpec(specYAML)
	require.NoError(t, err)

	assert.True(t, params.SkipUpload)
	assert.Equal(t, "staged.tif", params.Filename)
	assert.Empty(t, params.LocalPath)
}

func TestParseRunSpecRejectsEmptyRun(t *testing.T) {
	_, err := ParseRunSpec("run: {}\n")
	assert.Error(t, err)
}

func TestParseRunSpecRejectsUploadWithoutInput(t *testing.T) {
	_, err := ParseRunSpec("run:\n  filename: tile.tif\n")
	assert.Error(t, err)
}

func TestParseRunSpecRejectsBadYAML(t *testing.T) {
	_, err := ParseRunSpec("run: [broken")
	assert.Error(t, err)
}
