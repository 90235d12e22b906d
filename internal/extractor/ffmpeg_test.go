package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameRate(t *testing.T) {
	tests := map[string]float64{
		"25/1":       25,
		"30000/1001": 30000.0 / 1001.0,
		"18":         18,
		"0/0":        0,
		"":           0,
	}
	for in, want := range tests {
		assert.InDelta(t, want, parseFrameRate(in), 1e-9, "input %q", in)
	}
}

func TestParseProbe(t *testing.T) {
	output := []byte(`{
		"streams": [{"avg_frame_rate": "18/1", "r_frame_rate": "18/1", "nb_frames": "216", "duration": "12.000000"}],
		"format": {"duration": "12.000000"}
	}`)

	info, err := parseProbe(output, "home.mp4")
	require.NoError(t, err)
	assert.Equal(t, "home.mp4", info.Path)
	assert.Equal(t, 18.0, info.FPS)
	assert.Equal(t, 216, info.TotalFrames)
	assert.Equal(t, 12.0, info.Duration())
}

func TestParseProbeDerivesFrameCount(t *testing.T) {
	output := []byte(`{
		"streams": [{"avg_frame_rate": "0/0", "r_frame_rate": "24/1"}],
		"format": {"duration": "10.5"}
	}`)

	info, err := parseProbe(output, "reel.mkv")
	require.NoError(t, err)
	assert.Equal(t, 24.0, info.FPS)
	assert.Equal(t, 252, info.TotalFrames)
}

func TestParseProbeFailures(t *testing.T) {
	tests := map[string]string{
		"not json":     `ffprobe exploded`,
		"no streams":   `{"streams": [], "format": {"duration": "3"}}`,
		"no framerate": `{"streams": [{"avg_frame_rate": "0/0", "r_frame_rate": "0/0"}], "format": {"duration": "3"}}`,
		"no frames":    `{"streams": [{"avg_frame_rate": "25/1"}], "format": {}}`,
	}
	for name, output := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseProbe([]byte(output), "bad.mp4")
			assert.ErrorIs(t, err, ErrSourceUnavailable)
		})
	}
}
