package extractor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

func seconds(ts []models.SampleTimestamp) []float64 {
	out := make([]float64, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Seconds)
	}
	return out
}

func TestTimestamps(t *testing.T) {
	tests := []struct {
		name        string
		duration    float64
		interval    float64
		includeTail bool
		want        []float64
	}{
		{name: "tail dropped", duration: 12, interval: 5, want: []float64{0, 5}},
		{name: "exact multiple", duration: 15, interval: 5, want: []float64{0, 5, 10}},
		{name: "tail included", duration: 12, interval: 5, includeTail: true, want: []float64{0, 5, 10}},
		{name: "exact multiple with tail flag", duration: 15, interval: 5, includeTail: true, want: []float64{0, 5, 10}},
		{name: "shorter than interval", duration: 3, interval: 5, want: []float64{}},
		{name: "shorter than interval with tail", duration: 3, interval: 5, includeTail: true, want: []float64{0}},
		{name: "fractional interval", duration: 2, interval: 0.5, want: []float64{0, 0.5, 1, 1.5}},
		{name: "zero duration", duration: 0, interval: 5, want: []float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Timestamps(tt.duration, tt.interval, tt.includeTail)
			require.NoError(t, err)
			assert.Equal(t, tt.want, seconds(got))
			for i, ts := range got {
				assert.Equal(t, i, ts.Index)
				if !tt.includeTail {
					assert.Less(t, ts.Seconds, tt.duration)
				}
			}
		})
	}
}

func TestTimestampsCountIsFloorOfDurationOverInterval(t *testing.T) {
	for _, d := range []float64{1, 4.99, 5, 7.5, 59.9, 60, 61} {
		got, err := Timestamps(d, 5, false)
		require.NoError(t, err)
		assert.Len(t, got, int(d/5), "duration %v", d)
	}
}

func TestTimestampsRejectsBadInterval(t *testing.T) {
	for _, interval := range []float64{0, -1} {
		_, err := Timestamps(10, interval, false)
		assert.Error(t, err, "interval %v", interval)
	}
}

func TestFrameIndex(t *testing.T) {
	assert.Equal(t, 0, FrameIndex(0, 25, 300))
	assert.Equal(t, 125, FrameIndex(5, 25, 300))
	// 29.97 fps: 5s * 29.97 = 149.85 rounds to 150
	assert.Equal(t, 150, FrameIndex(5, 29.97, 1000))
	// clamped to the last frame
	assert.Equal(t, 299, FrameIndex(12, 25, 300))
}

func TestCheckVideoPath(t *testing.T) {
	dir := t.TempDir()

	err := CheckVideoPath(filepath.Join(dir, "missing.mp4"))
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	err = CheckVideoPath(dir)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	file := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(file, []byte("not really a video"), 0644))
	assert.NoError(t, CheckVideoPath(file))
}

func TestValidateInfo(t *testing.T) {
	assert.NoError(t, ValidateInfo(models.VideoInfo{Path: "a.mp4", FPS: 18, TotalFrames: 10}))
	assert.ErrorIs(t, ValidateInfo(models.VideoInfo{Path: "a.mp4", FPS: 0, TotalFrames: 10}), ErrSourceUnavailable)
	assert.ErrorIs(t, ValidateInfo(models.VideoInfo{Path: "a.mp4", FPS: 18, TotalFrames: 0}), ErrSourceUnavailable)
}

func TestFFmpegOpenerMissingFile(t *testing.T) {
	opener := NewFFmpegOpener(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := opener.Open(context.Background(), filepath.Join(t.TempDir(), "nope.mp4"))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
