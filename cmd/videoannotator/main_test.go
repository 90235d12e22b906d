package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/analyzer"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/config"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/extractor"
)

// execute runs the root command with args and returns the config and video the runner saw
func execute(t *testing.T, args ...string) (*config.Config, string, bool, error) {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	var gotVideo string
	ran := false
	cmd := newRootCmd(cfg, func(ctx context.Context, c *config.Config, videoPath string) error {
		ran = true
		gotVideo = videoPath
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	err = cmd.Execute()
	return cfg, gotVideo, ran, err
}

func TestRootCmdRequiresVideo(t *testing.T) {
	_, _, ran, err := execute(t, "-m", "llava")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video")
	assert.False(t, ran)
}

func TestRootCmdRequiresModel(t *testing.T) {
	t.Setenv("ANNOTATOR_MODEL", "")
	_, _, ran, err := execute(t, "-v", "reel.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
	assert.False(t, ran)
}

func TestRootCmdRejectsInvalidSettings(t *testing.T) {
	_, _, ran, err := execute(t, "-v", "reel.mp4", "-m", "llava", "-i", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval must be positive")
	assert.False(t, ran)
}

func TestRootCmdFlags(t *testing.T) {
	cfg, video, ran, err := execute(t, "-v", "reel.mp4", "-m", "qwen2-vl", "-i", "2.5", "-u", "http://gpu-box:1234/v1", "--include-tail", "--format", "tsv")
	require.NoError(t, err)
	require.True(t, ran)

	assert.Equal(t, "reel.mp4", video)
	assert.Equal(t, "qwen2-vl", cfg.Model)
	assert.Equal(t, 2.5, cfg.Interval)
	assert.Equal(t, "http://gpu-box:1234/v1", cfg.APIURL)
	assert.True(t, cfg.IncludeTail)
	assert.Equal(t, "tsv", cfg.Format)
}

func TestRootCmdAcceptsUnderscoreFlags(t *testing.T) {
	cfg, _, ran, err := execute(t, "--video", "reel.mp4", "--model", "llava", "--api_url", "http://other:1234/v1", "--include_tail")
	require.NoError(t, err)
	require.True(t, ran)
	assert.Equal(t, "http://other:1234/v1", cfg.APIURL)
	assert.True(t, cfg.IncludeTail)
}

func TestRootCmdOllamaDefaultURL(t *testing.T) {
	cfg, _, _, err := execute(t, "-v", "reel.mp4", "-m", "llava", "--backend", "ollama")
	require.NoError(t, err)
	assert.Equal(t, analyzer.DefaultOllamaURL, cfg.APIURL)

	cfg, _, _, err = execute(t, "-v", "reel.mp4", "-m", "llava", "--backend", "ollama", "-u", analyzer.DefaultOpenAIURL)
	require.NoError(t, err)
	assert.Equal(t, analyzer.DefaultOpenAIURL, cfg.APIURL, "an explicit URL is kept")

	cfg, _, _, err = execute(t, "-v", "reel.mp4", "-m", "llava")
	require.NoError(t, err)
	assert.Equal(t, analyzer.DefaultOpenAIURL, cfg.APIURL)
}

func TestDescribe(t *testing.T) {
	cfg := &config.Config{APIURL: "http://localhost:1234/v1"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "endpoint",
			err:  fmt.Errorf("%w: connection refused", analyzer.ErrEndpointUnreachable),
			want: "could not connect to the inference server at http://localhost:1234/v1",
		},
		{
			name: "source",
			err:  fmt.Errorf("%w: no such file", extractor.ErrSourceUnavailable),
			want: "could not open video file",
		},
		{
			name: "cancelled",
			err:  fmt.Errorf("read frame: %w", context.Canceled),
			want: "interrupted, no results written",
		},
		{
			name: "other",
			err:  errors.New("disk full"),
			want: "disk full",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, describe(tt.err, cfg), tt.want)
		})
	}
}
