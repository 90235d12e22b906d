package extractor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

var (
	// ErrSourceUnavailable means the video could not be found, opened or decoded
	ErrSourceUnavailable = errors.New("video source unavailable")

	// ErrFrameDecode means a single frame could not be seeked to or decoded
	ErrFrameDecode = errors.New("frame decode failed")
)

// Source is an opened video that yields decoded frames by timestamp
type Source interface {
	Info() models.VideoInfo
	FrameAt(ctx context.Context, ts models.SampleTimestamp) (image.Image, error)
	Close() error
}

// Opener opens a video file and returns a Source for it
type Opener interface {
	Open(ctx context.Context, videoPath string) (Source, error)
}

// Timestamps returns the sample points {0, interval, 2*interval, ...} within duration.
// The tail shorter than one interval is dropped unless includeTail is set
func Timestamps(duration, interval float64, includeTail bool) ([]models.SampleTimestamp, error) {
	if interval <= 0 || math.IsNaN(interval) || math.IsInf(interval, 0) {
		return nil, fmt.Errorf("interval must be a positive number of seconds, got %v", interval)
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, nil
	}

	count := int(math.Floor(duration / interval))
	if includeTail && float64(count)*interval < duration {
		count++
	}

	timestamps := make([]models.SampleTimestamp, 0, count)
	for i := 0; i < count; i++ {
		timestamps = append(timestamps, models.SampleTimestamp{
			Index:   i,
			Seconds: float64(i) * interval,
		})
	}
	return timestamps, nil
}

// FrameIndex returns the frame nearest to seconds, clamped to the valid frame range
func FrameIndex(seconds, fps float64, totalFrames int) int {
	idx := int(math.Round(seconds * fps))
	if totalFrames > 0 && idx > totalFrames-1 {
		idx = totalFrames - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// CheckVideoPath verifies that videoPath exists and is a regular file
func CheckVideoPath(videoPath string) error {
	info, err := os.Stat(videoPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: video file does not exist at path: '%s'", ErrSourceUnavailable, videoPath)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: '%s' is a directory", ErrSourceUnavailable, videoPath)
	}
	return nil
}

// ValidateInfo rejects metadata that cannot produce a duration
func ValidateInfo(info models.VideoInfo) error {
	if info.FPS <= 0 || math.IsNaN(info.FPS) || math.IsInf(info.FPS, 0) {
		return fmt.Errorf("%w: '%s' reports invalid frame rate %v", ErrSourceUnavailable, info.Path, info.FPS)
	}
	if info.TotalFrames <= 0 {
		return fmt.Errorf("%w: '%s' reports no frames", ErrSourceUnavailable, info.Path)
	}
	return nil
}
