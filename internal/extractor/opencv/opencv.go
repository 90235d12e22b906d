// Package opencv samples frames from a video through OpenCV's VideoCapture
package opencv

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"gocv.io/x/gocv"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/extractor"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

// Opener opens videos with gocv
type Opener struct {
	logger *slog.Logger
}

// NewOpener creates a new OpenCV backed opener
func NewOpener(logger *slog.Logger) *Opener {
	return &Opener{logger: logger}
}

type source struct {
	video  *gocv.VideoCapture
	frame  gocv.Mat
	info   models.VideoInfo
	logger *slog.Logger
}

// Open opens the container and reads its frame rate and frame count
func (o *Opener) Open(ctx context.Context, videoPath string) (extractor.Source, error) {
	if err := extractor.CheckVideoPath(videoPath); err != nil {
		return nil, err
	}

	video, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extractor.ErrSourceUnavailable, err)
	}
	if !video.IsOpened() {
		video.Close()
		return nil, fmt.Errorf("%w: could not open video file '%s'", extractor.ErrSourceUnavailable, videoPath)
	}

	info := models.VideoInfo{
		Path:        videoPath,
		FPS:         video.Get(gocv.VideoCaptureFPS),
		TotalFrames: int(video.Get(gocv.VideoCaptureFrameCount)),
	}
	if err := extractor.ValidateInfo(info); err != nil {
		video.Close()
		return nil, err
	}

	o.logger.Debug("video opened with OpenCV",
		"path", videoPath,
		"fps", info.FPS,
		"frames", info.TotalFrames,
	)

	return &source{
		video:  video,
		frame:  gocv.NewMat(),
		info:   info,
		logger: o.logger,
	}, nil
}

func (s *source) Info() models.VideoInfo {
	return s.info
}

// FrameAt seeks to the nearest frame and decodes it
func (s *source) FrameAt(ctx context.Context, ts models.SampleTimestamp) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := extractor.FrameIndex(ts.Seconds, s.info.FPS, s.info.TotalFrames)
	s.logger.Debug("reading frame", "frame", idx, "timestamp", ts.Seconds)
	s.video.Set(gocv.VideoCapturePosFrames, float64(idx))
	if ok := s.video.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, fmt.Errorf("%w: unable to read frame %d at %.1fs", extractor.ErrFrameDecode, idx, ts.Seconds)
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %v", extractor.ErrFrameDecode, idx, err)
	}
	return img, nil
}

// Close releases the capture handle and the reusable frame buffer
func (s *source) Close() error {
	s.frame.Close()
	return s.video.Close()
}
