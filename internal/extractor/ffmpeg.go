package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

// FFmpegOpener opens videos with the ffprobe and ffmpeg binaries
type FFmpegOpener struct {
	FFmpegPath  string
	FFprobePath string
	logger      *slog.Logger
}

// NewFFmpegOpener creates an opener that resolves ffmpeg and ffprobe from PATH
func NewFFmpegOpener(logger *slog.Logger) *FFmpegOpener {
	return &FFmpegOpener{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		logger:      logger,
	}
}

type ffmpegSource struct {
	info   models.VideoInfo
	ffmpeg string
	logger *slog.Logger
}

// ffprobeOutput is the subset of `ffprobe -of json` we read
type ffprobeOutput struct {
	Streams []struct {
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Open probes the video and returns a Source that decodes single frames on demand
func (o *FFmpegOpener) Open(ctx context.Context, videoPath string) (Source, error) {
	if err := CheckVideoPath(videoPath); err != nil {
		return nil, err
	}

	ffprobe, err := exec.LookPath(o.FFprobePath)
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe not found in PATH: %v", ErrSourceUnavailable, err)
	}
	ffmpeg, err := exec.LookPath(o.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found in PATH: %v", ErrSourceUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate,r_frame_rate,nb_frames,duration:format=duration",
		"-of", "json",
		videoPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe failed: %v (stderr: %s)", ErrSourceUnavailable, err, strings.TrimSpace(stderr.String()))
	}

	info, err := parseProbe(output, videoPath)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("video probed with ffprobe",
		"path", videoPath,
		"fps", info.FPS,
		"frames", info.TotalFrames,
	)

	return &ffmpegSource{info: info, ffmpeg: ffmpeg, logger: o.logger}, nil
}

func parseProbe(output []byte, videoPath string) (models.VideoInfo, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return models.VideoInfo{}, fmt.Errorf("%w: failed to parse ffprobe output: %v", ErrSourceUnavailable, err)
	}
	if len(probe.Streams) == 0 {
		return models.VideoInfo{}, fmt.Errorf("%w: no video stream in '%s'", ErrSourceUnavailable, videoPath)
	}

	stream := probe.Streams[0]
	fps := parseFrameRate(stream.AvgFrameRate)
	if fps <= 0 {
		fps = parseFrameRate(stream.RFrameRate)
	}

	// Not every container records a frame count; derive it from the duration instead
	frames, _ := strconv.Atoi(stream.NbFrames)
	if frames <= 0 && fps > 0 {
		duration, _ := strconv.ParseFloat(stream.Duration, 64)
		if duration <= 0 {
			duration, _ = strconv.ParseFloat(probe.Format.Duration, 64)
		}
		frames = int(duration * fps)
	}

	info := models.VideoInfo{Path: videoPath, FPS: fps, TotalFrames: frames}
	if err := ValidateInfo(info); err != nil {
		return models.VideoInfo{}, err
	}
	return info, nil
}

// parseFrameRate parses ffprobe rates such as "30000/1001" or "25"
func parseFrameRate(value string) float64 {
	parts := strings.Split(value, "/")
	if len(parts) == 2 {
		num, _ := strconv.ParseFloat(parts[0], 64)
		den, _ := strconv.ParseFloat(parts[1], 64)
		if den != 0 {
			return num / den
		}
		return 0
	}
	rate, _ := strconv.ParseFloat(value, 64)
	return rate
}

func (s *ffmpegSource) Info() models.VideoInfo {
	return s.info
}

// FrameAt pipes exactly one mjpeg frame out of ffmpeg and decodes it
func (s *ffmpegSource) FrameAt(ctx context.Context, ts models.SampleTimestamp) (image.Image, error) {
	idx := FrameIndex(ts.Seconds, s.info.FPS, s.info.TotalFrames)
	seek := float64(idx) / s.info.FPS

	cmd := exec.CommandContext(ctx, s.ffmpeg,
		"-v", "error",
		"-ss", strconv.FormatFloat(seek, 'f', 3, 64),
		"-i", s.info.Path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: ffmpeg failed: %v (stderr: %s)", ErrFrameDecode, idx, err, strings.TrimSpace(stderr.String()))
	}
	if len(output) == 0 {
		return nil, fmt.Errorf("%w: frame %d: ffmpeg produced no image", ErrFrameDecode, idx)
	}

	img, err := jpeg.Decode(bytes.NewReader(output))
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %v", ErrFrameDecode, idx, err)
	}
	return img, nil
}

// Close is a no-op; every frame runs its own ffmpeg process
func (s *ffmpegSource) Close() error {
	return nil
}
