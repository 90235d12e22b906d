package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/analyzer"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/config"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/extractor"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/extractor/opencv"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/processor"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid environment configuration: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg, run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describe(err, cfg))
		os.Exit(1)
	}
}

// runFunc performs one annotation run once flags and environment are resolved
type runFunc func(ctx context.Context, cfg *config.Config, videoPath string) error

func newRootCmd(cfg *config.Config, runner runFunc) *cobra.Command {
	var videoPath string

	cmd := &cobra.Command{
		Use:   "videoannotator",
		Short: "Annotate keyframes of a video with a multimodal model",
		Long: `videoannotator samples one frame every few seconds of a video, asks a
vision-language model to describe it and writes the descriptions to a CSV
file next to the video.

The model is reached through an OpenAI-compatible server such as LM Studio
(the default) or through a local Ollama instance.

Examples:
  videoannotator -v reel_1974.mp4 -m llava-v1.6-mistral-7b
  videoannotator -v reel.avi -m qwen2-vl -i 10 --include-tail
  videoannotator -v reel.mkv -m llava --backend ollama --decoder ffmpeg`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Model == "" {
				return errors.New("a model is required (--model or ANNOTATOR_MODEL)")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Backend == config.BackendOllama && !cmd.Flags().Changed("api-url") && cfg.APIURL == analyzer.DefaultOpenAIURL {
				cfg.APIURL = analyzer.DefaultOllamaURL
			}
			return runner(cmd.Context(), cfg, videoPath)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&videoPath, "video", "v", "", "Path to the video file")
	flags.StringVarP(&cfg.Model, "model", "m", cfg.Model, "Name of the vision model to use")
	flags.Float64VarP(&cfg.Interval, "interval", "i", cfg.Interval, "Seconds between analyzed frames")
	flags.StringVarP(&cfg.APIURL, "api-url", "u", cfg.APIURL, "Base URL of the inference server")
	flags.StringVar(&cfg.Backend, "backend", cfg.Backend, "Inference backend (openai or ollama)")
	flags.StringVar(&cfg.Decoder, "decoder", cfg.Decoder, "Frame decoder (opencv or ffmpeg)")
	flags.StringVar(&cfg.Format, "format", cfg.Format, "Output format (csv or tsv)")
	flags.BoolVar(&cfg.IncludeTail, "include-tail", cfg.IncludeTail, "Also analyze the trailing partial interval")
	flags.IntVar(&cfg.MaxDimension, "max-dimension", cfg.MaxDimension, "Downscale frames so their longest side fits (0 = original size)")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Time limit for a single model request")
	flags.DurationVar(&cfg.ProbeTimeout, "probe-timeout", cfg.ProbeTimeout, "Time limit for the startup check of the inference server")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.SetNormalizeFunc(underscoreToDash)
	_ = cmd.MarkFlagRequired("video")

	return cmd
}

// underscoreToDash accepts --api_url and friends as spellings of --api-url
func underscoreToDash(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func run(ctx context.Context, cfg *config.Config, videoPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	).With("run_id", uuid.NewString())

	format, _ := storage.ParseFormat(cfg.Format)
	prompts := analyzer.DefaultPrompts()

	completer, err := newCompleter(ctx, cfg, prompts, logger)
	if err != nil {
		return err
	}

	opts := analyzer.DefaultOptions(cfg.Model)
	opts.MaxTokens = cfg.MaxTokens
	opts.Temperature = cfg.Temperature
	opts.JPEGQuality = cfg.JPEGQuality
	opts.MaxDimension = cfg.MaxDimension
	opts.Timeout = cfg.Timeout
	opts.ProbeTimeout = cfg.ProbeTimeout
	annotator := analyzer.NewAnnotator(completer, prompts, opts, logger)

	logger.Info("starting video annotation",
		"video", videoPath,
		"model", cfg.Model,
		"backend", cfg.Backend,
		"decoder", cfg.Decoder,
		"interval", cfg.Interval,
	)

	p := processor.NewProcessor(
		annotator,
		newOpener(cfg, logger),
		processor.NewConsoleReporter(os.Stdout),
		processor.Config{
			Interval:    cfg.Interval,
			IncludeTail: cfg.IncludeTail,
			Format:      format,
		},
		logger,
	)
	_, err = p.ProcessVideo(ctx, videoPath)
	return err
}

func newCompleter(ctx context.Context, cfg *config.Config, prompts analyzer.Prompts, logger *slog.Logger) (analyzer.Completer, error) {
	if cfg.Backend == config.BackendOllama {
		return analyzer.NewOllamaCompleter(ctx, cfg.APIURL, cfg.Model, prompts.System, logger)
	}
	return analyzer.NewOpenAICompleter(cfg.APIURL, cfg.APIKey, http.DefaultClient), nil
}

func newOpener(cfg *config.Config, logger *slog.Logger) extractor.Opener {
	if cfg.Decoder == config.DecoderFFmpeg {
		return extractor.NewFFmpegOpener(logger)
	}
	return opencv.NewOpener(logger)
}

// describe turns fatal errors into a message that tells the operator what to check
func describe(err error, cfg *config.Config) string {
	switch {
	case errors.Is(err, analyzer.ErrEndpointUnreachable):
		return fmt.Sprintf("could not connect to the inference server at %s. Is it running? (%v)", cfg.APIURL, err)
	case errors.Is(err, extractor.ErrSourceUnavailable):
		return fmt.Sprintf("could not open video file: %v", err)
	case errors.Is(err, context.Canceled):
		return "interrupted, no results written"
	default:
		return err.Error()
	}
}
