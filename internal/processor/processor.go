package processor

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/extractor"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
	"github.com/dermotte/annotate-video-with-multimodal-model/internal/storage"
)

// Annotator describes one sampled frame
type Annotator interface {
	Probe(ctx context.Context) error
	Annotate(ctx context.Context, frame image.Image, ts models.SampleTimestamp) (models.Annotation, error)
}

// Config controls sampling and output
type Config struct {
	Interval    float64 // seconds between samples
	IncludeTail bool
	Format      storage.Format
}

// Summary reports the outcome of one run
type Summary struct {
	Sampled    int
	Annotated  int
	Skipped    int
	OutputPath string // empty when nothing was written
}

// Processor drives a video through sampling, annotation and persistence
type Processor struct {
	annotator Annotator
	opener    extractor.Opener
	observer  Observer
	config    Config
	logger    *slog.Logger
}

// NewProcessor creates a new Processor
func NewProcessor(annotator Annotator, opener extractor.Opener, observer Observer, config Config, logger *slog.Logger) *Processor {
	if observer == nil {
		observer = NopObserver{}
	}
	if config.Format == "" {
		config.Format = storage.FormatCSV
	}
	return &Processor{
		annotator: annotator,
		opener:    opener,
		observer:  observer,
		config:    config,
		logger:    logger,
	}
}

// ProcessVideo samples videoPath, annotates every sample and writes the result table
// next to the video. Failures of single frames are skipped; an unreachable endpoint, an
// unreadable video or a failed write abort the run without output
func (p *Processor) ProcessVideo(ctx context.Context, videoPath string) (Summary, error) {
	if err := p.annotator.Probe(ctx); err != nil {
		return Summary{}, err
	}

	source, err := p.opener.Open(ctx, videoPath)
	if err != nil {
		return Summary{}, err
	}

	table, summary, err := p.processFrames(ctx, source)
	if err != nil {
		return summary, err
	}

	if table.Len() == 0 {
		p.observer.Finished(summary)
		return summary, nil
	}

	outputPath := storage.OutputPath(videoPath, p.config.Format)
	if err := table.Flush(outputPath, p.config.Format); err != nil {
		return summary, err
	}
	summary.OutputPath = outputPath

	p.logger.Info("results saved",
		"path", outputPath,
		"rows", table.Len(),
		"skipped", summary.Skipped,
	)
	p.observer.Finished(summary)
	return summary, nil
}

// processFrames walks the sample timestamps in order and owns source until it returns
func (p *Processor) processFrames(ctx context.Context, source extractor.Source) (*storage.Table, Summary, error) {
	defer func() {
		if err := source.Close(); err != nil {
			p.logger.Warn("failed to release video source", "error", err)
		}
	}()

	info := source.Info()
	timestamps, err := extractor.Timestamps(info.Duration(), p.config.Interval, p.config.IncludeTail)
	if err != nil {
		return nil, Summary{}, err
	}

	summary := Summary{Sampled: len(timestamps)}
	table := storage.NewTable()
	p.observer.Started(info, p.config.Interval, len(timestamps))

	for i, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return nil, summary, err
		}
		p.observer.FrameStarted(ts, i+1, len(timestamps))

		frame, err := source.FrameAt(ctx, ts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, summary, ctx.Err()
			}
			p.skip(&summary, ts, fmt.Errorf("read frame: %w", err))
			continue
		}

		annotation, err := p.annotator.Annotate(ctx, frame, ts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, summary, ctx.Err()
			}
			p.skip(&summary, ts, fmt.Errorf("annotate frame: %w", err))
			continue
		}

		table.AddResult(annotation)
		summary.Annotated++
		p.observer.FrameAnnotated(ts, annotation)
	}

	return table, summary, nil
}

func (p *Processor) skip(summary *Summary, ts models.SampleTimestamp, err error) {
	summary.Skipped++
	p.logger.Warn("skipping frame", "timestamp", ts.Seconds, "error", err)
	p.observer.FrameSkipped(ts, err)
}
