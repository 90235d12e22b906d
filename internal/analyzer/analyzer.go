package analyzer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"time"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

// Request is one "text plus one image in, text out" inference call
type Request struct {
	Model       string
	System      string
	User        string
	Image       []byte // JPEG
	MaxTokens   int
	Temperature float32
}

// Completer is the inference endpoint collaborator
type Completer interface {
	// ListModels is the lightweight capability probe run once before any frame work
	ListModels(ctx context.Context) ([]string, error)

	// Complete sends one request and returns the model's text reply
	Complete(ctx context.Context, req Request) (string, error)
}

// Options bound each inference request
type Options struct {
	Model        string
	MaxTokens    int
	Temperature  float32
	JPEGQuality  int
	MaxDimension int
	Timeout      time.Duration
	ProbeTimeout time.Duration
}

// DefaultOptions returns the generation limits used for archival annotation
func DefaultOptions(model string) Options {
	return Options{
		Model:        model,
		MaxTokens:    1500,
		Temperature:  0.7,
		JPEGQuality:  90,
		Timeout:      2 * time.Minute,
		ProbeTimeout: 10 * time.Second,
	}
}

// Annotator turns decoded frames into Annotations
type Annotator struct {
	completer Completer
	prompts   Prompts
	opts      Options
	logger    *slog.Logger
}

// NewAnnotator creates a new Annotator
func NewAnnotator(completer Completer, prompts Prompts, opts Options, logger *slog.Logger) *Annotator {
	return &Annotator{
		completer: completer,
		prompts:   prompts,
		opts:      opts,
		logger:    logger,
	}
}

// Probe checks that the inference server is running and answers within ProbeTimeout
func (a *Annotator) Probe(ctx context.Context) error {
	if a.opts.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.ProbeTimeout)
		defer cancel()
	}

	available, err := a.completer.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEndpointUnreachable, err)
	}

	a.logger.Debug("inference endpoint reachable", "models", len(available))
	if len(available) > 0 && !slices.Contains(available, a.opts.Model) {
		a.logger.Warn("model not listed by the inference server",
			"model", a.opts.Model,
			"available", available,
		)
	}
	return nil
}

// Annotate sends one frame to the model and returns its parsed description.
// Errors match ErrTransport, ErrMalformedResponse or ErrIncompleteResponse
func (a *Annotator) Annotate(ctx context.Context, frame image.Image, ts models.SampleTimestamp) (models.Annotation, error) {
	data, err := EncodeFrame(frame, a.opts.JPEGQuality, a.opts.MaxDimension)
	if err != nil {
		return models.Annotation{}, err
	}

	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	content, err := a.completer.Complete(ctx, Request{
		Model:       a.opts.Model,
		System:      a.prompts.System,
		User:        a.prompts.User,
		Image:       data,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		return models.Annotation{}, err
	}

	annotation, err := ParseResponse(content)
	if err != nil {
		switch {
		case errors.Is(err, ErrMalformedResponse):
			a.logger.Warn("failed to decode JSON from model response",
				"timestamp", ts.Seconds,
				"raw", content,
			)
		case errors.Is(err, ErrIncompleteResponse):
			a.logger.Warn("model response missing required keys",
				"timestamp", ts.Seconds,
				"raw", content,
			)
		}
		return models.Annotation{}, err
	}

	annotation.Timestamp = models.RoundTimestamp(ts.Seconds)
	return annotation, nil
}
