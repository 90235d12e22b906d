package processor

import (
	"fmt"
	"io"

	"github.com/dermotte/annotate-video-with-multimodal-model/internal/models"
)

// Observer receives progress events from a run
type Observer interface {
	Started(info models.VideoInfo, interval float64, total int)
	FrameStarted(ts models.SampleTimestamp, n, total int)
	FrameAnnotated(ts models.SampleTimestamp, a models.Annotation)
	FrameSkipped(ts models.SampleTimestamp, err error)
	Finished(summary Summary)
}

// NopObserver ignores every event
type NopObserver struct{}

func (NopObserver) Started(models.VideoInfo, float64, int)                   {}
func (NopObserver) FrameStarted(models.SampleTimestamp, int, int)            {}
func (NopObserver) FrameAnnotated(models.SampleTimestamp, models.Annotation) {}
func (NopObserver) FrameSkipped(models.SampleTimestamp, error)               {}
func (NopObserver) Finished(Summary)                                         {}

// ConsoleReporter prints human readable progress
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a reporter writing to out
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

func (r *ConsoleReporter) Started(info models.VideoInfo, interval float64, total int) {
	fmt.Fprintf(r.out, "🎬 Video Info:\n  - Path: %s\n  - FPS: %.2f\n  - Duration: %.2fs\n", info.Path, info.FPS, info.Duration())
	fmt.Fprintf(r.out, "🔍 Analyzing one frame every %g seconds (%d keyframes).\n", interval, total)
}

func (r *ConsoleReporter) FrameStarted(ts models.SampleTimestamp, n, total int) {
	fmt.Fprintf(r.out, "[%d/%d] Analyzing frame at %.1fs\n", n, total, ts.Seconds)
}

func (r *ConsoleReporter) FrameAnnotated(ts models.SampleTimestamp, a models.Annotation) {
	fmt.Fprintf(r.out, "  ✅ Annotated frame at %.1fs. Title: %s: %s\n", ts.Seconds, a.Title, a.Caption)
}

func (r *ConsoleReporter) FrameSkipped(ts models.SampleTimestamp, err error) {
	fmt.Fprintf(r.out, "  ⚠️ Failed to get annotation for frame at %.1fs.\n", ts.Seconds)
}

func (r *ConsoleReporter) Finished(summary Summary) {
	if summary.OutputPath == "" {
		fmt.Fprintln(r.out, "\nNo annotations produced. Exiting.")
		return
	}
	fmt.Fprintf(r.out, "\n✨ Analysis complete! %d of %d keyframes annotated. Results saved to: %s\n",
		summary.Annotated, summary.Sampled, summary.OutputPath)
}
