// Package dispatch routes classified files into the work queue, or processes
// them inline when no queue is configured (development and small installs).
package dispatch

import (
	"context"
	"log"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/media"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/queue"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, job queue.Job) error
}

// InlineProcessor is the fallback image path used when no queue is
// configured. Videos are never processed inline: streaming and transcoding do
// not fit a request-scoped pass. Config validation warns about this mode at
// startup.
type InlineProcessor interface {
	ProcessImage(ctx context.Context, job queue.Job) error
}

type Dispatcher struct {
	producer Enqueuer
	inline   InlineProcessor
	widths   []int
}

// New builds a dispatcher. A nil producer selects inline mode. widths is the
// image target-width list stamped onto image jobs; empty means the default
// ladder.
func New(producer Enqueuer, inline InlineProcessor, widths []int) *Dispatcher {
	if len(widths) == 0 {
		widths = media.DefaultImageWidths
	}
	return &Dispatcher{
		producer: producer,
		inline:   inline,
		widths:   widths,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, f entities.ClassifiedFile) error {
	job := queue.Job{
		RemoteID:    f.RemoteID,
		Path:        "/" + f.SourcePath,
		Kind:        f.Kind,
		OwnerFolder: f.OwnerFolder,
	}
	// Width targets only mean anything to the image path; video jobs carry a
	// fixed transcode ladder of their own.
	if f.Kind == entities.KindImage {
		job.ImageWidths = d.widths
	}

	if d.producer != nil {
		return d.producer.Enqueue(ctx, job)
	}

	switch f.Kind {
	case entities.KindImage:
		return d.inline.ProcessImage(ctx, job)
	case entities.KindVideo:
		log.Printf("[dispatch] queue not configured, skipping video %s", f.SourcePath)
		return nil
	}
	return nil
}
