package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/config"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
)

// Processor handles one delivered job end to end: fetch source bytes from the
// origin store and write derivatives to object storage.
type Processor interface {
	ProcessImage(ctx context.Context, job Job) error
	ProcessVideo(ctx context.Context, job Job) error
}

type Worker struct {
	rc        redis.UniversalClient
	cfg       config.MediaWorkerConfig
	processor Processor
}

// Init starts the background consumer and returns the producer used to feed
// it.
func Init(ctx context.Context, rc redis.UniversalClient, cfg config.MediaWorkerConfig, processor Processor) *Producer {
	producer := NewProducer(rc, cfg.Stream, cfg.MaxLen)
	worker := NewWorker(rc, cfg, processor)

	go func() {
		if err := worker.Start(ctx); err != nil {
			log.Printf("[media-worker] stopped: %v", err)
		}
	}()

	return producer
}

func NewWorker(rc redis.UniversalClient, cfg config.MediaWorkerConfig, processor Processor) *Worker {
	return &Worker{
		rc:        rc,
		cfg:       cfg,
		processor: processor,
	}
}

func (w *Worker) EnsureGroup(ctx context.Context) error {
	// Without MkStream, Redis would error out if the group is created before
	// any messages exist in the stream.
	err := w.rc.XGroupCreateMkStream(ctx, w.cfg.Stream, w.cfg.Group, "0").Err()
	// Redis returns BUSYGROUP if the group already exists, so only other
	// errors matter.
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (w *Worker) Start(ctx context.Context) error {
	if err := w.EnsureGroup(ctx); err != nil {
		return fmt.Errorf("failed to ensure Redis group: %w", err)
	}

	log.Printf("[media-worker] starting consumer group=%s stream=%s workers=%d",
		w.cfg.Group, w.cfg.Stream, w.cfg.Workers,
	)

	// Adopt orphaned pending messages from crashed consumers.
	w.autoClaim(ctx)

	errCh := make(chan error, w.cfg.Workers)
	for i := 0; i < w.cfg.Workers; i++ {
		id := i
		go func() {
			log.Printf("[media-worker] consumer #%d started", id)
			err := w.loop(ctx)
			if err != nil {
				log.Printf("[media-worker] consumer #%d stopped with error: %v", id, err)
			}
			errCh <- err
		}()
	}

	select {
	case <-ctx.Done():
		log.Printf("[media-worker] context canceled, stopping all consumers")
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("worker loop exited with error: %w", err)
		}
		return nil
	}
}

// autoClaim scans the consumer group for messages delivered to other
// consumers but never acknowledged (worker crashed or was killed before
// XACK). XAUTOCLAIM takes ownership of those idle messages and they are
// handled right here: the read loop only ever asks for new deliveries (">"),
// so a claimed message that is merely parked in our PEL would never be seen
// again.
func (w *Worker) autoClaim(ctx context.Context) {
	next := "0-0"

	// A message must sit idle before it is reclaimed. Floor of 30s, raised
	// proportionally to the block timeout so slow-but-alive consumers keep
	// their deliveries.
	minIdle := 30 * time.Second
	if w.cfg.BlockTimeout > 0 {
		if t := w.cfg.BlockTimeout * 6; t > minIdle {
			minIdle = t
		}
	}

	for {
		msgs, start, err := w.rc.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   w.cfg.Stream,
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			MinIdle:  minIdle,
			Start:    next,
			Count:    100,
		}).Result()
		if err != nil || len(msgs) == 0 {
			return
		}
		for _, m := range msgs {
			if err := w.handle(ctx, m); err != nil {
				log.Printf("[media-worker] reclaimed job failed: %v", err)
			}
		}
		next = start
	}
}

func (w *Worker) loop(ctx context.Context) error {
	for {
		// XREADGROUP marks returned messages pending for this consumer; they
		// stay in the group's PEL until the deferred XACK in handle().
		// Count is 1 so a slow or failing job never holds up the rest of a
		// delivered batch.
		streams, err := w.rc.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    w.cfg.Group,
			Consumer: w.cfg.Consumer,
			Streams:  []string{w.cfg.Stream, ">"},
			Count:    1,
			Block:    w.cfg.BlockTimeout,
		}).Result()
		if err != nil && err != redis.Nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		for _, s := range streams {
			for _, m := range s.Messages {
				if err := w.handle(ctx, m); err != nil {
					log.Printf("[media-worker] job failed: %v", err)
				}
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, m redis.XMessage) error {
	defer w.rc.XAck(ctx, w.cfg.Stream, w.cfg.Group, m.ID)

	raw, ok := m.Values["payload"].(string)
	if !ok {
		sentry.CaptureMessage(fmt.Sprintf("media-worker: message %s has no payload", m.ID))
		return nil
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		sentry.CaptureException(fmt.Errorf("media-worker: decode job %s: %w", m.ID, err))
		return nil
	}
	attempt := toInt(m.Values["attempt"])

	if err := w.process(ctx, job); err != nil {
		if attempt+1 >= w.cfg.MaxAttempts {
			w.deadLetter(ctx, raw, attempt, err)
			return err
		}
		// Exponential-backoff requeue; the attempt counter rides along in
		// the message.
		backoff := w.cfg.BackoffBase << attempt
		time.AfterFunc(backoff, func() {
			_ = w.rc.XAdd(context.Background(), &redis.XAddArgs{
				Stream: w.cfg.Stream,
				MaxLen: w.cfg.MaxLen,
				Values: map[string]any{
					"payload": raw,
					"attempt": attempt + 1,
				},
			}).Err()
		})
		return err
	}
	return nil
}

func (w *Worker) process(ctx context.Context, job Job) error {
	switch job.Kind {
	case entities.KindImage:
		return w.processor.ProcessImage(ctx, job)
	case entities.KindVideo:
		return w.processor.ProcessVideo(ctx, job)
	default:
		return fmt.Errorf("unknown media kind %q for %s", job.Kind, job.Path)
	}
}

// deadLetter parks an exhausted job on a side stream for inspection. The
// trigger path reports success no matter what, so this plus sentry is the
// only place these failures surface.
func (w *Worker) deadLetter(ctx context.Context, raw string, attempt int, cause error) {
	sentry.CaptureException(fmt.Errorf("media-worker: job dead-lettered after %d attempts: %w", attempt+1, cause))

	if w.cfg.DeadLetterStream == "" {
		return
	}
	err := w.rc.XAdd(ctx, &redis.XAddArgs{
		Stream: w.cfg.DeadLetterStream,
		MaxLen: w.cfg.MaxLen,
		Values: map[string]any{
			"payload": raw,
			"attempt": attempt + 1,
			"error":   cause.Error(),
		},
	}).Err()
	if err != nil {
		log.Printf("[media-worker] dead-letter write failed: %v", err)
	}
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case string:
		var x int
		fmt.Sscanf(t, "%d", &x)
		return x
	default:
		return 0
	}
}
