package queue

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/config"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
)

type countingProcessor struct {
	mu     sync.Mutex
	images []Job
	videos []Job
	err    error
}

func (p *countingProcessor) ProcessImage(ctx context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.images = append(p.images, job)
	return nil
}

func (p *countingProcessor) ProcessVideo(ctx context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.videos = append(p.videos, job)
	return nil
}

func (p *countingProcessor) imageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.images)
}

func testWorkerConfig() config.MediaWorkerConfig {
	return config.MediaWorkerConfig{
		Stream:           "media:jobs",
		Group:            "media",
		Workers:          1,
		MaxAttempts:      3,
		MaxLen:           100,
		BackoffBase:      time.Millisecond,
		BlockTimeout:     50 * time.Millisecond,
		Consumer:         "c1",
		DeadLetterStream: "media:jobs:dead",
	}
}

func newTestRedis(t *testing.T) (redis.UniversalClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()}), mr
}

func rawJob(t *testing.T, kind entities.MediaKind) string {
	t.Helper()
	raw, err := json.Marshal(Job{
		RemoteID:    "id:abc",
		Path:        "/0 US/alice/trip/photo.jpg",
		Kind:        kind,
		OwnerFolder: "alice",
	})
	require.NoError(t, err)
	return string(raw)
}

func message(payload string, attempt int) redis.XMessage {
	return redis.XMessage{
		ID: "1-1",
		Values: map[string]interface{}{
			"payload": payload,
			"attempt": attempt,
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestHandleProcessesAndAcks(t *testing.T) {
	rc, _ := newTestRedis(t)
	ctx := context.Background()
	cfg := testWorkerConfig()
	proc := &countingProcessor{}
	w := NewWorker(rc, cfg, proc)
	require.NoError(t, w.EnsureGroup(ctx))

	require.NoError(t, w.handle(ctx, message(rawJob(t, entities.KindImage), 0)))

	require.Len(t, proc.images, 1)
	assert.Equal(t, "id:abc", proc.images[0].RemoteID)
	assert.Empty(t, proc.videos)

	requeued, err := rc.XLen(ctx, cfg.Stream).Result()
	require.NoError(t, err)
	assert.Zero(t, requeued)
}

func TestHandleRequeuesWithIncrementedAttempt(t *testing.T) {
	rc, _ := newTestRedis(t)
	ctx := context.Background()
	cfg := testWorkerConfig()
	proc := &countingProcessor{err: context.DeadlineExceeded}
	w := NewWorker(rc, cfg, proc)
	require.NoError(t, w.EnsureGroup(ctx))

	payload := rawJob(t, entities.KindImage)
	require.Error(t, w.handle(ctx, message(payload, 0)))

	// the requeue is scheduled after the backoff delay
	waitFor(t, func() bool {
		n, _ := rc.XLen(ctx, cfg.Stream).Result()
		return n == 1
	})

	msgs, err := rc.XRange(ctx, cfg.Stream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, payload, msgs[0].Values["payload"])
	assert.Equal(t, "1", msgs[0].Values["attempt"])

	dead, err := rc.XLen(ctx, cfg.DeadLetterStream).Result()
	require.NoError(t, err)
	assert.Zero(t, dead, "not dead-lettered before attempts are exhausted")
}

func TestHandleDeadLettersAfterMaxAttempts(t *testing.T) {
	rc, _ := newTestRedis(t)
	ctx := context.Background()
	cfg := testWorkerConfig()
	proc := &countingProcessor{err: context.DeadlineExceeded}
	w := NewWorker(rc, cfg, proc)
	require.NoError(t, w.EnsureGroup(ctx))

	payload := rawJob(t, entities.KindVideo)
	require.Error(t, w.handle(ctx, message(payload, cfg.MaxAttempts-1)))

	msgs, err := rc.XRange(ctx, cfg.DeadLetterStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, payload, msgs[0].Values["payload"])
	assert.NotEmpty(t, msgs[0].Values["error"])

	// exhausted jobs must not circle back onto the work stream
	time.Sleep(20 * time.Millisecond)
	requeued, err := rc.XLen(ctx, cfg.Stream).Result()
	require.NoError(t, err)
	assert.Zero(t, requeued)
}

func TestHandleDropsMalformedPayloads(t *testing.T) {
	rc, _ := newTestRedis(t)
	ctx := context.Background()
	cfg := testWorkerConfig()
	proc := &countingProcessor{}
	w := NewWorker(rc, cfg, proc)
	require.NoError(t, w.EnsureGroup(ctx))

	require.NoError(t, w.handle(ctx, message("{not json", 0)))
	require.NoError(t, w.handle(ctx, redis.XMessage{ID: "1-2", Values: map[string]interface{}{}}))

	assert.Empty(t, proc.images)
	for _, stream := range []string{cfg.Stream, cfg.DeadLetterStream} {
		n, err := rc.XLen(ctx, stream).Result()
		require.NoError(t, err)
		assert.Zero(t, n, stream)
	}
}

// A consumer that died between delivery and XACK leaves its message in the
// group's pending list. Reclaiming it must also process it: the read loop
// only asks for new deliveries, so anything left parked would be lost.
func TestAutoClaimReprocessesOrphanedDeliveries(t *testing.T) {
	rc, mr := newTestRedis(t)
	ctx := context.Background()
	cfg := testWorkerConfig()
	proc := &countingProcessor{}
	w := NewWorker(rc, cfg, proc)
	require.NoError(t, w.EnsureGroup(ctx))

	producer := NewProducer(rc, cfg.Stream, cfg.MaxLen)
	require.NoError(t, producer.Enqueue(ctx, Job{
		RemoteID: "id:orphan",
		Path:     "/0 US/alice/trip/photo.jpg",
		Kind:     entities.KindImage,
	}))

	// deliver to a consumer that dies before acknowledging
	_, err := rc.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    cfg.Group,
		Consumer: "crashed",
		Streams:  []string{cfg.Stream, ">"},
		Count:    1,
		Block:    time.Millisecond,
	}).Result()
	require.NoError(t, err)

	// idle past the reclaim floor; FastForward only moves TTLs, so the
	// stream PEL idle clock has to be advanced with SetTime
	mr.SetTime(time.Now().Add(31 * time.Second))

	w.autoClaim(ctx)

	require.Len(t, proc.images, 1, "reclaimed job must be processed")
	assert.Equal(t, "id:orphan", proc.images[0].RemoteID)

	pending, err := rc.XPending(ctx, cfg.Stream, cfg.Group).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count, "reclaimed job must be acknowledged")
}
