package loaders

import (
	"context"
	"sync"
	"time"

	"cosmos-backend/pkg/errors"
	"go.uber.org/zap"
)

// BatchFunc performs the actual batch fetch for a set of keys. Keys absent
// from the returned map are treated as not found.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// defaultFetchTimeout bounds a detached batch fetch
const defaultFetchTimeout = 30 * time.Second

type batchResult[V any] struct {
	value V
	err   error
}

type pendingLoad[V any] struct {
	ctx    context.Context
	result chan batchResult[V]
}

// Batcher coalesces concurrent single-key loads into one batch fetch.
// Requests arriving within the batch window share a single round-trip to
// the underlying store.
type Batcher[K comparable, V any] struct {
	fetch        BatchFunc[K, V]
	batchWindow  time.Duration
	maxBatch     int
	fetchTimeout time.Duration

	mu      sync.Mutex
	pending map[K][]*pendingLoad[V]
	timer   *time.Timer

	metricsMu     sync.RWMutex
	totalBatches  int64
	totalRequests int64
	batchSizeSum  int64

	logger *zap.Logger
}

// BatcherMetrics holds counters for a batcher
type BatcherMetrics struct {
	TotalBatches  int64
	TotalRequests int64
	AvgBatchSize  float64
}

// NewBatcher creates a new batcher
func NewBatcher[K comparable, V any](
	fetch BatchFunc[K, V],
	batchWindow time.Duration,
	maxBatch int,
	logger *zap.Logger,
) *Batcher[K, V] {
	if batchWindow <= 0 {
		batchWindow = 10 * time.Millisecond
	}
	if maxBatch <= 0 {
		maxBatch = 25
	}

	return &Batcher[K, V]{
		fetch:        fetch,
		batchWindow:  batchWindow,
		maxBatch:     maxBatch,
		fetchTimeout: defaultFetchTimeout,
		pending:      make(map[K][]*pendingLoad[V]),
		logger:       logger,
	}
}

// SetLimits adjusts the batch window and size for batches formed from now
// on. Non-positive values leave the current setting unchanged.
func (b *Batcher[K, V]) SetLimits(batchWindow time.Duration, maxBatch int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if batchWindow > 0 {
		b.batchWindow = batchWindow
	}
	if maxBatch > 0 {
		b.maxBatch = maxBatch
	}
}

// Load fetches a single value, batching with other concurrent requests.
// A key the batch fetch does not return yields a NotFound error.
func (b *Batcher[K, V]) Load(ctx context.Context, key K) (V, error) {
	req := &pendingLoad[V]{
		ctx:    ctx,
		result: make(chan batchResult[V], 1),
	}

	b.mu.Lock()
	b.pending[key] = append(b.pending[key], req)

	b.metricsMu.Lock()
	b.totalRequests++
	b.metricsMu.Unlock()

	if len(b.pending) >= b.maxBatch {
		if b.timer != nil {
			b.timer.Stop()
			b.timer = nil
		}
		go b.dispatch()
	} else if b.timer == nil {
		b.timer = time.AfterFunc(b.batchWindow, b.dispatch)
	}
	b.mu.Unlock()

	select {
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	case res := <-req.result:
		return res.value, res.err
	}
}

// dispatch runs the batch fetch for all pending requests
func (b *Batcher[K, V]) dispatch() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.timer = nil
		b.mu.Unlock()
		return
	}

	requests := b.pending
	b.pending = make(map[K][]*pendingLoad[V])
	b.timer = nil
	b.mu.Unlock()

	keys := make([]K, 0, len(requests))
	for key := range requests {
		keys = append(keys, key)
	}

	b.metricsMu.Lock()
	b.totalBatches++
	b.batchSizeSum += int64(len(keys))
	b.metricsMu.Unlock()

	// The fetch runs on a detached context: the batch is shared, so one
	// waiter cancelling must not fail it for everyone else.
	ctx, cancel := context.WithTimeout(context.Background(), b.fetchTimeout)
	defer cancel()

	start := time.Now()
	values, err := b.fetch(ctx, keys)

	b.logger.Debug("entity batch executed",
		zap.Int("requested", len(keys)),
		zap.Int("returned", len(values)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)

	for key, reqs := range requests {
		var res batchResult[V]
		switch {
		case err != nil:
			res.err = errors.NewTransport("batch load failed", err)
		default:
			value, ok := values[key]
			if ok {
				res.value = value
			} else {
				res.err = errors.NewNotFound("key not present in batch result")
			}
		}

		for _, req := range reqs {
			select {
			case req.result <- res:
			case <-req.ctx.Done():
			}
		}
	}
}

// Metrics returns the batcher's counters
func (b *Batcher[K, V]) Metrics() BatcherMetrics {
	b.metricsMu.RLock()
	defer b.metricsMu.RUnlock()

	avg := float64(0)
	if b.totalBatches > 0 {
		avg = float64(b.batchSizeSum) / float64(b.totalBatches)
	}
	return BatcherMetrics{
		TotalBatches:  b.totalBatches,
		TotalRequests: b.totalRequests,
		AvgBatchSize:  avg,
	}
}
