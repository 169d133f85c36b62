package ingestion

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"raydium-swap-monitor/internal/logger"
	"raydium-swap-monitor/internal/observability"
)

type delayedSignature struct {
	signature string
	due       time.Time
	seq       uint64
}

// signatureHeap orders by due time, then by scheduling order.
type signatureHeap []delayedSignature

func (h signatureHeap) Len() int { return len(h) }
func (h signatureHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h signatureHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *signatureHeap) Push(x any)   { *h = append(*h, x.(delayedSignature)) }
func (h *signatureHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// DelayQueue holds signatures until they are due, then pushes them onto a
// SignatureQueue. A single goroutine and timer drive all releases.
type DelayQueue struct {
	target *SignatureQueue
	logger *logger.Entry
	now    func() time.Time

	mu      sync.Mutex
	items   signatureHeap
	seq     uint64
	stopped bool
	wake    chan struct{}
}

// DelayQueueOptions configures a DelayQueue.
type DelayQueueOptions struct {
	Target *SignatureQueue
	Logger *logger.Entry
	Now    func() time.Time // default time.Now
}

// NewDelayQueue creates a delay queue releasing into opts.Target.
func NewDelayQueue(opts DelayQueueOptions) *DelayQueue {
	log := opts.Logger
	if log == nil {
		log = logger.New().WithComponent("delay-queue")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &DelayQueue{
		target: opts.Target,
		logger: log,
		now:    now,
		wake:   make(chan struct{}, 1),
	}
}

// Schedule queues signature for release at the given time.
// Returns false once the queue has stopped.
func (d *DelayQueue) Schedule(signature string, at time.Time) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	d.seq++
	heap.Push(&d.items, delayedSignature{signature: signature, due: at, seq: d.seq})
	earliest := d.items[0].seq == d.seq
	d.mu.Unlock()

	if earliest {
		select {
		case d.wake <- struct{}{}:
		default:
		}
	}
	return true
}

// Len returns the number of signatures not yet due.
func (d *DelayQueue) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Run releases due signatures until ctx is cancelled. Signatures still
// waiting at that point are dropped.
func (d *DelayQueue) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		next, ok := d.release()
		if ok {
			timer.Reset(max(next.Sub(d.now()), 0))
		}

		select {
		case <-ctx.Done():
			dropped := d.stop()
			if dropped > 0 {
				observability.RecordSignaturesDropped(dropped)
			}
			d.logger.WithFields(logger.Fields{"dropped": dropped}).Info("Delay queue stopped")
			return ctx.Err()
		case <-timer.C:
		case <-d.wake:
			timer.Stop()
		}
	}
}

// release moves every due signature to the target queue and returns the
// next due time, if any.
func (d *DelayQueue) release() (time.Time, bool) {
	now := d.now()

	d.mu.Lock()
	var due []string
	for len(d.items) > 0 && !d.items[0].due.After(now) {
		item := heap.Pop(&d.items).(delayedSignature)
		due = append(due, item.signature)
	}
	var next time.Time
	hasNext := len(d.items) > 0
	if hasNext {
		next = d.items[0].due
	}
	waiting := len(d.items)
	d.mu.Unlock()

	d.target.Push(due...)
	observability.UpdateDelayedSignatures(waiting)
	return next, hasNext
}

func (d *DelayQueue) stop() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	n := len(d.items)
	d.items = nil
	return n
}
