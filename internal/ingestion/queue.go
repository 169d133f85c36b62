package ingestion

import (
	"sync"

	"raydium-swap-monitor/internal/observability"
)

// MaxBatchSize is the largest batch the enrichment endpoint accepts.
const MaxBatchSize = 100

// SignatureQueue is a FIFO of signatures awaiting enrichment.
// Duplicates are kept and depth is unbounded.
type SignatureQueue struct {
	mu    sync.Mutex
	items []string
}

// NewSignatureQueue creates an empty queue.
func NewSignatureQueue() *SignatureQueue {
	return &SignatureQueue{}
}

// Push appends signatures to the back of the queue. Push and Drain keep the
// pending_signatures gauge current.
func (q *SignatureQueue) Push(signatures ...string) {
	if len(signatures) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, signatures...)
	observability.UpdatePendingSignatures(len(q.items))
	q.mu.Unlock()
}

// Drain removes up to max signatures from the front. max is clamped to
// 1..MaxBatchSize. Returns nil when the queue is empty; never blocks.
func (q *SignatureQueue) Drain(max int) []string {
	if max <= 0 || max > MaxBatchSize {
		max = MaxBatchSize
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	n := min(max, len(q.items))
	batch := make([]string, n)
	copy(batch, q.items[:n])

	// release the backing array once fully drained
	if n == len(q.items) {
		q.items = nil
	} else {
		q.items = q.items[n:]
	}
	observability.UpdatePendingSignatures(len(q.items))
	return batch
}

// Len returns the number of queued signatures.
func (q *SignatureQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
