package ingestion

import (
	"context"
	"time"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/logger"
	"raydium-swap-monitor/internal/observability"
	"raydium-swap-monitor/internal/parser"
)

// DefaultBatchInterval is the drain cadence.
const DefaultBatchInterval = time.Second

// Batch statuses, also used as metric labels.
const (
	batchOK     = "ok"
	batchFailed = "failed"
)

// BatchResult summarizes one processed batch.
type BatchResult struct {
	Drained   int
	Missing   int
	Recorded  int
	Discarded int
	Archived  int
}

// Batcher periodically drains the signature queue and feeds enriched
// transactions through the parser into the recorder.
type Batcher struct {
	queue     *SignatureQueue
	enricher  Enricher
	parser    SwapParser
	recorder  SwapRecorder
	archive   SwapArchive
	interval  time.Duration
	batchSize int
	logger    *logger.Entry
}

// BatcherOptions contains configuration for creating a Batcher.
type BatcherOptions struct {
	Queue     *SignatureQueue
	Enricher  Enricher
	Parser    SwapParser
	Recorder  SwapRecorder
	Archive   SwapArchive   // optional
	Interval  time.Duration // default 1s
	BatchSize int           // default and max 100
	Logger    *logger.Entry
}

// NewBatcher creates a new Batcher.
func NewBatcher(opts BatcherOptions) *Batcher {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultBatchInterval
	}
	size := opts.BatchSize
	if size <= 0 || size > MaxBatchSize {
		size = MaxBatchSize
	}
	log := opts.Logger
	if log == nil {
		log = logger.New().WithComponent("batcher")
	}

	return &Batcher{
		queue:     opts.Queue,
		enricher:  opts.Enricher,
		parser:    opts.Parser,
		recorder:  opts.Recorder,
		archive:   opts.Archive,
		interval:  interval,
		batchSize: size,
		logger:    log,
	}
}

// Run processes one batch per tick until ctx is cancelled. A slow batch
// delays the next tick; missed ticks are coalesced.
func (b *Batcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.logger.WithFields(logger.Fields{
		"interval":   b.interval.String(),
		"batch_size": b.batchSize,
	}).Info("Batcher started")

	for {
		select {
		case <-ctx.Done():
			if n := b.queue.Len(); n > 0 {
				observability.RecordSignaturesDropped(n)
				b.logger.WithFields(logger.Fields{"pending": n}).Info("Batcher stopped with pending signatures")
			}
			return ctx.Err()
		case <-ticker.C:
			b.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch drains one batch and processes it. An empty queue is a no-op.
// On enrichment failure the drained signatures are dropped.
func (b *Batcher) ProcessBatch(ctx context.Context) BatchResult {
	batch := b.queue.Drain(b.batchSize)
	if len(batch) == 0 {
		return BatchResult{}
	}
	res := BatchResult{Drained: len(batch)}

	start := time.Now()
	txs, err := b.enricher.GetTransactions(ctx, batch)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		observability.RecordBatch(batchFailed, len(batch), elapsed)
		observability.RecordSignaturesDropped(len(batch))
		b.logger.WithError(err).WithFields(logger.Fields{"dropped": len(batch)}).Warn("Enrichment batch failed")
		return res
	}
	observability.RecordBatch(batchOK, len(batch), elapsed)

	var recorded []domain.Swap
	for _, tx := range txs {
		if tx == nil {
			res.Missing++
			continue
		}
		swap, err := b.parser.Parse(tx)
		if err != nil {
			res.Discarded++
			observability.RecordParseDiscard(parser.Reason(err))
			if parser.IsAnomaly(err) {
				b.logger.WithError(err).WithFields(logger.Fields{
					"signature":   tx.Signature,
					"description": tx.Description,
				}).Debug("Unparsable description")
			}
			continue
		}
		tracked := b.recorder.Record(*swap)
		observability.RecordSwap()
		observability.UpdateTokensTracked(tracked)
		res.Recorded++
		recorded = append(recorded, *swap)
	}
	if missing := max(len(batch)-len(txs), 0) + res.Missing; missing > 0 {
		observability.RecordTransactionsMissed(missing)
	}

	res.Archived = b.archiveSwaps(ctx, recorded)

	b.logger.WithFields(logger.Fields{
		"drained":   res.Drained,
		"missing":   res.Missing,
		"recorded":  res.Recorded,
		"discarded": res.Discarded,
		"archived":  res.Archived,
	}).Debug("Batch processed")
	return res
}

// archiveSwaps writes recorded swaps to the archive, if any. A failure is
// logged and counted; the swaps stay in the aggregator either way.
func (b *Batcher) archiveSwaps(ctx context.Context, swaps []domain.Swap) int {
	if b.archive == nil || len(swaps) == 0 {
		return 0
	}
	if err := b.archive.InsertSwaps(ctx, swaps); err != nil {
		observability.RecordSwapsArchived(batchFailed, len(swaps))
		b.logger.WithError(err).WithFields(logger.Fields{"swaps": len(swaps)}).Warn("Swap archive write failed")
		return 0
	}
	observability.RecordSwapsArchived(batchOK, len(swaps))
	return len(swaps)
}
