package ingestion

import (
	"context"
	"errors"
	"strings"
	"time"

	"raydium-swap-monitor/internal/logger"
	"raydium-swap-monitor/internal/observability"
	"raydium-swap-monitor/internal/solana"
)

const (
	// RaydiumAMMProgramID is the Raydium AMM v4 program.
	RaydiumAMMProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

	// DefaultEnqueueDelay gives the enrichment API time to index a transaction.
	DefaultEnqueueDelay = 10 * time.Second

	programLogMarker = "Program log:"
)

// ErrSubscriptionClosed is returned when the log stream ends while the listener is running.
var ErrSubscriptionClosed = errors.New("log subscription closed")

// Listener outcomes, also used as metric labels.
const (
	outcomeAccepted = "accepted"
	outcomeNoMarker = "no_marker"
	outcomeFailedTx = "failed_tx"
	outcomeRejected = "rejected"
)

// Listener subscribes to program logs and schedules matching signatures.
type Listener struct {
	ws         solana.WSClient
	scheduler  Scheduler
	programID  string
	commitment string
	delay      time.Duration
	logger     *logger.Entry
	now        func() time.Time
}

// ListenerOptions contains configuration for creating a Listener.
type ListenerOptions struct {
	WS         solana.WSClient
	Scheduler  Scheduler
	ProgramID  string        // default RaydiumAMMProgramID
	Commitment string        // default finalized
	Delay      time.Duration // default 10s
	Logger     *logger.Entry
	Now        func() time.Time
}

// NewListener creates a new Listener.
func NewListener(opts ListenerOptions) *Listener {
	programID := opts.ProgramID
	if programID == "" {
		programID = RaydiumAMMProgramID
	}
	commitment := opts.Commitment
	if commitment == "" {
		commitment = solana.CommitmentFinalized
	}
	delay := opts.Delay
	if delay == 0 {
		delay = DefaultEnqueueDelay
	}
	log := opts.Logger
	if log == nil {
		log = logger.New().WithComponent("listener")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Listener{
		ws:         opts.WS,
		scheduler:  opts.Scheduler,
		programID:  programID,
		commitment: commitment,
		delay:      delay,
		logger:     log,
		now:        now,
	}
}

// Run subscribes and consumes notifications until ctx is cancelled or the
// stream closes.
func (l *Listener) Run(ctx context.Context) error {
	notifs, err := l.ws.SubscribeLogs(ctx, solana.LogsFilter{
		Mentions:   []string{l.programID},
		Commitment: l.commitment,
	})
	if err != nil {
		return err
	}
	l.logger.WithFields(logger.Fields{
		"program":    l.programID,
		"commitment": l.commitment,
		"delay":      l.delay.String(),
	}).Info("Subscribed to program logs")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-notifs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrSubscriptionClosed
			}
			l.handle(notif)
		}
	}
}

func (l *Listener) handle(notif solana.LogNotification) {
	outcome := l.classify(notif)
	if outcome == outcomeAccepted {
		if l.scheduler.Schedule(notif.Signature, l.now().Add(l.delay)) {
			observability.RecordSignatureScheduled()
		} else {
			outcome = outcomeRejected
		}
	}
	observability.RecordLogNotification(outcome)

	l.logger.WithFields(logger.Fields{
		"signature": notif.Signature,
		"slot":      notif.Slot,
		"outcome":   outcome,
	}).Debug("Log notification")
}

func (l *Listener) classify(notif solana.LogNotification) string {
	if notif.Err != nil {
		return outcomeFailedTx
	}
	if notif.Signature == "" || !hasProgramLog(notif.Logs) {
		return outcomeNoMarker
	}
	return outcomeAccepted
}

func hasProgramLog(logs []string) bool {
	for _, line := range logs {
		if strings.Contains(line, programLogMarker) {
			return true
		}
	}
	return false
}
