package leaderboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"raydium-swap-monitor/internal/address"
	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/logger"
	"raydium-swap-monitor/internal/observability"
)

const (
	// DefaultReportInterval is the report cadence.
	DefaultReportInterval = 10 * time.Second
	// DefaultFiatRate is the static fiat price of the native asset.
	DefaultFiatRate = 200.0
	// DefaultMintFetchRPS spaces mint lookups one second apart.
	DefaultMintFetchRPS = 1.0
)

// TokenStore is the aggregator view the reporter needs.
type TokenStore interface {
	Snapshot() map[string]domain.Token
	SetDetails(address string, details *domain.MintDetails)
	SetMarketCap(address string, mc decimal.Decimal)
	Len() int
}

// MintFetcher resolves mint details for a token address.
type MintFetcher interface {
	Fetch(ctx context.Context, address string) (*domain.MintDetails, error)
}

// Emitter receives finished reports.
type Emitter interface {
	Emit(ctx context.Context, report *domain.Report) error
}

// Reporter periodically ranks tokens, enriches the leaders with mint
// details and market cap, and emits a report.
type Reporter struct {
	store     TokenStore
	fetcher   MintFetcher
	emitter   Emitter
	formatter *CurrencyFormatter
	limiter   *rate.Limiter
	interval  time.Duration
	window    time.Duration
	topN      int
	fiatRate  float64
	logger    *logger.Entry
	now       func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup
}

// ReporterOptions contains configuration for creating a Reporter.
type ReporterOptions struct {
	Store     TokenStore
	Fetcher   MintFetcher
	Emitter   Emitter
	Formatter *CurrencyFormatter // default USD / en-US
	Interval  time.Duration      // default 10s
	Window    time.Duration      // default 180s
	TopN      int                // default 10, max 10
	FiatRate  float64            // default 200
	FetchRPS  float64            // default 1; negative disables limiting
	Logger    *logger.Entry
	Now       func() time.Time
}

// NewReporter creates a new Reporter.
func NewReporter(opts ReporterOptions) *Reporter {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	topN := opts.TopN
	if topN <= 0 || topN > MaxTopN {
		topN = DefaultTopN
	}
	fiatRate := opts.FiatRate
	if fiatRate <= 0 {
		fiatRate = DefaultFiatRate
	}

	limit := rate.Limit(DefaultMintFetchRPS)
	switch {
	case opts.FetchRPS < 0:
		limit = rate.Inf
	case opts.FetchRPS > 0:
		limit = rate.Limit(opts.FetchRPS)
	}

	formatter := opts.Formatter
	if formatter == nil {
		formatter, _ = NewCurrencyFormatter(DefaultCurrency, DefaultLocale)
	}
	log := opts.Logger
	if log == nil {
		log = logger.New().WithComponent("reporter")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Reporter{
		store:     opts.Store,
		fetcher:   opts.Fetcher,
		emitter:   opts.Emitter,
		formatter: formatter,
		limiter:   rate.NewLimiter(limit, 1),
		interval:  interval,
		window:    window,
		topN:      topN,
		fiatRate:  fiatRate,
		logger:    log,
		now:       now,
	}
}

// Run emits a report every interval until ctx is cancelled. A tick that
// fires while the previous report is still running is skipped.
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.WithFields(logger.Fields{
		"interval": r.interval.String(),
		"window":   r.window.String(),
		"top_n":    r.topN,
	}).Info("Reporter started")

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Reporter) tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		observability.RecordReportSkipped()
		r.logger.Debug("Previous report still running, skipping tick")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Store(false)

		if _, err := r.Report(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.WithError(err).Warn("Report failed")
		}
	}()
}

// Report builds and emits one leaderboard. The returned error is non-nil
// only when ctx ends mid-report; sink failures are logged.
func (r *Reporter) Report(ctx context.Context) (*domain.Report, error) {
	start := time.Now()
	now := r.now()

	snapshot := r.store.Snapshot()
	ranked := Rank(snapshot, now, r.window, r.topN)

	entries := make([]domain.LeaderboardEntry, 0, len(ranked))
	for i, rk := range ranked {
		tok := rk.Token
		details := tok.Details
		if details == nil {
			d, err := r.fetchDetails(ctx, tok.Address)
			if err != nil {
				return nil, err
			}
			details = d
		}

		entry := domain.LeaderboardEntry{
			Rank:        i + 1,
			Address:     tok.Address,
			WindowTotal: rk.WindowTotal,
			WindowSwaps: rk.WindowSwaps,
		}
		last := tok.LastSwap()
		if last != nil {
			entry.LastPrice = last.Price
		}
		if details != nil {
			entry.FreezeAuthority = details.FreezeAuthority
			if last != nil {
				mc := MarketCap(details.TotalSupply, last.Price, r.fiatRate)
				r.store.SetMarketCap(tok.Address, mc)
				entry.MarketCapValue = &mc
				entry.MarketCap = r.formatter.Format(mc)
			}
		}
		entries = append(entries, entry)
	}

	report := &domain.Report{
		ID:            uuid.New(),
		GeneratedAt:   now,
		Window:        r.window,
		TokensTracked: len(snapshot),
		Entries:       entries,
	}

	if r.emitter != nil {
		if err := r.emitter.Emit(ctx, report); err != nil {
			r.logger.WithError(err).WithFields(logger.Fields{"report_id": report.ID.String()}).Warn("Failed to emit report")
		}
	}

	observability.UpdateTokensTracked(len(snapshot))
	observability.RecordReport(time.Since(start).Seconds())
	return report, nil
}

// fetchDetails returns nil details (and nil error) when the lookup is
// skipped or fails; it errors only when ctx ends while rate limited.
func (r *Reporter) fetchDetails(ctx context.Context, addr string) (*domain.MintDetails, error) {
	if !address.IsValid(addr) {
		observability.RecordMintFetch("invalid_address")
		r.logger.WithFields(logger.Fields{"token": addr}).Debug("Skipping mint lookup for invalid address")
		return nil, nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	details, err := r.fetcher.Fetch(ctx, addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		observability.RecordMintFetch("error")
		r.logger.WithError(err).WithFields(logger.Fields{"token": addr}).Warn("Mint lookup failed, will retry next report")
		return nil, nil
	}

	observability.RecordMintFetch("ok")
	r.store.SetDetails(addr, details)
	return details, nil
}
