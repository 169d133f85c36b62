package leaderboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-swap-monitor/internal/aggregator"
	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/logger"
	"raydium-swap-monitor/internal/mint"
	"raydium-swap-monitor/internal/solana"
	"raydium-swap-monitor/internal/solana/stub"
)

const (
	mintUSDC = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	mintBONK = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	mintUSDT = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

type recordingEmitter struct {
	mu      sync.Mutex
	reports []*domain.Report
	err     error
}

func (e *recordingEmitter) Emit(_ context.Context, r *domain.Report) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reports = append(e.reports, r)
	return e.err
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.reports)
}

func recordBuy(agg *aggregator.Aggregator, addr string, amount, price float64, at time.Time) {
	agg.Record(domain.Swap{Side: domain.SideBuy, Token: addr, Amount: amount, Price: price, Time: at})
}

func newTestReporter(agg *aggregator.Aggregator, rpc solana.RPCClient, emitter Emitter) *Reporter {
	return NewReporter(ReporterOptions{
		Store:    agg,
		Fetcher:  mint.NewFetcher(rpc, nil),
		Emitter:  emitter,
		FetchRPS: -1,
		Logger:   logger.Discard().WithComponent("reporter"),
		Now:      func() time.Time { return now },
	})
}

func TestReporter_Report(t *testing.T) {
	agg := aggregator.New()
	recordBuy(agg, mintUSDC, 10, 0.001, now.Add(-20*time.Second))
	recordBuy(agg, mintUSDC, 5, 0.002, now.Add(-5*time.Second))
	recordBuy(agg, mintBONK, 3, 0.5, now.Add(-5*time.Second))

	freeze := "FreezeAuth11111111111111111111111111111111"
	rpc := stub.NewRPCClient()
	rpc.AddMint(mintUSDC, &solana.MintInfo{Supply: "1000000000000", Decimals: 6, FreezeAuthority: &freeze, IsInitialized: true})
	emitter := &recordingEmitter{}

	report, err := newTestReporter(agg, rpc, emitter).Report(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, 1, emitter.count())
	assert.Equal(t, 2, report.TokensTracked)
	assert.Equal(t, DefaultWindow, report.Window)
	assert.Equal(t, now, report.GeneratedAt)
	assert.NotEmpty(t, report.ID.String())

	first := report.Entries[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, mintUSDC, first.Address)
	assert.Equal(t, 15.0, first.WindowTotal)
	assert.Equal(t, 2, first.WindowSwaps)
	assert.Equal(t, 0.002, first.LastPrice)
	assert.Equal(t, "USD 400,000.00", first.MarketCap)
	require.NotNil(t, first.MarketCapValue)
	assert.True(t, first.MarketCapValue.Equal(decimal.NewFromInt(400000)))
	require.NotNil(t, first.FreezeAuthority)
	assert.Equal(t, freeze, *first.FreezeAuthority)

	// BONK has no mint on the stub: fetch failed, no market cap
	second := report.Entries[1]
	assert.Equal(t, mintBONK, second.Address)
	assert.Empty(t, second.MarketCap)
	assert.Nil(t, second.MarketCapValue)

	tok := agg.Snapshot()[mintUSDC]
	require.NotNil(t, tok.Details)
	require.NotNil(t, tok.MarketCap)
	assert.True(t, tok.MarketCap.Equal(decimal.NewFromInt(400000)))
}

func TestReporter_CachesDetailsAndRetriesFailures(t *testing.T) {
	agg := aggregator.New()
	recordBuy(agg, mintUSDC, 1, 0.002, now.Add(-time.Second))
	recordBuy(agg, mintBONK, 1, 0.002, now.Add(-time.Second))

	rpc := stub.NewRPCClient()
	rpc.AddMint(mintUSDC, &solana.MintInfo{Supply: "1000", Decimals: 0, IsInitialized: true})
	rpc.FailMint(mintBONK, errors.New("429 too many requests"))

	r := newTestReporter(agg, rpc, &recordingEmitter{})
	for i := 0; i < 3; i++ {
		_, err := r.Report(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, rpc.CallCount(mintUSDC))
	assert.Equal(t, 3, rpc.CallCount(mintBONK))
}

func TestReporter_InvalidAddressNeverFetched(t *testing.T) {
	agg := aggregator.New()
	recordBuy(agg, "BONK", 50, 0.1, now.Add(-time.Second))

	rpc := stub.NewRPCClient()
	report, err := newTestReporter(agg, rpc, &recordingEmitter{}).Report(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, "BONK", report.Entries[0].Address)
	assert.Empty(t, report.Entries[0].MarketCap)
	assert.Zero(t, rpc.CallCount("BONK"))
}

func TestReporter_SinkErrorDoesNotFail(t *testing.T) {
	agg := aggregator.New()
	recordBuy(agg, mintUSDC, 1, 0.002, now.Add(-time.Second))

	emitter := &recordingEmitter{err: errors.New("sink down")}
	report, err := newTestReporter(agg, stub.NewRPCClient(), emitter).Report(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, report)
	assert.Equal(t, 1, emitter.count())
}

func TestReporter_RateLimitsMintFetches(t *testing.T) {
	agg := aggregator.New()
	for _, addr := range []string{mintUSDC, mintBONK, mintUSDT} {
		recordBuy(agg, addr, 1, 0.1, now.Add(-time.Second))
	}

	r := NewReporter(ReporterOptions{
		Store:    agg,
		Fetcher:  mint.NewFetcher(stub.NewRPCClient(), nil),
		Emitter:  &recordingEmitter{},
		FetchRPS: 20,
		Logger:   logger.Discard().WithComponent("reporter"),
		Now:      func() time.Time { return now },
	})

	start := time.Now()
	_, err := r.Report(context.Background())
	require.NoError(t, err)
	// first fetch uses the burst token, the next two wait 50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestReporter_CancelledWhileRateLimited(t *testing.T) {
	agg := aggregator.New()
	recordBuy(agg, mintUSDC, 2, 0.1, now.Add(-time.Second))
	recordBuy(agg, mintBONK, 1, 0.1, now.Add(-time.Second))

	emitter := &recordingEmitter{}
	r := NewReporter(ReporterOptions{
		Store:    agg,
		Fetcher:  mint.NewFetcher(stub.NewRPCClient(), nil),
		Emitter:  emitter,
		FetchRPS: 0.01,
		Logger:   logger.Discard().WithComponent("reporter"),
		Now:      func() time.Time { return now },
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := r.Report(ctx)
	assert.Error(t, err)
	assert.Zero(t, emitter.count())
}

type blockingFetcher struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
}

func (f *blockingFetcher) Fetch(ctx context.Context, _ string) (*domain.MintDetails, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return nil, errors.New("unavailable")
}

func TestReporter_SkipsOverlappingTicks(t *testing.T) {
	agg := aggregator.New()
	recordBuy(agg, mintUSDC, 1, 0.1, now.Add(-time.Second))

	fetcher := &blockingFetcher{release: make(chan struct{})}
	emitter := &recordingEmitter{}
	r := NewReporter(ReporterOptions{
		Store:    agg,
		Fetcher:  fetcher,
		Emitter:  emitter,
		FetchRPS: -1,
		Logger:   logger.Discard().WithComponent("reporter"),
		Now:      func() time.Time { return now },
	})

	ctx := context.Background()
	r.tick(ctx)
	require.Eventually(t, func() bool {
		fetcher.mu.Lock()
		defer fetcher.mu.Unlock()
		return fetcher.calls == 1
	}, time.Second, 5*time.Millisecond)

	r.tick(ctx)
	r.tick(ctx)

	close(fetcher.release)
	r.wg.Wait()

	assert.Equal(t, 1, emitter.count())
	assert.Equal(t, 1, fetcher.calls)

	r.tick(ctx)
	r.wg.Wait()
	assert.Equal(t, 2, emitter.count())
}

func TestReporter_Run(t *testing.T) {
	agg := aggregator.New()
	recordBuy(agg, mintUSDC, 1, 0.1, time.Now())

	emitter := &recordingEmitter{}
	r := NewReporter(ReporterOptions{
		Store:    agg,
		Fetcher:  mint.NewFetcher(stub.NewRPCClient(), nil),
		Emitter:  emitter,
		Interval: 10 * time.Millisecond,
		FetchRPS: -1,
		Logger:   logger.Discard().WithComponent("reporter"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return emitter.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}

func TestNewReporter_Defaults(t *testing.T) {
	r := NewReporter(ReporterOptions{TopN: 25, Logger: logger.Discard().WithComponent("reporter")})

	assert.Equal(t, DefaultReportInterval, r.interval)
	assert.Equal(t, DefaultWindow, r.window)
	assert.Equal(t, DefaultTopN, r.topN)
	assert.Equal(t, DefaultFiatRate, r.fiatRate)
	assert.Equal(t, DefaultCurrency, r.formatter.Code())
}
