package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/logger"
)

// ConsoleSink prints each report as an aligned table.
type ConsoleSink struct {
	out    io.Writer
	native string
	logger *logger.Entry
}

// NewConsoleSink writes to out (stdout when nil). native labels the volume column.
func NewConsoleSink(out io.Writer, native string, log *logger.Entry) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	if native == "" {
		native = "SOL"
	}
	if log == nil {
		log = logger.New().WithComponent("console-sink")
	}
	return &ConsoleSink{out: out, native: native, logger: log}
}

// Emit writes the table and logs a one-line summary.
func (s *ConsoleSink) Emit(_ context.Context, report *domain.Report) error {
	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Top %d tokens, last %s (%d tracked) at %s\n",
		len(report.Entries), report.Window, report.TokensTracked, report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "#\tADDRESS\tTOTAL %s\tSWAPS\tMARKET CAP\tFREEZE AUTHORITY\n", s.native)
	for _, e := range report.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			e.Rank,
			e.Address,
			strconv.FormatFloat(e.WindowTotal, 'f', 4, 64),
			e.WindowSwaps,
			orDash(e.MarketCap),
			orDash(deref(e.FreezeAuthority)),
		)
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report table: %w", err)
	}

	fields := logger.Fields{
		"report_id":      report.ID.String(),
		"entries":        len(report.Entries),
		"tokens_tracked": report.TokensTracked,
	}
	if len(report.Entries) > 0 {
		fields["leader"] = report.Entries[0].Address
		fields["leader_total"] = report.Entries[0].WindowTotal
	}
	s.logger.WithFields(fields).Info("Leaderboard emitted")
	return nil
}

// Name returns "console".
func (s *ConsoleSink) Name() string {
	return "console"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
