// Package parser turns enriched transaction descriptions into swaps.
//
// Descriptions follow the layout
//
//	<account> swapped <amount> <symbol> for <amount> <symbol> ...
//
// Field 2 and field 5 are amounts, field 3 and field 6 are symbols. The side
// is inferred from field 3: when it is the native symbol the native asset was
// spent, which is a BUY of the token in field 6.
package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"raydium-swap-monitor/internal/domain"
)

// DefaultNativeSymbol is the chain's base asset as rendered in descriptions.
const DefaultNativeSymbol = "SOL"

const (
	minFields   = 7
	inAmountIx  = 2
	inSymbolIx  = 3
	outAmountIx = 5
	outSymbolIx = 6
)

// Anomalies: the description does not look like a swap.
var (
	ErrLayout  = errors.New("unexpected description layout")
	ErrNumeric = errors.New("non-numeric amount")
)

// Intentional discards.
var (
	ErrNativePair       = errors.New("native-to-native swap")
	ErrUnsupportedRoute = errors.New("no native side")
	ErrNotBuy           = errors.New("not a buy")
	ErrZeroAmount       = errors.New("zero amount")
)

// ParseError describes why a description was discarded.
type ParseError struct {
	Signature   string
	Description string
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Signature, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsAnomaly reports whether err signals format drift rather than a deliberate discard.
func IsAnomaly(err error) bool {
	return errors.Is(err, ErrLayout) || errors.Is(err, ErrNumeric)
}

// Reason returns a short metric label for err.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrLayout):
		return "layout"
	case errors.Is(err, ErrNumeric):
		return "numeric"
	case errors.Is(err, ErrNativePair):
		return "native_pair"
	case errors.Is(err, ErrUnsupportedRoute):
		return "unsupported_route"
	case errors.Is(err, ErrNotBuy):
		return "not_buy"
	case errors.Is(err, ErrZeroAmount):
		return "zero_amount"
	default:
		return "unknown"
	}
}

// Parser converts descriptions into swaps.
type Parser struct {
	native string
	now    func() time.Time
}

// Option configures Parser.
type Option func(*Parser)

// WithNativeSymbol overrides the native asset symbol.
func WithNativeSymbol(symbol string) Option {
	return func(p *Parser) {
		if symbol != "" {
			p.native = symbol
		}
	}
}

// WithClock sets the time source used to stamp swaps.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		native: DefaultNativeSymbol,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts a BUY swap from tx. Every discard returns a *ParseError.
func (p *Parser) Parse(tx *domain.EnrichedTransaction) (*domain.Swap, error) {
	if tx == nil {
		return nil, &ParseError{Err: ErrLayout}
	}
	fail := func(err error) (*domain.Swap, error) {
		return nil, &ParseError{Signature: tx.Signature, Description: tx.Description, Err: err}
	}

	fields := strings.Fields(tx.Description)
	if len(fields) < minFields {
		return fail(fmt.Errorf("%w: %d fields", ErrLayout, len(fields)))
	}

	inSymbol := fields[inSymbolIx]
	outSymbol := fields[outSymbolIx]
	inNative := inSymbol == p.native
	outNative := outSymbol == p.native

	side := domain.SideSell
	if inNative {
		side = domain.SideBuy
	}

	switch {
	case inNative && outNative:
		return fail(ErrNativePair)
	case !inNative && !outNative:
		return fail(ErrUnsupportedRoute)
	case side != domain.SideBuy:
		return fail(ErrNotBuy)
	}

	inAmount, err := parseAmount(fields[inAmountIx])
	if err != nil {
		return fail(err)
	}
	outAmount, err := parseAmount(fields[outAmountIx])
	if err != nil {
		return fail(err)
	}

	amount := inAmount
	if amount == 0 {
		return fail(ErrZeroAmount)
	}

	price := inAmount / outAmount
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fail(fmt.Errorf("%w: price %s/%s", ErrNumeric, fields[inAmountIx], fields[outAmountIx]))
	}

	return &domain.Swap{
		Side:        side,
		Token:       outSymbol,
		Price:       price,
		Amount:      amount,
		Time:        p.now(),
		Source:      tx.Source,
		Signature:   tx.Signature,
		Description: tx.Description,
	}, nil
}

// parseAmount accepts decimal amounts with optional thousands separators.
func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNumeric, s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrNumeric, s)
	}
	return v, nil
}
