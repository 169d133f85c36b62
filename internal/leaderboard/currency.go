package leaderboard

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	DefaultCurrency = "USD"
	DefaultLocale   = "en-US"
)

// CurrencyFormatter renders amounts as "<ISO code> <localized number>".
type CurrencyFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewCurrencyFormatter validates the ISO 4217 code and BCP 47 locale.
func NewCurrencyFormatter(code, locale string) (*CurrencyFormatter, error) {
	if code == "" {
		code = DefaultCurrency
	}
	if locale == "" {
		locale = DefaultLocale
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("invalid currency '%s': %w", code, err)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale '%s': %w", locale, err)
	}

	return &CurrencyFormatter{
		unit:    unit,
		printer: message.NewPrinter(tag),
	}, nil
}

// Format renders v with two decimals and locale grouping, e.g. "USD 400,000.00".
func (f *CurrencyFormatter) Format(v decimal.Decimal) string {
	amount := v.Round(2).InexactFloat64()
	return f.printer.Sprintf("%s %v", f.unit.String(), number.Decimal(amount, number.Scale(2)))
}

// Code returns the ISO currency code.
func (f *CurrencyFormatter) Code() string {
	return f.unit.String()
}
