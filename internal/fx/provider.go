// Package fx looks up historical foreign-exchange rates.
package fx

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCurrency means the source rejected the currency pair. Caller-correctable.
	ErrInvalidCurrency = errors.New("currency not supported")
	// ErrRateUnavailable means the source answered but without a usable rate.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
	// ErrProviderUnreachable covers transport failures, including timeouts.
	ErrProviderUnreachable = errors.New("exchange rate provider unreachable")
)

//go:generate mockgen -source=provider.go -destination=provider_mock.go -package=fx

// Provider returns the rate to convert one unit of from into to on date.
// Implementations do not retry.
type Provider interface {
	HistoricalRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error)
}
