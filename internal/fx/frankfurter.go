package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/MrJamesThe3rd/expensight/internal/currency"
)

const (
	DefaultBaseURL = "https://api.frankfurter.app"
	DefaultTimeout = 10 * time.Second
)

// FrankfurterClient reads historical rates from the Frankfurter API.
// For non-trading days the API answers with the closest preceding trading day.
type FrankfurterClient struct {
	baseURL    string
	httpClient *http.Client
}

type frankfurterResponse struct {
	Base  string                 `json:"base"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// NewFrankfurterClient builds a client with its own bounded http.Client.
func NewFrankfurterClient(baseURL string, timeout time.Duration) *FrankfurterClient {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &FrankfurterClient{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// HistoricalRate returns the rate for from→to on date. Identical codes short-circuit to 1.
func (c *FrankfurterClient) HistoricalRate(ctx context.Context, from, to string, date time.Time) (decimal.Decimal, error) {
	from = currency.Normalize(from)
	to = currency.Normalize(to)

	if from == to {
		return decimal.NewFromInt(1), nil
	}

	endpoint := fmt.Sprintf("%s/%s?from=%s&to=%s",
		c.baseURL,
		date.Format(time.DateOnly),
		url.QueryEscape(from),
		url.QueryEscape(to),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("creating rate request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrProviderUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, fmt.Errorf("%w: the currency pair '%s' to '%s' is not supported or invalid", ErrInvalidCurrency, from, to)
	case resp.StatusCode != http.StatusOK:
		return decimal.Zero, fmt.Errorf("%w: external FX service failed with status %d", ErrRateUnavailable, resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var payload frankfurterResponse
	if err := decoder.Decode(&payload); err != nil {
		if isTransportError(err) {
			return decimal.Zero, fmt.Errorf("%w: %w", ErrProviderUnreachable, err)
		}

		return decimal.Zero, fmt.Errorf("%w: decoding response: %w", ErrRateUnavailable, err)
	}

	raw, ok := payload.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: FX API did not return a rate for %s", ErrRateUnavailable, to)
	}

	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: parsing rate %q: %w", ErrRateUnavailable, raw, err)
	}

	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive rate %s for %s", ErrRateUnavailable, rate, to)
	}

	return rate, nil
}

// isTransportError reports whether a body read failed because the connection
// or the deadline went away rather than because the payload was malformed.
func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var netErr interface{ Timeout() bool }

	return errors.As(err, &netErr) && netErr.Timeout()
}
