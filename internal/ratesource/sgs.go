package ratesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/iwvelando/loan-review/pkg/datetime"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

var hundred = decimal.NewFromInt(100)

// Observation is one data point of an SGS series.
type Observation struct {
	Date  string `json:"data"`
	Value string `json:"valor"`
}

// Options configures a Client. Zero values fall back to the package defaults.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
	Catalog      *Catalog
	HTTPClient   *http.Client
}

// Client fetches reference rates from the SGS API.
type Client struct {
	logger       *zap.Logger
	httpClient   *http.Client
	baseURL      string
	timeout      time.Duration
	retries      int
	retryBackoff time.Duration
	catalog      *Catalog
}

// NewClient creates an SGS client.
func NewClient(logger *zap.Logger, opts Options) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = constants.DefaultRateBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultRateTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = constants.DefaultRetryBackoff
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		logger:       logger,
		httpClient:   opts.HTTPClient,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		timeout:      opts.Timeout,
		retries:      opts.Retries,
		retryBackoff: opts.RetryBackoff,
		catalog:      opts.Catalog,
	}
}

// Catalog returns the modality catalog used by the client.
func (c *Client) Catalog() *Catalog {
	return c.catalog
}

// ReferenceRate returns the market-average monthly rate, as a decimal fraction,
// for the calendar month containing contractDate. When the series reports more
// than one value for the month the last one wins.
func (c *Client) ReferenceRate(ctx context.Context, modality string, contractDate time.Time) (float64, error) {
	m, err := c.catalog.Lookup(modality)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.seriesURL(m.SeriesCode, contractDate)

	var observations []Observation
	for attempt := 0; ; attempt++ {
		var retryable bool
		observations, retryable, err = c.fetch(ctx, endpoint)
		if err == nil || !retryable || attempt >= c.retries {
			break
		}
		c.logger.Warn("reference rate lookup failed, retrying",
			zap.String("op", "ratesource.ReferenceRate"),
			zap.String("modality", m.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(c.retryBackoff):
		}
	}
	if err != nil {
		return 0, err
	}

	month := datetime.MonthKey(contractDate)
	if len(observations) == 0 {
		return 0, fmt.Errorf("%w: no data for %s in %s", ErrUnavailable, m.ID, month)
	}

	latest := observations[len(observations)-1]
	rate, err := ParsePercentage(latest.Value)
	if err != nil {
		return 0, err
	}

	c.logger.Debug(fmt.Sprintf("reference rate for %s in %s is %s%%", m.ID, month, latest.Value),
		zap.String("op", "ratesource.ReferenceRate"),
		zap.String("series", m.SeriesCode),
		zap.String("observed", latest.Date),
	)
	return rate, nil
}

func (c *Client) seriesURL(code string, contractDate time.Time) string {
	first, last := datetime.MonthBounds(contractDate)
	params := url.Values{}
	params.Set("formato", "json")
	params.Set("dataInicial", datetime.FormatContractDate(first))
	params.Set("dataFinal", datetime.FormatContractDate(last))
	return fmt.Sprintf("%s/bcdata.sgs.%s/dados?%s", c.baseURL, url.PathEscape(code), params.Encode())
}

// fetch performs one request. The boolean reports whether a failure may be retried.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]Observation, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("%w: request failed: %v", ErrUnavailable, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close response body",
				zap.String("op", "ratesource.fetch"),
				zap.Error(closeErr),
			)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, true, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, resp.StatusCode >= http.StatusInternalServerError,
			fmt.Errorf("%w: upstream status %d", ErrUnavailable, resp.StatusCode)
	}

	var observations []Observation
	if err := json.Unmarshal(body, &observations); err != nil {
		return nil, false, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	return observations, false, nil
}

// ParsePercentage converts an SGS percentage string ("1,93" or "1.93") into a
// positive decimal fraction (0.0193).
func ParsePercentage(value string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	percent, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, fmt.Errorf("%w: unparsable value %q", ErrUnavailable, value)
	}
	if !percent.IsPositive() {
		return 0, fmt.Errorf("%w: non-positive value %q", ErrUnavailable, value)
	}
	rate, _ := percent.Div(hundred).Float64()
	return rate, nil
}

// IsUnavailable reports whether err means no reference rate could be obtained.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
