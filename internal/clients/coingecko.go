package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"harvester/internal/domain"
)

const (
	coingeckoBaseURL        = "https://api.coingecko.com/api/v3"
	coingeckoRequestTimeout = 30 * time.Second
)

// Coingecko fetches daily price histories.
type Coingecko struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// CoingeckoOption configures a Coingecko client.
type CoingeckoOption func(*Coingecko)

// WithCoingeckoBaseURL overrides the API endpoint.
func WithCoingeckoBaseURL(baseURL string) CoingeckoOption {
	return func(c *Coingecko) { c.baseURL = baseURL }
}

// NewCoingecko returns a price-history client.
func NewCoingecko(apiKey string, opts ...CoingeckoOption) *Coingecko {
	c := &Coingecko{
		baseURL: coingeckoBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: coingeckoRequestTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DailyPrices returns the last days of daily prices for the given coin,
// ascending by timestamp.
func (c *Coingecko) DailyPrices(ctx context.Context, coin string, days int) (domain.PriceSeries, error) {
	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("days", strconv.Itoa(days))
	query.Set("interval", "daily")

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?%s", c.baseURL, url.PathEscape(coin), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrExternalCall, "coingecko market chart for %s: %v", coin, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrExternalCall, "coingecko market chart for %s: read response: %v", coin, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(domain.ErrExternalCall, "coingecko market chart for %s: status %d: %s", coin, resp.StatusCode, data)
	}

	var response struct {
		// Prices are [millisecond timestamp, price] pairs.
		Prices [][2]float64 `json:"prices"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, errors.Wrapf(err, "decode coingecko response for %s", coin)
	}

	series := make(domain.PriceSeries, 0, len(response.Prices))
	for _, point := range response.Prices {
		series = append(series, domain.PricePoint{
			Timestamp: time.UnixMilli(int64(point[0])).UTC(),
			Price:     point[1],
		})
	}
	series.Sort()

	return series, nil
}
