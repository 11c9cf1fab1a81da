// Package clients holds the REST clients for the external collaborators.
package clients

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"harvester/internal/domain"
)

const (
	foxbitBaseURL        = "https://api.foxbit.com.br"
	foxbitRequestTimeout = 30 * time.Second
)

// Foxbit is a client for the Foxbit spot-exchange REST API, bound to one
// user's API credentials.
type Foxbit struct {
	baseURL    string
	accessKey  string
	secretKey  string
	httpClient *http.Client
	now        func() time.Time
}

// FoxbitOption configures a Foxbit client.
type FoxbitOption func(*Foxbit)

// WithFoxbitBaseURL overrides the API endpoint.
func WithFoxbitBaseURL(baseURL string) FoxbitOption {
	return func(f *Foxbit) { f.baseURL = baseURL }
}

// NewFoxbit returns a client signing requests with the given credentials.
func NewFoxbit(accessKey, secretKey string, opts ...FoxbitOption) *Foxbit {
	f := &Foxbit{
		baseURL:   foxbitBaseURL,
		accessKey: accessKey,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: foxbitRequestTimeout,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Accounts lists the user's account balances.
func (f *Foxbit) Accounts(ctx context.Context) ([]domain.Balance, error) {
	var response struct {
		Data []struct {
			CurrencySymbol   string          `json:"currency_symbol"`
			BalanceAvailable decimal.Decimal `json:"balance_available"`
		} `json:"data"`
	}

	if err := f.request(ctx, http.MethodGet, "/rest/v3/accounts", nil, nil, &response); err != nil {
		return nil, err
	}

	balances := make([]domain.Balance, 0, len(response.Data))
	for _, account := range response.Data {
		balances = append(balances, domain.Balance{
			CurrencySymbol: account.CurrencySymbol,
			Available:      account.BalanceAvailable,
		})
	}
	return balances, nil
}

// Quote fetches an instant conversion price for the given side and amount.
func (f *Foxbit) Quote(ctx context.Context, side, baseCurrency, quoteCurrency string, amount decimal.Decimal) (domain.Quote, error) {
	query := url.Values{}
	query.Set("side", side)
	query.Set("base_currency", baseCurrency)
	query.Set("quote_currency", quoteCurrency)
	query.Set("amount", amount.String())

	var response struct {
		Price decimal.Decimal `json:"price"`
	}

	if err := f.request(ctx, http.MethodGet, "/rest/v3/markets/quotes", query, nil, &response); err != nil {
		return domain.Quote{}, err
	}

	return domain.Quote{Price: response.Price}, nil
}

// CreateOrder submits an order and returns the exchange acknowledgement.
func (f *Foxbit) CreateOrder(ctx context.Context, order domain.Order) (domain.OrderAck, error) {
	body := struct {
		MarketSymbol  string `json:"market_symbol"`
		Side          string `json:"side"`
		Type          string `json:"type"`
		Amount        string `json:"amount"`
		ClientOrderID string `json:"client_order_id,omitempty"`
	}{
		MarketSymbol:  order.MarketSymbol,
		Side:          string(order.Side),
		Type:          string(order.Type),
		Amount:        order.Amount.String(),
		ClientOrderID: order.ClientOrderID,
	}

	var response struct {
		ID json.Number `json:"id"`
	}

	if err := f.request(ctx, http.MethodPost, "/rest/v3/orders", nil, body, &response); err != nil {
		return domain.OrderAck{}, err
	}

	return domain.OrderAck{
		ID:            response.ID.String(),
		ClientOrderID: order.ClientOrderID,
	}, nil
}

// request signs and executes one API call, decoding the JSON response into out.
func (f *Foxbit) request(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
	}

	rawQuery := ""
	if query != nil {
		rawQuery = query.Encode()
	}

	endpoint := f.baseURL + path
	if rawQuery != "" {
		endpoint += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	timestamp := strconv.FormatInt(f.now().UnixMilli(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-FB-ACCESS-KEY", f.accessKey)
	req.Header.Set("X-FB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("X-FB-ACCESS-SIGNATURE", f.sign(timestamp, method, path, rawQuery, payload))

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(domain.ErrExternalCall, "foxbit %s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(domain.ErrExternalCall, "foxbit %s %s: read response: %v", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrapf(domain.ErrExternalCall, "foxbit %s %s: status %d: %s", method, path, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode foxbit %s %s response", method, path)
	}
	return nil
}

// sign computes the HMAC-SHA256 signature over timestamp+method+path+query+body.
func (f *Foxbit) sign(timestamp, method, path, rawQuery string, body []byte) string {
	prehash := timestamp + method + path + rawQuery + string(body)
	mac := hmac.New(sha256.New, []byte(f.secretKey))
	mac.Write([]byte(prehash))
	return hex.EncodeToString(mac.Sum(nil))
}
