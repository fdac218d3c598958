package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/shoppulse/dashboard_backend/finance"
	"bitbucket.org/shoppulse/dashboard_backend/models"
	"github.com/shopspring/decimal"
)

// Client talks to the commerce platform's REST API. It implements
// finance.OrderSource.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	http           *http.Client
	limiter        <-chan time.Time
}

const ordersPageSize = 100

// NewClient builds a platform client from raw credentials (credential-less
// sync mode). The base URL falls back to STOREFRONT_API_BASE_URL.
func NewClient(baseURL, consumerKey, consumerSecret string) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv("STOREFRONT_API_BASE_URL"))
	}
	if baseURL == "" {
		return nil, errors.New("storefront base url is empty")
	}
	if strings.TrimSpace(consumerKey) == "" || strings.TrimSpace(consumerSecret) == "" {
		return nil, errors.New("storefront credentials are empty")
	}

	rateLimitPerMin := int64(60)
	if v := strings.TrimSpace(os.Getenv("STOREFRONT_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		http:           &http.Client{Timeout: 30 * time.Second},
		limiter:        time.Tick(interval),
	}, nil
}

// NewClientFromConnection builds a client from a stored connection. The
// credential is stored as "consumer_key:consumer_secret".
func NewClientFromConnection(conn *models.StorefrontConnection) (*Client, error) {
	if conn == nil || conn.Status != models.ConnectionStatusConnected {
		return nil, errors.New("storefront is not connected")
	}
	key, secret, ok := strings.Cut(conn.AuthSecretRef, ":")
	if !ok {
		return nil, errors.New("stored storefront credential is malformed")
	}
	return NewClient(conn.BaseURL, key, secret)
}

type orderPayload struct {
	ID            int64              `json:"id"`
	Status        string             `json:"status"`
	Total         json.Number        `json:"total"`
	ShippingTotal json.Number        `json:"shipping_total"`
	DateCreated   string             `json:"date_created"`
	LineItems     []lineItemPayload  `json:"line_items"`
	ShippingLines []shipLinePayload  `json:"shipping_lines"`
}

type lineItemPayload struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type shipLinePayload struct {
	MethodId string `json:"method_id"`
}

// ListOrders pages through /v1/orders for the window [from, to].
func (c *Client) ListOrders(ctx context.Context, from, to time.Time, statuses []string) ([]finance.Order, error) {
	var orders []finance.Order
	page := 1
	for {
		params := url.Values{}
		params.Set("after", from.UTC().Format(time.RFC3339))
		params.Set("before", to.UTC().Format(time.RFC3339))
		if len(statuses) > 0 {
			params.Set("status", strings.Join(statuses, ","))
		}
		params.Set("per_page", strconv.Itoa(ordersPageSize))
		params.Set("page", strconv.Itoa(page))

		body, err := c.get(ctx, "/v1/orders", params)
		if err != nil {
			return nil, err
		}

		var pageOrders []orderPayload
		if err := json.Unmarshal(body, &pageOrders); err != nil {
			return nil, fmt.Errorf("decode orders page %d: %w", page, err)
		}
		for _, raw := range pageOrders {
			orders = append(orders, raw.toOrder())
		}
		if len(pageOrders) < ordersPageSize {
			return orders, nil
		}
		page++
	}
}

// UpdateVariationPrice writes one variation's regular price back to the
// platform.
func (c *Client) UpdateVariationPrice(ctx context.Context, productId, variationId int64, price decimal.Decimal) error {
	path := fmt.Sprintf("/v1/products/%d/variations/%d", productId, variationId)
	payload := map[string]string{"regular_price": price.StringFixed(2)}
	body, _ := json.Marshal(payload)
	_, err := c.do(ctx, http.MethodPut, path, nil, body)
	return err
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, params, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte) ([]byte, error) {
	<-c.limiter
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storefront api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

func (p orderPayload) toOrder() finance.Order {
	order := finance.Order{
		ID:            p.ID,
		Status:        p.Status,
		Total:         decimalFromNumber(p.Total),
		ShippingTotal: decimalFromNumber(p.ShippingTotal),
	}
	if p.DateCreated != "" {
		if t, err := time.Parse(time.RFC3339, p.DateCreated); err == nil {
			order.CreatedAt = t
		} else if t, err := time.Parse("2006-01-02T15:04:05", p.DateCreated); err == nil {
			order.CreatedAt = t
		}
	}
	for _, item := range p.LineItems {
		order.LineItems = append(order.LineItems, finance.OrderLineItem{Name: item.Name, Quantity: item.Quantity})
	}
	for _, line := range p.ShippingLines {
		order.ShippingLines = append(order.ShippingLines, finance.ShippingLine{MethodId: line.MethodId})
	}
	return order
}

func decimalFromNumber(n json.Number) decimal.Decimal {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
