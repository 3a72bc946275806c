package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
)

// API is the slice of the fraud REST surface the review dashboard consumes.
type API interface {
	FetchHighRisk(ctx context.Context) ([]InvoiceItem, error)
	FetchByCategory(ctx context.Context, category fraud.Category) ([]InvoiceItem, error)
	FetchSummary(ctx context.Context) (map[fraud.Category]int, error)
	FetchInvoice(ctx context.Context, invoiceId int) (*InvoiceDetail, error)
	FlagInvoice(ctx context.Context, invoiceId int) error
}

// Client talks to the fraud endpoints with a bearer token. Transport-level
// failures are retried once; HTTP error statuses are not, since the server
// already saw the request.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL string, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method string, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("fraud api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return body, nil
	}
	return nil, lastErr
}

func (c *Client) FetchHighRisk(ctx context.Context) ([]InvoiceItem, error) {
	body, err := c.do(ctx, http.MethodGet, "/fraud/high-risk", nil)
	if err != nil {
		return nil, err
	}
	var items []InvoiceItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) FetchByCategory(ctx context.Context, category fraud.Category) ([]InvoiceItem, error) {
	query := url.Values{}
	query.Set("category", string(category))
	body, err := c.do(ctx, http.MethodGet, "/fraud/filter", query)
	if err != nil {
		return nil, err
	}
	var items []InvoiceItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) FetchSummary(ctx context.Context) (map[fraud.Category]int, error) {
	body, err := c.do(ctx, http.MethodGet, "/fraud/summary", nil)
	if err != nil {
		return nil, err
	}
	var raw map[string]int
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	counts := make(map[fraud.Category]int, len(raw))
	for k, v := range raw {
		counts[fraud.Category(k)] = v
	}
	return counts, nil
}

func (c *Client) FetchInvoice(ctx context.Context, invoiceId int) (*InvoiceDetail, error) {
	body, err := c.do(ctx, http.MethodGet, "/invoices/"+strconv.Itoa(invoiceId), nil)
	if err != nil {
		return nil, err
	}
	var detail InvoiceDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) FlagInvoice(ctx context.Context, invoiceId int) error {
	_, err := c.do(ctx, http.MethodPost, "/fraud/flag/"+strconv.Itoa(invoiceId), nil)
	return err
}
