// Package gateway is the client of the upstream billing REST API. It turns
// every failure into an *APIError and never retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/legphel-eats/fnb-dashboard/internal/billing"
	"github.com/legphel-eats/fnb-dashboard/internal/metrics"
)

const maxErrorBody = 4 << 10

// Options configures a Client.
type Options struct {
	BaseURL     string
	BillsPath   string
	DetailsPath string
	Timeout     time.Duration
	// RPS caps outbound requests per second; 0 means unlimited.
	RPS        float64
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client talks to the billing API.
type Client struct {
	baseURL     string
	billsPath   string
	detailsPath string
	http        *http.Client
	limiter     *rate.Limiter
	metrics     *metrics.Metrics
}

// New creates a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		billsPath:   withDefault(opts.BillsPath, "/bills"),
		detailsPath: withDefault(opts.DetailsPath, "/bill-details"),
		http:        httpClient,
		limiter:     limiter,
		metrics:     opts.Metrics,
	}
}

// ListBills returns every bill, newest first.
func (c *Client) ListBills(ctx context.Context) ([]billing.Bill, error) {
	var bills []billing.Bill
	if err := c.do(ctx, "list bills", http.MethodGet, c.billsPath, nil, &bills); err != nil {
		return nil, err
	}
	billing.SortNewestFirst(bills)
	return bills, nil
}

// GetBillDetails returns the line items of one bill.
func (c *Client) GetBillDetails(ctx context.Context, billNo string) ([]billing.BillDetail, error) {
	var details []billing.BillDetail
	if err := c.do(ctx, "get bill details", http.MethodGet, c.itemPath(c.detailsPath, billNo), nil, &details); err != nil {
		return nil, err
	}
	if details == nil {
		details = []billing.BillDetail{}
	}
	return details, nil
}

// CreateBill creates a bill and returns the stored record.
func (c *Client) CreateBill(ctx context.Context, bill billing.Bill) (billing.Bill, error) {
	var created billing.Bill
	if err := c.do(ctx, "create bill", http.MethodPost, c.billsPath, bill, &created); err != nil {
		return billing.Bill{}, err
	}
	if created.BillNo == "" {
		created = bill
	}
	return created, nil
}

// UpdateBill replaces bill billNo and returns the stored record.
func (c *Client) UpdateBill(ctx context.Context, billNo string, bill billing.Bill) (billing.Bill, error) {
	var updated billing.Bill
	if err := c.do(ctx, "update bill", http.MethodPut, c.itemPath(c.billsPath, billNo), bill, &updated); err != nil {
		return billing.Bill{}, err
	}
	if updated.BillNo == "" {
		updated = bill
		updated.BillNo = billNo
	}
	return updated, nil
}

// DeleteBill deletes bill billNo. The acknowledgement body is ignored.
func (c *Client) DeleteBill(ctx context.Context, billNo string) error {
	return c.do(ctx, "delete bill", http.MethodDelete, c.itemPath(c.billsPath, billNo), nil, nil)
}

// CreateBillDetail adds a line item to bill billNo.
func (c *Client) CreateBillDetail(ctx context.Context, billNo string, detail billing.BillDetail) (billing.BillDetail, error) {
	detail.BillNo = billNo
	var created billing.BillDetail
	if err := c.do(ctx, "create bill detail", http.MethodPost, c.detailsPath, detail, &created); err != nil {
		return billing.BillDetail{}, err
	}
	if created.BillNo == "" {
		created.BillNo = billNo
	}
	return created, nil
}

// UpdateBillDetail replaces line item id.
func (c *Client) UpdateBillDetail(ctx context.Context, id string, detail billing.BillDetail) (billing.BillDetail, error) {
	var updated billing.BillDetail
	if err := c.do(ctx, "update bill detail", http.MethodPut, c.itemPath(c.detailsPath, id), detail, &updated); err != nil {
		return billing.BillDetail{}, err
	}
	if updated.ID == "" {
		updated.ID = id
	}
	if updated.BillNo == "" {
		updated.BillNo = detail.BillNo
	}
	return updated, nil
}

// DeleteBillDetail deletes line item id.
func (c *Client) DeleteBillDetail(ctx context.Context, id string) error {
	return c.do(ctx, "delete bill detail", http.MethodDelete, c.itemPath(c.detailsPath, id), nil, nil)
}

func (c *Client) itemPath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}

// do performs one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveUpstream(strings.ReplaceAll(op, " ", "_"), err, time.Since(start))
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return &APIError{Op: op, Message: "request not sent", Err: err}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &APIError{Op: op, Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Op: op, Message: "billing API unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &APIError{Op: op, Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	return nil
}

// errorMessage extracts a readable message from an error response, preferring
// an "error" or "message" JSON field.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 200 {
		return text
	}
	return fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
}

func withDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
