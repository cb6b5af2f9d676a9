// Package dispatch drives a batch against the statement API: per-record
// skip/dispatch decisions, outcome classification, and the run report.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// ErrTokenRequired aborts a run before any record is processed.
var ErrTokenRequired = errors.New("dispatch: api token is required")

const (
	pdfPath   = "/api/generate-quarterly-pdf"
	emailPath = "/api/send-no-play-email"

	// Document rendering is much heavier server-side than an email send,
	// so the two actions get distinct fixed timeouts.
	pdfTimeout   = 120 * time.Second
	emailTimeout = 60 * time.Second
)

// Caller performs the external action for one record. The engine depends
// on this interface; Client is the HTTP implementation.
type Caller interface {
	GeneratePDF(ctx context.Context, acct, startDate, endDate string) error
	SendEmail(ctx context.Context, acct, startDate, endDate, email string) error
}

// Client talks to the statement API over HTTP with bearer-token auth.
type Client struct {
	baseURL string
	token   string
	pdf     *http.Client
	email   *http.Client
}

func NewClient(baseURL, token string) (*Client, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		pdf:     &http.Client{Timeout: pdfTimeout},
		email:   &http.Client{Timeout: emailTimeout},
	}, nil
}

type apiRequest struct {
	Account   string `json:"account"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Token     string `json:"token"`
	Email     string `json:"email,omitempty"`
}

type apiResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// GeneratePDF requests a quarterly statement PDF for one account.
func (c *Client) GeneratePDF(ctx context.Context, acct, startDate, endDate string) error {
	return c.post(ctx, c.pdf, pdfPath, apiRequest{
		Account:   acct,
		StartDate: startDate,
		EndDate:   endDate,
		Token:     c.token,
	})
}

// SendEmail requests a precommitment email for one account.
func (c *Client) SendEmail(ctx context.Context, acct, startDate, endDate, email string) error {
	return c.post(ctx, c.email, emailPath, apiRequest{
		Account:   acct,
		StartDate: startDate,
		EndDate:   endDate,
		Token:     c.token,
		Email:     email,
	})
}

// post sends one request and classifies the outcome. Transport faults map
// to short stable messages so the failure report stays readable across
// thousands of records.
func (c *Client) post(ctx context.Context, hc *http.Client, path string, body apiRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("dispatch: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("dispatch: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := hc.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiResponse
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
		if len(bytes.TrimSpace(raw)) > 0 {
			return errors.New(string(bytes.TrimSpace(raw)))
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var result apiResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("dispatch: decode response: %w", err)
	}
	if !result.Success {
		if result.Error != "" {
			return errors.New(result.Error)
		}
		return errors.New("unknown error")
	}
	return nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("request timeout")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.New("request timeout")
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return errors.New("connection error")
	}
	return fmt.Errorf("dispatch: %w", err)
}
