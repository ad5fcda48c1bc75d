package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ReportClient posts aggregate campaign reports to an operator webhook.
type ReportClient struct {
	webhookURL string
	retryLimit int
	client     *http.Client
}

// ReportClientConfig captures the subset of webhook behaviour we need.
type ReportClientConfig struct {
	WebhookURL string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

func NewReportClient(cfg ReportClientConfig) (*ReportClient, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("report webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &ReportClient{webhookURL: webhookURL, retryLimit: retries, client: hc}, nil
}

type reportPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Post delivers one report, retrying with a simple linear backoff to avoid
// thundering retries.
func (c *ReportClient) Post(ctx context.Context, subject, body string) error {
	raw, err := json.Marshal(reportPayload{Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("encode report payload: %w", err)
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = c.post(ctx, raw); lastErr == nil {
			return nil
		}
		if attempt < attempts-1 {
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

func (c *ReportClient) post(ctx context.Context, raw []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("report webhook status %d", resp.StatusCode)
	}
	return nil
}
