package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campaign-engine/internal/config"
)

const twilioBaseURL = "https://api.twilio.com"

// TwilioProvider is the Twilio Messages REST adapter.
type TwilioProvider struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

func NewTwilioProvider(cfg config.TwilioConfig) *TwilioProvider {
	return &TwilioProvider{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    twilioBaseURL,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBaseURL points the adapter at a test server.
func (p *TwilioProvider) WithBaseURL(u string) *TwilioProvider {
	p.baseURL = u
	return p
}

func (p *TwilioProvider) Name() string { return "twilio" }

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // error payloads
}

func (p *TwilioProvider) Send(ctx context.Context, to, body string) (MessageInfo, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", p.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return MessageInfo{}, err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	msg, err := p.do(req)
	if err != nil {
		return MessageInfo{}, fmt.Errorf("messaging: send to %s: %w", to, err)
	}
	return MessageInfo{SID: msg.SID}, nil
}

func (p *TwilioProvider) MessageStatus(ctx context.Context, sid string) (string, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages/%s.json", p.baseURL, p.accountSID, sid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(p.accountSID, p.authToken)

	msg, err := p.do(req)
	if err != nil {
		return "", fmt.Errorf("messaging: status of %s: %w", sid, err)
	}
	return msg.Status, nil
}

func (p *TwilioProvider) do(req *http.Request) (twilioMessage, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return twilioMessage{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return twilioMessage{}, err
	}
	var msg twilioMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return twilioMessage{}, fmt.Errorf("provider status %d: undecodable body", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return twilioMessage{}, fmt.Errorf("provider status %d: %s", resp.StatusCode, msg.Message)
	}
	return msg, nil
}
