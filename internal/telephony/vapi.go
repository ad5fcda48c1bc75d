package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"campaign-engine/internal/config"
)

const vapiBaseURL = "https://api.vapi.ai"

// startCallTimeout bounds a single call-initiation request; expiry is a
// per-lead dispatch failure.
const startCallTimeout = 30 * time.Second

// VapiProvider is the Vapi REST adapter.
type VapiProvider struct {
	apiKey        string
	assistantID   string
	phoneNumberID string
	baseURL       string
	client        *http.Client
}

func NewVapiProvider(cfg config.VapiConfig) *VapiProvider {
	return &VapiProvider{
		apiKey:        cfg.APIKey,
		assistantID:   cfg.AssistantID,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       vapiBaseURL,
		client:        &http.Client{Timeout: startCallTimeout},
	}
}

// WithBaseURL points the adapter at a test server.
func (p *VapiProvider) WithBaseURL(u string) *VapiProvider {
	p.baseURL = u
	return p
}

func (p *VapiProvider) Name() string { return "vapi" }

type vapiCallBody struct {
	AssistantID        string        `json:"assistantId"`
	PhoneNumberID      string        `json:"phoneNumberId"`
	Customer           vapiCustomer  `json:"customer"`
	AssistantOverrides *vapiOverride `json:"assistantOverrides,omitempty"`
}

type vapiCustomer struct {
	Number string `json:"number"`
}

type vapiOverride struct {
	VariableValues map[string]string `json:"variableValues"`
}

type vapiCall struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	EndedReason string `json:"endedReason"`
	StartedAt   string `json:"startedAt"`
	EndedAt     string `json:"endedAt"`
	Analysis    struct {
		Summary string `json:"summary"`
	} `json:"analysis"`
	Summary string `json:"summary"`
}

func (p *VapiProvider) StartCall(ctx context.Context, req StartCallRequest) (CallInfo, error) {
	body := vapiCallBody{
		AssistantID:   p.assistantID,
		PhoneNumberID: p.phoneNumberID,
		Customer:      vapiCustomer{Number: req.Phone},
	}
	if len(req.Variables) > 0 {
		body.AssistantOverrides = &vapiOverride{VariableValues: req.Variables}
	}

	var out vapiCall
	if err := p.do(ctx, http.MethodPost, "/call", body, &out); err != nil {
		return CallInfo{}, fmt.Errorf("telephony: start call: %w", err)
	}
	if out.ID == "" {
		return CallInfo{}, fmt.Errorf("telephony: start call: provider returned no call id")
	}
	return CallInfo{ID: out.ID}, nil
}

func (p *VapiProvider) GetCall(ctx context.Context, callID string) (CallRecord, error) {
	var out vapiCall
	if err := p.do(ctx, http.MethodGet, "/call/"+callID, nil, &out); err != nil {
		return CallRecord{}, fmt.Errorf("telephony: get call %s: %w", callID, err)
	}
	summary := out.Analysis.Summary
	if summary == "" {
		summary = out.Summary
	}
	return CallRecord{
		ID:          out.ID,
		Status:      out.Status,
		EndedReason: out.EndedReason,
		Summary:     summary,
		StartedAt:   out.StartedAt,
		EndedAt:     out.EndedAt,
	}, nil
}

func (p *VapiProvider) RegisterWebhook(ctx context.Context, serverURL string) error {
	body := map[string]any{"serverUrl": serverURL}
	if err := p.do(ctx, http.MethodPatch, "/assistant/"+p.assistantID, body, nil); err != nil {
		return fmt.Errorf("telephony: register webhook: %w", err)
	}
	return nil
}

func (p *VapiProvider) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("provider status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
