package telephony

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campaign-engine/internal/config"
)

func testVapi(t *testing.T, handler http.HandlerFunc) *VapiProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewVapiProvider(config.VapiConfig{
		APIKey:        "key-1",
		AssistantID:   "asst-1",
		PhoneNumberID: "pn-1",
	}).WithBaseURL(srv.URL)
}

func TestVapiStartCall(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	p := testVapi(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/call" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"id": "call-9"})
	})

	info, err := p.StartCall(context.Background(), StartCallRequest{
		Phone:     "+15551230001",
		Variables: map[string]string{"name": "Ana"},
	})
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if info.ID != "call-9" {
		t.Fatalf("ID = %q", info.ID)
	}
	if gotAuth != "Bearer key-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotBody["assistantId"] != "asst-1" || gotBody["phoneNumberId"] != "pn-1" {
		t.Fatalf("ids not forwarded: %v", gotBody)
	}
	customer := gotBody["customer"].(map[string]any)
	if customer["number"] != "+15551230001" {
		t.Fatalf("customer = %v", customer)
	}
	overrides := gotBody["assistantOverrides"].(map[string]any)
	vars := overrides["variableValues"].(map[string]any)
	if vars["name"] != "Ana" {
		t.Fatalf("variables = %v", vars)
	}
}

func TestVapiStartCall_OmitsEmptyOverrides(t *testing.T) {
	p := testVapi(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if _, present := body["assistantOverrides"]; present {
			t.Errorf("empty overrides must be omitted: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "c1"})
	})
	if _, err := p.StartCall(context.Background(), StartCallRequest{Phone: "+15551230001"}); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
}

func TestVapiStartCall_ProviderError(t *testing.T) {
	p := testVapi(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusPaymentRequired)
	})
	_, err := p.StartCall(context.Background(), StartCallRequest{Phone: "+15551230001"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "402") {
		t.Fatalf("error should carry the provider status: %v", err)
	}
}

func TestVapiStartCall_MissingID(t *testing.T) {
	p := testVapi(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
	})
	if _, err := p.StartCall(context.Background(), StartCallRequest{Phone: "+15551230001"}); err == nil {
		t.Fatalf("a 2xx with no call id is still a failure")
	}
}

func TestVapiGetCall(t *testing.T) {
	p := testVapi(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/call/call-9" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "call-9",
			"status":      "ended",
			"endedReason": "customer-ended-call",
			"startedAt":   "2024-05-01T10:00:00Z",
			"endedAt":     "2024-05-01T10:01:00Z",
			"analysis":    map[string]string{"summary": "warm but hesitant"},
		})
	})

	rec, err := p.GetCall(context.Background(), "call-9")
	if err != nil {
		t.Fatalf("GetCall: %v", err)
	}
	if !rec.Ended() {
		t.Fatalf("record should be terminal: %+v", rec)
	}
	if rec.Summary != "warm but hesitant" {
		t.Fatalf("Summary = %q", rec.Summary)
	}
	if rec.EndedReason != "customer-ended-call" {
		t.Fatalf("EndedReason = %q", rec.EndedReason)
	}
}

func TestVapiRegisterWebhook(t *testing.T) {
	p := testVapi(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/assistant/asst-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["serverUrl"] != "https://example.com/webhooks/call-ended" {
			t.Errorf("serverUrl = %q", body["serverUrl"])
		}
		w.WriteHeader(http.StatusOK)
	})
	if err := p.RegisterWebhook(context.Background(), "https://example.com/webhooks/call-ended"); err != nil {
		t.Fatalf("RegisterWebhook: %v", err)
	}
}
