package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"campaign-engine/internal/config"
)

func testTwilio(t *testing.T, handler http.HandlerFunc) *TwilioProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTwilioProvider(config.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "tok",
		FromNumber: "+15550001111",
	}).WithBaseURL(srv.URL)
}

func TestTwilioSend(t *testing.T) {
	p := testTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "tok" {
			t.Errorf("basic auth not set: %q %q", user, pass)
		}
		r.ParseForm()
		if r.PostFormValue("To") != "+15551230001" || r.PostFormValue("From") != "+15550001111" {
			t.Errorf("numbers wrong: %v", r.PostForm)
		}
		if r.PostFormValue("Body") != "Hi Ana" {
			t.Errorf("Body = %q", r.PostFormValue("Body"))
		}
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM1", "status": "queued"})
	})

	info, err := p.Send(context.Background(), "+15551230001", "Hi Ana")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if info.SID != "SM1" {
		t.Fatalf("SID = %q", info.SID)
	}
}

func TestTwilioSend_ProviderError(t *testing.T) {
	p := testTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "The 'To' number is not valid", "code": 21211})
	})
	_, err := p.Send(context.Background(), "bogus", "hi")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "not valid") {
		t.Fatalf("provider message should be surfaced: %v", err)
	}
}

func TestTwilioMessageStatus(t *testing.T) {
	p := testTwilio(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages/SM1.json" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM1", "status": "undelivered"})
	})

	status, err := p.MessageStatus(context.Background(), "SM1")
	if err != nil {
		t.Fatalf("MessageStatus: %v", err)
	}
	if status != "undelivered" {
		t.Fatalf("status = %q", status)
	}
	if !DeliveryFailed(status) {
		t.Fatalf("undelivered is a delivery failure")
	}
}

func TestDeliveryFailed(t *testing.T) {
	for _, s := range []string{"failed", "undelivered"} {
		if !DeliveryFailed(s) {
			t.Fatalf("%q should be terminal failure", s)
		}
	}
	for _, s := range []string{"queued", "sent", "delivered", ""} {
		if DeliveryFailed(s) {
			t.Fatalf("%q is not a delivery failure", s)
		}
	}
}

func TestParseInboundSMS(t *testing.T) {
	form := "MessageSid=SM9&From=%2B15551230001&To=%2B15550001111&Body=yes+please"
	r := httptest.NewRequest(http.MethodPost, "/webhooks/sms-reply", strings.NewReader(form))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := ParseInboundSMS(r)
	if err != nil {
		t.Fatalf("ParseInboundSMS: %v", err)
	}
	if in.MessageSID != "SM9" || in.From != "+15551230001" || in.To != "+15550001111" {
		t.Fatalf("parsed = %+v", in)
	}
	if in.Body != "yes please" {
		t.Fatalf("Body = %q", in.Body)
	}
}

func TestEmptyTwiML(t *testing.T) {
	out := string(EmptyTwiML())
	if !strings.HasPrefix(out, "<?xml") {
		t.Fatalf("missing xml header: %s", out)
	}
	if !strings.Contains(out, "<Response></Response>") {
		t.Fatalf("missing empty response element: %s", out)
	}
}
