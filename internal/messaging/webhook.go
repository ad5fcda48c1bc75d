package messaging

import (
	"net/http"
	"strings"
)

// InboundSMS captures the subset of inbound-message webhook fields we care
// about. Twilio sends application/x-www-form-urlencoded by default.
//
// Keep it minimal and provider-adapter-only; reply classification and job
// correlation happen in the orchestrator, not here.
type InboundSMS struct {
	MessageSID string
	From       string
	To         string
	Body       string
}

func ParseInboundSMS(r *http.Request) (InboundSMS, error) {
	if err := r.ParseForm(); err != nil {
		return InboundSMS{}, err
	}
	return InboundSMS{
		MessageSID: r.PostFormValue("MessageSid"),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         strings.TrimSpace(r.PostFormValue("To")),
		Body:       r.PostFormValue("Body"),
	}, nil
}
