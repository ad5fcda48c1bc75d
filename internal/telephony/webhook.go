package telephony

import "encoding/json"

// The call provider posts several message types to the same webhook URL.
// Only end-of-call reports carry anything the orchestrator acts on; every
// other type is acknowledged and ignored.

const msgTypeEndOfCallReport = "end-of-call-report"

// EndOfCallReport is the normalized terminal report for one call.
type EndOfCallReport struct {
	CallID      string
	EndedReason string
	Summary     string
	StartedAt   string
	EndedAt     string
}

type webhookEnvelope struct {
	Message struct {
		Type string `json:"type"`
		Call struct {
			ID string `json:"id"`
		} `json:"call"`
		EndedReason string `json:"endedReason"`
		Summary     string `json:"summary"`
		StartedAt   string `json:"startedAt"`
		EndedAt     string `json:"endedAt"`
		Analysis    struct {
			Summary string `json:"summary"`
		} `json:"analysis"`
	} `json:"message"`
}

// ParseEndOfCallReport decodes a webhook body. The second return is false for
// malformed payloads and for any message type other than an end-of-call
// report; the webhook endpoint acknowledges those without processing.
func ParseEndOfCallReport(body []byte) (EndOfCallReport, bool) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return EndOfCallReport{}, false
	}
	m := env.Message
	if m.Type != msgTypeEndOfCallReport || m.Call.ID == "" {
		return EndOfCallReport{}, false
	}
	summary := m.Summary
	if summary == "" {
		summary = m.Analysis.Summary
	}
	return EndOfCallReport{
		CallID:      m.Call.ID,
		EndedReason: m.EndedReason,
		Summary:     summary,
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
	}, true
}
