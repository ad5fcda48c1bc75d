package telephony

import "testing"

func TestParseEndOfCallReport(t *testing.T) {
	body := []byte(`{
		"message": {
			"type": "end-of-call-report",
			"call": {"id": "call-123"},
			"endedReason": "customer-ended-call",
			"startedAt": "2024-05-01T10:00:00Z",
			"endedAt": "2024-05-01T10:01:30Z",
			"analysis": {"summary": "Wants a callback tomorrow"}
		}
	}`)

	rep, ok := ParseEndOfCallReport(body)
	if !ok {
		t.Fatalf("expected actionable report")
	}
	if rep.CallID != "call-123" {
		t.Fatalf("CallID = %q", rep.CallID)
	}
	if rep.EndedReason != "customer-ended-call" {
		t.Fatalf("EndedReason = %q", rep.EndedReason)
	}
	if rep.Summary != "Wants a callback tomorrow" {
		t.Fatalf("Summary = %q", rep.Summary)
	}
	if rep.StartedAt != "2024-05-01T10:00:00Z" || rep.EndedAt != "2024-05-01T10:01:30Z" {
		t.Fatalf("timestamps: %q %q", rep.StartedAt, rep.EndedAt)
	}
}

func TestParseEndOfCallReport_TopLevelSummaryWins(t *testing.T) {
	body := []byte(`{
		"message": {
			"type": "end-of-call-report",
			"call": {"id": "c1"},
			"summary": "top",
			"analysis": {"summary": "nested"}
		}
	}`)
	rep, ok := ParseEndOfCallReport(body)
	if !ok || rep.Summary != "top" {
		t.Fatalf("got ok=%v summary=%q", ok, rep.Summary)
	}
}

func TestParseEndOfCallReport_Ignored(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"other message type", `{"message": {"type": "status-update", "call": {"id": "c1"}}}`},
		{"missing call id", `{"message": {"type": "end-of-call-report"}}`},
		{"malformed json", `{"message": `},
		{"empty body", ``},
	}
	for _, tc := range cases {
		if _, ok := ParseEndOfCallReport([]byte(tc.body)); ok {
			t.Fatalf("%s: should not be actionable", tc.name)
		}
	}
}

func TestCallRecordEnded(t *testing.T) {
	if (CallRecord{Status: "ringing"}).Ended() {
		t.Fatalf("ringing call is not ended")
	}
	if !(CallRecord{Status: "ended"}).Ended() {
		t.Fatalf("status ended is terminal")
	}
	if !(CallRecord{Status: "queued", EndedReason: "no-answer"}).Ended() {
		t.Fatalf("any ended reason is terminal")
	}
}
