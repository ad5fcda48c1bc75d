package telephony

import "context"

// CallProvider defines the provider-agnostic interface used by the dispatch
// engine for outbound AI voice calls.
//
// Rules:
// - No provider SDK calls outside telephony adapters.
// - Keep request/response types provider-agnostic; adapters translate.
// - StartCall must enforce its own request timeout; the dispatch engine
//   treats expiry as a per-lead dispatch failure, never a job failure.
type CallProvider interface {
	Name() string

	StartCall(ctx context.Context, req StartCallRequest) (CallInfo, error)

	// GetCall fetches the current provider-side record for a call,
	// used by on-demand reconciliation.
	GetCall(ctx context.Context, callID string) (CallRecord, error)

	// RegisterWebhook points the provider's end-of-call reports at this
	// process. Best-effort at startup; failure is logged, never fatal.
	RegisterWebhook(ctx context.Context, serverURL string) error
}

// StartCallRequest asks the provider to place one outbound call.
type StartCallRequest struct {
	// Phone is the callee in E.164.
	Phone string

	// Variables are interpolated into the provider's templated
	// assistant configuration (name, address, phone).
	Variables map[string]string
}

// CallInfo identifies a successfully created call.
type CallInfo struct {
	ID string `json:"id"`
}

// CallRecord is the provider's view of a call, normalized.
type CallRecord struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	EndedReason string `json:"ended_reason,omitempty"`
	Summary     string `json:"summary,omitempty"`

	// StartedAt/EndedAt are kept as the provider's raw RFC3339 strings;
	// either may be absent.
	StartedAt string `json:"started_at,omitempty"`
	EndedAt   string `json:"ended_at,omitempty"`
}

// Ended reports whether the provider considers the call terminal.
func (r CallRecord) Ended() bool {
	return r.Status == "ended" || r.EndedReason != ""
}
