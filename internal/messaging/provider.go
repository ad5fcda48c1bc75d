package messaging

import "context"

// SMSProvider defines the provider-agnostic interface for the SMS channel.
//
// Rules:
// - No provider SDK calls outside messaging adapters.
// - MessageStatus exists for the probe pre-pass: a short probe is sent, the
//   delivery receipt settles, then the status is re-queried.
type SMSProvider interface {
	Name() string

	Send(ctx context.Context, to, body string) (MessageInfo, error)

	// MessageStatus returns the provider's current delivery status for an
	// outbound message (queued, sent, delivered, failed, undelivered, ...).
	MessageStatus(ctx context.Context, sid string) (string, error)
}

// MessageInfo identifies a successfully submitted outbound message.
type MessageInfo struct {
	SID string `json:"sid"`
}

// Terminal delivery-failure statuses; a probe in either state means the
// number is unreachable and its lead is dropped from the campaign.
func DeliveryFailed(status string) bool {
	return status == "failed" || status == "undelivered"
}
