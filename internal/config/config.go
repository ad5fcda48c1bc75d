package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or an env-file loaded in main).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	Vapi     VapiConfig
	Twilio   TwilioConfig
	Dispatch DispatchConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL is the externally reachable base URL of this process.
	// Used to self-register the call-ended webhook target at startup.
	PublicBaseURL string
}

// VapiConfig carries credentials for the outbound voice-call provider.
type VapiConfig struct {
	APIKey        string
	AssistantID   string
	PhoneNumberID string
}

// TwilioConfig carries credentials for the SMS channel.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string

	// AlertNumber receives operator alerts (hot leads, inbound replies).
	AlertNumber string
}

// DispatchConfig tunes the campaign dispatch engine.
type DispatchConfig struct {
	// LeadDelay is the fixed pause between per-lead dispatches.
	LeadDelay time.Duration
	// RetryDelay is the wait before the single no-answer retry.
	RetryDelay time.Duration
	// ProbeSettle is how long the number-validation pre-pass waits
	// for delivery receipts before re-querying probe statuses.
	ProbeSettle time.Duration
	// ReapAfter is how long a completed job is kept before eviction.
	ReapAfter time.Duration

	// ReportWebhookURL receives the aggregate campaign report (optional).
	ReportWebhookURL string
}

func Load() (Config, error) {
	c := Config{}

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port = intOr("APP_PORT", 8080)
	c.App.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL")), "/")

	c.Vapi.APIKey = strings.TrimSpace(os.Getenv("VAPI_API_KEY"))
	c.Vapi.AssistantID = strings.TrimSpace(os.Getenv("VAPI_ASSISTANT_ID"))
	c.Vapi.PhoneNumberID = strings.TrimSpace(os.Getenv("VAPI_PHONE_NUMBER_ID"))

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER"))
	c.Twilio.AlertNumber = strings.TrimSpace(os.Getenv("ALERT_PHONE_NUMBER"))

	var err error
	if c.Dispatch.LeadDelay, err = durationOr("DISPATCH_DELAY", 1500*time.Millisecond); err != nil {
		return Config{}, err
	}
	if c.Dispatch.RetryDelay, err = durationOr("RETRY_DELAY", 2*time.Minute); err != nil {
		return Config{}, err
	}
	if c.Dispatch.ProbeSettle, err = durationOr("PROBE_SETTLE", 12*time.Second); err != nil {
		return Config{}, err
	}
	if c.Dispatch.ReapAfter, err = durationOr("REAP_AFTER", 24*time.Hour); err != nil {
		return Config{}, err
	}
	c.Dispatch.ReportWebhookURL = strings.TrimSpace(os.Getenv("REPORT_WEBHOOK_URL"))

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.App.Port))
	}
	if c.Dispatch.LeadDelay < 0 || c.Dispatch.RetryDelay < 0 || c.Dispatch.ProbeSettle < 0 {
		errs = append(errs, errors.New("dispatch delays must be non-negative"))
	}
	if c.Dispatch.ReapAfter <= 0 {
		errs = append(errs, errors.New("REAP_AFTER must be positive"))
	}
	return errors.Join(errs...)
}

// CallReady reports whether the voice-call channel is fully configured.
// Job creation in call mode must fail fast when it is not.
func (c Config) CallReady() bool {
	return c.Vapi.APIKey != "" && c.Vapi.AssistantID != "" && c.Vapi.PhoneNumberID != ""
}

// SMSReady reports whether the SMS channel is fully configured.
func (c Config) SMSReady() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.FromNumber != ""
}

func (c Config) HTTPAddr() string { return ":" + strconv.Itoa(c.App.Port) }

func intOr(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	return d, nil
}
