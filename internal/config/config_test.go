package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "APP_PORT", "PUBLIC_BASE_URL",
		"VAPI_API_KEY", "VAPI_ASSISTANT_ID", "VAPI_PHONE_NUMBER_ID",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER",
		"ALERT_PHONE_NUMBER", "DISPATCH_DELAY", "RETRY_DELAY",
		"PROBE_SETTLE", "REAP_AFTER", "REPORT_WEBHOOK_URL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.App.Port != 8080 {
		t.Fatalf("Port = %d", c.App.Port)
	}
	if c.Dispatch.LeadDelay != 1500*time.Millisecond {
		t.Fatalf("LeadDelay = %v", c.Dispatch.LeadDelay)
	}
	if c.Dispatch.RetryDelay != 2*time.Minute {
		t.Fatalf("RetryDelay = %v", c.Dispatch.RetryDelay)
	}
	if c.Dispatch.ProbeSettle != 12*time.Second {
		t.Fatalf("ProbeSettle = %v", c.Dispatch.ProbeSettle)
	}
	if c.Dispatch.ReapAfter != 24*time.Hour {
		t.Fatalf("ReapAfter = %v", c.Dispatch.ReapAfter)
	}
	if c.CallReady() || c.SMSReady() {
		t.Fatalf("channels should be unconfigured by default")
	}
	if c.HTTPAddr() != ":8080" {
		t.Fatalf("HTTPAddr = %q", c.HTTPAddr())
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9000")
	t.Setenv("DISPATCH_DELAY", "250ms")
	t.Setenv("PUBLIC_BASE_URL", "https://example.com/")
	t.Setenv("VAPI_API_KEY", "k")
	t.Setenv("VAPI_ASSISTANT_ID", "a")
	t.Setenv("VAPI_PHONE_NUMBER_ID", "p")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.App.Port != 9000 {
		t.Fatalf("Port = %d", c.App.Port)
	}
	if c.Dispatch.LeadDelay != 250*time.Millisecond {
		t.Fatalf("LeadDelay = %v", c.Dispatch.LeadDelay)
	}
	if c.App.PublicBaseURL != "https://example.com" {
		t.Fatalf("trailing slash not trimmed: %q", c.App.PublicBaseURL)
	}
	if !c.CallReady() {
		t.Fatalf("call channel should be ready")
	}
	if c.SMSReady() {
		t.Fatalf("sms channel should not be ready")
	}
}

func TestLoadBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("RETRY_DELAY", "soon")
	if _, err := Load(); err == nil {
		t.Fatalf("invalid duration must fail loading")
	}
}

func TestValidate(t *testing.T) {
	c := Config{}
	c.App.Port = 8080
	c.Dispatch.ReapAfter = time.Hour
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := c
	bad.App.Port = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("port 0 must be rejected")
	}

	bad = c
	bad.Dispatch.RetryDelay = -time.Second
	if err := bad.Validate(); err == nil {
		t.Fatalf("negative delay must be rejected")
	}

	bad = c
	bad.Dispatch.ReapAfter = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("zero retention must be rejected")
	}
}

func TestSMSReady(t *testing.T) {
	c := Config{}
	c.Twilio.AccountSID = "AC1"
	c.Twilio.AuthToken = "tok"
	if c.SMSReady() {
		t.Fatalf("missing from-number should not be ready")
	}
	c.Twilio.FromNumber = "+15550001111"
	if !c.SMSReady() {
		t.Fatalf("fully configured channel should be ready")
	}
}
