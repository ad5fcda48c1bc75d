package campaign

import (
	"context"
	"fmt"
	"sync"

	"campaign-engine/internal/messaging"
	"campaign-engine/internal/telephony"
)

// fakeCalls is an in-memory CallProvider for dispatcher/resolver tests.
type fakeCalls struct {
	mu      sync.Mutex
	started []telephony.StartCallRequest
	failOn  map[int]error // by start ordinal, 0-based
	records map[string]telephony.CallRecord
	getErr  map[string]error
	gets    int
	onStart func(ordinal int)
}

func newFakeCalls() *fakeCalls {
	return &fakeCalls{
		failOn:  map[int]error{},
		records: map[string]telephony.CallRecord{},
		getErr:  map[string]error{},
	}
}

func (f *fakeCalls) Name() string { return "fake" }

func (f *fakeCalls) StartCall(_ context.Context, req telephony.StartCallRequest) (telephony.CallInfo, error) {
	f.mu.Lock()
	ordinal := len(f.started)
	f.started = append(f.started, req)
	err := f.failOn[ordinal]
	hook := f.onStart
	f.mu.Unlock()

	if hook != nil {
		hook(ordinal)
	}
	if err != nil {
		return telephony.CallInfo{}, err
	}
	return telephony.CallInfo{ID: fmt.Sprintf("call-%d", ordinal)}, nil
}

func (f *fakeCalls) GetCall(_ context.Context, callID string) (telephony.CallRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if err := f.getErr[callID]; err != nil {
		return telephony.CallRecord{}, err
	}
	return f.records[callID], nil
}

func (f *fakeCalls) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeCalls) RegisterWebhook(context.Context, string) error { return nil }

func (f *fakeCalls) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

// fakeSMS is an in-memory SMSProvider.
type fakeSMS struct {
	mu       sync.Mutex
	sent     []struct{ To, Body string }
	failTo   map[string]error
	statuses map[string]string
	statErr  map[string]error
}

func newFakeSMS() *fakeSMS {
	return &fakeSMS{
		failTo:   map[string]error{},
		statuses: map[string]string{},
		statErr:  map[string]error{},
	}
}

func (f *fakeSMS) Name() string { return "fake" }

func (f *fakeSMS) Send(_ context.Context, to, body string) (messaging.MessageInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failTo[to]; err != nil {
		return messaging.MessageInfo{}, err
	}
	f.sent = append(f.sent, struct{ To, Body string }{to, body})
	return messaging.MessageInfo{SID: fmt.Sprintf("sms-%d", len(f.sent)-1)}, nil
}

func (f *fakeSMS) MessageStatus(_ context.Context, sid string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.statErr[sid]; err != nil {
		return "", err
	}
	if st, ok := f.statuses[sid]; ok {
		return st, nil
	}
	return "delivered", nil
}

func (f *fakeSMS) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// recordingNotifier captures alerts and reports.
type recordingNotifier struct {
	mu      sync.Mutex
	alerts  []string
	reports []string
}

func (n *recordingNotifier) Alert(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, text)
	return nil
}

func (n *recordingNotifier) Report(_ context.Context, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, subject)
	return nil
}

func (n *recordingNotifier) alertCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

func (n *recordingNotifier) reportCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reports)
}
