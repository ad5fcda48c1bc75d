// Package conversation keeps the per-phone-number message history.
//
// The ledger is append-only: messages are never updated, truncated or
// deleted, and a phone number is a single conversation shared across jobs.
package conversation

import (
	"sync"
	"time"
)

type Direction string

const (
	Outbound Direction = "outbound"
	Inbound  Direction = "inbound"
)

// Message is a single conversation turn.
type Message struct {
	Direction Direction `json:"direction"`
	Body      string    `json:"body"`
	At        time.Time `json:"at"`
}

// Ledger is the in-memory conversation store.
type Ledger struct {
	mu      sync.Mutex
	threads map[string][]Message

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewLedger() *Ledger {
	return &Ledger{threads: map[string][]Message{}, clock: time.Now}
}

// Append records one message on the phone number's thread and returns it.
func (l *Ledger) Append(phone string, dir Direction, body string) Message {
	m := Message{Direction: dir, Body: body, At: l.clock().UTC()}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.threads[phone] = append(l.threads[phone], m)
	return m
}

// History returns a copy of the thread for a phone number, oldest first.
func (l *Ledger) History(phone string) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := l.threads[phone]
	out := make([]Message, len(t))
	copy(out, t)
	return out
}
