package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"campaign-engine/internal/conversation"
	"campaign-engine/internal/lead"
	"campaign-engine/internal/notify"
	"campaign-engine/pkg/logger"
)

// CallEndedEvent is the normalized end-of-call webhook input.
type CallEndedEvent struct {
	CallID      string
	EndedReason string
	Summary     string
	StartedAt   string
	EndedAt     string
}

// ReplyEvent is the normalized inbound-SMS webhook input.
type ReplyEvent struct {
	From string
	Body string
}

// RetryTask asks the scheduler to re-dispatch one lead after the retry delay.
type RetryTask struct {
	CallID    string
	JobID     string
	LeadIndex int
	Lead      lead.Lead
}

// Effects is the explicit side-effect list produced by a resolver step.
// The state transition happens first, atomically per claim; effects are
// executed afterwards so resolvers stay unit-testable without a network.
type Effects struct {
	Broadcast []Event
	Alert     string
	Retry     *RetryTask
	Report    string // job id to report on, empty = none
}

// Engine owns webhook resolution: it applies state transitions and executes
// the resulting effects (notifications, retry scheduling, reporting).
type Engine struct {
	State     *State
	Ledger    *conversation.Ledger
	Broadcast *Broadcaster
	Notify    notify.Notifier
	Scheduler *Scheduler
	Reporter  *Reporter
	Log       *slog.Logger
}

// ApplyCallEnded is the pure-transition half of the call-ended resolver:
// (event, state) -> (state', effects). An unknown or stale call id is a
// logged no-op. The alert-dedup and retry gates are claimed inside the
// state lock, so duplicate webhook delivery is idempotent.
func (e *Engine) ApplyCallEnded(ev CallEndedEvent) Effects {
	var eff Effects

	ref, ok := e.State.LookupCall(ev.CallID)
	if !ok {
		e.log().Info("call-ended for unknown call id", "call_id", ev.CallID)
		return eff
	}

	outcome := ClassifyCall(ev.EndedReason, ev.Summary, ev.StartedAt)
	duration := durationLabel(ev.StartedAt, ev.EndedAt)

	res, ok := e.State.PatchResult(ref.JobID, ref.LeadIndex, func(r *LeadResult) {
		r.Outcome = outcome
		r.Summary = ev.Summary
		r.EndedReason = ev.EndedReason
		r.Duration = duration
	})
	if !ok {
		// Job deleted since dispatch; nothing to update.
		return eff
	}

	r := res
	eff.Broadcast = append(eff.Broadcast, Event{Type: EventUpdate, JobID: ref.JobID, Index: ref.LeadIndex, Result: &r})

	if outcome == OutcomeHot && e.State.ClaimAlert(ev.CallID) {
		eff.Alert = fmt.Sprintf("HOT LEAD: %s (%s): %s", ref.Lead.FullName(), ref.Lead.Phone, ev.Summary)
	}

	if outcome == OutcomeNoAnswer && e.State.ClaimRetry(ev.CallID) {
		eff.Retry = &RetryTask{CallID: ev.CallID, JobID: ref.JobID, LeadIndex: ref.LeadIndex, Lead: ref.Lead}
	}

	if e.State.AllResolved(ref.JobID) && e.State.ClaimReport(ref.JobID) {
		eff.Report = ref.JobID
	}

	return eff
}

// ApplySMSReply is the pure-transition half of the inbound-reply resolver.
// The reply is ledgered and an operator alert is always produced, whether or
// not a job correlation was found: unsolicited replies must still surface.
func (e *Engine) ApplySMSReply(ev ReplyEvent) Effects {
	var eff Effects

	e.Ledger.Append(ev.From, conversation.Inbound, ev.Body)
	outcome := ClassifyReply(ev.Body)

	who := ev.From
	if ref, ok := e.State.LookupPhone(ev.From); ok {
		now := time.Now().UTC()
		res, patched := e.State.PatchResult(ref.JobID, ref.LeadIndex, func(r *LeadResult) {
			r.Replied = true
			r.LastReply = ev.Body
			r.RepliedAt = &now
			// A reply event may overwrite an earlier call outcome; the lead
			// answering on another channel is newer information.
			r.Outcome = outcome
		})
		if patched {
			r := res
			who = r.FullName() + " (" + ev.From + ")"
			eff.Broadcast = append(eff.Broadcast, Event{Type: EventReply, JobID: ref.JobID, Index: ref.LeadIndex, Result: &r})
		}
	}

	eff.Alert = fmt.Sprintf("Reply from %s [%s]: %s", who, outcome, ev.Body)
	return eff
}

// HandleCallEnded applies the transition then executes its effects.
func (e *Engine) HandleCallEnded(ctx context.Context, ev CallEndedEvent) {
	e.exec(ctx, e.ApplyCallEnded(ev))
}

// HandleSMSReply applies the transition then executes its effects.
func (e *Engine) HandleSMSReply(ctx context.Context, ev ReplyEvent) {
	e.exec(ctx, e.ApplySMSReply(ev))
}

func (e *Engine) exec(ctx context.Context, eff Effects) {
	for _, ev := range eff.Broadcast {
		e.Broadcast.Publish(ev)
	}
	if eff.Alert != "" && e.Notify != nil {
		if err := e.Notify.Alert(ctx, eff.Alert); err != nil {
			logger.From(ctx).Warn("alert notification failed", "err", err)
		}
	}
	if eff.Retry != nil && e.Scheduler != nil {
		e.Scheduler.Schedule(*eff.Retry)
	}
	if eff.Report != "" && e.Reporter != nil {
		e.Reporter.Run(ctx, eff.Report)
	}
}

func (e *Engine) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}

// durationLabel computes a whole-second duration from the provider's raw
// timestamps. Either one missing or unparsable yields "unknown".
func durationLabel(startedAt, endedAt string) string {
	if startedAt == "" || endedAt == "" {
		return "unknown"
	}
	start, err1 := time.Parse(time.RFC3339, startedAt)
	end, err2 := time.Parse(time.RFC3339, endedAt)
	if err1 != nil || err2 != nil || end.Before(start) {
		return "unknown"
	}
	return fmt.Sprintf("%ds", int(end.Sub(start).Seconds()))
}
