package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"campaign-engine/internal/config"
	"campaign-engine/internal/conversation"
	"campaign-engine/internal/lead"
	"campaign-engine/internal/messaging"
	"campaign-engine/internal/notify"
	"campaign-engine/internal/telephony"
	"campaign-engine/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// DefaultSMSTemplate is the campaign copy used when the client supplies none.
const DefaultSMSTemplate = "Hi {first_name}! We tried reaching you about your property. " +
	"Reply YES if you're interested in a quick chat, or STOP to opt out."

// probeBody is the low-cost pre-flight message used to validate reachability.
const probeBody = "Hi! Quick hello from our team."

// DispatchOptions are fixed per job at creation time.
type DispatchOptions struct {
	// ValidateNumbers enables the probe pre-pass in call mode.
	ValidateNumbers bool
	// Template overrides DefaultSMSTemplate in sms mode.
	Template string
}

// Dispatcher drives a job from creation to full dispatch, one lead at a time
// with a fixed inter-lead delay. Multiple jobs' loops may run concurrently;
// all shared-state mutation goes through State.
type Dispatcher struct {
	State     *State
	Ledger    *conversation.Ledger
	Calls     telephony.CallProvider
	SMS       messaging.SMSProvider
	Broadcast *Broadcaster
	Notify    notify.Notifier
	Cfg       config.DispatchConfig
	Log       *slog.Logger
}

// Run drives one job to completion. It never returns an error: per-lead
// failures are recorded on the lead, and a deleted job is a legitimate
// cancellation path, not a failure.
func (d *Dispatcher) Run(ctx context.Context, jobID string, opts DispatchOptions) {
	job, ok := d.State.Job(jobID)
	if !ok {
		return
	}
	log := logger.From(ctx).With("job_id", jobID, "mode", job.Mode)

	if job.Mode == ModeCall && opts.ValidateNumbers {
		d.probePass(ctx, jobID, log)
		// The probe may have shrunk the lead set; re-read before looping.
		job, ok = d.State.Job(jobID)
		if !ok {
			return
		}
	}

	d.State.SetStatus(jobID, JobRunning)

	var initiated, errors int
	for i := 0; i < len(job.Results); i++ {
		// The job may be deleted mid-loop; stop before acting on the next
		// lead and without broadcasting further.
		cur, ok := d.State.Job(jobID)
		if !ok {
			log.Info("job deleted mid-dispatch, aborting")
			return
		}
		l := cur.Results[i].Lead

		var err error
		switch job.Mode {
		case ModeCall:
			err = d.dispatchCall(ctx, jobID, i, l)
		case ModeSMS:
			err = d.dispatchSMS(ctx, jobID, i, l, opts.Template)
		}
		if err != nil {
			errors++
			log.Warn("lead dispatch failed", "index", i, "phone", l.Phone, "err", err)
		} else {
			initiated++
		}

		if i < len(job.Results)-1 {
			if !d.pause(ctx, d.Cfg.LeadDelay) {
				return
			}
		}
	}

	d.finish(ctx, jobID, JobSummary{Initiated: initiated, Errors: errors, Total: len(job.Results)}, log)
}

// StartLeadCall is the single-call primitive shared with the retry scheduler.
// On success the correlation index entry is registered with the given retry
// count and the result patched to initiated.
func (d *Dispatcher) StartLeadCall(ctx context.Context, jobID string, index int, l lead.Lead, retries int) (string, error) {
	req := telephony.StartCallRequest{
		Phone: l.Phone,
		Variables: map[string]string{
			"name":       l.FullName(),
			"first_name": l.FirstName,
			"address":    l.FullAddress(),
			"phone":      l.Phone,
		},
	}
	info, err := d.Calls.StartCall(ctx, req)
	if err != nil {
		return "", err
	}

	d.State.RegisterCall(info.ID, CallRef{JobID: jobID, LeadIndex: index, Lead: l, Retries: retries})
	res, ok := d.State.PatchResult(jobID, index, func(r *LeadResult) {
		r.Status = ResultInitiated
		r.CallID = info.ID
		if retries > 0 {
			r.Retried = true
			r.Outcome = ""
		}
	})
	if ok {
		d.publishUpdate(jobID, index, res)
	}
	return info.ID, nil
}

func (d *Dispatcher) dispatchCall(ctx context.Context, jobID string, index int, l lead.Lead) error {
	if res, ok := d.State.PatchResult(jobID, index, func(r *LeadResult) {
		r.Status = ResultCalling
	}); ok {
		d.publishUpdate(jobID, index, res)
	}

	_, err := d.StartLeadCall(ctx, jobID, index, l, 0)
	if err != nil {
		if res, ok := d.State.PatchResult(jobID, index, func(r *LeadResult) {
			r.Status = ResultError
			r.Error = err.Error()
		}); ok {
			d.publishUpdate(jobID, index, res)
		}
		return err
	}
	return nil
}

func (d *Dispatcher) dispatchSMS(ctx context.Context, jobID string, index int, l lead.Lead, template string) error {
	if res, ok := d.State.PatchResult(jobID, index, func(r *LeadResult) {
		r.Status = ResultSending
	}); ok {
		d.publishUpdate(jobID, index, res)
	}

	body := RenderTemplate(template, l)
	info, err := d.SMS.Send(ctx, l.Phone, body)
	if err != nil {
		if res, ok := d.State.PatchResult(jobID, index, func(r *LeadResult) {
			r.Status = ResultError
			r.Error = err.Error()
		}); ok {
			d.publishUpdate(jobID, index, res)
		}
		return err
	}

	d.Ledger.Append(l.Phone, conversation.Outbound, body)
	d.State.RegisterPhone(l.Phone, PhoneRef{JobID: jobID, LeadIndex: index})

	now := time.Now().UTC()
	if res, ok := d.State.PatchResult(jobID, index, func(r *LeadResult) {
		r.Status = ResultSent
		r.SentAt = &now
		r.Outcome = OutcomeSent
	}); ok {
		d.publishUpdate(jobID, index, res)
	}
	d.log().Debug("sms dispatched", "job_id", jobID, "index", index, "sid", info.SID)
	return nil
}

// probePass sends a probe message to every lead concurrently, waits a fixed
// settle interval for delivery receipts, then drops leads whose probe is
// reported as a delivery failure. Status-query errors fail open: the lead is
// kept rather than dropped.
func (d *Dispatcher) probePass(ctx context.Context, jobID string, log *slog.Logger) {
	job, ok := d.State.Job(jobID)
	if !ok {
		return
	}
	if d.SMS == nil {
		log.Warn("number validation requested but sms channel not configured, skipping probe")
		return
	}

	d.Broadcast.Publish(Event{Type: EventProbe, JobID: jobID, Probe: &ProbeSummary{Sent: len(job.Results)}})

	sids := make([]string, len(job.Results))
	g, gctx := errgroup.WithContext(ctx)
	for i := range job.Results {
		i := i
		g.Go(func() error {
			info, err := d.SMS.Send(gctx, job.Results[i].Phone, probeBody)
			if err == nil {
				sids[i] = info.SID
			}
			// A failed probe send is itself a delivery signal; no sid means
			// the lead is judged on the fail-open path below.
			return nil
		})
	}
	_ = g.Wait()

	if !d.pause(ctx, d.Cfg.ProbeSettle) {
		return
	}

	kept := make([]lead.Lead, 0, len(job.Results))
	dropped := 0
	for i := range job.Results {
		if sids[i] == "" {
			// Send never went out; keep the lead (fail open).
			kept = append(kept, job.Results[i].Lead)
			continue
		}
		status, err := d.SMS.MessageStatus(ctx, sids[i])
		if err != nil {
			kept = append(kept, job.Results[i].Lead)
			continue
		}
		if messaging.DeliveryFailed(status) {
			dropped++
			continue
		}
		kept = append(kept, job.Results[i].Lead)
	}

	d.State.ReplaceLeads(jobID, kept)
	log.Info("probe pass done", "sent", len(job.Results), "dropped", dropped, "kept", len(kept))
	d.Broadcast.Publish(Event{Type: EventProbeDone, JobID: jobID, Probe: &ProbeSummary{
		Sent:    len(job.Results),
		Dropped: dropped,
		Kept:    len(kept),
	}})
}

func (d *Dispatcher) finish(ctx context.Context, jobID string, totals JobSummary, log *slog.Logger) {
	if !d.State.SetStatus(jobID, JobComplete) {
		return
	}
	job, ok := d.State.Job(jobID)
	if !ok {
		return
	}

	d.Broadcast.Complete(Event{Type: EventComplete, JobID: jobID, Job: &job, Totals: &totals})
	log.Info("job dispatch complete", "initiated", totals.Initiated, "errors", totals.Errors, "total", totals.Total)

	if d.Notify != nil {
		text := fmt.Sprintf("Campaign %s finished dispatch: %d/%d initiated, %d errors.",
			jobID, totals.Initiated, totals.Total, totals.Errors)
		if err := d.Notify.Alert(ctx, text); err != nil {
			log.Warn("completion notification failed", "err", err)
		}
	}
}

func (d *Dispatcher) publishUpdate(jobID string, index int, res LeadResult) {
	r := res
	d.Broadcast.Publish(Event{Type: EventUpdate, JobID: jobID, Index: index, Result: &r})
}

// pause sleeps for the given delay unless the process is shutting down.
func (d *Dispatcher) pause(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return true
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (d *Dispatcher) log() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

var namePlaceholder = regexp.MustCompile(`(?i)\{(name|first_name)\}`)

// RenderTemplate substitutes {name} and {first_name} placeholders,
// case-insensitively, into the message template.
func RenderTemplate(template string, l lead.Lead) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultSMSTemplate
	}
	return namePlaceholder.ReplaceAllStringFunc(template, func(m string) string {
		key := strings.ToLower(strings.Trim(m, "{}"))
		if key == "first_name" {
			if l.FirstName != "" {
				return l.FirstName
			}
			return "there"
		}
		if n := l.FullName(); n != "" {
			return n
		}
		return "there"
	})
}
