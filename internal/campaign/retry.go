package campaign

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler re-dispatches no-answer leads exactly once after a fixed delay.
//
// The timer is tied to the owning job: deleting the job stops it. If the job
// disappears between scheduling and firing anyway, the fire is a guarded
// no-op. Retry failure leaves the lead's prior terminal state untouched.
type Scheduler struct {
	State      *State
	Dispatcher *Dispatcher
	Delay      time.Duration
	Log        *slog.Logger
}

// Schedule arms the retry timer for a task whose retry allowance was already
// claimed by the resolver.
func (s *Scheduler) Schedule(t RetryTask) {
	s.log().Info("retry scheduled", "job_id", t.JobID, "index", t.LeadIndex, "delay", s.Delay)
	timer := time.AfterFunc(s.Delay, func() { s.fire(t) })
	s.State.TrackTimer(t.JobID, timer)
}

func (s *Scheduler) fire(t RetryTask) {
	log := s.log().With("job_id", t.JobID, "index", t.LeadIndex)
	if !s.State.Exists(t.JobID) {
		log.Info("retry skipped, job deleted")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// Re-dispatch from the lead snapshot captured at original dispatch time.
	// The new correlation entry carries retries=1 so a second no-answer will
	// not retry again.
	callID, err := s.Dispatcher.StartLeadCall(ctx, t.JobID, t.LeadIndex, t.Lead, 1)
	if err != nil {
		log.Warn("retry dispatch failed", "err", err)
		return
	}
	log.Info("retry dispatched", "call_id", callID)
}

func (s *Scheduler) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
