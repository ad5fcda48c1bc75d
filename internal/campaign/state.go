package campaign

import (
	"context"
	"sync"
	"time"

	"campaign-engine/internal/lead"

	"github.com/google/uuid"
)

// State is the orchestration state for every in-flight and completed job:
// the job store, both correlation indexes, the alert-dedup and report-once
// sets, and the pending retry timers.
//
// Invariants:
// - All mutation goes through this one mutex (single-writer discipline).
// - Job status is monotonic; SetStatus refuses regressions.
// - Results are index-stable; PatchResult mutates in place, never reorders.
// - The retry gate and alert dedup are check-then-set inside the lock.
//
// Completed jobs and their index entries are evicted by the reaper rather
// than kept for the process lifetime.
type State struct {
	mu sync.Mutex

	jobs    map[string]*Job
	calls   map[string]*CallRef
	phones  map[string]PhoneRef
	alerted map[string]struct{}
	// reported guards aggregate reporting: once per job, ever.
	reported map[string]struct{}
	// timers holds pending retry timers per job so deletion can cancel them.
	timers map[string][]*time.Timer

	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewState() *State {
	return &State{
		jobs:     map[string]*Job{},
		calls:    map[string]*CallRef{},
		phones:   map[string]PhoneRef{},
		alerted:  map[string]struct{}{},
		reported: map[string]struct{}{},
		timers:   map[string][]*time.Timer{},
		clock:    time.Now,
	}
}

// CreateJob admits a batch of leads as a new pending job and returns a snapshot.
func (s *State) CreateJob(leads []lead.Lead, mode Mode) Job {
	results := make([]LeadResult, len(leads))
	for i, l := range leads {
		results[i] = LeadResult{Lead: l, Status: ResultPending}
	}
	j := &Job{
		ID:        uuid.NewString(),
		Status:    JobPending,
		Mode:      mode,
		Total:     len(results),
		Results:   results,
		CreatedAt: s.clock().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
	return snapshot(j)
}

// Job returns a deep-enough copy of the job; mutating it cannot touch state.
func (s *State) Job(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return snapshot(j), true
}

func (s *State) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[id]
	return ok
}

// DeleteJob removes a job, its index entries and its pending retry timers.
// This is the only cancellation primitive: the dispatch loop checks existence
// before each iteration, and resolvers no-op on missing jobs.
func (s *State) DeleteJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return false
	}
	s.evictLocked(id)
	return true
}

// SetStatus advances job status. Regressions are ignored, not errors.
func (s *State) SetStatus(id string, status JobStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	if statusRank[status] <= statusRank[j.Status] && status != j.Status {
		return true
	}
	j.Status = status
	if status == JobComplete && j.CompletedAt == nil {
		now := s.clock().UTC()
		j.CompletedAt = &now
	}
	return true
}

// ReplaceLeads rebuilds the result set after the probe pre-pass, before any
// dispatch has happened. Total is fixed here for the call probe path.
func (s *State) ReplaceLeads(id string, leads []lead.Lead) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return false
	}
	results := make([]LeadResult, len(leads))
	for i, l := range leads {
		results[i] = LeadResult{Lead: l, Status: ResultPending}
	}
	j.Results = results
	j.Total = len(results)
	return true
}

// PatchResult applies fn to the result at index and returns the patched copy.
// The job may have been deleted concurrently; callers treat false as "skip".
func (s *State) PatchResult(id string, index int, fn func(*LeadResult)) (LeadResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || index < 0 || index >= len(j.Results) {
		return LeadResult{}, false
	}
	fn(&j.Results[index])
	return j.Results[index], true
}

// RegisterCall records a correlation index entry for a dispatched call.
func (s *State) RegisterCall(callID string, ref CallRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := ref
	s.calls[callID] = &r
}

func (s *State) LookupCall(callID string) (CallRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.calls[callID]
	if !ok {
		return CallRef{}, false
	}
	return *r, true
}

// RegisterPhone records the phone -> job/lead entry consulted by the
// inbound-reply resolver. Last write wins across jobs.
func (s *State) RegisterPhone(phone string, ref PhoneRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phones[phone] = ref
}

func (s *State) LookupPhone(phone string) (PhoneRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.phones[phone]
	return r, ok
}

// ClaimRetry consumes the single retry allowance for a call identifier.
// Returns true exactly once per entry: the check and the set are one step,
// so duplicate webhook delivery cannot schedule two retries.
func (s *State) ClaimRetry(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.calls[callID]
	if !ok || r.Retries >= 1 {
		return false
	}
	r.Retries = 1
	return true
}

// ClaimAlert returns true the first time a call identifier is seen.
// A call id may trigger one hot-lead alert, ever.
func (s *State) ClaimAlert(callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.alerted[callID]; dup {
		return false
	}
	s.alerted[callID] = struct{}{}
	return true
}

// ClaimReport returns true the first time aggregate reporting is triggered
// for a job, guarding against multiple webhooks arriving in the same tick.
func (s *State) ClaimReport(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		return false
	}
	if _, dup := s.reported[jobID]; dup {
		return false
	}
	s.reported[jobID] = struct{}{}
	return true
}

// AllResolved reports whether every lead has either an outcome or a
// dispatch error, i.e. nothing is still waiting on the provider.
func (s *State) AllResolved(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[jobID]
	if !ok || len(j.Results) == 0 {
		return false
	}
	for i := range j.Results {
		if !j.Results[i].Resolved() {
			return false
		}
	}
	return true
}

// TrackTimer ties a pending retry timer to its job so DeleteJob can stop it.
func (s *State) TrackTimer(jobID string, t *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[jobID]; !ok {
		t.Stop()
		return
	}
	s.timers[jobID] = append(s.timers[jobID], t)
}

// StartReaper evicts jobs after they have been complete for the given age.
// Index entries, dedup marks and timers go with the job, so memory stays
// bounded under sustained use.
func (s *State) StartReaper(ctx context.Context, interval, after time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.reap(after)
			}
		}
	}()
}

func (s *State) reap(after time.Duration) {
	cutoff := s.clock().UTC().Add(-after)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, j := range s.jobs {
		if j.Status == JobComplete && j.CompletedAt != nil && j.CompletedAt.Before(cutoff) {
			s.evictLocked(id)
		}
	}
}

func (s *State) evictLocked(id string) {
	delete(s.jobs, id)
	delete(s.reported, id)
	for callID, ref := range s.calls {
		if ref.JobID == id {
			delete(s.calls, callID)
			delete(s.alerted, callID)
		}
	}
	for phone, ref := range s.phones {
		if ref.JobID == id {
			delete(s.phones, phone)
		}
	}
	for _, t := range s.timers[id] {
		t.Stop()
	}
	delete(s.timers, id)
}

func snapshot(j *Job) Job {
	out := *j
	out.Results = make([]LeadResult, len(j.Results))
	copy(out.Results, j.Results)
	return out
}
