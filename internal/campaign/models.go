package campaign

import (
	"time"

	"campaign-engine/internal/lead"
)

// Mode selects the outreach channel for a job. Fixed at creation.
type Mode string

const (
	ModeCall Mode = "call"
	ModeSMS  Mode = "sms"
)

// JobStatus is the job-level lifecycle state.
//
// Invariant: monotonic (pending -> running -> complete); never regresses.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
)

var statusRank = map[JobStatus]int{JobPending: 0, JobRunning: 1, JobComplete: 2}

// ResultStatus is the dispatch state of one lead, distinct from its outcome.
type ResultStatus string

const (
	ResultPending   ResultStatus = "pending"
	ResultCalling   ResultStatus = "calling"
	ResultSending   ResultStatus = "sending"
	ResultInitiated ResultStatus = "initiated"
	ResultSent      ResultStatus = "sent"
	ResultError     ResultStatus = "error"
)

// Outcome is the classified result of a terminal provider event or reply.
type Outcome string

const (
	OutcomeHot           Outcome = "hot"
	OutcomeWarm          Outcome = "warm"
	OutcomeCompleted     Outcome = "completed"
	OutcomeNoAnswer      Outcome = "no-answer"
	OutcomeNotInterested Outcome = "not-interested"
	OutcomeSent          Outcome = "sent"
	OutcomeReplied       Outcome = "replied"
	OutcomeError         Outcome = "error"

	// OutcomeUnknown appears only in reconciled views when an on-demand
	// provider status query fails; it is never stored on the job.
	OutcomeUnknown Outcome = "unknown"
)

// LeadResult is one lead's record within a job, keyed by its position in
// Job.Results. The index is the lead's identity for the job's lifetime;
// results are never reordered or removed.
type LeadResult struct {
	lead.Lead

	Status ResultStatus `json:"status"`

	CallID string     `json:"call_id,omitempty"`
	SentAt *time.Time `json:"sent_at,omitempty"`

	// Outcome is empty until the provider reports a terminal or reply event.
	Outcome     Outcome `json:"outcome,omitempty"`
	Summary     string  `json:"summary,omitempty"`
	EndedReason string  `json:"ended_reason,omitempty"`
	Duration    string  `json:"duration,omitempty"`

	Replied   bool       `json:"replied,omitempty"`
	LastReply string     `json:"last_reply,omitempty"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`

	Retried bool `json:"retried,omitempty"`

	Error string `json:"error,omitempty"`
}

// Resolved reports whether this lead needs no further provider events:
// either an outcome arrived or the dispatch itself failed.
func (r LeadResult) Resolved() bool {
	return r.Outcome != "" || r.Status == ResultError
}

// Job is one campaign execution over a batch of leads.
// Owned exclusively by the State; callers only ever see snapshot copies.
type Job struct {
	ID          string       `json:"id"`
	Status      JobStatus    `json:"status"`
	Mode        Mode         `json:"mode"`
	Total       int          `json:"total"`
	Results     []LeadResult `json:"results"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// CallRef is a correlation index entry mapping a provider call id back to a
// job/lead position. Lead is a dispatch-time snapshot used for retries and
// alerts without re-reading possibly-stale job state.
type CallRef struct {
	JobID     string
	LeadIndex int
	Lead      lead.Lead
	Retries   int
}

// PhoneRef maps a formatted phone number to a job/lead position (SMS mode).
// Last-write-wins if a number is reused across jobs.
type PhoneRef struct {
	JobID     string
	LeadIndex int
}

// EventType tags frames on the job event stream.
type EventType string

const (
	EventInit      EventType = "init"
	EventUpdate    EventType = "update"
	EventReply     EventType = "reply"
	EventProbe     EventType = "probe"
	EventProbeDone EventType = "probe_done"
	EventComplete  EventType = "complete"
)

// Event is one frame streamed to job observers.
type Event struct {
	Type   EventType     `json:"type"`
	JobID  string        `json:"job_id"`
	Index  int           `json:"index,omitempty"`
	Result *LeadResult   `json:"result,omitempty"`
	Job    *Job          `json:"job,omitempty"`
	Probe  *ProbeSummary `json:"probe,omitempty"`
	Totals *JobSummary   `json:"totals,omitempty"`
}

// ProbeSummary reports the number-validation pre-pass.
type ProbeSummary struct {
	Sent    int `json:"sent"`
	Dropped int `json:"dropped"`
	Kept    int `json:"kept"`
}

// JobSummary is the terminal dispatch tally for a job.
type JobSummary struct {
	Initiated int `json:"initiated"`
	Errors    int `json:"errors"`
	Total     int `json:"total"`
}
