package campaign

import (
	"context"
	"errors"
	"log/slog"

	"campaign-engine/internal/telephony"
)

// ErrJobNotFound is returned by read paths when the job id is unknown.
var ErrJobNotFound = errors.New("campaign: job not found")

// ReconciledRow is one lead's row in the on-demand reconciled view.
// Outcome "unknown" (with Note) appears only here, never on stored state.
type ReconciledRow struct {
	LeadResult
	Note string `json:"note,omitempty"`
}

// Reconciler actively queries the provider for calls that were dispatched
// but whose end-of-call webhook has not arrived, merging what it learns.
type Reconciler struct {
	State  *State
	Calls  telephony.CallProvider
	Engine *Engine
	Log    *slog.Logger
}

// Reconcile merges provider-side terminal statuses into the job and returns
// the per-lead view. A failed status query marks only that row unknown;
// other rows are unaffected. Any newly discovered hot outcome fires its
// pending alert through the normal resolver path (dedup intact), and if
// reconciliation resolves the last open lead the aggregate report runs.
func (rc *Reconciler) Reconcile(ctx context.Context, jobID string) ([]ReconciledRow, error) {
	job, ok := rc.State.Job(jobID)
	if !ok {
		return nil, ErrJobNotFound
	}

	rows := make([]ReconciledRow, len(job.Results))
	for i := range job.Results {
		rows[i] = ReconciledRow{LeadResult: job.Results[i]}
	}

	for i := range job.Results {
		r := &job.Results[i]
		if r.CallID == "" || r.Outcome != "" {
			continue
		}

		rec, err := rc.Calls.GetCall(ctx, r.CallID)
		if err != nil {
			rows[i].Outcome = OutcomeUnknown
			rows[i].Note = err.Error()
			rc.log().Warn("reconcile query failed", "job_id", jobID, "call_id", r.CallID, "err", err)
			continue
		}
		if !rec.Ended() {
			continue
		}

		// Same transition as a live webhook, including alert dedup, the
		// retry gate and the report-once guard.
		rc.Engine.HandleCallEnded(ctx, CallEndedEvent{
			CallID:      r.CallID,
			EndedReason: rec.EndedReason,
			Summary:     rec.Summary,
			StartedAt:   rec.StartedAt,
			EndedAt:     rec.EndedAt,
		})

		if cur, ok := rc.State.Job(jobID); ok && i < len(cur.Results) {
			rows[i] = ReconciledRow{LeadResult: cur.Results[i]}
		}
	}

	return rows, nil
}

func (rc *Reconciler) log() *slog.Logger {
	if rc.Log != nil {
		return rc.Log
	}
	return slog.Default()
}
