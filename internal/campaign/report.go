package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"campaign-engine/internal/notify"
)

// Reporter renders and delivers the aggregate outcome report for a job.
// Triggered exactly once per job (State.ClaimReport gates callers).
type Reporter struct {
	State  *State
	Notify notify.Notifier
	Log    *slog.Logger
}

// Run builds the report and delivers it best-effort.
func (rp *Reporter) Run(ctx context.Context, jobID string) {
	job, ok := rp.State.Job(jobID)
	if !ok {
		return
	}
	subject, body := BuildReport(job)
	if rp.Notify == nil {
		return
	}
	if err := rp.Notify.Report(ctx, subject, body); err != nil {
		log := rp.Log
		if log == nil {
			log = slog.Default()
		}
		log.Warn("report delivery failed", "job_id", jobID, "err", err)
	}
}

// BuildReport aggregates per-lead outcomes into an operator-readable summary.
func BuildReport(job Job) (subject, body string) {
	counts := map[Outcome]int{}
	for i := range job.Results {
		r := &job.Results[i]
		switch {
		case r.Outcome != "":
			counts[r.Outcome]++
		case r.Status == ResultError:
			counts[OutcomeError]++
		}
	}

	subject = fmt.Sprintf("Campaign report: %s (%d leads)", job.ID, job.Total)

	var b strings.Builder
	fmt.Fprintf(&b, "Campaign %s (%s mode), %d leads\n\n", job.ID, job.Mode, job.Total)
	for _, o := range []Outcome{OutcomeHot, OutcomeWarm, OutcomeCompleted, OutcomeReplied, OutcomeNoAnswer, OutcomeNotInterested, OutcomeSent, OutcomeError} {
		if n := counts[o]; n > 0 {
			fmt.Fprintf(&b, "%-15s %d\n", o, n)
		}
	}
	b.WriteString("\nHot leads:\n")
	hot := 0
	for i := range job.Results {
		r := &job.Results[i]
		if r.Outcome == OutcomeHot {
			hot++
			fmt.Fprintf(&b, "- %s %s: %s\n", r.FullName(), r.Phone, r.Summary)
		}
	}
	if hot == 0 {
		b.WriteString("- none\n")
	}
	return subject, b.String()
}
