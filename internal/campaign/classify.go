package campaign

import "strings"

// Outcome classification is deliberately dumb keyword matching: both
// functions are total, deterministic, and side-effect-free, so reclassifying
// the same input (webhook replay, reconciliation) always agrees with the
// first pass.

// End-reason patterns signalling the callee never meaningfully picked up.
var noAnswerReasons = []string{
	"no-answer",
	"no answer",
	"did-not-answer",
	"voicemail",
	"busy",
	"unavailable",
}

// End-reason patterns signalling an explicit rejection.
var rejectionReasons = []string{
	"not interested",
	"not-interested",
	"rejected",
	"declined",
	"do not call",
	"remove me",
}

// Hangup-style end reasons; only count as rejection when the call never
// recorded a start time (picked up and immediately killed).
var hangupReasons = []string{
	"customer-ended-call",
	"hangup",
	"hung up",
}

var buyingSignals = []string{
	"book",
	"call back",
	"callback",
	"call me back",
	"schedule",
	"appointment",
	"interested",
	"sign up",
	"pricing",
	"follow up",
	"want to",
}

var hesitationSignals = []string{
	"maybe",
	"think about",
	"not sure",
	"later",
	"next week",
	"next month",
	"busy right now",
	"call again",
}

// ClassifyCall maps a provider end-of-call report to an outcome.
//
// Priority order is a deliberate tie-break: explicit provider signals about
// call failure outrank sentiment inferred from the summary, so a no-answer
// end reason wins even when the summary contains a buying signal.
func ClassifyCall(endedReason, summary, startedAt string) Outcome {
	reason := strings.ToLower(strings.TrimSpace(endedReason))
	text := strings.ToLower(summary)

	if containsAny(reason, noAnswerReasons) {
		return OutcomeNoAnswer
	}
	if containsAny(reason, rejectionReasons) {
		return OutcomeNotInterested
	}
	if containsAny(reason, hangupReasons) && strings.TrimSpace(startedAt) == "" {
		return OutcomeNotInterested
	}
	if matchesInterest(text) {
		return OutcomeHot
	}
	if containsAny(text, hesitationSignals) {
		return OutcomeWarm
	}
	return OutcomeCompleted
}

var replyAffirmative = []string{
	"yes",
	"interested",
	"sounds good",
	"book",
	"call me",
	"sign me up",
	"let's do it",
}

var replyHesitation = []string{
	"maybe",
	"later",
	"think about",
	"not sure",
	"next week",
	"next month",
}

var replyOptOut = []string{
	"stop",
	"remove",
	"unsubscribe",
	"no thanks",
	"not interested",
	"wrong number",
	"don't text",
	"do not text",
}

// ClassifyReply maps an inbound SMS body to an outcome. Anything that matches
// no pattern set lands in the neutral "replied" bucket: someone responded,
// nothing more is known.
func ClassifyReply(body string) Outcome {
	text := strings.ToLower(body)
	if matchesInterest(text) {
		return OutcomeHot
	}
	if containsAny(text, replyHesitation) {
		return OutcomeWarm
	}
	if containsAny(text, replyOptOut) {
		return OutcomeNotInterested
	}
	return OutcomeReplied
}

// matchesInterest checks affirmative language while refusing the trap of
// "interested" inside "not interested".
func matchesInterest(text string) bool {
	if strings.Contains(text, "not interested") {
		return false
	}
	for _, kw := range buyingSignals {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, kw := range replyAffirmative {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
