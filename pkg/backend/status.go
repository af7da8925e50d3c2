package backend

import "github.com/dmitrymomot/mailroom/pkg/email"

// Provider statuses understood by StatusInterpreter.
const (
	StatusSent      = "sent"
	StatusQueued    = "queued"
	StatusScheduled = "scheduled"
	StatusRejected  = "rejected"
	StatusInvalid   = "invalid"
)

// RejectSpam is the reject reason that also flags an entry as spam.
const RejectSpam = "spam"

// Response is a provider-neutral delivery response.
type Response struct {
	ID           string `json:"_id,omitempty"`
	Status       string `json:"status"`
	RejectReason string `json:"reject_reason,omitempty"`
}

// StatusInterpreter interprets *Response values:
// the provider id is always recorded, a rejection with a reason is recorded
// on the entry (and flags it as spam when the reason is "spam"), and only
// sent, queued and scheduled count as accepted.
type StatusInterpreter struct{}

func (StatusInterpreter) Interpret(raw any, entry *email.Entry) bool {
	resp, ok := raw.(*Response)
	if !ok || resp == nil {
		return false
	}

	if resp.ID != "" {
		entry.ThirdpartyID = resp.ID
	}

	if resp.Status == StatusRejected && resp.RejectReason != "" {
		if resp.RejectReason == RejectSpam {
			entry.IsSpam = true
		}
		entry.ThirdpartyReject = resp.RejectReason
		return false
	}

	switch resp.Status {
	case StatusSent, StatusQueued, StatusScheduled:
		return true
	default:
		return false
	}
}
