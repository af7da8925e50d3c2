package email

import (
	"strings"
	"time"
)

// Entry is one concrete email instance scheduled for delivery.
type Entry struct {
	ScheduledAt      time.Time      `json:"scheduled_at"`
	Context          map[string]any `json:"context,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Kind             *Kind          `json:"kind,omitempty"`
	SendAt           *int64         `json:"send_at,omitempty"`
	SentAt           *time.Time     `json:"sent_at,omitempty"`
	ID               string         `json:"id"`
	CustomerID       string         `json:"customer_id"`
	Sender           string         `json:"sender"`
	Recipients       string         `json:"recipients"`
	Subject          string         `json:"subject"`
	ReplyTo          string         `json:"reply_to,omitempty"`
	RenderedHTML     string         `json:"rendered_html,omitempty"`
	RenderedPlain    string         `json:"rendered_plain,omitempty"`
	ThirdpartyID     string         `json:"thirdparty_id,omitempty"`
	ThirdpartyReject string         `json:"thirdparty_reject,omitempty"`
	Backend          string         `json:"backend,omitempty"`
	CheckURL         string         `json:"check_url,omitempty"`
	KindID           int64          `json:"kind_id"`
	Sent             bool           `json:"sent"`
	IsSpam           bool           `json:"is_spam"`
	Deleted          bool           `json:"deleted"`
}

// String identifies the entry in logs.
func (e *Entry) String() string {
	if e.Kind == nil {
		return e.ID
	}
	return e.Kind.String() + "#" + e.ID
}

// RecipientList splits the comma-separated recipients.
func (e *Entry) RecipientList() []string {
	return SplitAddresses(e.Recipients)
}

// ReplyToList splits the comma-separated reply-to addresses.
func (e *Entry) ReplyToList() []string {
	return SplitAddresses(e.ReplyTo)
}

// Arrived reports whether the entry's send time has been reached.
// Entries without a send time are always due.
func (e *Entry) Arrived(now time.Time) bool {
	return e.SendAt == nil || *e.SendAt <= now.Unix()
}

// Sendable reports whether the entry is still a delivery candidate.
func (e *Entry) Sendable() bool {
	return !e.Sent && !e.IsSpam && !e.Deleted && e.ThirdpartyReject == "" &&
		(e.Kind == nil || e.Kind.Active)
}

// Attachment is an immutable file attached to an entry.
type Attachment struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
	EntryID     string `json:"entry_id"`
	Content     []byte `json:"-"`
	ID          int64  `json:"id"`
}

// SplitAddresses splits a comma-separated address list, dropping blanks.
func SplitAddresses(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
