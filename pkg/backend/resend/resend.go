// Package resend implements a backend that delivers emails through the Resend API.
package resend

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/mailroom/pkg/backend"
	"github.com/dmitrymomot/mailroom/pkg/email"
)

// Name is the registry name of the Resend backend.
const Name = "resend"

// Config holds Resend credentials.
type Config struct {
	APIKey string `yaml:"api_key" env:"RESEND_API_KEY"`
}

// EmailsAPI is the subset of the Resend client used by the transport.
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Transport sends messages with the Resend API.
type Transport struct {
	emails EmailsAPI
}

// New creates a Resend transport.
func New(cfg Config) *Transport {
	return &Transport{emails: resend.NewClient(cfg.APIKey).Emails}
}

// NewWithClient creates a transport over a custom client.
func NewWithClient(api EmailsAPI) *Transport {
	return &Transport{emails: api}
}

// Send implements backend.Transport. It returns *resend.SendEmailResponse.
func (t *Transport) Send(ctx context.Context, msg *backend.Message) (any, error) {
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: joinReplyTo(msg.ReplyTo),
		Tags:    tags(msg.Metadata),
	}
	if msg.MessageID != "" {
		req.Headers = map[string]string{"X-Entity-Ref-ID": msg.MessageID}
	}

	for _, group := range [][]backend.Attachment{msg.Inline, msg.Attachments} {
		for _, a := range group {
			req.Attachments = append(req.Attachments, &resend.Attachment{
				Filename:    a.Filename,
				Content:     a.Content,
				ContentType: a.ContentType,
				ContentId:   a.ContentID,
			})
		}
	}

	resp, err := t.emails.SendWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resend: failed to send email: %w", err)
	}
	return resp, nil
}

// Interpreter accepts any response carrying a Resend email id.
var Interpreter = backend.InterpreterFunc(func(raw any, entry *email.Entry) bool {
	resp, ok := raw.(*resend.SendEmailResponse)
	if !ok || resp == nil || resp.Id == "" {
		return false
	}
	entry.ThirdpartyID = resp.Id
	return true
})

// joinReplyTo folds the reply-to list into the single address-list value
// the Resend request accepts.
func joinReplyTo(addrs []string) string {
	return strings.Join(addrs, ", ")
}

var tagChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// tags converts metadata to Resend tags, which only allow ASCII letters,
// digits, underscores and dashes.
func tags(md map[string]any) []resend.Tag {
	if len(md) == 0 {
		return nil
	}
	out := make([]resend.Tag, 0, len(md))
	for name, value := range md {
		out = append(out, resend.Tag{
			Name:  tagChars.ReplaceAllString(name, "_"),
			Value: tagChars.ReplaceAllString(tagValue(value), "_"),
		})
	}
	return out
}

func tagValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
