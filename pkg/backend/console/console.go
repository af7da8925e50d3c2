// Package console implements a backend that prints emails to a writer.
// It is meant for development and always accepts the message.
package console

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/backend"
)

// Name is the registry name of the console backend.
const Name = "console"

// Transport writes a readable dump of each message.
type Transport struct {
	w  io.Writer
	mu sync.Mutex
}

// New creates a console transport writing to w, or stdout when w is nil.
func New(w io.Writer) *Transport {
	if w == nil {
		w = os.Stdout
	}
	return &Transport{w: w}
}

// Send prints the message and returns an accepted *backend.Response.
func (t *Transport) Send(_ context.Context, msg *backend.Message) (any, error) {
	var b strings.Builder

	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Message-ID: %s\n", msg.MessageID)
	fmt.Fprintf(&b, "From: %s\n", msg.From)
	fmt.Fprintf(&b, "To: %s\n", strings.Join(msg.To, ", "))
	if len(msg.ReplyTo) > 0 {
		fmt.Fprintf(&b, "Reply-To: %s\n", strings.Join(msg.ReplyTo, ", "))
	}
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	b.WriteString("Body:\n")
	b.WriteString(msg.Text + "\n")

	if files := describe(msg.Inline); len(files) > 0 {
		fmt.Fprintf(&b, "Inline: %s\n", strings.Join(files, ", "))
	}
	if files := describe(msg.Attachments); len(files) > 0 {
		fmt.Fprintf(&b, "Attachments: %s\n", strings.Join(files, ", "))
	}
	b.WriteString("========================================\n")

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return nil, fmt.Errorf("console: write message: %w", err)
	}

	return &backend.Response{ID: uuid.NewString(), Status: backend.StatusSent}, nil
}

func describe(files []backend.Attachment) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, fmt.Sprintf("%s (%s)", f.Filename, formatSize(len(f.Content))))
	}
	return out
}

func formatSize(n int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case n >= mb:
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.1f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
