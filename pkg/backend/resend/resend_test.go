package resend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/resend/resend-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/backend"
	resendbackend "github.com/dmitrymomot/mailroom/pkg/backend/resend"
	"github.com/dmitrymomot/mailroom/pkg/email"
)

type mockEmails struct {
	last *resend.SendEmailRequest
	resp *resend.SendEmailResponse
	err  error
}

func (m *mockEmails) SendWithContext(_ context.Context, req *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	m.last = req
	return m.resp, m.err
}

func TestTransport_Send(t *testing.T) {
	t.Parallel()

	mock := &mockEmails{resp: &resend.SendEmailResponse{Id: "re_123"}}
	tr := resendbackend.NewWithClient(mock)

	raw, err := tr.Send(context.Background(), &backend.Message{
		MessageID:   "<1@x>",
		From:        "shop@example.com",
		To:          []string{"a@example.com"},
		ReplyTo:     []string{"help@example.com", "other@example.com"},
		Subject:     "Hola",
		HTML:        "<p>Hola</p>",
		Text:        "Hola",
		Metadata:    map[string]any{"kind": "welcome/es", "email_id": "01HX"},
		Inline:      []backend.Attachment{{Filename: "logo.png", ContentID: "abc.logo@x", Content: []byte("PNG")}},
		Attachments: []backend.Attachment{{Filename: "terms.txt", Content: []byte("t")}},
	})
	require.NoError(t, err)

	req := mock.last
	require.NotNil(t, req)
	assert.Equal(t, "help@example.com, other@example.com", req.ReplyTo)
	assert.Equal(t, "<1@x>", req.Headers["X-Entity-Ref-ID"])
	require.Len(t, req.Attachments, 2)
	assert.Equal(t, "abc.logo@x", req.Attachments[0].ContentId)
	assert.Empty(t, req.Attachments[1].ContentId)
	assert.ElementsMatch(t, []resend.Tag{
		{Name: "kind", Value: "welcome_es"},
		{Name: "email_id", Value: "01HX"},
	}, req.Tags)

	e := &email.Entry{}
	assert.True(t, resendbackend.Interpreter.Interpret(raw, e))
	assert.Equal(t, "re_123", e.ThirdpartyID)
}

func TestTransport_SendError(t *testing.T) {
	t.Parallel()

	tr := resendbackend.NewWithClient(&mockEmails{err: errors.New("rate limited")})
	_, err := tr.Send(context.Background(), &backend.Message{})
	require.Error(t, err)
}

func TestInterpreter_Empty(t *testing.T) {
	t.Parallel()

	e := &email.Entry{}
	assert.False(t, resendbackend.Interpreter.Interpret(&resend.SendEmailResponse{}, e))
	assert.False(t, resendbackend.Interpreter.Interpret(nil, e))
	assert.Empty(t, e.ThirdpartyID)
}
