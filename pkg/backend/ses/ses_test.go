package ses

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/backend"
)

type mockSESClient struct {
	sendFn    func(ctx context.Context, params *sesv2.SendEmailInput) (*sesv2.SendEmailOutput, error)
	lastInput *sesv2.SendEmailInput
}

func (m *mockSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	m.lastInput = params
	if m.sendFn != nil {
		return m.sendFn(ctx, params)
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-msg-1")}, nil
}

func testMessage() *backend.Message {
	return &backend.Message{
		MessageID:   "<01HX@example.com>",
		From:        "shop@example.com",
		To:          []string{"a@example.com"},
		ReplyTo:     []string{"help@example.com"},
		Subject:     "Hola Luisa",
		Text:        "Hola",
		HTML:        `<p>Hola</p><img src="cid:abc.logo@x">`,
		Metadata:    map[string]any{"kind": "welcome/es"},
		Inline:      []backend.Attachment{{Filename: "logo.png", ContentType: "image/png", ContentID: "abc.logo@x", Content: []byte("PNG")}},
		Attachments: []backend.Attachment{{Filename: "terms.txt", ContentType: "text/plain", Content: []byte("terms")}},
	}
}

func TestTransport_Send(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{}
	tr := NewWithClient(mock)

	raw, err := tr.Send(context.Background(), testMessage())
	require.NoError(t, err)

	resp, ok := raw.(*backend.Response)
	require.True(t, ok)
	assert.Equal(t, "ses-msg-1", resp.ID)
	assert.Equal(t, backend.StatusQueued, resp.Status)

	in := mock.lastInput
	require.NotNil(t, in)
	assert.Equal(t, "shop@example.com", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"a@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"help@example.com"}, in.ReplyToAddresses)
	require.Len(t, in.EmailTags, 1)
	assert.Equal(t, "welcome_es", aws.ToString(in.EmailTags[0].Value))
	require.NotNil(t, in.Content.Raw)
}

func TestTransport_Rejected(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{sendFn: func(context.Context, *sesv2.SendEmailInput) (*sesv2.SendEmailOutput, error) {
		return nil, &types.MessageRejected{Message: aws.String("Email address is not verified.")}
	}}

	raw, err := NewWithClient(mock).Send(context.Background(), testMessage())
	require.NoError(t, err)

	resp, ok := raw.(*backend.Response)
	require.True(t, ok)
	assert.Equal(t, backend.StatusRejected, resp.Status)
	assert.Equal(t, "Email address is not verified.", resp.RejectReason)
}

func TestTransport_TransientError(t *testing.T) {
	t.Parallel()

	mock := &mockSESClient{sendFn: func(context.Context, *sesv2.SendEmailInput) (*sesv2.SendEmailOutput, error) {
		return nil, errors.New("throttled")
	}}

	_, err := NewWithClient(mock).Send(context.Background(), testMessage())
	require.Error(t, err)
}

func TestBuildRawMessage(t *testing.T) {
	t.Parallel()

	raw, err := buildRawMessage(testMessage())
	require.NoError(t, err)

	m, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "<01HX@example.com>", m.Header.Get("Message-ID"))
	assert.Equal(t, "Hola Luisa", m.Header.Get("Subject"))

	mediaType, params, err := mime.ParseMediaType(m.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mixed := multipart.NewReader(m.Body, params["boundary"])

	related, err := mixed.NextPart()
	require.NoError(t, err)
	relType, relParams, err := mime.ParseMediaType(related.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/related", relType)

	rel := multipart.NewReader(related, relParams["boundary"])
	alt, err := rel.NextPart()
	require.NoError(t, err)
	altType, _, err := mime.ParseMediaType(alt.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", altType)

	inline, err := rel.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "<abc.logo@x>", inline.Header.Get("Content-ID"))
	assert.Contains(t, inline.Header.Get("Content-Disposition"), "inline")

	_, err = rel.NextPart()
	require.ErrorIs(t, err, io.EOF)

	attachment, err := mixed.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "terms.txt", attachment.FileName())

	_, err = mixed.NextPart()
	require.ErrorIs(t, err, io.EOF)
}

func TestEncodeBase64Lines(t *testing.T) {
	t.Parallel()

	out := encodeBase64Lines(bytes.Repeat([]byte("a"), 100))
	for _, line := range bytes.Split([]byte(out), []byte("\r\n")) {
		assert.LessOrEqual(t, len(line), lineLength)
	}
}
