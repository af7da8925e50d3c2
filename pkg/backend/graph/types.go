package graph

import (
	"encoding/base64"

	"github.com/dmitrymomot/mailroom/pkg/backend"
)

type sendMailRequest struct {
	Message         sendMailMessage `json:"message"`
	SaveToSentItems bool            `json:"saveToSentItems"`
}

type sendMailMessage struct {
	Subject           string           `json:"subject"`
	Body              messageBody      `json:"body"`
	From              *recipient       `json:"from,omitempty"`
	ToRecipients      []recipient      `json:"toRecipients"`
	ReplyTo           []recipient      `json:"replyTo,omitempty"`
	Attachments       []fileAttachment `json:"attachments,omitempty"`
	InternetMessageID string           `json:"internetMessageId,omitempty"`
	Headers           []internetHeader `json:"internetMessageHeaders,omitempty"`
}

type messageBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type recipient struct {
	EmailAddress emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type fileAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType,omitempty"`
	ContentBytes string `json:"contentBytes"`
	ContentID    string `json:"contentId,omitempty"`
	IsInline     bool   `json:"isInline"`
}

type internetHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type graphErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func recipients(addrs []string) []recipient {
	out := make([]recipient, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, recipient{EmailAddress: emailAddress{Address: a}})
	}
	return out
}

func buildSendMailRequest(msg *backend.Message) *sendMailRequest {
	body := messageBody{ContentType: "text", Content: msg.Text}
	if msg.HTML != "" {
		body = messageBody{ContentType: "html", Content: msg.HTML}
	}

	m := sendMailMessage{
		Subject:           msg.Subject,
		Body:              body,
		ToRecipients:      recipients(msg.To),
		InternetMessageID: msg.MessageID,
	}
	if msg.From != "" {
		m.From = &recipient{EmailAddress: emailAddress{Address: msg.From}}
	}
	if len(msg.ReplyTo) > 0 {
		m.ReplyTo = recipients(msg.ReplyTo)
	}
	if id, ok := msg.Metadata["email_id"]; ok {
		m.Headers = append(m.Headers, internetHeader{Name: "X-Mailroom-Email-ID", Value: toString(id)})
	}

	for _, a := range msg.Inline {
		m.Attachments = append(m.Attachments, attachment(a, true))
	}
	for _, a := range msg.Attachments {
		m.Attachments = append(m.Attachments, attachment(a, false))
	}

	return &sendMailRequest{Message: m, SaveToSentItems: false}
}

func attachment(a backend.Attachment, inline bool) fileAttachment {
	return fileAttachment{
		ODataType:    "#microsoft.graph.fileAttachment",
		Name:         a.Filename,
		ContentType:  a.ContentType,
		ContentBytes: base64.StdEncoding.EncodeToString(a.Content),
		ContentID:    a.ContentID,
		IsInline:     inline,
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
