package email

import (
	"encoding/base64"
	"fmt"
	"mime"
	"path"
	"strings"
)

// Params is the scheduling input accepted by the entry generator.
// Every field is optional; absent fields fall back to the kind defaults.
type Params struct {
	Context     map[string]any    `json:"context,omitempty"`
	MetaFields  map[string]any    `json:"meta_fields,omitempty"`
	SendAt      *int64            `json:"send_at,omitempty"`
	Backend     *string           `json:"backend,omitempty"`
	Sender      string            `json:"sender,omitempty"`
	CustomerID  string            `json:"customer_id,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	CheckURL    string            `json:"check_url,omitempty"`
	Recipients  []string          `json:"recipients,omitempty"`
	ReplyTo     []string          `json:"reply_to,omitempty"`
	Attachments []AttachmentParam `json:"attachs,omitempty"`
}

// AttachmentParam is a named, base64 encoded file supplied with the params.
type AttachmentParam struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
}

// Decode returns the raw attachment bytes and its content type.
func (a AttachmentParam) Decode() ([]byte, string, error) {
	if strings.TrimSpace(a.Filename) == "" {
		return nil, "", fmt.Errorf("%w: attachment without filename", ErrValidation)
	}
	data, err := base64.StdEncoding.DecodeString(a.Content)
	if err != nil {
		return nil, "", fmt.Errorf("%w: attachment %q: %v", ErrValidation, a.Filename, err)
	}
	contentType := a.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(a.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// AttachmentName builds the stored attachment name,
// attachs/<kind>/<lang>/<customer>_<file>, or attachs/<kind>/<lang>/<file>
// when the entry has no customer.
func AttachmentName(kind *Kind, customerID, filename string) string {
	name := path.Base(filename)
	if customerID != "" {
		name = customerID + "_" + name
	}
	return path.Join("attachs", kind.Name, kind.Language, name)
}
