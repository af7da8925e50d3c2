package ses

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"strings"

	"github.com/dmitrymomot/mailroom/pkg/backend"
)

const lineLength = 76

// buildRawMessage renders msg as a MIME message:
//
//	multipart/mixed
//	  multipart/related
//	    multipart/alternative (text, html)
//	    inline images
//	  attachments
func buildRawMessage(msg *backend.Message) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", msg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.ReplyTo) > 0 {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", strings.Join(msg.ReplyTo, ", "))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	if msg.MessageID != "" {
		fmt.Fprintf(&buf, "Message-ID: %s\r\n", msg.MessageID)
	}
	buf.WriteString("MIME-Version: 1.0\r\n")

	related, err := relatedPart(msg)
	if err != nil {
		return nil, err
	}

	mixed := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mixed.Boundary())

	if err := writePart(mixed, related); err != nil {
		return nil, err
	}
	for _, a := range msg.Attachments {
		if err := writeFile(mixed, a, "attachment"); err != nil {
			return nil, err
		}
	}
	if err := mixed.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type part struct {
	header textproto.MIMEHeader
	body   []byte
}

func relatedPart(msg *backend.Message) (part, error) {
	alt, err := alternativePart(msg)
	if err != nil {
		return part{}, err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := writePart(w, alt); err != nil {
		return part{}, err
	}
	for _, img := range msg.Inline {
		if err := writeFile(w, img, "inline"); err != nil {
			return part{}, err
		}
	}
	if err := w.Close(); err != nil {
		return part{}, err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", fmt.Sprintf("multipart/related; type=\"multipart/alternative\"; boundary=%q", w.Boundary()))
	return part{header: h, body: buf.Bytes()}, nil
}

func alternativePart(msg *backend.Message) (part, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, body := range []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	} {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", body.ctype)
		h.Set("Content-Transfer-Encoding", "quoted-printable")
		pw, err := w.CreatePart(h)
		if err != nil {
			return part{}, fmt.Errorf("create body part: %w", err)
		}
		qp := quotedprintable.NewWriter(pw)
		if _, err := qp.Write([]byte(body.content)); err != nil {
			return part{}, err
		}
		if err := qp.Close(); err != nil {
			return part{}, err
		}
	}
	if err := w.Close(); err != nil {
		return part{}, err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", w.Boundary()))
	return part{header: h, body: buf.Bytes()}, nil
}

func writePart(w *multipart.Writer, p part) error {
	pw, err := w.CreatePart(p.header)
	if err != nil {
		return fmt.Errorf("create part: %w", err)
	}
	_, err = pw.Write(p.body)
	return err
}

func writeFile(w *multipart.Writer, a backend.Attachment, disposition string) error {
	ctype := a.ContentType
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", ctype)
	h.Set("Content-Transfer-Encoding", "base64")
	h.Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": a.Filename}))
	if a.ContentID != "" {
		h.Set("Content-ID", "<"+a.ContentID+">")
	}

	pw, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", disposition, err)
	}
	_, err = pw.Write([]byte(encodeBase64Lines(a.Content)))
	return err
}

// encodeBase64Lines wraps base64 output at 76 characters (RFC 2045).
func encodeBase64Lines(data []byte) string {
	encoded := base64.StdEncoding.EncodeToString(data)
	lines := make([]string, 0, len(encoded)/lineLength+1)
	for i := 0; i < len(encoded); i += lineLength {
		lines = append(lines, encoded[i:min(i+lineLength, len(encoded))])
	}
	return strings.Join(lines, "\r\n")
}
