package email

import (
	"fmt"
	"strings"
)

// MinNameLength is the shortest accepted kind name.
const MinNameLength = 6

// Kind is a named, per-language email template definition.
// The pair (Name, Language) is unique.
type Kind struct {
	DefaultContext    map[string]any `json:"default_context,omitempty"`
	Name              string         `json:"name"`
	Language          string         `json:"language"`
	Description       string         `json:"description,omitempty"`
	Template          string         `json:"template"`
	PlainTemplate     string         `json:"plain_template"`
	DefaultSender     string         `json:"default_sender,omitempty"`
	DefaultRecipients string         `json:"default_recipients,omitempty"`
	DefaultSubject    string         `json:"default_subject,omitempty"`
	DefaultReplyTo    string         `json:"default_reply_to,omitempty"`
	Fragments         []*Fragment    `json:"fragments,omitempty"`
	Images            []*Image       `json:"images,omitempty"`
	ID                int64          `json:"id"`
	Active            bool           `json:"active"`
}

// String returns "name/language".
func (k *Kind) String() string {
	return k.Name + "/" + k.Language
}

// Identity implements render.Source.
func (k *Kind) Identity() string {
	return "kind:" + k.String()
}

// HTMLTemplate returns the HTML template source.
func (k *Kind) HTMLTemplate() (string, error) {
	return k.Template, nil
}

// PlainTextTemplate returns the plain text template source.
func (k *Kind) PlainTextTemplate() (string, error) {
	return k.PlainTemplate, nil
}

// Defaults returns the default rendering context.
func (k *Kind) Defaults() map[string]any {
	return k.DefaultContext
}

// OwnImages returns images owned directly by the kind.
func (k *Kind) OwnImages() []*Image {
	return k.Images
}

// Meta returns the kind's own fields, exposed to templates as "meta".
func (k *Kind) Meta() map[string]any {
	return map[string]any{
		"id":                 k.ID,
		"name":               k.Name,
		"language":           k.Language,
		"description":        k.Description,
		"active":             k.Active,
		"default_sender":     k.DefaultSender,
		"default_recipients": k.DefaultRecipients,
		"default_subject":    k.DefaultSubject,
		"default_reply_to":   k.DefaultReplyTo,
	}
}

// FragmentsFor returns the kind's fragments matching the requested mode.
func (k *Kind) FragmentsFor(plain bool) []*Fragment {
	out := make([]*Fragment, 0, len(k.Fragments))
	for _, f := range k.Fragments {
		if f.IsPlain == plain {
			out = append(out, f)
		}
	}
	return out
}

// AllImages yields the kind's own images followed by the images of every fragment.
func (k *Kind) AllImages() []*Image {
	out := make([]*Image, 0, len(k.Images))
	out = append(out, k.Images...)
	for _, f := range k.Fragments {
		out = append(out, f.Images...)
	}
	return out
}

// Validate checks the well-formedness of the kind.
func (k *Kind) Validate() error {
	name := strings.TrimSpace(k.Name)
	if len(name) < MinNameLength {
		return fmt.Errorf("%w: kind name %q shorter than %d characters", ErrValidation, k.Name, MinNameLength)
	}
	if _, err := ParseLanguage(k.Language); err != nil {
		return err
	}
	return nil
}
