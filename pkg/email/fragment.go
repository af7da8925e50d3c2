package email

import "fmt"

// Fragment is a reusable template piece, either HTML or plain text, shared
// among kinds and exposed to their templates as fragments.<name>.
type Fragment struct {
	DefaultContext map[string]any `json:"default_context,omitempty"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Content        string         `json:"content"`
	Images         []*Image       `json:"images,omitempty"`
	ID             int64          `json:"id"`
	IsPlain        bool           `json:"is_plain"`
}

// Identity implements render.Source.
func (f *Fragment) Identity() string {
	return "fragment:" + f.Name
}

// HTMLTemplate returns the content of an HTML fragment.
func (f *Fragment) HTMLTemplate() (string, error) {
	if f.IsPlain {
		return "", fmt.Errorf("%w: fragment %q is plain text", ErrWrongFragmentMode, f.Name)
	}
	return f.Content, nil
}

// PlainTextTemplate returns the content of a plain text fragment.
func (f *Fragment) PlainTextTemplate() (string, error) {
	if !f.IsPlain {
		return "", fmt.Errorf("%w: fragment %q is html", ErrWrongFragmentMode, f.Name)
	}
	return f.Content, nil
}

// Defaults returns the default rendering context.
func (f *Fragment) Defaults() map[string]any {
	return f.DefaultContext
}

// OwnImages returns images owned by the fragment.
func (f *Fragment) OwnImages() []*Image {
	return f.Images
}

// Meta returns the fragment's own fields.
func (f *Fragment) Meta() map[string]any {
	return map[string]any{
		"id":          f.ID,
		"name":        f.Name,
		"description": f.Description,
		"is_plain":    f.IsPlain,
	}
}
