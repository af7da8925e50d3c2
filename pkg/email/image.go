package email

import (
	"path"
	"strings"
)

// Image is a binary asset referenced from a template by its placeholder name.
// It belongs to exactly one kind or one fragment.
type Image struct {
	KindID      *int64 `json:"kind_id,omitempty"`
	FragmentID  *int64 `json:"fragment_id,omitempty"`
	Placeholder string `json:"placeholder"`
	ContentID   string `json:"content_id,omitempty"`
	StorageKey  string `json:"storage_key"`
	ContentType string `json:"content_type,omitempty"`
	ID          int64  `json:"id"`
}

// StrippedContentID returns the content id without its angle-bracket delimiters.
func (i *Image) StrippedContentID() string {
	return strings.TrimSuffix(strings.TrimPrefix(i.ContentID, "<"), ">")
}

// Filename returns the base name of the stored object.
func (i *Image) Filename() string {
	return path.Base(i.StorageKey)
}

// KindImageKey builds the object storage key for an image owned by a kind.
func KindImageKey(kind, language, filename string) string {
	return path.Join("images", kind, language, filename)
}

// FragmentImageKey builds the object storage key for an image owned by a fragment.
func FragmentImageKey(fragment, filename string) string {
	return path.Join("images", "fragments", fragment, filename)
}
