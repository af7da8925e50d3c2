// Package store defines persistence for kinds, fragments, images, entries
// and attachments. The postgres subpackage is the durable implementation and
// memstore keeps everything in process.
package store

import (
	"context"
	"errors"

	"github.com/dmitrymomot/mailroom/pkg/email"
)

// ErrAlreadySent is returned by SaveDelivery when the entry was marked sent
// by a concurrent pass.
var ErrAlreadySent = errors.New("store: entry already sent")

// KindFinder looks up kinds by name and language.
type KindFinder interface {
	// FindKind returns the kind with its fragments and images, or
	// email.ErrKindNotFound.
	FindKind(ctx context.Context, name, language string) (*email.Kind, error)
}

// KindWriter creates or updates kinds and fragments.
type KindWriter interface {
	// SaveFragment upserts a fragment by name, replacing its images.
	SaveFragment(ctx context.Context, f *email.Fragment) error
	// SaveKind upserts a kind by (name, language), replacing its own images
	// and fragment links. Fragments are linked by name and must exist.
	SaveKind(ctx context.Context, k *email.Kind) error
}

// EntryStore persists entries and their attachments.
type EntryStore interface {
	// CreateEntry stores an entry and its attachments atomically.
	CreateEntry(ctx context.Context, entry *email.Entry, attachments []*email.Attachment) error
	// ListSendable returns unsent, non-spam, non-rejected, non-deleted entries
	// of active kinds, oldest first, with their kinds loaded.
	ListSendable(ctx context.Context) ([]*email.Entry, error)
	// SaveDelivery records a delivery outcome. It fails with ErrAlreadySent
	// if the entry is already marked sent.
	SaveDelivery(ctx context.Context, entry *email.Entry) error
	// MarkSpam flags an entry as spam.
	MarkSpam(ctx context.Context, id string) error
	// MarkDeleted flags an entry for purging.
	MarkDeleted(ctx context.Context, id string) error
	// PurgeDeleted removes flagged entries with their attachments and
	// returns how many entries were removed.
	PurgeDeleted(ctx context.Context) (int64, error)
	// EntryAttachments returns the files attached to an entry.
	EntryAttachments(ctx context.Context, entryID string) ([]*email.Attachment, error)
}

// ImageStore persists content ids assigned to images.
type ImageStore interface {
	AssignContentID(ctx context.Context, img *email.Image, candidate string) (string, error)
}

// Store is the full persistence surface.
type Store interface {
	KindFinder
	KindWriter
	EntryStore
	ImageStore
}
