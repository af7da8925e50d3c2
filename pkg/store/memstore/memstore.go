// Package memstore is an in-process implementation of store.Store.
// Values are copied on the way in and out, so callers never share state
// with the store.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps kinds, fragments, entries and attachments in memory.
type Store struct {
	mu          sync.RWMutex
	kinds       map[int64]*email.Kind
	fragments   map[string]*email.Fragment
	entries     map[string]*email.Entry
	attachments map[string][]*email.Attachment
	images      map[int64]*email.Image
	seq         int64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		kinds:       make(map[int64]*email.Kind),
		fragments:   make(map[string]*email.Fragment),
		entries:     make(map[string]*email.Entry),
		attachments: make(map[string][]*email.Attachment),
		images:      make(map[int64]*email.Image),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// SaveFragment implements store.KindWriter.
func (s *Store) SaveFragment(_ context.Context, f *email.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.fragments[f.Name]; ok {
		f.ID = old.ID
		s.dropImages(old.Images)
	} else {
		f.ID = s.nextID()
	}

	stored := cloneFragment(f)
	for i, img := range stored.Images {
		id := f.ID
		img.FragmentID = &id
		img.KindID = nil
		img.ID = s.nextID()
		s.images[img.ID] = img
		f.Images[i].ID = img.ID
	}
	s.fragments[f.Name] = stored

	for _, k := range s.kinds {
		for i, kf := range k.Fragments {
			if kf.Name == f.Name {
				k.Fragments[i] = stored
			}
		}
	}
	return nil
}

// SaveKind implements store.KindWriter.
func (s *Store) SaveKind(_ context.Context, k *email.Kind) error {
	if err := k.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	linked := make([]*email.Fragment, 0, len(k.Fragments))
	for _, f := range k.Fragments {
		stored, ok := s.fragments[f.Name]
		if !ok {
			return fmt.Errorf("%w: unknown fragment %q", email.ErrValidation, f.Name)
		}
		linked = append(linked, stored)
	}

	if old := s.kindByName(k.Name, k.Language); old != nil {
		k.ID = old.ID
		s.dropImages(old.Images)
	} else {
		k.ID = s.nextID()
	}

	stored := cloneKind(k)
	stored.Fragments = linked
	for i, img := range stored.Images {
		id := k.ID
		img.KindID = &id
		img.FragmentID = nil
		img.ID = s.nextID()
		s.images[img.ID] = img
		k.Images[i].ID = img.ID
	}
	s.kinds[k.ID] = stored
	return nil
}

// FindKind implements store.KindFinder.
func (s *Store) FindKind(_ context.Context, name, language string) (*email.Kind, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k := s.kindByName(name, language)
	if k == nil {
		return nil, fmt.Errorf("%w: %s/%s", email.ErrKindNotFound, name, language)
	}
	return cloneKind(k), nil
}

func (s *Store) kindByName(name, language string) *email.Kind {
	for _, k := range s.kinds {
		if k.Name == name && k.Language == language {
			return k
		}
	}
	return nil
}

func (s *Store) dropImages(images []*email.Image) {
	for _, img := range images {
		delete(s.images, img.ID)
	}
}

// AssignContentID implements store.ImageStore.
func (s *Store) AssignContentID(_ context.Context, img *email.Image, candidate string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.images[img.ID]
	if !ok {
		return "", fmt.Errorf("memstore: image %d not found", img.ID)
	}
	if stored.ContentID == "" {
		stored.ContentID = candidate
	}
	return stored.ContentID, nil
}

// CreateEntry implements store.EntryStore.
func (s *Store) CreateEntry(_ context.Context, entry *email.Entry, attachments []*email.Attachment) error {
	if entry.Kind == nil {
		return fmt.Errorf("%w: entry without kind", email.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.kinds[entry.Kind.ID]; !ok {
		return fmt.Errorf("%w: %s", email.ErrKindNotFound, entry.Kind)
	}
	if entry.ID == "" {
		entry.ID = email.NewID()
	}
	entry.KindID = entry.Kind.ID

	files := make([]*email.Attachment, 0, len(attachments))
	for _, a := range attachments {
		a.EntryID = entry.ID
		a.ID = s.nextID()
		c := *a
		c.Content = slices.Clone(a.Content)
		files = append(files, &c)
	}

	s.entries[entry.ID] = cloneEntry(entry)
	s.attachments[entry.ID] = files
	return nil
}

// ListSendable implements store.EntryStore.
func (s *Store) ListSendable(_ context.Context) ([]*email.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*email.Entry, 0)
	for _, e := range s.entries {
		k, ok := s.kinds[e.KindID]
		if !ok {
			continue
		}
		c := cloneEntry(e)
		c.Kind = cloneKind(k)
		if c.Sendable() {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b *email.Entry) int {
		return cmp.Or(a.ScheduledAt.Compare(b.ScheduledAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// Entry returns a copy of a stored entry.
func (s *Store) Entry(_ context.Context, id string) (*email.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", email.ErrEntryNotFound, id)
	}
	c := cloneEntry(e)
	if k, ok := s.kinds[e.KindID]; ok {
		c.Kind = cloneKind(k)
	}
	return c, nil
}

// Entries returns copies of all stored entries.
func (s *Store) Entries() []*email.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*email.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, cloneEntry(e))
	}
	slices.SortFunc(out, func(a, b *email.Entry) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// SaveDelivery implements store.EntryStore.
func (s *Store) SaveDelivery(_ context.Context, entry *email.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entry.ID]
	if !ok {
		return fmt.Errorf("%w: %s", email.ErrEntryNotFound, entry.ID)
	}
	if e.Sent {
		return store.ErrAlreadySent
	}
	e.Sent = entry.Sent
	e.SentAt = entry.SentAt
	e.RenderedHTML = entry.RenderedHTML
	e.RenderedPlain = entry.RenderedPlain
	e.ThirdpartyID = entry.ThirdpartyID
	e.ThirdpartyReject = entry.ThirdpartyReject
	e.IsSpam = entry.IsSpam
	return nil
}

// MarkSpam implements store.EntryStore.
func (s *Store) MarkSpam(_ context.Context, id string) error {
	return s.update(id, func(e *email.Entry) { e.IsSpam = true })
}

// MarkDeleted implements store.EntryStore.
func (s *Store) MarkDeleted(_ context.Context, id string) error {
	return s.update(id, func(e *email.Entry) { e.Deleted = true })
}

func (s *Store) update(id string, fn func(*email.Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", email.ErrEntryNotFound, id)
	}
	fn(e)
	return nil
}

// PurgeDeleted implements store.EntryStore.
func (s *Store) PurgeDeleted(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, e := range s.entries {
		if e.Deleted {
			delete(s.entries, id)
			delete(s.attachments, id)
			n++
		}
	}
	return n, nil
}

// EntryAttachments implements store.EntryStore.
func (s *Store) EntryAttachments(_ context.Context, entryID string) ([]*email.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := s.attachments[entryID]
	out := make([]*email.Attachment, 0, len(files))
	for _, a := range files {
		c := *a
		out = append(out, &c)
	}
	return out, nil
}

func cloneEntry(e *email.Entry) *email.Entry {
	c := *e
	c.Context = maps.Clone(e.Context)
	c.Metadata = maps.Clone(e.Metadata)
	c.Kind = nil
	return &c
}

func cloneKind(k *email.Kind) *email.Kind {
	c := *k
	c.DefaultContext = maps.Clone(k.DefaultContext)
	c.Images = cloneImages(k.Images)
	c.Fragments = make([]*email.Fragment, 0, len(k.Fragments))
	for _, f := range k.Fragments {
		c.Fragments = append(c.Fragments, cloneFragment(f))
	}
	return &c
}

func cloneFragment(f *email.Fragment) *email.Fragment {
	c := *f
	c.DefaultContext = maps.Clone(f.DefaultContext)
	c.Images = cloneImages(f.Images)
	return &c
}

func cloneImages(images []*email.Image) []*email.Image {
	out := make([]*email.Image, 0, len(images))
	for _, img := range images {
		c := *img
		out = append(out, &c)
	}
	return out
}
