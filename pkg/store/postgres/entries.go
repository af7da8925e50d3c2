package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/mailroom/pkg/db"
	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/store"
)

const entryColumns = `e.id, e.kind_id, e.send_at, e.sent, e.customer_id, e.context, e.sender, e.recipients,
	e.subject, e.reply_to, e.rendered_html, e.rendered_plain, e.thirdparty_id, e.thirdparty_reject,
	e.is_spam, e.deleted, e.backend, e.check_url, e.scheduled_at, e.sent_at, e.metadata`

func scanEntry(row pgx.CollectableRow) (*email.Entry, error) {
	var e email.Entry
	err := row.Scan(&e.ID, &e.KindID, &e.SendAt, &e.Sent, &e.CustomerID, &e.Context, &e.Sender, &e.Recipients,
		&e.Subject, &e.ReplyTo, &e.RenderedHTML, &e.RenderedPlain, &e.ThirdpartyID, &e.ThirdpartyReject,
		&e.IsSpam, &e.Deleted, &e.Backend, &e.CheckURL, &e.ScheduledAt, &e.SentAt, &e.Metadata)
	return &e, err
}

// CreateEntry implements store.EntryStore. The entry and its attachments are
// written in one transaction.
func (s *Store) CreateEntry(ctx context.Context, entry *email.Entry, attachments []*email.Attachment) error {
	if entry.Kind == nil {
		return fmt.Errorf("%w: entry without kind", email.ErrValidation)
	}
	if entry.ID == "" {
		entry.ID = email.NewID()
	}
	entry.KindID = entry.Kind.ID

	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO entries (id, kind_id, send_at, customer_id, context, sender, recipients, subject,
				reply_to, backend, check_url, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING scheduled_at`,
			entry.ID, entry.KindID, entry.SendAt, entry.CustomerID, jsonMap(entry.Context), entry.Sender,
			entry.Recipients, entry.Subject, entry.ReplyTo, entry.Backend, entry.CheckURL, jsonMap(entry.Metadata),
		).Scan(&entry.ScheduledAt)
		if err != nil {
			return fmt.Errorf("postgres: create entry %s: %w", entry.ID, err)
		}

		for _, a := range attachments {
			a.EntryID = entry.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO attachments (entry_id, name, path, content_type, content)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				a.EntryID, a.Name, a.Path, a.ContentType, a.Content,
			).Scan(&a.ID)
			if err != nil {
				return fmt.Errorf("postgres: create attachment %s: %w", a.Name, err)
			}
		}
		return nil
	})
}

// ListSendable implements store.EntryStore. Kinds are loaded fresh on every call.
func (s *Store) ListSendable(ctx context.Context) ([]*email.Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM entries e
		JOIN kinds k ON k.id = e.kind_id
		WHERE e.sent = FALSE
			AND e.is_spam = FALSE
			AND e.thirdparty_reject = ''
			AND e.deleted = FALSE
			AND k.active = TRUE
		ORDER BY e.scheduled_at, e.id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list sendable entries: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanEntry)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan entries: %w", err)
	}

	kinds := make(map[int64]*email.Kind)
	for _, e := range entries {
		k, ok := kinds[e.KindID]
		if !ok {
			if k, err = s.kindByID(ctx, e.KindID); err != nil {
				return nil, err
			}
			kinds[e.KindID] = k
		}
		e.Kind = k
	}
	return entries, nil
}

// SaveDelivery implements store.EntryStore. The update only applies to
// entries that are not sent yet.
func (s *Store) SaveDelivery(ctx context.Context, entry *email.Entry) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE entries SET
			sent = $2,
			sent_at = $3,
			rendered_html = $4,
			rendered_plain = $5,
			thirdparty_id = $6,
			thirdparty_reject = $7,
			is_spam = $8
		WHERE id = $1 AND sent = FALSE`,
		entry.ID, entry.Sent, entry.SentAt, entry.RenderedHTML, entry.RenderedPlain,
		entry.ThirdpartyID, entry.ThirdpartyReject, entry.IsSpam,
	)
	if err != nil {
		return fmt.Errorf("postgres: save delivery of %s: %w", entry.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrAlreadySent, entry.ID)
	}
	return nil
}

// MarkSpam implements store.EntryStore.
func (s *Store) MarkSpam(ctx context.Context, id string) error {
	return s.flag(ctx, id, `UPDATE entries SET is_spam = TRUE WHERE id = $1`)
}

// MarkDeleted implements store.EntryStore.
func (s *Store) MarkDeleted(ctx context.Context, id string) error {
	return s.flag(ctx, id, `UPDATE entries SET deleted = TRUE WHERE id = $1`)
}

func (s *Store) flag(ctx context.Context, id, sql string) error {
	tag, err := s.pool.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("postgres: update entry %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", email.ErrEntryNotFound, id)
	}
	return nil
}

// PurgeDeleted implements store.EntryStore. Attachments go with their entries.
func (s *Store) PurgeDeleted(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM entries WHERE deleted = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("postgres: purge deleted entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

// EntryAttachments implements store.EntryStore.
func (s *Store) EntryAttachments(ctx context.Context, entryID string) ([]*email.Attachment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, entry_id, name, path, content_type, content
		FROM attachments WHERE entry_id = $1 ORDER BY id`, entryID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load attachments of %s: %w", entryID, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*email.Attachment, error) {
		var a email.Attachment
		err := row.Scan(&a.ID, &a.EntryID, &a.Name, &a.Path, &a.ContentType, &a.Content)
		return &a, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan attachments of %s: %w", entryID, err)
	}
	return out, nil
}
