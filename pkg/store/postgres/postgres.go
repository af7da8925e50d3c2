// Package postgres implements store.Store on PostgreSQL with pgx.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/mailroom/pkg/db"
	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/store"
)

// Migrations holds the schema migrations, applied with db.Migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations.
const MigrationsDir = "migrations"

var _ store.Store = (*Store)(nil)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL backed store.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store over pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const kindColumns = `k.id, k.name, k.language, k.description, k.active, k.template, k.plain_template,
	k.default_context, k.default_sender, k.default_recipients, k.default_subject, k.default_reply_to`

func scanKind(row pgx.Row) (*email.Kind, error) {
	var k email.Kind
	err := row.Scan(&k.ID, &k.Name, &k.Language, &k.Description, &k.Active, &k.Template, &k.PlainTemplate,
		&k.DefaultContext, &k.DefaultSender, &k.DefaultRecipients, &k.DefaultSubject, &k.DefaultReplyTo)
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// FindKind implements store.KindFinder.
func (s *Store) FindKind(ctx context.Context, name, language string) (*email.Kind, error) {
	k, err := scanKind(s.pool.QueryRow(ctx,
		`SELECT `+kindColumns+` FROM kinds k WHERE k.name = $1 AND k.language = $2`, name, language))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", email.ErrKindNotFound, name, language)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: find kind %s/%s: %w", name, language, err)
	}
	if err := loadKindRelations(ctx, s.pool, k); err != nil {
		return nil, err
	}
	return k, nil
}

func (s *Store) kindByID(ctx context.Context, id int64) (*email.Kind, error) {
	k, err := scanKind(s.pool.QueryRow(ctx, `SELECT `+kindColumns+` FROM kinds k WHERE k.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", email.ErrKindNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load kind %d: %w", id, err)
	}
	if err := loadKindRelations(ctx, s.pool, k); err != nil {
		return nil, err
	}
	return k, nil
}

func loadKindRelations(ctx context.Context, q querier, k *email.Kind) error {
	rows, err := q.Query(ctx, `
		SELECT f.id, f.name, f.description, f.content, f.is_plain, f.default_context
		FROM fragments f
		JOIN kind_fragments kf ON kf.fragment_id = f.id
		WHERE kf.kind_id = $1
		ORDER BY kf.position, f.name`, k.ID)
	if err != nil {
		return fmt.Errorf("postgres: load fragments of %s: %w", k, err)
	}
	k.Fragments, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*email.Fragment, error) {
		var f email.Fragment
		err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Content, &f.IsPlain, &f.DefaultContext)
		return &f, err
	})
	if err != nil {
		return fmt.Errorf("postgres: scan fragments of %s: %w", k, err)
	}

	if k.Images, err = images(ctx, q, `kind_id = $1`, k.ID); err != nil {
		return err
	}
	for _, f := range k.Fragments {
		if f.Images, err = images(ctx, q, `fragment_id = $1`, f.ID); err != nil {
			return err
		}
	}
	return nil
}

func images(ctx context.Context, q querier, where string, id int64) ([]*email.Image, error) {
	rows, err := q.Query(ctx, `
		SELECT id, kind_id, fragment_id, placeholder, content_id, storage_key, content_type
		FROM images WHERE `+where+` ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: load images: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*email.Image, error) {
		var img email.Image
		err := row.Scan(&img.ID, &img.KindID, &img.FragmentID, &img.Placeholder, &img.ContentID, &img.StorageKey, &img.ContentType)
		return &img, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: scan images: %w", err)
	}
	return out, nil
}

// SaveFragment implements store.KindWriter.
func (s *Store) SaveFragment(ctx context.Context, f *email.Fragment) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO fragments (name, description, content, is_plain, default_context)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (name) DO UPDATE SET
				description = EXCLUDED.description,
				content = EXCLUDED.content,
				is_plain = EXCLUDED.is_plain,
				default_context = EXCLUDED.default_context
			RETURNING id`,
			f.Name, f.Description, f.Content, f.IsPlain, jsonMap(f.DefaultContext),
		).Scan(&f.ID)
		if err != nil {
			return fmt.Errorf("postgres: save fragment %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM images WHERE fragment_id = $1`, f.ID); err != nil {
			return fmt.Errorf("postgres: reset images of fragment %s: %w", f.Name, err)
		}
		for _, img := range f.Images {
			img.FragmentID, img.KindID = &f.ID, nil
			if err := insertImage(ctx, tx, img); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveKind implements store.KindWriter.
func (s *Store) SaveKind(ctx context.Context, k *email.Kind) error {
	if err := k.Validate(); err != nil {
		return err
	}
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO kinds (name, language, description, active, template, plain_template, default_context,
				default_sender, default_recipients, default_subject, default_reply_to)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (name, language) DO UPDATE SET
				description = EXCLUDED.description,
				active = EXCLUDED.active,
				template = EXCLUDED.template,
				plain_template = EXCLUDED.plain_template,
				default_context = EXCLUDED.default_context,
				default_sender = EXCLUDED.default_sender,
				default_recipients = EXCLUDED.default_recipients,
				default_subject = EXCLUDED.default_subject,
				default_reply_to = EXCLUDED.default_reply_to
			RETURNING id`,
			k.Name, k.Language, k.Description, k.Active, k.Template, k.PlainTemplate, jsonMap(k.DefaultContext),
			k.DefaultSender, k.DefaultRecipients, k.DefaultSubject, k.DefaultReplyTo,
		).Scan(&k.ID)
		if err != nil {
			return fmt.Errorf("postgres: save kind %s: %w", k, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM kind_fragments WHERE kind_id = $1`, k.ID); err != nil {
			return fmt.Errorf("postgres: reset fragments of %s: %w", k, err)
		}
		for pos, f := range k.Fragments {
			tag, err := tx.Exec(ctx, `
				INSERT INTO kind_fragments (kind_id, fragment_id, position)
				SELECT $1, id, $3 FROM fragments WHERE name = $2`, k.ID, f.Name, pos)
			if err != nil {
				return fmt.Errorf("postgres: link fragment %s to %s: %w", f.Name, k, err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: unknown fragment %q", email.ErrValidation, f.Name)
			}
		}

		if _, err := tx.Exec(ctx, `DELETE FROM images WHERE kind_id = $1`, k.ID); err != nil {
			return fmt.Errorf("postgres: reset images of %s: %w", k, err)
		}
		for _, img := range k.Images {
			img.KindID, img.FragmentID = &k.ID, nil
			if err := insertImage(ctx, tx, img); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertImage(ctx context.Context, q querier, img *email.Image) error {
	err := q.QueryRow(ctx, `
		INSERT INTO images (kind_id, fragment_id, placeholder, content_id, storage_key, content_type)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		img.KindID, img.FragmentID, img.Placeholder, img.ContentID, img.StorageKey, img.ContentType,
	).Scan(&img.ID)
	if err != nil {
		return fmt.Errorf("postgres: save image %s: %w", img.Placeholder, err)
	}
	return nil
}

// AssignContentID implements store.ImageStore. The first stored content id wins.
func (s *Store) AssignContentID(ctx context.Context, img *email.Image, candidate string) (string, error) {
	var cid string
	err := s.pool.QueryRow(ctx, `
		UPDATE images
		SET content_id = CASE WHEN content_id = '' THEN $2 ELSE content_id END
		WHERE id = $1
		RETURNING content_id`, img.ID, candidate).Scan(&cid)
	if err != nil {
		return "", fmt.Errorf("postgres: assign content id to image %d: %w", img.ID, err)
	}
	return cid, nil
}

func jsonMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
