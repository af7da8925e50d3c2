package mailroom

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/mailroom/pkg/catalog"
	"github.com/dmitrymomot/mailroom/pkg/logger"
)

// Import loads the catalog at path, uploads its images and saves its
// fragments and kinds. Cached lookups of the imported kinds are dropped.
func (a *App) Import(ctx context.Context, path string) (*catalog.Report, error) {
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}

	log := logger.Component(a.logger, "catalog")
	rep, err := catalog.NewImporter(a.store, a.images, catalog.WithLogger(log)).Import(ctx, cat)
	if rep != nil {
		for _, k := range rep.Kinds {
			if ferr := a.kinds.Forget(ctx, k.Name, k.Language); ferr != nil {
				log.WarnContext(ctx, "failed to drop cached kind",
					slog.String("kind", k.String()),
					slog.String("error", ferr.Error()),
				)
			}
		}
	}
	return rep, err
}
