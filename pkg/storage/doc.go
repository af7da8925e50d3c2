// Package storage keeps the images referenced by email templates.
//
// Two implementations share the Storage interface: S3Storage, backed by any
// S3-compatible service, and Memory for local runs and tests. Open picks one
// from Config.Driver.
//
//	store, err := storage.Open(cfg.Storage)
//	if err != nil {
//		return err
//	}
//	info, err := store.Put(ctx, email.KindImageKey("welcome", "es", "logo.png"), f, size)
//
// Put only accepts images up to Config.MaxImageSize. The content type is
// sniffed from the data, with the key extension as a fallback for SVG.
//
// URL serves test renders: it returns PublicURL joined with the key when a
// CDN prefix is configured and a presigned GET URL otherwise.
//
// Errors map onto sentinels such as ErrNotFound and ErrAccessDenied, so
// callers use errors.Is rather than inspecting AWS error types.
package storage
