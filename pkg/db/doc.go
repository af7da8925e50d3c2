// Package db connects to PostgreSQL with pgx and applies schema migrations.
//
// Connect retries until the database answers a ping. Migrate runs goose
// migrations from an embedded filesystem, MigrateRiver installs the job
// queue tables, and WithTx wraps a function in a transaction:
//
//	pool, err := db.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	err = db.Migrate(ctx, pool, postgres.Migrations, postgres.MigrationsDir, cfg.MigrationsTable, log)
//
//	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
//		_, err := tx.Exec(ctx, "UPDATE entries SET deleted = TRUE WHERE id = $1", id)
//		return err
//	})
package db
