package db

import "errors"

// Errors returned by Connect, Healthcheck and the migrators. Causes are
// joined to them.
var (
	ErrFailedToParseDBConfig    = errors.New("db: invalid DATABASE_CONN_URL")
	ErrFailedToOpenDBConnection = errors.New("db: postgres unreachable")
	ErrHealthcheckFailed        = errors.New("db: ping failed")
	ErrSetDialect               = errors.New("db: goose dialect not supported")
	ErrApplyMigrations          = errors.New("db: migrations failed")
)
