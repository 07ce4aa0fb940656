package db

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("db: empty connection URL")
	ErrInvalidConfig      = errors.New("db: invalid pool configuration")
	ErrConnectionFailed   = errors.New("db: failed to open connection pool")
	ErrHealthcheckFailed  = errors.New("db: healthcheck failed")
	ErrBeginTx            = errors.New("db: failed to begin transaction")
	ErrSetDialect         = errors.New("db: failed to set migration dialect")
	ErrApplyMigrations    = errors.New("db: failed to apply migrations")
)
