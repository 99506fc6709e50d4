package repository

import "errors"

// Sentinel kinds for store and row-conversion errors.
var (
	ErrBadRow  = errors.New("malformed cache row")
	ErrQuery   = errors.New("cache query failed")
	ErrUpsert  = errors.New("cache upsert failed")
	ErrInsert  = errors.New("cache insert failed")
	ErrConnect = errors.New("cache store connect failed")
)
