package core

import "time"

const (
	// TokenExpiry is the lifetime of an issued access token. There is no
	// server-side revocation: a session ends only when its token expires.
	TokenExpiry = 30 * time.Minute

	// DefaultPageSize is the number of rows returned by listing endpoints
	// when no limit parameter is given.
	DefaultPageSize = 100

	// MaxPageSize caps the limit parameter on listing endpoints.
	MaxPageSize = 1000

	// DBTimeout bounds every per-request database operation.
	DBTimeout = 5 * time.Second

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes = 1 << 20 // 1MB
)
