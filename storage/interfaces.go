package storage

import (
	"context"

	"shadowagent/core"
)

// ThreatStorage is the access layer for threats and their alerts.
type ThreatStorage interface {
	// CreateThreat persists the threat and any nested alerts it carries in
	// one transaction, filling in ids and server-assigned timestamps.
	CreateThreat(ctx context.Context, threat *core.Threat) error
	GetThreat(ctx context.Context, id int64) (*core.Threat, error)
	ListThreats(ctx context.Context, skip, limit int) ([]core.Threat, error)
	// DeleteThreat removes the threat; its alerts go with it (FK cascade).
	DeleteThreat(ctx context.Context, id int64) error

	// CreateAlert attaches an alert to an existing threat. Returns
	// ErrThreatNotFound if the threat does not exist.
	CreateAlert(ctx context.Context, threatID int64, alert *core.Alert) error
	ListAlerts(ctx context.Context, skip, limit int) ([]core.Alert, error)
}

// UserStorage is the access layer for user accounts.
type UserStorage interface {
	// CreateUser hashes the plaintext in user.Password and persists the
	// account. Returns ErrDuplicateUsername or ErrDuplicateEmail on
	// uniqueness violations; the database constraint is the source of truth.
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// ValidateCredentials returns ErrInvalidCredentials for a missing user,
	// a wrong password, or an inactive account, without distinguishing.
	ValidateCredentials(ctx context.Context, username, password string) (*User, error)
	SetAdmin(ctx context.Context, username string, isAdmin bool) error
	// DeleteUser removes the user and cascades to their watched identities.
	DeleteUser(ctx context.Context, username string) error
	ListUsers(ctx context.Context) ([]*User, error)
}

// IdentityStorage is the access layer for watched identities.
type IdentityStorage interface {
	CreateIdentity(ctx context.Context, identity *core.WatchedIdentity) error
	// ListIdentitiesByUser returns only rows owned by userID.
	ListIdentitiesByUser(ctx context.Context, userID int64, skip, limit int) ([]core.WatchedIdentity, error)
}
