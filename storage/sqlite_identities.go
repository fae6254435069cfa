package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"shadowagent/core"
)

// SQLiteIdentityStorage implements IdentityStorage using SQLite
type SQLiteIdentityStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteIdentityStorage creates a new SQLite-based watched identity storage
func NewSQLiteIdentityStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteIdentityStorage {
	return &SQLiteIdentityStorage{
		sqlite: sqlite,
		logger: logger,
	}
}

// CreateIdentity persists a watched identity for its owning user.
func (sis *SQLiteIdentityStorage) CreateIdentity(ctx context.Context, identity *core.WatchedIdentity) error {
	now := time.Now().UTC().Truncate(time.Second)
	identity.CreatedAt = now

	res, err := sis.sqlite.DB.ExecContext(ctx,
		`INSERT INTO watched_identities (identifier, type, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		identity.Identifier,
		identity.Type,
		identity.UserID,
		now.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to insert watched identity: %w", err)
	}

	identity.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get watched identity id: %w", err)
	}

	sis.logger.Infow("Created watched identity",
		"identity_id", identity.ID,
		"user_id", identity.UserID,
		"type", identity.Type)
	return nil
}

// ListIdentitiesByUser returns the watched identities owned by userID, in
// id order. Rows belonging to other users are never visible here.
func (sis *SQLiteIdentityStorage) ListIdentitiesByUser(ctx context.Context, userID int64, skip, limit int) ([]core.WatchedIdentity, error) {
	rows, err := sis.sqlite.ReadDB.QueryContext(ctx,
		`SELECT id, identifier, type, user_id, created_at
		 FROM watched_identities WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		userID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched identities: %w", err)
	}
	defer rows.Close()

	identities := []core.WatchedIdentity{}
	for rows.Next() {
		var identity core.WatchedIdentity
		var createdAt string

		err := rows.Scan(&identity.ID, &identity.Identifier, &identity.Type,
			&identity.UserID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watched identity: %w", err)
		}

		identity.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watched identities: %w", err)
	}

	return identities, nil
}
