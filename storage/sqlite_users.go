package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SQLiteUserStorage implements UserStorage using SQLite
type SQLiteUserStorage struct {
	sqlite *SQLite
	logger *zap.SugaredLogger
}

// NewSQLiteUserStorage creates a new SQLite-based user storage
func NewSQLiteUserStorage(sqlite *SQLite, logger *zap.SugaredLogger) *SQLiteUserStorage {
	return &SQLiteUserStorage{
		sqlite: sqlite,
		logger: logger,
	}
}

// CreateUser hashes the password and persists a new user. The existence
// checks are an early exit only: two concurrent signups with the same
// username race past them, and the UNIQUE constraint decides the winner.
func (sus *SQLiteUserStorage) CreateUser(ctx context.Context, user *User) error {
	if _, err := sus.GetUserByUsername(ctx, user.Username); err == nil {
		return ErrDuplicateUsername
	} else if err != ErrUserNotFound {
		return fmt.Errorf("failed to check existing username: %w", err)
	}
	if _, err := sus.GetUserByEmail(ctx, user.Email); err == nil {
		return ErrDuplicateEmail
	} else if err != ErrUserNotFound {
		return fmt.Errorf("failed to check existing email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	user.IsActive = true
	user.CreatedAt = time.Now().UTC().Truncate(time.Second)

	res, err := sus.sqlite.DB.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, is_active, is_admin, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.Email,
		user.Password,
		boolToInt(user.IsActive),
		boolToInt(user.IsAdmin),
		user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return mapUserConstraintError(err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}

	sus.logger.Infof("Created user %s", user.Username)
	return nil
}

// GetUserByUsername retrieves a user by username
func (sus *SQLiteUserStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return sus.getUser(ctx, "username = ?", username)
}

// GetUserByEmail retrieves a user by email
func (sus *SQLiteUserStorage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return sus.getUser(ctx, "email = ?", email)
}

func (sus *SQLiteUserStorage) getUser(ctx context.Context, where string, arg interface{}) (*User, error) {
	row := sus.sqlite.ReadDB.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, is_active, is_admin, created_at
		 FROM users WHERE `+where, arg)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// ValidateCredentials verifies a username/password pair. Every failure mode
// (unknown user, inactive account, wrong password, malformed stored hash)
// collapses to ErrInvalidCredentials so callers cannot leak which one it was.
func (sus *SQLiteUserStorage) ValidateCredentials(ctx context.Context, username, password string) (*User, error) {
	user, err := sus.GetUserByUsername(ctx, username)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// SetAdmin grants or revokes the admin flag. No HTTP endpoint reaches this;
// elevation happens out of band through the CLI.
func (sus *SQLiteUserStorage) SetAdmin(ctx context.Context, username string, isAdmin bool) error {
	res, err := sus.sqlite.DB.ExecContext(ctx,
		"UPDATE users SET is_admin = ? WHERE username = ?",
		boolToInt(isAdmin), username)
	if err != nil {
		return fmt.Errorf("failed to update admin flag: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}

	sus.logger.Infow("Updated admin flag", "username", username, "is_admin", isAdmin)
	return nil
}

// DeleteUser removes a user; their watched identities cascade away with them.
func (sus *SQLiteUserStorage) DeleteUser(ctx context.Context, username string) error {
	res, err := sus.sqlite.DB.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}

	sus.logger.Infof("Deleted user %s", username)
	return nil
}

// ListUsers retrieves all users in creation order.
func (sus *SQLiteUserStorage) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := sus.sqlite.ReadDB.QueryContext(ctx,
		`SELECT id, username, email, password_hash, is_active, is_admin, created_at
		 FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var isActive, isAdmin int
	var createdAt string

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password,
		&isActive, &isAdmin, &createdAt)
	if err != nil {
		return nil, err
	}

	user.IsActive = isActive == 1
	user.IsAdmin = isAdmin == 1
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &user, nil
}

// mapUserConstraintError translates SQLite uniqueness violations into the
// domain-level duplicate errors.
func mapUserConstraintError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return ErrDuplicateUsername
	case strings.Contains(msg, "users.email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrConstraintViolation
	}
	return fmt.Errorf("failed to create user: %w", err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
