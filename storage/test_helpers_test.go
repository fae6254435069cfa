package storage

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

// newTestSQLite opens a fresh database under the test's temp directory so
// tests never share state.
func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return sqlite
}
