package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shadowagent/core"
)

func newIdentityFixture(t *testing.T) (*SQLiteIdentityStorage, *SQLiteUserStorage) {
	t.Helper()
	sqlite := newTestSQLite(t)
	sugar := zap.NewNop().Sugar()
	return NewSQLiteIdentityStorage(sqlite, sugar), NewSQLiteUserStorage(sqlite, sugar)
}

func createTestUser(t *testing.T, sus *SQLiteUserStorage, username string) *User {
	t.Helper()
	user := &User{Username: username, Email: username + "@example.com", Password: "pw"}
	require.NoError(t, sus.CreateUser(context.Background(), user))
	return user
}

func TestCreateIdentityRoundTrip(t *testing.T) {
	sis, sus := newIdentityFixture(t)
	ctx := context.Background()

	user := createTestUser(t, sus, "watcher")

	identity := &core.WatchedIdentity{
		Identifier: "ceo@example.com",
		Type:       "email",
		UserID:     user.ID,
	}
	require.NoError(t, sis.CreateIdentity(ctx, identity))
	require.NotZero(t, identity.ID)
	require.False(t, identity.CreatedAt.IsZero())

	identities, err := sis.ListIdentitiesByUser(ctx, user.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, identities, 1)
	assert.Equal(t, "ceo@example.com", identities[0].Identifier)
	assert.Equal(t, "email", identities[0].Type)
	assert.Equal(t, user.ID, identities[0].UserID)
}

func TestCreateIdentityMissingUser(t *testing.T) {
	sis, _ := newIdentityFixture(t)

	identity := &core.WatchedIdentity{Identifier: "x", Type: "domain", UserID: 404}
	err := sis.CreateIdentity(context.Background(), identity)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListIdentitiesScopedToOwner(t *testing.T) {
	sis, sus := newIdentityFixture(t)
	ctx := context.Background()

	alice := createTestUser(t, sus, "alice")
	bob := createTestUser(t, sus, "bob")

	require.NoError(t, sis.CreateIdentity(ctx, &core.WatchedIdentity{
		Identifier: "alice.example.com", Type: "domain", UserID: alice.ID,
	}))
	require.NoError(t, sis.CreateIdentity(ctx, &core.WatchedIdentity{
		Identifier: "bob@example.com", Type: "email", UserID: bob.ID,
	}))

	aliceRows, err := sis.ListIdentitiesByUser(ctx, alice.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, aliceRows, 1)
	assert.Equal(t, "alice.example.com", aliceRows[0].Identifier)

	bobRows, err := sis.ListIdentitiesByUser(ctx, bob.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, bobRows, 1)
	assert.Equal(t, "bob@example.com", bobRows[0].Identifier)
}

func TestDeleteUserCascadesIdentities(t *testing.T) {
	sis, sus := newIdentityFixture(t)
	ctx := context.Background()

	user := createTestUser(t, sus, "doomed")
	require.NoError(t, sis.CreateIdentity(ctx, &core.WatchedIdentity{
		Identifier: "doomed@example.com", Type: "email", UserID: user.ID,
	}))

	require.NoError(t, sus.DeleteUser(ctx, "doomed"))

	identities, err := sis.ListIdentitiesByUser(ctx, user.ID, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, identities)
}

func TestListIdentitiesPagination(t *testing.T) {
	sis, sus := newIdentityFixture(t)
	ctx := context.Background()

	user := createTestUser(t, sus, "pager")
	for i := 0; i < 3; i++ {
		require.NoError(t, sis.CreateIdentity(ctx, &core.WatchedIdentity{
			Identifier: "id", Type: "keyword", UserID: user.ID,
		}))
	}

	page, err := sis.ListIdentitiesByUser(ctx, user.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)

	all, err := sis.ListIdentitiesByUser(ctx, user.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, all[1].ID, page[0].ID)
}
