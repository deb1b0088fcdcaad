package users

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/models"
	"messenger-service/internal/store"
)

func newTestDirectory(t *testing.T) *StoreDirectory {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStoreDirectory(store.NewRedisStore(client))
}

func TestInsertAndGet(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.InsertUser(ctx, "alice@x.com", models.User{FirstName: "Alice", LastName: "Smith"}))

	got, err := d.Get(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", got.DisplayName())

	exists, err := d.UserExists(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = d.UserExists(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetUnknownUser(t *testing.T) {
	d := newTestDirectory(t)
	_, err := d.Get(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestAllUsersIndex(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.InsertUser(ctx, "alice@x.com", models.User{FirstName: "Alice", LastName: "Smith"}))
	require.NoError(t, d.InsertUser(ctx, "bob@x.com", models.User{FirstName: "Bob", LastName: "Jones"}))

	listings, err := d.AllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	assert.Equal(t, models.UserListing{Name: "Alice Smith", Email: "alice-x-com"}, listings[0])
	assert.Equal(t, models.UserListing{Name: "Bob Jones", Email: "bob-x-com"}, listings[1])
}

func TestInsertUserNeverDuplicatesListing(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.InsertUser(ctx, "alice@x.com", models.User{FirstName: "Alice", LastName: "Smith"}))
	require.NoError(t, d.InsertUser(ctx, "alice@x.com", models.User{FirstName: "Alicia", LastName: "Smith"}))

	listings, err := d.AllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, listings, 1)

	// The user node itself is replaced.
	got, err := d.Get(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.FirstName)
}

func TestDisplayName(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.InsertUser(ctx, "alice@x.com", models.User{FirstName: "Alice", LastName: "Smith"}))

	name, err := d.DisplayName(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", name)

	_, err = d.DisplayName(ctx, "nobody@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestCredentialsStoredOutsideUserNode(t *testing.T) {
	d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.SaveCredentials(ctx, "alice@x.com", models.Credentials{PasswordHash: "bcrypt-hash"}))

	creds, err := d.Credentials(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt-hash", creds.PasswordHash)

	// Saving credentials alone does not register the user.
	exists, err := d.UserExists(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = d.Credentials(ctx, "nobody@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)
}
