package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookie-auth/internal/model"
)

// runUserStoreSuite exercises the UserStore contract. Emails are randomised so
// the suite can run against a shared database.
func runUserStoreSuite(t *testing.T, store UserStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		email := uuid.NewString() + "@Example.com"
		created, err := store.Create(ctx, model.User{Email: email, PasswordHash: "hash", Role: model.RoleUser})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, model.NormalizeEmail(email), created.Email)
		assert.False(t, created.CreatedAt.IsZero())

		byID, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Email, byID.Email)
		assert.Equal(t, "hash", byID.PasswordHash)

		byEmail, err := store.FindByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
	})

	t.Run("duplicate email rejected case-insensitively", func(t *testing.T) {
		email := uuid.NewString() + "@x.com"
		_, err := store.Create(ctx, model.User{Email: email, PasswordHash: "h", Role: model.RoleUser})
		require.NoError(t, err)

		_, err = store.Create(ctx, model.User{Email: "  " + email + " ", PasswordHash: "h", Role: model.RoleUser})
		assert.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})

	t.Run("concurrent registrations admit exactly one", func(t *testing.T) {
		email := uuid.NewString() + "@race.com"
		const workers = 8

		var wg sync.WaitGroup
		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Create(ctx, model.User{Email: email, PasswordHash: "h", Role: model.RoleUser})
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, model.ErrUserAlreadyExists)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("missing users", func(t *testing.T) {
		_, err := store.FindByEmail(ctx, uuid.NewString()+"@nowhere.com")
		assert.ErrorIs(t, err, model.ErrUserNotFound)

		_, err = store.FindByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, model.ErrUserNotFound)

		assert.ErrorIs(t, store.UpdateRole(ctx, "does-not-exist", model.RoleAdmin), model.ErrUserNotFound)
	})

	t.Run("update role", func(t *testing.T) {
		created, err := store.Create(ctx, model.User{Email: uuid.NewString() + "@x.com", PasswordHash: "h", Role: model.RoleUser})
		require.NoError(t, err)

		require.NoError(t, store.UpdateRole(ctx, created.ID, model.RoleAdmin))

		got, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, got.Role)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}
