package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/waste3d/coursehub/internal/domain"
	"github.com/waste3d/coursehub/internal/infrastructure/cache"
	"github.com/waste3d/coursehub/internal/infrastructure/repository"
	"github.com/waste3d/coursehub/internal/infrastructure/security"
	"github.com/waste3d/coursehub/internal/pkg/logger"
	"github.com/waste3d/coursehub/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupAuth(t *testing.T) *AuthUseCase {
	return setupAuthWithStore(t, testutils.NewMemoryTokenStore())
}

func setupAuthWithStore(t *testing.T, store RefreshStore) *AuthUseCase {
	t.Helper()
	db := testutils.SetupTestDB(t)
	return NewAuthUseCase(
		repository.NewUserRepository(db),
		store,
		security.NewPasswordHasherWithCost(bcrypt.MinCost),
		security.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour),
		logger.NewNop(),
	)
}

func TestAuthUseCase_RegisterLogin(t *testing.T) {
	uc := setupAuth(t)
	ctx := context.Background()

	user, tokens, err := uc.Register(ctx, "alice", "Alice@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, tokens.AccessToken)

	id, err := uc.ValidateAccess(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, _, err = uc.Register(ctx, "alice", "other@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = uc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = uc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = uc.Login(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	me, err := uc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}

func TestAuthUseCase_RefreshRotates(t *testing.T) {
	uc := setupAuth(t)
	ctx := context.Background()

	_, tokens, err := uc.Register(ctx, "bob", "bob@example.com", "secret1")
	require.NoError(t, err)

	rotated, err := uc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	_, err = uc.Refresh(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	require.NoError(t, uc.Logout(ctx, rotated.RefreshToken))
	_, err = uc.Refresh(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = uc.Refresh(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestAuthUseCase_ConcurrentRefreshSingleWinner(t *testing.T) {
	_, rdb := testutils.SetupTestRedis(t)
	uc := setupAuthWithStore(t, cache.NewTokenCache(rdb, time.Hour))
	ctx := context.Background()

	_, tokens, err := uc.Register(ctx, "erin", "erin@example.com", "secret1")
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := uc.Refresh(ctx, tokens.RefreshToken); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
}
