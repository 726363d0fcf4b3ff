package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/userdeck/userdeck/pkg/config"
	errs "github.com/userdeck/userdeck/pkg/errors"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:    "test-secret-key-for-testing-only",
		TokenTTL:  30 * time.Minute,
		TokenType: "bearer",
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("TestPass123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "TestPass123", hash)

	// Correct password should verify
	assert.True(t, CheckPassword("TestPass123", hash))

	// Wrong password should not verify
	assert.False(t, CheckPassword("WrongPassword", hash))
}

func TestAuthService_Authenticate(t *testing.T) {
	repo := setupTestRepository(t)
	defer teardownTestRepository(t, repo)

	authService := NewAuthService(testAuthConfig(), repo)

	createTestUser(t, repo, "alice", "alice", true)
	createTestUser(t, repo, "mallory", "mallory", false)

	t.Run("Success", func(t *testing.T) {
		user, err := authService.Authenticate("alice", "TestPass123")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, err := authService.Authenticate("nobody", "TestPass123")
		require.Error(t, err)
		assert.True(t, errs.IsCause(err, errs.CauseNotFound))
		assert.Equal(t, "user not found", errs.HumanMessage(err))
	})

	t.Run("DisabledUser", func(t *testing.T) {
		_, err := authService.Authenticate("mallory", "TestPass123")
		require.Error(t, err)
		assert.True(t, errs.IsCause(err, errs.CauseForbidden))
		assert.Equal(t, "user is disabled", errs.HumanMessage(err))
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := authService.Authenticate("alice", "WrongPassword")
		require.Error(t, err)
		assert.True(t, errs.IsCause(err, errs.CauseUnauthorized))
		assert.Equal(t, "incorrect password", errs.HumanMessage(err))
	})
}

func TestAuthService_IssueToken(t *testing.T) {
	repo := setupTestRepository(t)
	defer teardownTestRepository(t, repo)

	authService := NewAuthService(testAuthConfig(), repo)
	user := createTestUser(t, repo, "alice", "alice", true)

	grant, err := authService.IssueToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, grant.AccessToken)
	assert.Equal(t, "bearer", grant.TokenType)
	assert.Equal(t, int64(1800), grant.ExpiresIn)

	// The grant names the account it was issued for
	verified, err := authService.VerifyToken(grant.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, "alice", verified.Username)
}

func TestAuthService_VerifyToken_Rejections(t *testing.T) {
	repo := setupTestRepository(t)
	defer teardownTestRepository(t, repo)

	cfg := testAuthConfig()
	authService := NewAuthService(cfg, repo)
	user := createTestUser(t, repo, "alice", "alice", true)

	t.Run("Garbage", func(t *testing.T) {
		_, err := authService.VerifyToken("not-a-token")
		require.Error(t, err)
		assert.True(t, errs.IsCause(err, errs.CauseUnauthorized))
		assert.Equal(t, "invalid credentials", errs.HumanMessage(err))
	})

	t.Run("WrongSecret", func(t *testing.T) {
		otherCfg := cfg
		otherCfg.Secret = "a-different-secret"
		grant, err := NewAuthService(otherCfg, repo).IssueToken(user)
		require.NoError(t, err)

		_, err = authService.VerifyToken(grant.AccessToken)
		require.Error(t, err)
		assert.True(t, errs.IsCause(err, errs.CauseUnauthorized))
	})

	t.Run("Expired", func(t *testing.T) {
		expiredCfg := cfg
		expiredCfg.TokenTTL = -time.Minute
		grant, err := NewAuthService(expiredCfg, repo).IssueToken(user)
		require.NoError(t, err)

		_, err = authService.VerifyToken(grant.AccessToken)
		require.Error(t, err)
		assert.True(t, errs.IsCause(err, errs.CauseUnauthorized))
	})

	t.Run("DeletedAccount", func(t *testing.T) {
		ghost := createTestUser(t, repo, "ghost", "ghost", true)
		grant, err := authService.IssueToken(ghost)
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ghost.ID))

		_, err = authService.VerifyToken(grant.AccessToken)
		require.Error(t, err)
		assert.True(t, errs.IsCause(err, errs.CauseUnauthorized))
		assert.Equal(t, "invalid credentials", errs.HumanMessage(err))
	})
}
