package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testUsername     = "testadmin"
	testPassword     = "testpass"
	testPasswordHash = "$2a$14$6Gmhg85si2etd3K9oB8nYu1cxfbrdmhkg6wI6OXsa88IF4L2r/L9i" // testpass
	testCredentials  = Credentials{
		Username: testUsername,
		Password: testPassword,
	}
)

func testServiceSetup() (*Service, *mockRepo) {
	repo := NewMockAdminsRepo()
	repo.Admins = append(repo.Admins, &Admin{
		ID:           "admin-1",
		Username:     testUsername,
		Email:        "testadmin@firstaccess.events",
		PasswordHash: testPasswordHash,
	})
	return NewService(repo, NewMemorySessionStore(DefaultSessionTTL)), repo
}

func TestService_LoginLogout(t *testing.T) {
	ctx := context.Background()
	service, _ := testServiceSetup()

	token, err := service.Login(ctx, testCredentials)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	adminID, err := service.RequireAuth(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", adminID)

	require.NoError(t, service.Logout(ctx, token))

	_, err = service.RequireAuth(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// logging out an already dead session is unauthorized too
	assert.ErrorIs(t, service.Logout(ctx, token), ErrUnauthorized)
}

func TestService_Login_wrongCredentials(t *testing.T) {
	ctx := context.Background()
	service, _ := testServiceSetup()

	// same error for a wrong password and an unknown username
	_, err := service.Login(ctx, Credentials{Username: testUsername, Password: "invalid_pass"})
	assert.ErrorIs(t, err, ErrWrongCredentials)

	_, err = service.Login(ctx, Credentials{Username: "nosuchuser", Password: testPassword})
	assert.ErrorIs(t, err, ErrWrongCredentials)
}

func TestService_RequireAuth_uniformFailures(t *testing.T) {
	ctx := context.Background()
	service, _ := testServiceSetup()

	_, err := service.RequireAuth(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = service.RequireAuth(ctx, "never-issued-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_RequireAuth_expiredSession(t *testing.T) {
	ctx := context.Background()

	store := NewMemorySessionStore(DefaultSessionTTL)
	now := time.Now()
	store.NowFunc = func() time.Time { return now }

	repo := NewMockAdminsRepo()
	repo.Admins = append(repo.Admins, &Admin{
		ID:           "admin-1",
		Username:     testUsername,
		PasswordHash: testPasswordHash,
	})
	service := NewService(repo, store)

	token, err := service.Login(ctx, testCredentials)
	require.NoError(t, err)

	_, err = service.RequireAuth(ctx, token)
	require.NoError(t, err)

	store.NowFunc = func() time.Time { return now.Add(DefaultSessionTTL + time.Minute) }
	_, err = service.RequireAuth(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	service, repo := testServiceSetup()

	admin, err := service.CreateAdmin(ctx, "newadmin", "newadmin@firstaccess.events", "s3cret")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Len(t, admin.ID, 21)
	assert.NotEqual(t, "s3cret", admin.PasswordHash)
	assert.Len(t, repo.Admins, 2)

	_, err = service.CreateAdmin(ctx, "newadmin", "other@firstaccess.events", "s3cret")
	assert.ErrorIs(t, err, ErrAdminExists)
}

func TestService_ResetTokenFlow(t *testing.T) {
	ctx := context.Background()
	service, repo := testServiceSetup()

	token, admin, err := service.IssueResetToken(ctx, "testadmin@firstaccess.events")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "admin-1", admin.ID)

	require.NoError(t, service.ConsumeResetToken(ctx, token, "newpass"))

	// token cleared together with the password change
	assert.Nil(t, repo.Admins[0].ResetToken)
	assert.Nil(t, repo.Admins[0].ResetTokenExpiry)

	// second consume fails, the token is single use
	err = service.ConsumeResetToken(ctx, token, "anotherpass")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	// old password no longer works, new one does
	_, err = service.Login(ctx, testCredentials)
	assert.ErrorIs(t, err, ErrWrongCredentials)
	_, err = service.Login(ctx, Credentials{Username: testUsername, Password: "newpass"})
	assert.NoError(t, err)
}

func TestService_IssueResetToken_unknownEmail(t *testing.T) {
	ctx := context.Background()
	service, _ := testServiceSetup()

	_, _, err := service.IssueResetToken(ctx, "nobody@firstaccess.events")
	assert.ErrorIs(t, err, ErrAdminNotFound)
}

func TestService_IssueResetToken_overwritesStaleToken(t *testing.T) {
	ctx := context.Background()
	service, _ := testServiceSetup()

	token1, _, err := service.IssueResetToken(ctx, "testadmin@firstaccess.events")
	require.NoError(t, err)
	token2, _, err := service.IssueResetToken(ctx, "testadmin@firstaccess.events")
	require.NoError(t, err)
	require.NotEqual(t, token1, token2)

	// only the latest token works
	assert.ErrorIs(t, service.ConsumeResetToken(ctx, token1, "newpass"), ErrResetTokenInvalid)
	assert.NoError(t, service.ConsumeResetToken(ctx, token2, "newpass"))
}

func TestService_ConsumeResetToken_expiry(t *testing.T) {
	ctx := context.Background()
	service, _ := testServiceSetup()

	now := time.Now()
	service.NowFunc = func() time.Time { return now }

	token, _, err := service.IssueResetToken(ctx, "testadmin@firstaccess.events")
	require.NoError(t, err)

	// 59 minutes in, still good; but check first that 61 minutes in it is dead
	service.NowFunc = func() time.Time { return now.Add(61 * time.Minute) }
	err = service.ConsumeResetToken(ctx, token, "newpass")
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	service.NowFunc = func() time.Time { return now.Add(59 * time.Minute) }
	assert.NoError(t, service.ConsumeResetToken(ctx, token, "newpass"))
}

func TestService_ConsumeResetToken_invalidInput(t *testing.T) {
	ctx := context.Background()
	service, _ := testServiceSetup()

	assert.ErrorIs(t, service.ConsumeResetToken(ctx, "", "newpass"), ErrResetTokenInvalid)
	assert.ErrorIs(t, service.ConsumeResetToken(ctx, "sometoken", ""), ErrResetTokenInvalid)
	assert.ErrorIs(t, service.ConsumeResetToken(ctx, "never-issued", "newpass"), ErrResetTokenInvalid)
}

type failingSessionStore struct {
	err error
}

func (f *failingSessionStore) Create(_ context.Context, _ string) (string, error) {
	return "", f.err
}

func (f *failingSessionStore) Resolve(_ context.Context, _ string) (string, bool, error) {
	return "", false, f.err
}

func (f *failingSessionStore) Revoke(_ context.Context, _ string) error {
	return f.err
}

func TestService_RequireAuth_storeError(t *testing.T) {
	repo := NewMockAdminsRepo()
	service := NewService(repo, &failingSessionStore{err: errors.New("redis gone")})

	// a store failure must look exactly like a bad token
	_, err := service.RequireAuth(context.Background(), "sometoken")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
