package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	filestore "github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/secrets/file"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/ports/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T) (*SessionManager, *mocks.MockTokenIssuer) {
	t.Helper()

	issuer := mocks.NewMockTokenIssuer(t)
	store := filestore.NewStore(t.TempDir())
	return NewSessionManager(store, issuer, zerolog.Nop(), time.Second), issuer
}

func TestSessionCredentialRoundTrip(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)
	ctx := context.Background()

	_, err := session.Credential(ctx)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)

	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))
	cred, err := session.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}, cred)

	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-2"}))
	cred, err = session.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential{AccessToken: "access-2"}, cred)

	require.NoError(t, session.ClearCredential(ctx))
	require.NoError(t, session.ClearCredential(ctx))
	_, err = session.Credential(ctx)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)

	require.ErrorIs(t, session.SetCredential(ctx, domain.Credential{}), errEmptyAccessToken)
}

func TestSessionConcurrentRefreshCallsTokenEndpointOnce(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	var calls atomic.Int32
	release := make(chan struct{})
	issuer.EXPECT().Refresh(mock.Anything, "refresh-1").
		RunAndReturn(func(context.Context, string) (domain.Credential, error) {
			calls.Add(1)
			<-release
			return domain.Credential{AccessToken: "access-2"}, nil
		}).Once()

	const callers = 8
	results := make([]domain.Credential, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = session.RefreshExpired(ctx, "access-1")
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "access-2", results[i].AccessToken)
	}

	cred, err := session.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential{AccessToken: "access-2", RefreshToken: "refresh-1"}, cred)
}

func TestSessionRefreshExpiredSkipsNetworkWhenTokenAlreadyReplaced(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-2", RefreshToken: "refresh-1"}))

	cred, err := session.RefreshExpired(ctx, "access-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", cred.AccessToken)
}

func TestSessionRefreshWithoutRefreshTokenClearsAndFails(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-1"}))

	_, err := session.RefreshExpired(ctx, "access-1")
	require.ErrorIs(t, err, domain.ErrAuthExpired)

	_, err = session.Credential(ctx)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)

	_, err = session.Refresh(ctx)
	require.ErrorIs(t, err, domain.ErrAuthExpired)
}

func TestSessionRefreshFailureClearsCredentialsAndFailsEveryWaiter(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	release := make(chan struct{})
	rejected := errors.New("token is blacklisted")
	issuer.EXPECT().Refresh(mock.Anything, "refresh-1").
		RunAndReturn(func(context.Context, string) (domain.Credential, error) {
			<-release
			return domain.Credential{}, rejected
		}).Once()

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = session.RefreshExpired(ctx, "access-1")
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.ErrorIs(t, err, domain.ErrAuthExpired)
	}
	// Waiters that joined the call share its error; late arrivals find the
	// store already cleared.
	require.ErrorIs(t, errs[0], domain.ErrAuthExpired)

	_, err := session.Credential(ctx)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)

	current, err := session.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential{}, current)
}

func TestSessionRefreshFailureWrapsCause(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	cause := errors.New("connection refused")
	issuer.EXPECT().Refresh(mock.Anything, "refresh-1").Return(domain.Credential{}, cause).Once()

	_, err := session.Refresh(ctx)
	require.ErrorIs(t, err, domain.ErrAuthExpired)
	require.ErrorIs(t, err, cause)
}

func TestSessionRefreshStoresRotatedRefreshToken(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	issuer.EXPECT().Refresh(mock.Anything, "refresh-1").
		Return(domain.Credential{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil).Once()

	cred, err := session.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credential{AccessToken: "access-2", RefreshToken: "refresh-2"}, cred)

	stored, err := session.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, cred, stored)
}

func TestSessionCallerCancellationDoesNotAbortRefresh(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	require.NoError(t, session.SetCredential(context.Background(), domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	started := make(chan struct{})
	release := make(chan struct{})
	issuer.EXPECT().Refresh(mock.Anything, "refresh-1").
		RunAndReturn(func(ctx context.Context, _ string) (domain.Credential, error) {
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				return domain.Credential{}, err
			}
			return domain.Credential{AccessToken: "access-2"}, nil
		}).Once()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := session.RefreshExpired(ctx, "access-1")
		done <- err
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	cred, err := session.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", cred.AccessToken)
}

func TestSessionCurrentWaitsForInflightRefresh(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	started := make(chan struct{})
	release := make(chan struct{})
	issuer.EXPECT().Refresh(mock.Anything, "refresh-1").
		RunAndReturn(func(context.Context, string) (domain.Credential, error) {
			close(started)
			<-release
			return domain.Credential{AccessToken: "access-2"}, nil
		}).Once()

	go func() {
		_, _ = session.Refresh(ctx)
	}()
	<-started

	current := make(chan domain.Credential, 1)
	go func() {
		cred, _ := session.Current(ctx)
		current <- cred
	}()

	select {
	case <-current:
		t.Fatal("Current returned while refresh was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	assert.Equal(t, "access-2", (<-current).AccessToken)
}

func TestSessionCurrentFailsWhenAwaitedRefreshFails(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, session.SetCredential(ctx, domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

	started := make(chan struct{})
	release := make(chan struct{})
	rejected := errors.New("token is blacklisted")
	issuer.EXPECT().Refresh(mock.Anything, "refresh-1").
		RunAndReturn(func(context.Context, string) (domain.Credential, error) {
			close(started)
			<-release
			return domain.Credential{}, rejected
		}).Once()

	go func() {
		_, _ = session.Refresh(ctx)
	}()
	<-started

	type result struct {
		cred domain.Credential
		err  error
	}
	current := make(chan result, 1)
	go func() {
		cred, err := session.Current(ctx)
		current <- result{cred: cred, err: err}
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-current
	require.ErrorIs(t, got.err, domain.ErrAuthExpired)
	require.ErrorIs(t, got.err, rejected)
	assert.Equal(t, domain.Credential{}, got.cred)
}

func TestSessionLoginStoresPairAndLogoutClears(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	ctx := context.Background()

	issuer.EXPECT().Obtain(mock.Anything, "jdoe", "s3cret").
		Return(domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil).Once()

	cred, err := session.Login(ctx, "jdoe", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "access-1", cred.AccessToken)

	stored, err := session.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, cred, stored)

	require.NoError(t, session.Logout(ctx))
	_, err = session.Credential(ctx)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestSessionLoginFailureStoresNothing(t *testing.T) {
	t.Parallel()

	session, issuer := newTestSession(t)
	ctx := context.Background()

	issuer.EXPECT().Obtain(mock.Anything, "jdoe", "wrong").
		Return(domain.Credential{}, domain.ErrValidation).Once()

	_, err := session.Login(ctx, "jdoe", "wrong")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = session.Credential(ctx)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestSessionBootstrap(t *testing.T) {
	t.Parallel()

	t.Run("logged out makes no request", func(t *testing.T) {
		session, _ := newTestSession(t)

		_, err := session.Bootstrap(context.Background(), func(context.Context) (domain.User, error) {
			t.Fatal("profile fetched without a session")
			return domain.User{}, nil
		})
		require.ErrorIs(t, err, domain.ErrCredentialNotFound)
	})

	t.Run("restores user", func(t *testing.T) {
		session, _ := newTestSession(t)
		require.NoError(t, session.SetCredential(context.Background(), domain.Credential{AccessToken: "access-1"}))

		user, err := session.Bootstrap(context.Background(), func(context.Context) (domain.User, error) {
			return domain.User{ID: 7, Username: "jdoe", Role: domain.RoleLecturer}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "jdoe", user.Username)
	})

	t.Run("expired session is cleared", func(t *testing.T) {
		session, _ := newTestSession(t)
		require.NoError(t, session.SetCredential(context.Background(), domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"}))

		_, err := session.Bootstrap(context.Background(), func(context.Context) (domain.User, error) {
			return domain.User{}, domain.ErrAuthExpired
		})
		require.ErrorIs(t, err, domain.ErrAuthExpired)

		_, err = session.Credential(context.Background())
		require.ErrorIs(t, err, domain.ErrCredentialNotFound)
	})
}
