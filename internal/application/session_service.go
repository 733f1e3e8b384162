package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/ports"
	"github.com/rs/zerolog"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"

	DefaultRefreshTimeout = 15 * time.Second
)

var errEmptyAccessToken = errors.New("access token is empty")

// refreshCall is one in-flight token refresh. cred and err are written before
// done is closed and never after.
type refreshCall struct {
	done chan struct{}
	cred domain.Credential
	err  error
}

// SessionManager owns the stored credential pair and serializes token refresh:
// however many callers observe an expired access token at once, the token
// endpoint is called once and every caller gets that call's outcome.
type SessionManager struct {
	store          ports.CredentialStore
	issuer         ports.TokenIssuer
	logger         zerolog.Logger
	refreshTimeout time.Duration

	mu       sync.Mutex
	inflight *refreshCall
}

func NewSessionManager(store ports.CredentialStore, issuer ports.TokenIssuer, logger zerolog.Logger, refreshTimeout time.Duration) *SessionManager {
	if refreshTimeout <= 0 {
		refreshTimeout = DefaultRefreshTimeout
	}

	return &SessionManager{
		store:          store,
		issuer:         issuer,
		logger:         logger.With().Str("component", "session").Logger(),
		refreshTimeout: refreshTimeout,
	}
}

// Credential returns the stored pair, or an error wrapping
// domain.ErrCredentialNotFound when no access token is stored.
func (m *SessionManager) Credential(ctx context.Context) (domain.Credential, error) {
	access, err := m.store.Get(ctx, AccessTokenKey)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("load access token: %w", err)
	}

	refresh, err := m.store.Get(ctx, RefreshTokenKey)
	if err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		return domain.Credential{}, fmt.Errorf("load refresh token: %w", err)
	}

	return domain.Credential{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *SessionManager) SetCredential(ctx context.Context, cred domain.Credential) error {
	if !cred.HasAccess() {
		return errEmptyAccessToken
	}

	if err := m.store.Put(ctx, AccessTokenKey, cred.AccessToken); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}

	if cred.HasRefresh() {
		if err := m.store.Put(ctx, RefreshTokenKey, cred.RefreshToken); err != nil {
			return fmt.Errorf("store refresh token: %w", err)
		}
		return nil
	}

	if err := m.store.Delete(ctx, RefreshTokenKey); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	return nil
}

// ClearCredential removes both tokens. Clearing an empty store is not an error.
func (m *SessionManager) ClearCredential(ctx context.Context) error {
	var errs error
	if err := m.store.Delete(ctx, AccessTokenKey); err != nil {
		errs = errors.Join(errs, fmt.Errorf("delete access token: %w", err))
	}
	if err := m.store.Delete(ctx, RefreshTokenKey); err != nil {
		errs = errors.Join(errs, fmt.Errorf("delete refresh token: %w", err))
	}
	return errs
}

// Refresh exchanges the stored refresh token for a new access token, joining
// the in-flight refresh if there is one.
func (m *SessionManager) Refresh(ctx context.Context) (domain.Credential, error) {
	m.mu.Lock()
	call := m.inflight
	if call == nil {
		var err error
		call, err = m.startLocked(ctx)
		if err != nil {
			m.mu.Unlock()
			return domain.Credential{}, err
		}
	}
	m.mu.Unlock()

	return wait(ctx, call)
}

// RefreshExpired is Refresh for a caller whose request was rejected with
// staleAccessToken. If the stored token already differs, another caller has
// refreshed in the meantime and the stored credential is returned as is.
func (m *SessionManager) RefreshExpired(ctx context.Context, staleAccessToken string) (domain.Credential, error) {
	m.mu.Lock()
	call := m.inflight
	if call == nil {
		stored, err := m.Credential(ctx)
		if err == nil && stored.AccessToken != staleAccessToken {
			m.mu.Unlock()
			m.logger.Debug().Msg("access token already refreshed")
			return stored, nil
		}

		call, err = m.startLocked(ctx)
		if err != nil {
			m.mu.Unlock()
			return domain.Credential{}, err
		}
	}
	m.mu.Unlock()

	return wait(ctx, call)
}

// Current waits for any in-flight refresh to settle and returns the stored
// credential. The zero Credential means logged out. A caller that waited on a
// failed refresh gets that refresh's ErrAuthExpired error.
func (m *SessionManager) Current(ctx context.Context) (domain.Credential, error) {
	m.mu.Lock()
	call := m.inflight
	m.mu.Unlock()

	if call != nil {
		if _, err := wait(ctx, call); err != nil {
			return domain.Credential{}, err
		}
	}

	cred, err := m.Credential(ctx)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		return domain.Credential{}, nil
	}
	return cred, err
}

func (m *SessionManager) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	cred, err := m.issuer.Obtain(ctx, username, password)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("obtain token pair: %w", err)
	}

	if err := m.SetCredential(ctx, cred); err != nil {
		return domain.Credential{}, err
	}

	m.logger.Info().Str("username", username).Msg("logged in")
	return cred, nil
}

func (m *SessionManager) Logout(ctx context.Context) error {
	if err := m.ClearCredential(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Bootstrap restores the user of a stored session by fetching their profile.
// Without a stored access token it returns domain.ErrCredentialNotFound and
// makes no request. An expired session leaves the store cleared.
func (m *SessionManager) Bootstrap(ctx context.Context, fetchProfile func(context.Context) (domain.User, error)) (domain.User, error) {
	if _, err := m.Credential(ctx); err != nil {
		return domain.User{}, err
	}

	user, err := fetchProfile(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrAuthExpired) {
			if clearErr := m.ClearCredential(ctx); clearErr != nil {
				return domain.User{}, errors.Join(err, clearErr)
			}
		}
		return domain.User{}, fmt.Errorf("fetch profile: %w", err)
	}

	return user, nil
}

// startLocked must be called with mu held and inflight nil.
func (m *SessionManager) startLocked(ctx context.Context) (*refreshCall, error) {
	stored, err := m.Credential(ctx)
	if err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		return nil, err
	}

	if !stored.HasRefresh() {
		if clearErr := m.ClearCredential(ctx); clearErr != nil {
			return nil, errors.Join(domain.ErrAuthExpired, clearErr)
		}
		m.logger.Info().Msg("no refresh token stored")
		return nil, fmt.Errorf("%w: no refresh token", domain.ErrAuthExpired)
	}

	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call

	go m.runRefresh(context.WithoutCancel(ctx), call, stored.RefreshToken)

	return call, nil
}

func (m *SessionManager) runRefresh(ctx context.Context, call *refreshCall, refreshToken string) {
	m.logger.Info().Msg("refreshing access token")

	cred, err := m.exchange(ctx, refreshToken)
	if err != nil {
		if clearErr := m.ClearCredential(ctx); clearErr != nil {
			m.logger.Error().Err(clearErr).Msg("clear credentials after failed refresh")
		}
		m.logger.Warn().Err(err).Msg("access token refresh failed")
		call.err = fmt.Errorf("%w: %w", domain.ErrAuthExpired, err)
	} else {
		m.logger.Info().Bool("rotated", cred.RefreshToken != refreshToken).Msg("access token refreshed")
		call.cred = cred
	}

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(call.done)
}

func (m *SessionManager) exchange(ctx context.Context, refreshToken string) (domain.Credential, error) {
	refreshCtx, cancel := context.WithTimeout(ctx, m.refreshTimeout)
	defer cancel()

	fresh, err := m.issuer.Refresh(refreshCtx, refreshToken)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("refresh access token: %w", err)
	}
	if !fresh.HasAccess() {
		return domain.Credential{}, fmt.Errorf("refresh access token: %w", errEmptyAccessToken)
	}
	if !fresh.HasRefresh() {
		fresh.RefreshToken = refreshToken
	}

	if err := m.SetCredential(ctx, fresh); err != nil {
		return domain.Credential{}, err
	}
	return fresh, nil
}

func wait(ctx context.Context, call *refreshCall) (domain.Credential, error) {
	select {
	case <-call.done:
		return call.cred, call.err
	case <-ctx.Done():
		return domain.Credential{}, ctx.Err()
	}
}
