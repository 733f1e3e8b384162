package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/ports"
)

const (
	tokenPath        = "token/"
	tokenRefreshPath = "token/refresh/"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// TokenClient talks to the token endpoints. It must be built on a Client
// without a session so a rejected refresh never recurses into another refresh.
type TokenClient struct {
	client *Client
}

var _ ports.TokenIssuer = (*TokenClient)(nil)

func NewTokenClient(client *Client) *TokenClient {
	return &TokenClient{client: client}
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type obtainRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (t *TokenClient) Obtain(ctx context.Context, username, password string) (domain.Credential, error) {
	if username == "" || password == "" {
		return domain.Credential{}, errors.New("username and password are required")
	}

	var pair tokenPair
	err := t.client.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      tokenPath,
		Body:      obtainRequest{Username: username, Password: password},
		Anonymous: true,
	}, &pair)
	if err != nil {
		if status, ok := StatusCode(err); ok && status == http.StatusUnauthorized {
			return domain.Credential{}, rejectCredentials(err)
		}
		return domain.Credential{}, fmt.Errorf("obtain token: %w", err)
	}

	if pair.Access == "" {
		return domain.Credential{}, errors.New("token response missing access token")
	}
	if pair.Refresh == "" {
		return domain.Credential{}, errors.New("token response missing refresh token")
	}

	return domain.Credential{AccessToken: pair.Access, RefreshToken: pair.Refresh}, nil
}

func (t *TokenClient) Refresh(ctx context.Context, refreshToken string) (domain.Credential, error) {
	if refreshToken == "" {
		return domain.Credential{}, errors.New("refresh token is required")
	}

	var pair tokenPair
	err := t.client.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      tokenRefreshPath,
		Body:      refreshRequest{Refresh: refreshToken},
		Anonymous: true,
	}, &pair)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("refresh token: %w", err)
	}

	if pair.Access == "" {
		return domain.Credential{}, errors.New("refresh response missing access token")
	}

	return domain.Credential{AccessToken: pair.Access, RefreshToken: pair.Refresh}, nil
}

// rejectCredentials turns the 401 of a login attempt into a validation
// failure: the caller typed the wrong password, no session expired.
func rejectCredentials(err error) error {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	rejected := *apiErr
	rejected.Kind = domain.ErrValidation
	return fmt.Errorf("%w: %w", ErrInvalidCredentials, &rejected)
}
