package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	filestore "github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/adapters/secrets/file"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/application"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService imitates the remote issue service: it accepts exactly one
// access token at a time and rotates it on refresh.
type fakeService struct {
	validToken   atomic.Value
	refreshToken string
	rejectAll    atomic.Bool

	refreshCalls atomic.Int32
	issueCalls   atomic.Int32
}

func newFakeService(t *testing.T) (*httptest.Server, *fakeService) {
	t.Helper()

	svc := &fakeService{refreshToken: "refresh-1"}
	svc.validToken.Store("access-2")

	router := chi.NewRouter()
	router.Post("/api/token/refresh/", svc.handleRefresh)
	router.Post("/api/token/", func(w http.ResponseWriter, r *http.Request) {
		var body obtainRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "jdoe" || body.Password != "s3cret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		writeJSON(w, http.StatusOK, tokenPair{Access: svc.validToken.Load().(string), Refresh: svc.refreshToken})
	})
	router.Group(func(r chi.Router) {
		r.Use(svc.requireAuth)
		r.Get("/api/issues/", func(w http.ResponseWriter, r *http.Request) {
			svc.issueCalls.Add(1)
			writeJSON(w, http.StatusOK, []map[string]any{
				{"id": 1, "title": "Missing marks", "status": "pending", "priority": "high", "college": "COCIS", "created_at": "2026-02-14T10:00:00Z"},
			})
		})
		r.Post("/api/issues/", func(w http.ResponseWriter, r *http.Request) {
			svc.issueCalls.Add(1)
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"title":    []string{"This field is required."},
				"priority": []string{"\"critical\" is not a valid choice."},
			})
		})
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, svc
}

func (s *fakeService) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.rejectAll.Load() || r.Header.Get("Authorization") != "Bearer "+s.validToken.Load().(string) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type", "code": "token_not_valid"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *fakeService) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	var body refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Refresh != s.refreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}

	// Hold the refresh long enough for concurrent callers to pile up.
	time.Sleep(30 * time.Millisecond)
	writeJSON(w, http.StatusOK, map[string]string{"access": s.validToken.Load().(string)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:      baseURL,
		Timeout:      time.Second,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: time.Millisecond,
	}
}

// newSessionClient wires a client the way the CLI does: a session manager over
// a file store, refreshing through a session-less token client.
func newSessionClient(t *testing.T, baseURL string, cred domain.Credential) (*Client, *application.SessionManager) {
	t.Helper()

	tokenTransport, err := NewClient(testConfig(baseURL), nil, zerolog.Nop())
	require.NoError(t, err)

	session := application.NewSessionManager(filestore.NewStore(t.TempDir()), NewTokenClient(tokenTransport), zerolog.Nop(), time.Second)
	if cred.HasAccess() {
		require.NoError(t, session.SetCredential(context.Background(), cred))
	}

	client, err := NewClient(testConfig(baseURL), session, zerolog.Nop())
	require.NoError(t, err)
	return client, session
}

func TestClientConcurrentExpiredRequestsShareOneRefresh(t *testing.T) {
	t.Parallel()

	server, svc := newFakeService(t)
	client, session := newSessionClient(t, server.URL+"/api", domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"})

	const callers = 8
	errs := make([]error, callers)
	counts := make([]int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			issues, err := client.ListIssues(context.Background(), domain.IssueFilter{})
			errs[i] = err
			counts[i] = len(issues)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
		assert.Equal(t, 1, counts[i])
	}
	assert.Equal(t, int32(1), svc.refreshCalls.Load())
	assert.Equal(t, int32(callers), svc.issueCalls.Load())

	cred, err := session.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Credential{AccessToken: "access-2", RefreshToken: "refresh-1"}, cred)
}

func TestClientRefreshFailureIsAuthExpiredAndClearsSession(t *testing.T) {
	t.Parallel()

	server, svc := newFakeService(t)
	client, session := newSessionClient(t, server.URL+"/api", domain.Credential{AccessToken: "access-1", RefreshToken: "revoked"})

	_, err := client.ListIssues(context.Background(), domain.IssueFilter{})
	require.ErrorIs(t, err, domain.ErrAuthExpired)
	assert.ErrorContains(t, err, "token/refresh/")
	assert.NotContains(t, err.Error(), "no refresh token")
	assert.Equal(t, int32(1), svc.refreshCalls.Load())
	assert.Equal(t, int32(0), svc.issueCalls.Load())

	_, err = session.Credential(context.Background())
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestClientWithoutRefreshTokenDoesNotCallRefreshEndpoint(t *testing.T) {
	t.Parallel()

	server, svc := newFakeService(t)
	client, _ := newSessionClient(t, server.URL+"/api", domain.Credential{AccessToken: "access-1"})

	_, err := client.ListIssues(context.Background(), domain.IssueFilter{})
	require.ErrorIs(t, err, domain.ErrAuthExpired)
	assert.ErrorContains(t, err, "token refresh failed")
	assert.ErrorContains(t, err, "no refresh token")
	assert.Equal(t, int32(0), svc.refreshCalls.Load())
}

func TestClientSecondUnauthorizedAfterReplayIsAuthExpired(t *testing.T) {
	t.Parallel()

	server, svc := newFakeService(t)
	svc.rejectAll.Store(true)
	client, _ := newSessionClient(t, server.URL+"/api", domain.Credential{AccessToken: "access-1", RefreshToken: "refresh-1"})

	resp, err := client.Send(context.Background(), Request{Path: "issues/"})
	require.Nil(t, resp)
	require.ErrorIs(t, err, domain.ErrAuthExpired)

	status, ok := StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, int32(1), svc.refreshCalls.Load())
}

func TestClientValidationErrorsPassThroughWithoutRetry(t *testing.T) {
	t.Parallel()

	server, svc := newFakeService(t)
	client, _ := newSessionClient(t, server.URL+"/api", domain.Credential{AccessToken: "access-2", RefreshToken: "refresh-1"})

	_, err := client.CreateIssue(context.Background(), domain.IssueInput{Priority: "critical"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrNetwork)

	fields := FieldErrors(err)
	assert.Equal(t, []string{"This field is required."}, fields["title"])
	assert.Contains(t, fields, "priority")
	assert.ErrorContains(t, err, "invalid input")
	assert.Equal(t, int32(1), svc.issueCalls.Load())
	assert.Equal(t, int32(0), svc.refreshCalls.Load())
}

func TestClientTimeoutsExhaustRetryBudget(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	router := chi.NewRouter()
	router.Get("/api/issues/", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL + "/api")
	cfg.Timeout = 40 * time.Millisecond
	client, err := NewClient(cfg, nil, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.Send(context.Background(), Request{Path: "issues/"})
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.ErrorContains(t, err, "timed out")
	assert.Equal(t, int32(3), attempts.Load())

	_, ok := StatusCode(err)
	assert.False(t, ok)
}

func TestClientRetriesKeepRequestID(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var ids []string
	router := chi.NewRouter()
	router.Get("/api/profile/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids = append(ids, r.Header.Get(requestIDHeader))
		attempt := len(ids)
		mu.Unlock()

		if attempt < 3 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		writeJSON(w, http.StatusOK, domain.User{ID: 3, Username: "jdoe"})
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL + "/api")
	cfg.Timeout = 40 * time.Millisecond
	client, err := NewClient(cfg, nil, zerolog.Nop())
	require.NoError(t, err)

	resp, err := client.Send(context.Background(), Request{Path: "profile/"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Attempts)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, ids, 3)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, ids[0], ids[2])
}

func TestClientServerErrorRetryIsOptIn(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		retry        bool
		wantErr      bool
		wantAttempts int32
	}{
		{name: "disabled", retry: false, wantErr: true, wantAttempts: 1},
		{name: "enabled", retry: true, wantErr: false, wantAttempts: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var attempts atomic.Int32
			router := chi.NewRouter()
			router.Get("/api/colleges/", func(w http.ResponseWriter, r *http.Request) {
				if attempts.Add(1) < 3 {
					writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "maintenance"})
					return
				}
				writeJSON(w, http.StatusOK, []string{"COCIS", "CEDAT"})
			})
			server := httptest.NewServer(router)
			t.Cleanup(server.Close)

			cfg := testConfig(server.URL + "/api")
			cfg.RetryServerErrors = tc.retry
			client, err := NewClient(cfg, nil, zerolog.Nop())
			require.NoError(t, err)

			colleges, err := client.ListColleges(context.Background())
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrServer)
				assert.ErrorContains(t, err, "maintenance")
			} else {
				require.NoError(t, err)
				assert.Equal(t, []domain.College{{Name: "COCIS"}, {Name: "CEDAT"}}, colleges)
			}
			assert.Equal(t, tc.wantAttempts, attempts.Load())
		})
	}
}

func TestClientCanceledContextIsNotRetried(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	started := make(chan struct{}, 1)
	router := chi.NewRouter()
	router.Get("/api/issues/", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		started <- struct{}{}
		<-r.Context().Done()
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL+"/api"), nil, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err = client.Send(ctx, Request{Path: "issues/"})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClientSendsJSONHeadersAndBearer(t *testing.T) {
	t.Parallel()

	router := chi.NewRouter()
	router.Patch("/api/issues/{id}/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", chi.URLParam(r, "id"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer access-2", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "resolved"}, body)

		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "title": "Missing marks", "status": "resolved"})
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	client, _ := newSessionClient(t, server.URL+"/api/", domain.Credential{AccessToken: "access-2"})

	issue, err := client.UpdateIssue(context.Background(), 7, domain.IssueInput{Status: domain.StatusResolved})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, issue.Status)
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		baseURL string
		wantErr string
	}{
		{name: "empty", baseURL: " ", wantErr: "base url is required"},
		{name: "scheme", baseURL: "ftp://example.com", wantErr: "must use http or https"},
		{name: "host", baseURL: "http://", wantErr: "host is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(Config{BaseURL: tc.baseURL}, nil, zerolog.Nop())
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestErrorMessageSummaries(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantKind    error
		wantMessage string
	}{
		{name: "detail", status: 403, contentType: "application/json", body: `{"detail":"You do not have permission"}`, wantKind: domain.ErrValidation, wantMessage: "You do not have permission"},
		{name: "non field errors", status: 400, contentType: "application/json", body: `{"non_field_errors":["Passwords do not match"]}`, wantKind: domain.ErrValidation, wantMessage: "Passwords do not match"},
		{name: "nested error", status: 500, contentType: "application/json", body: `{"error":{"message":"db down"}}`, wantKind: domain.ErrServer, wantMessage: "db down"},
		{name: "html", status: 502, contentType: "text/html", body: `<html>bad gateway</html>`, wantKind: domain.ErrServer, wantMessage: "html response body omitted"},
		{name: "empty", status: 404, body: ``, wantKind: domain.ErrValidation, wantMessage: "Not Found"},
		{name: "plain text", status: 400, contentType: "text/plain", body: `nope`, wantKind: domain.ErrValidation, wantMessage: "nope"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			header := http.Header{}
			header.Set("Content-Type", tc.contentType)
			apiErr := errorFromResponse(http.MethodGet, "issues/", &Response{StatusCode: tc.status, Header: header, Body: []byte(tc.body)})

			assert.True(t, errors.Is(apiErr, tc.wantKind))
			assert.Equal(t, tc.wantMessage, apiErr.Message)
			assert.Equal(t, tc.status, apiErr.StatusCode)
		})
	}
}

func TestErrorIncludesCause(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "distinct cause",
			err:  &Error{Kind: domain.ErrAuthExpired, Method: http.MethodGet, Path: "issues/", StatusCode: 401, Message: "token refresh failed", Err: errors.New("no refresh token")},
			want: "GET issues/: session expired (status 401): token refresh failed: no refresh token",
		},
		{
			name: "cause already in message",
			err:  &Error{Kind: domain.ErrNetwork, Method: http.MethodGet, Path: "issues/", Message: "dial tcp: refused", Err: errors.New("dial tcp: refused")},
			want: "GET issues/: network error: dial tcp: refused",
		},
		{
			name: "no cause",
			err:  &Error{Kind: domain.ErrValidation, Method: http.MethodPost, Path: "issues/", StatusCode: 400, Message: "invalid input"},
			want: "POST issues/: request rejected (status 400): invalid input",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}
