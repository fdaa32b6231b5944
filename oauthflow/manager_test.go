package oauthflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ISMendys/alexa-gemini/credentials"
	"github.com/ISMendys/alexa-gemini/internal/config"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/ISMendys/alexa-gemini/oauthflow"
	"github.com/ISMendys/alexa-gemini/oauthflow/staterepo"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testClientID     = "test-client-1"
	testClientSecret = "test-secret-1"
	testRedirectURI  = "https://skill.example.com/auth/callback"
	testUserID       = "amzn1.ask.account.TEST"
	goodCode         = "good-code"
	goodRefresh      = "refresh-1"
)

// fakeProvider is a minimal OAuth2 token endpoint.
type fakeProvider struct {
	srv           *httptest.Server
	exchanges     atomic.Int32
	refreshes     atomic.Int32
	idToken       atomic.Value
	lastVerifier  atomic.Value
	rotateRefresh atomic.Bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	p.srv = httptest.NewServer(http.HandlerFunc(p.token))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) endpoint() oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   p.srv.URL + "/auth",
		TokenURL:  p.srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func (p *fakeProvider) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp := map[string]any{"token_type": "Bearer", "expires_in": 3600}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		p.exchanges.Add(1)
		p.lastVerifier.Store(r.PostForm.Get("code_verifier"))
		if r.PostForm.Get("code") != goodCode {
			writeOAuthError(w)
			return
		}
		resp["access_token"] = "access-0"
		resp["refresh_token"] = goodRefresh
		if id, _ := p.idToken.Load().(string); id != "" {
			resp["id_token"] = id
		}
	case "refresh_token":
		n := p.refreshes.Add(1)
		if r.PostForm.Get("refresh_token") != goodRefresh {
			writeOAuthError(w)
			return
		}
		resp["access_token"] = "access-refreshed-" + string(rune('0'+n))
		if p.rotateRefresh.Load() {
			resp["refresh_token"] = "refresh-rotated"
		}
	default:
		writeOAuthError(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeOAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
}

type fakeVerifier struct {
	identity oauthflow.Identity
	err      error
}

func (f fakeVerifier) VerifyIdentity(_ context.Context, _ string) (oauthflow.Identity, error) {
	return f.identity, f.err
}

// testFixture holds all test dependencies
type testFixture struct {
	provider *fakeProvider
	store    *credentials.FileStore
	states   *staterepo.InMemoryRepo
	manager  *oauthflow.Manager

	mu  sync.Mutex
	now time.Time
}

func (f *testFixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *testFixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func testSettings() config.Settings {
	return config.Settings{
		GoogleClientID:     testClientID,
		GoogleClientSecret: testClientSecret,
		GoogleRedirectURI:  testRedirectURI,
		Timezone:           "UTC",
	}
}

func setupTestFixture(t *testing.T, settings config.Settings, options ...oauthflow.ManagerOption) *testFixture {
	t.Helper()

	cfg, err := config.FromSettings(settings)
	require.NoError(t, err)

	f := &testFixture{
		provider: newFakeProvider(t),
		store:    credentials.NewFileStore(filepath.Join(t.TempDir(), "tokens.json")),
		states:   staterepo.NewInMemoryRepo(),
		now:      time.Now(),
	}
	opts := append([]oauthflow.ManagerOption{
		oauthflow.WithEndpoint(f.provider.endpoint()),
		oauthflow.WithStateRepo(f.states),
		oauthflow.WithNowTime(f.clock),
		oauthflow.WithTimeout(5 * time.Second),
	}, options...)

	f.manager, err = oauthflow.NewManager(cfg, f.store, opts...)
	require.NoError(t, err)
	return f
}

// storeCredential seeds a credential whose access token expires at expiry.
func (f *testFixture) storeCredential(t *testing.T, refreshToken string, expiry time.Time) {
	t.Helper()
	require.NoError(t, f.store.Put(credentials.UserCredential{
		UserID:       testUserID,
		AccessToken:  "access-stored",
		RefreshToken: refreshToken,
		TokenURI:     f.provider.endpoint().TokenURL,
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		Scopes:       []string{config.ScopeCalendar},
		Expiry:       expiry,
	}))
}

func TestNewManager_RequiresDependencies(t *testing.T) {
	cfg, err := config.FromSettings(testSettings())
	require.NoError(t, err)

	_, err = oauthflow.NewManager(nil, credentials.NewFileStore(""))
	require.Error(t, err)
	_, err = oauthflow.NewManager(cfg, nil)
	require.Error(t, err)
}

func TestCreateAuthorizationURL(t *testing.T) {
	f := setupTestFixture(t, testSettings())

	auth, err := f.manager.CreateAuthorizationURL(testUserID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(auth.State), 43, "state must carry at least 256 bits")

	u, err := url.Parse(auth.URL)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, auth.State, q.Get("state"))
	require.Equal(t, "offline", q.Get("access_type"))
	require.Equal(t, "true", q.Get("include_granted_scopes"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))
	require.Equal(t, testClientID, q.Get("client_id"))
	require.Equal(t, testRedirectURI, q.Get("redirect_uri"))

	entry, err := f.states.Get(auth.State)
	require.NoError(t, err)
	require.Equal(t, testUserID, entry.UserID)

	second, err := f.manager.CreateAuthorizationURL(testUserID)
	require.NoError(t, err)
	require.NotEqual(t, auth.State, second.State)
	require.Equal(t, 2, f.states.Len(), "earlier unconsumed states stay live")
}

func TestCreateAuthorizationURL_ConfigIncomplete(t *testing.T) {
	for name, mutate := range map[string]func(*config.Settings){
		"missing client id":     func(s *config.Settings) { s.GoogleClientID = "" },
		"missing client secret": func(s *config.Settings) { s.GoogleClientSecret = "" },
		"missing redirect uri":  func(s *config.Settings) { s.GoogleRedirectURI = "" },
	} {
		t.Run(name, func(t *testing.T) {
			settings := testSettings()
			mutate(&settings)
			f := setupTestFixture(t, settings)

			_, err := f.manager.CreateAuthorizationURL(testUserID)
			require.ErrorIs(t, err, apperrors.ErrConfigIncomplete)
			require.Equal(t, 0, f.states.Len())
		})
	}
}

func TestHandleCallback_Success(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	auth, err := f.manager.CreateAuthorizationURL(testUserID)
	require.NoError(t, err)
	entry, err := f.states.Get(auth.State)
	require.NoError(t, err)

	result, err := f.manager.HandleCallback(context.Background(), goodCode, auth.State)
	require.NoError(t, err)
	require.Equal(t, testUserID, result.UserID)
	require.Equal(t, "access-0", result.AccessToken)
	require.Equal(t, goodRefresh, result.RefreshToken)
	require.Equal(t, entry.CodeVerifier, f.provider.lastVerifier.Load())

	cred, err := f.store.Get(testUserID)
	require.NoError(t, err)
	require.Equal(t, f.provider.endpoint().TokenURL, cred.TokenURI)
	require.Equal(t, testClientID, cred.ClientID)
	require.Equal(t, config.DefaultScopes, cred.Scopes)
	require.False(t, cred.Expiry.IsZero())

	t.Run("state is accepted at most once", func(t *testing.T) {
		_, err := f.manager.HandleCallback(context.Background(), goodCode, auth.State)
		require.ErrorIs(t, err, apperrors.ErrInvalidState)
		require.Equal(t, int32(1), f.provider.exchanges.Load())
	})
}

func TestHandleCallback_UnknownState(t *testing.T) {
	f := setupTestFixture(t, testSettings())

	_, err := f.manager.HandleCallback(context.Background(), goodCode, "never-issued")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
	require.Equal(t, int32(0), f.provider.exchanges.Load())
}

func TestHandleCallback_ExchangeFailureKeepsState(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	auth, err := f.manager.CreateAuthorizationURL(testUserID)
	require.NoError(t, err)

	_, err = f.manager.HandleCallback(context.Background(), "bad-code", auth.State)
	require.ErrorIs(t, err, apperrors.ErrExchangeFailed)
	_, err = f.store.Get(testUserID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	result, err := f.manager.HandleCallback(context.Background(), goodCode, auth.State)
	require.NoError(t, err)
	require.Equal(t, testUserID, result.UserID)
}

func TestHandleCallback_ExpiredState(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	auth, err := f.manager.CreateAuthorizationURL(testUserID)
	require.NoError(t, err)

	f.advance(11 * time.Minute)

	_, err = f.manager.HandleCallback(context.Background(), goodCode, auth.State)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
	require.Equal(t, 0, f.states.Len())
}

func TestSweepStates(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	for i := 0; i < 3; i++ {
		_, err := f.manager.CreateAuthorizationURL(testUserID)
		require.NoError(t, err)
	}
	require.Equal(t, 0, f.manager.SweepStates())

	f.advance(time.Hour)
	require.Equal(t, 3, f.manager.SweepStates())
}

func TestHandleCallback_IdentityVerification(t *testing.T) {
	t.Run("verified email is recorded", func(t *testing.T) {
		f := setupTestFixture(t, testSettings(),
			oauthflow.WithIdentityVerifier(fakeVerifier{identity: oauthflow.Identity{Subject: "123", Email: "john@example.com"}}))
		f.provider.idToken.Store("raw-id-token")

		auth, err := f.manager.CreateAuthorizationURL(testUserID)
		require.NoError(t, err)
		result, err := f.manager.HandleCallback(context.Background(), goodCode, auth.State)
		require.NoError(t, err)
		require.Equal(t, "john@example.com", result.Email)
	})

	t.Run("verification failure is an exchange failure", func(t *testing.T) {
		f := setupTestFixture(t, testSettings(),
			oauthflow.WithIdentityVerifier(fakeVerifier{err: errors.New("bad signature")}))
		f.provider.idToken.Store("raw-id-token")

		auth, err := f.manager.CreateAuthorizationURL(testUserID)
		require.NoError(t, err)
		_, err = f.manager.HandleCallback(context.Background(), goodCode, auth.State)
		require.ErrorIs(t, err, apperrors.ErrExchangeFailed)
		_, err = f.states.Get(auth.State)
		require.NoError(t, err)
	})

	t.Run("missing id token is an exchange failure", func(t *testing.T) {
		f := setupTestFixture(t, testSettings(), oauthflow.WithIdentityVerifier(fakeVerifier{}))

		auth, err := f.manager.CreateAuthorizationURL(testUserID)
		require.NoError(t, err)
		_, err = f.manager.HandleCallback(context.Background(), goodCode, auth.State)
		require.ErrorIs(t, err, apperrors.ErrExchangeFailed)
	})
}

func TestGetAccessToken_NoCredential(t *testing.T) {
	f := setupTestFixture(t, testSettings())

	_, err := f.manager.GetAccessToken(context.Background(), "unknown")
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.False(t, f.manager.IsAuthenticated(context.Background(), "unknown"))
}

func TestGetAccessToken_ValidTokenMakesNoNetworkCall(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	f.storeCredential(t, goodRefresh, f.now.Add(time.Hour))

	for i := 0; i < 2; i++ {
		tok, err := f.manager.GetAccessToken(context.Background(), testUserID)
		require.NoError(t, err)
		require.Equal(t, "access-stored", tok)
	}
	require.Equal(t, int32(0), f.provider.refreshes.Load())
}

func TestGetAccessToken_RefreshesExpiredToken(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	f.storeCredential(t, goodRefresh, f.now.Add(-time.Minute))

	tok, err := f.manager.GetAccessToken(context.Background(), testUserID)
	require.NoError(t, err)
	require.Equal(t, "access-refreshed-1", tok)

	cred, err := f.store.Get(testUserID)
	require.NoError(t, err)
	require.Equal(t, "access-refreshed-1", cred.AccessToken)
	require.Equal(t, goodRefresh, cred.RefreshToken, "refresh token is retained")

	t.Run("refreshed token is persisted", func(t *testing.T) {
		reloaded := credentials.NewFileStore("")
		require.NoError(t, reloaded.Load(f.store.Path()))
		c, err := reloaded.Get(testUserID)
		require.NoError(t, err)
		require.Equal(t, "access-refreshed-1", c.AccessToken)
	})

	t.Run("second call does not refresh again", func(t *testing.T) {
		tok, err := f.manager.GetAccessToken(context.Background(), testUserID)
		require.NoError(t, err)
		require.Equal(t, "access-refreshed-1", tok)
		require.Equal(t, int32(1), f.provider.refreshes.Load())
	})
}

func TestGetAccessToken_RotatedRefreshTokenIsKept(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	f.provider.rotateRefresh.Store(true)
	f.storeCredential(t, goodRefresh, f.now.Add(-time.Minute))

	_, err := f.manager.GetAccessToken(context.Background(), testUserID)
	require.NoError(t, err)
	cred, err := f.store.Get(testUserID)
	require.NoError(t, err)
	require.Equal(t, "refresh-rotated", cred.RefreshToken)
}

// brokenStore fails every read the way a locked database would.
type brokenStore struct {
	*credentials.FileStore
}

func (brokenStore) Get(string) (*credentials.UserCredential, error) {
	return nil, errors.New("database is locked")
}

func TestGetAccessToken_StoreFailureIsNotUnlinked(t *testing.T) {
	cfg, err := config.FromSettings(testSettings())
	require.NoError(t, err)
	manager, err := oauthflow.NewManager(cfg, brokenStore{credentials.NewFileStore("")})
	require.NoError(t, err)

	_, err = manager.GetAccessToken(context.Background(), testUserID)
	require.ErrorContains(t, err, "database is locked")
	require.NotErrorIs(t, err, apperrors.ErrNotAuthenticated)
	require.NotErrorIs(t, err, apperrors.ErrReauthRequired)
}

func TestGetAccessToken_ConcurrentCallersRefreshOnce(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	f.storeCredential(t, goodRefresh, f.now.Add(-time.Minute))

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], _ = f.manager.GetAccessToken(context.Background(), testUserID)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), f.provider.refreshes.Load())
	for _, tok := range tokens {
		require.Equal(t, "access-refreshed-1", tok)
	}
}

func TestGetAccessToken_RefreshFailure(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	f.storeCredential(t, "revoked-refresh-token", f.now.Add(-time.Minute))

	_, err := f.manager.GetAccessToken(context.Background(), testUserID)
	require.ErrorIs(t, err, apperrors.ErrReauthRequired)
	require.False(t, f.manager.IsAuthenticated(context.Background(), testUserID))
}

func TestGetAccessToken_DeadCredential(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	f.storeCredential(t, "", f.now.Add(-time.Minute))

	_, err := f.manager.GetAccessToken(context.Background(), testUserID)
	require.ErrorIs(t, err, apperrors.ErrReauthRequired)
	require.Equal(t, int32(0), f.provider.refreshes.Load())
}

func TestIsAuthenticated(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	require.False(t, f.manager.IsAuthenticated(context.Background(), testUserID))

	f.storeCredential(t, goodRefresh, f.now.Add(time.Hour))
	require.True(t, f.manager.IsAuthenticated(context.Background(), testUserID))
}

func TestRevoke(t *testing.T) {
	f := setupTestFixture(t, testSettings())

	deleted, err := f.manager.Revoke(testUserID)
	require.NoError(t, err)
	require.False(t, deleted)

	f.storeCredential(t, goodRefresh, f.now.Add(time.Hour))
	require.NoError(t, f.store.Put(credentials.UserCredential{UserID: "other", AccessToken: "x"}))

	deleted, err = f.manager.Revoke(testUserID)
	require.NoError(t, err)
	require.True(t, deleted)

	_, err = f.store.Get(testUserID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.store.Get("other")
	require.NoError(t, err)
}

func TestPersist(t *testing.T) {
	f := setupTestFixture(t, testSettings())
	f.storeCredential(t, goodRefresh, f.now.Add(time.Hour))
	require.NoError(t, f.manager.Persist())

	reloaded := credentials.NewFileStore("")
	require.NoError(t, reloaded.Load(f.store.Path()))
	_, err := reloaded.Get(testUserID)
	require.NoError(t, err)
}
