// Package oauthflow runs the OAuth2 authorization-code flow against the
// identity provider and owns the lifecycle of the resulting credentials:
// authorization URL issuance, code exchange, refresh on expiry and local
// revocation.
package oauthflow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ISMendys/alexa-gemini/credentials"
	"github.com/ISMendys/alexa-gemini/internal/config"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	"github.com/ISMendys/alexa-gemini/oauthflow/staterepo"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateLength is the number of random bytes in a state token (256 bits).
const stateLength = 32

// AuthorizationURL is the consent page the end user must be redirected to.
type AuthorizationURL struct {
	URL   string
	State string
}

// CallbackResult is returned by a successful HandleCallback.
type CallbackResult struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	Email        string
}

// Manager is safe for concurrent use. Credential mutation is serialised per
// user identity; state redemption is serialised per state token.
type Manager struct {
	config   config.OAuthConfig
	store    credentials.Store
	states   staterepo.Repo
	locks    *keyedMutex
	endpoint oauth2.Endpoint
	client   *http.Client
	timeout  time.Duration
	verifier IdentityVerifier
	nowTime  func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithEndpoint overrides the identity provider endpoints (default: Google).
func WithEndpoint(endpoint oauth2.Endpoint) ManagerOption {
	return func(m *Manager) {
		m.endpoint = endpoint
	}
}

// WithTimeout bounds every token endpoint call.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithHTTPClient sets the client used for token endpoint calls.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		m.client = client
	}
}

// WithIdentityVerifier enables ID token verification on exchange.
func WithIdentityVerifier(v IdentityVerifier) ManagerOption {
	return func(m *Manager) {
		m.verifier = v
	}
}

// WithStateRepo replaces the in-memory state repository.
func WithStateRepo(repo staterepo.Repo) ManagerOption {
	return func(m *Manager) {
		m.states = repo
	}
}

// NewManager creates a Manager over store.
func NewManager(cfg config.OAuthConfig, store credentials.Store, options ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[NewManager] config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("[NewManager] credential store is required")
	}

	m := &Manager{
		config:   cfg,
		store:    store,
		states:   staterepo.NewInMemoryRepo(),
		locks:    newKeyedMutex(),
		endpoint: google.Endpoint,
		timeout:  30 * time.Second,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.client == nil {
		m.client = &http.Client{Timeout: m.timeout}
	}

	if !m.configComplete() {
		log.Warn().Msg("OAuth configuration incomplete; account linking is disabled")
	}
	return m, nil
}

func (m *Manager) configComplete() bool {
	return m.config.GetGoogleClientID() != "" &&
		m.config.GetGoogleClientSecret() != "" &&
		m.config.GetGoogleRedirectURI() != ""
}

func (m *Manager) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.config.GetGoogleClientID(),
		ClientSecret: m.config.GetGoogleClientSecret(),
		RedirectURL:  m.config.GetGoogleRedirectURI(),
		Scopes:       m.config.GetGoogleScopes(),
		Endpoint:     m.endpoint,
	}
}

// upstreamContext bounds a token endpoint call and routes it through m.client.
func (m *Manager) upstreamContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.client)
	return context.WithTimeout(ctx, m.timeout)
}

// CreateAuthorizationURL issues a consent URL for userID requesting offline
// access and incremental scopes, and records the state token for the callback.
func (m *Manager) CreateAuthorizationURL(userID string) (*AuthorizationURL, error) {
	if !m.configComplete() {
		return nil, apperrors.ErrConfigIncomplete
	}

	now := m.nowTime()
	if swept := m.states.DeleteExpired(now); swept > 0 {
		log.Debug().Int("swept", swept).Msg("expired oauth states removed")
	}

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("[CreateAuthorizationURL] failed to generate state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	url := m.oauth2Config().AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.S256ChallengeOption(verifier),
	)

	if err := m.states.Upsert(state, &staterepo.Entry{
		UserID:       userID,
		CodeVerifier: verifier,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.config.GetStateTTL()),
	}); err != nil {
		return nil, fmt.Errorf("[CreateAuthorizationURL] failed to record state: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("authorization URL created")
	return &AuthorizationURL{URL: url, State: state}, nil
}

// HandleCallback redeems a state token and exchanges code for a credential.
// The state survives a failed exchange so the user can retry; it is consumed
// only after the credential is stored. Callers persist the store afterwards.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) (*CallbackResult, error) {
	unlockState := m.locks.Lock("state:" + state)
	defer unlockState()

	now := m.nowTime()
	m.states.DeleteExpired(now)

	entry, err := m.states.Get(state)
	if err != nil {
		return nil, apperrors.ErrInvalidState
	}
	if entry.Expired(now) {
		_ = m.states.Delete(state)
		return nil, apperrors.ErrInvalidState
	}

	oc := m.oauth2Config()
	exchangeCtx, cancel := m.upstreamContext(ctx)
	defer cancel()

	tok, err := oc.Exchange(exchangeCtx, code, oauth2.VerifierOption(entry.CodeVerifier))
	if err != nil {
		log.Error().Err(err).Str("user_id", entry.UserID).Msg("authorization code exchange failed")
		return nil, fmt.Errorf("%w: %w", apperrors.ErrExchangeFailed, err)
	}

	var identity Identity
	if m.verifier != nil {
		rawIDToken, _ := tok.Extra("id_token").(string)
		if rawIDToken == "" {
			return nil, fmt.Errorf("%w: no id_token in response", apperrors.ErrExchangeFailed)
		}
		if identity, err = m.verifier.VerifyIdentity(exchangeCtx, rawIDToken); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrExchangeFailed, err)
		}
	}

	cred := credentials.UserCredential{
		UserID:       entry.UserID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     oc.Endpoint.TokenURL,
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
		Scopes:       oc.Scopes,
		Expiry:       tok.Expiry,
		Email:        identity.Email,
	}
	if cred.RefreshToken == "" {
		log.Warn().Str("user_id", entry.UserID).Msg("provider returned no refresh token; credential dies at expiry")
	}

	unlockUser := m.locks.Lock("user:" + entry.UserID)
	err = m.store.Put(cred)
	unlockUser()
	if err != nil {
		return nil, fmt.Errorf("[HandleCallback] failed to store credential: %w", err)
	}

	if err := m.states.Delete(state); err != nil {
		log.Warn().Err(err).Msg("failed to delete consumed oauth state")
	}

	log.Info().Str("user_id", entry.UserID).Msg("account linked")
	return &CallbackResult{
		UserID:       cred.UserID,
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Email:        cred.Email,
	}, nil
}

// GetAccessToken returns a usable access token for userID, refreshing it
// first when it has expired. It fails with ErrNotAuthenticated when no
// credential exists and ErrReauthRequired when refreshing is impossible or
// fails; either way the user has to link the account again. A store that
// cannot be read yields neither, since linking again would not help.
func (m *Manager) GetAccessToken(ctx context.Context, userID string) (string, error) {
	unlock := m.locks.Lock("user:" + userID)
	defer unlock()

	cred, err := m.store.Get(userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", apperrors.ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("[GetAccessToken] failed to load credential: %w", err)
	}

	now := m.nowTime()
	if !cred.Expired(now) {
		return cred.AccessToken, nil
	}
	if !cred.CanRefresh() {
		log.Warn().Str("user_id", userID).Msg("access token expired and no refresh token stored")
		return "", apperrors.ErrReauthRequired
	}

	tok, err := m.refresh(ctx, cred)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("access token refresh failed")
		return "", fmt.Errorf("%w: %w", apperrors.ErrReauthRequired, err)
	}

	cred.AccessToken = tok.AccessToken
	cred.Expiry = tok.Expiry
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	if err := m.store.Put(*cred); err != nil {
		return "", fmt.Errorf("[GetAccessToken] failed to store refreshed credential: %w", err)
	}
	if err := credentials.Persist(m.store); err != nil {
		log.Error().Err(err).Msg("failed to persist refreshed credential")
	}

	log.Info().Str("user_id", userID).Msg("access token refreshed")
	return cred.AccessToken, nil
}

// refresh trades the stored refresh token for a new access token at the
// token endpoint recorded with the credential.
func (m *Manager) refresh(ctx context.Context, cred *credentials.UserCredential) (*oauth2.Token, error) {
	endpoint := m.endpoint
	if cred.TokenURI != "" {
		endpoint.TokenURL = cred.TokenURI
	}
	oc := &oauth2.Config{
		ClientID:     cred.ClientID,
		ClientSecret: cred.ClientSecret,
		Scopes:       cred.Scopes,
		Endpoint:     endpoint,
	}

	refreshCtx, cancel := m.upstreamContext(ctx)
	defer cancel()

	// No access token on the seed token forces the source to hit the endpoint.
	return oc.TokenSource(refreshCtx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
}

// Revoke forgets the credential locally. Consent granted at the provider is
// not withdrawn.
func (m *Manager) Revoke(userID string) (bool, error) {
	unlock := m.locks.Lock("user:" + userID)
	defer unlock()

	deleted, err := m.store.Delete(userID)
	if err != nil {
		return false, fmt.Errorf("[Revoke] failed to delete credential: %w", err)
	}
	if deleted {
		log.Info().Str("user_id", userID).Msg("access revoked")
	}
	return deleted, nil
}

// IsAuthenticated reports whether GetAccessToken would succeed. It may
// refresh and persist a new access token as a side effect.
func (m *Manager) IsAuthenticated(ctx context.Context, userID string) bool {
	_, err := m.GetAccessToken(ctx, userID)
	return err == nil
}

// Persist flushes the credential store to durable storage.
func (m *Manager) Persist() error {
	return credentials.Persist(m.store)
}

// SweepStates drops expired state entries and returns how many were removed.
func (m *Manager) SweepStates() int {
	return m.states.DeleteExpired(m.nowTime())
}

func generateState() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
