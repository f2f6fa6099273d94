package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the user described by the access token claims.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session owns the access/refresh token pair and the identity derived from
// it. All state transitions go through Login, Logout, RefreshAccessToken and
// Init; consumers only read the derived accessors. The zero session is not
// usable, construct with NewSession.
type Session struct {
	baseURL    string
	store      CredentialStore
	httpClient *http.Client

	// refreshMu serializes token refresh; late arrivals for the same expiry
	// event block here and then observe the already-renewed token.
	refreshMu sync.Mutex

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	user         *Identity
	expiresAt    time.Time
	loading      bool
}

func NewSession(baseURL string, store CredentialStore, httpClient *http.Client) *Session {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Session{
		baseURL:    baseURL,
		store:      store,
		httpClient: httpClient,
		loading:    true,
	}
}

// Init rehydrates the session from the credential store. A stored access
// token that still decodes with a future expiry is adopted directly; an
// expired or corrupt one with a stored refresh token triggers exactly one
// refresh attempt. Any failure leaves the session cleanly unauthenticated.
// IsLoading reports true until Init returns; dependents must wait for it
// before fetching.
func (s *Session) Init(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	access, refresh, err := s.store.Load()
	if err != nil {
		return err
	}
	if access == "" && refresh == "" {
		return nil
	}

	if user, expiresAt, err := decodeIdentity(access); err == nil && expiresAt.After(time.Now()) {
		s.adopt(access, refresh, user, expiresAt)
		return nil
	}

	// Expired or undecodable access token: a corrupt token is treated the
	// same as an absent one.
	if refresh == "" {
		s.Logout()
		return nil
	}
	return s.doRefresh(ctx)
}

// Login adopts a freshly issued token pair. The identity comes from userData
// when the caller already has it (the login response carries one) and from
// decoding the access token otherwise. No network call is made.
func (s *Session) Login(accessToken, refreshToken string, userData *Identity) error {
	if err := s.store.Save(accessToken, refreshToken); err != nil {
		return err
	}
	user, expiresAt, err := decodeIdentity(accessToken)
	if err != nil {
		// Undecodable token: keep the pair stored but expose no identity.
		user, expiresAt = nil, time.Time{}
	}
	if userData != nil {
		copied := *userData
		user = &copied
	}
	s.adopt(accessToken, refreshToken, user, expiresAt)
	return nil
}

// Logout clears both tokens and the identity from memory and durable
// storage. Safe to call repeatedly and when already logged out.
func (s *Session) Logout() {
	_ = s.store.Clear()
	s.mu.Lock()
	s.accessToken = ""
	s.refreshToken = ""
	s.user = nil
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token. On any failure (no refresh token, transport error, rejection) the
// session is logged out and an error returned.
func (s *Session) RefreshAccessToken(ctx context.Context) error {
	return s.refreshIfStale(ctx, s.AccessToken())
}

// refreshIfStale refreshes only if staleToken is still the current access
// token. When two callers race on one 401, the second blocks on refreshMu
// and then finds the token already renewed; it must not refresh again, and
// above all must not turn one expiry event into two logouts.
func (s *Session) refreshIfStale(ctx context.Context, staleToken string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if current := s.AccessToken(); current != "" && current != staleToken {
		return nil
	}
	return s.doRefresh(ctx)
}

func (s *Session) doRefresh(ctx context.Context) error {
	_, refresh, err := s.store.Load()
	if err != nil || refresh == "" {
		s.Logout()
		return fmt.Errorf("no refresh token available")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/refresh", nil)
	if err != nil {
		s.Logout()
		return err
	}
	req.Header.Set("Authorization", "Bearer "+refresh)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.Logout()
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.Logout()
		return fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.AccessToken == "" {
		s.Logout()
		return fmt.Errorf("malformed refresh response")
	}

	if err := s.store.Save(payload.AccessToken, refresh); err != nil {
		s.Logout()
		return err
	}
	user, expiresAt, err := decodeIdentity(payload.AccessToken)
	if err != nil {
		user, expiresAt = nil, time.Time{}
	}
	s.adopt(payload.AccessToken, refresh, user, expiresAt)
	return nil
}

func (s *Session) adopt(accessToken, refreshToken string, user *Identity, expiresAt time.Time) {
	s.mu.Lock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	s.user = user
	s.expiresAt = expiresAt
	s.mu.Unlock()
}

func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

func (s *Session) currentRefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshToken
}

// User returns a copy of the decoded identity, or nil when unauthenticated.
func (s *Session) User() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

// IsAuthenticated reports whether a non-expired access token is held.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken != "" && s.expiresAt.After(time.Now())
}

func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// decodeIdentity extracts sub/username/role/exp from the token payload. The
// signature is not verified here: the client has no key material, and a
// forged token buys nothing since the server re-validates every request.
func decodeIdentity(tokenString string) (*Identity, time.Time, error) {
	if tokenString == "" {
		return nil, time.Time{}, fmt.Errorf("empty token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, time.Time{}, err
	}

	user := &Identity{}
	if sub, err := claims.GetSubject(); err == nil {
		user.ID = sub
	}
	if username, ok := claims["username"].(string); ok {
		user.Username = username
	}
	if role, ok := claims["role"].(string); ok {
		user.Role = role
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return nil, time.Time{}, fmt.Errorf("token has no expiry claim")
	}
	return user, expiry.Time, nil
}
