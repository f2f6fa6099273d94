package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mintToken(t *testing.T, sub, username, role string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      sub,
		"username": username,
		"role":     role,
		"exp":      expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign error: %v", err)
	}
	return signed
}

func TestInitAdoptsValidStoredToken(t *testing.T) {
	store := &MemStore{}
	access := mintToken(t, "1", "maria", "professor", time.Now().Add(time.Hour))
	if err := store.Save(access, "refresh-1"); err != nil {
		t.Fatalf("save error: %v", err)
	}

	session := NewSession("http://unused", store, nil)
	if !session.IsLoading() {
		t.Fatalf("expected loading before Init")
	}
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("init error: %v", err)
	}
	if session.IsLoading() {
		t.Fatalf("expected loading cleared after Init")
	}
	if !session.IsAuthenticated() {
		t.Fatalf("expected authenticated session")
	}
	user := session.User()
	if user == nil || user.ID != "1" || user.Username != "maria" || user.Role != "professor" {
		t.Fatalf("unexpected identity: %+v", user)
	}
}

func TestInitRefreshesExpiredTokenOnce(t *testing.T) {
	var refreshCalls int
	newAccess := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refresh" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer refresh-1" {
			t.Fatalf("unexpected refresh credential: %s", r.Header.Get("Authorization"))
		}
		refreshCalls++
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": newAccess})
	}))
	defer server.Close()
	newAccess = mintToken(t, "1", "maria", "professor", time.Now().Add(time.Hour))

	store := &MemStore{}
	expired := mintToken(t, "1", "maria", "professor", time.Now().Add(-time.Minute))
	_ = store.Save(expired, "refresh-1")

	session := NewSession(server.URL, store, nil)
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("init error: %v", err)
	}
	if refreshCalls != 1 {
		t.Fatalf("expected exactly one refresh call, got %d", refreshCalls)
	}
	if !session.IsAuthenticated() {
		t.Fatalf("expected authenticated session after refresh")
	}
	if session.AccessToken() != newAccess {
		t.Fatalf("expected new access token adopted")
	}
}

func TestInitFailedRefreshClearsStorage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_refresh_token"})
	}))
	defer server.Close()

	store := &MemStore{}
	expired := mintToken(t, "1", "maria", "professor", time.Now().Add(-time.Minute))
	_ = store.Save(expired, "refresh-bad")

	session := NewSession(server.URL, store, nil)
	if err := session.Init(context.Background()); err == nil {
		t.Fatalf("expected init to report refresh failure")
	}
	if session.IsAuthenticated() {
		t.Fatalf("expected unauthenticated session")
	}
	access, refresh, _ := store.Load()
	if access != "" || refresh != "" {
		t.Fatalf("expected cleared storage, got %q / %q", access, refresh)
	}
}

func TestInitCorruptTokenTreatedAsAbsent(t *testing.T) {
	store := &MemStore{}
	_ = store.Save("not-a-jwt", "")

	session := NewSession("http://unused", store, nil)
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("corrupt token must not error: %v", err)
	}
	if session.IsAuthenticated() || session.User() != nil {
		t.Fatalf("expected unauthenticated session with no identity")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	store := &MemStore{}
	session := NewSession("http://unused", store, nil)
	access := mintToken(t, "1", "joao", "aluno", time.Now().Add(time.Hour))
	if err := session.Login(access, "refresh-1", nil); err != nil {
		t.Fatalf("login error: %v", err)
	}
	if !session.IsAuthenticated() {
		t.Fatalf("expected authenticated after login")
	}

	session.Logout()
	session.Logout()
	if session.IsAuthenticated() || session.User() != nil {
		t.Fatalf("expected cleared session")
	}
	access, refresh, _ := store.Load()
	if access != "" || refresh != "" {
		t.Fatalf("expected cleared storage")
	}
}

func TestLoginPrefersProvidedUserData(t *testing.T) {
	session := NewSession("http://unused", &MemStore{}, nil)
	access := mintToken(t, "1", "token-name", "aluno", time.Now().Add(time.Hour))
	if err := session.Login(access, "r", &Identity{ID: "1", Username: "given-name", Role: "aluno"}); err != nil {
		t.Fatalf("login error: %v", err)
	}
	if user := session.User(); user == nil || user.Username != "given-name" {
		t.Fatalf("expected provided user data to win, got %+v", user)
	}
}

func TestConcurrentRefreshSingleFlight(t *testing.T) {
	var mu sync.Mutex
	refreshCalls := 0
	newAccess := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		refreshCalls++
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": newAccess})
	}))
	defer server.Close()
	newAccess = mintToken(t, "1", "maria", "professor", time.Now().Add(time.Hour))

	store := &MemStore{}
	stale := mintToken(t, "1", "maria", "professor", time.Now().Add(-time.Minute))
	_ = store.Save(stale, "refresh-1")
	session := NewSession(server.URL, store, nil)
	session.adopt(stale, "refresh-1", &Identity{ID: "1"}, time.Now().Add(-time.Minute))

	// Two call sites observe a 401 for the same expiry event.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := session.refreshIfStale(context.Background(), stale); err != nil {
				t.Errorf("refresh error: %v", err)
			}
		}()
	}
	wg.Wait()

	if refreshCalls != 1 {
		t.Fatalf("expected one refresh call for one expiry event, got %d", refreshCalls)
	}
	if !session.IsAuthenticated() {
		t.Fatalf("expected authenticated session")
	}
}
