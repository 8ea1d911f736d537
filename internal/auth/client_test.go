package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/atlaspest/salesbridge/internal/auth"
)

type fakeStore struct {
	mu    sync.Mutex
	creds map[string]*auth.Credential
	saved []string
}

func (s *fakeStore) Find(ctx context.Context, principal string) (*auth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[principal]
	if !ok {
		return nil, auth.ErrUnknownPrincipal
	}
	c := *cred
	return &c, nil
}

func (s *fakeStore) Exists(ctx context.Context, principal string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.creds[principal]
	return ok, nil
}

func (s *fakeStore) SaveAccessToken(ctx context.Context, principal, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[principal].AccessToken = token
	s.saved = append(s.saved, token)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTokenServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("token endpoint form parse: %v", err)
		}
		if got := r.Form.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", got)
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh"}`))
	}))
}

func storeWith(tokenURL, accessToken string) *fakeStore {
	return &fakeStore{
		creds: map[string]*auth.Credential{
			"zoho": {
				Principal:    "zoho",
				AccessToken:  accessToken,
				RefreshToken: "refresh-secret",
				TokenURL:     tokenURL,
				ClientID:     "client",
				ClientSecret: "secret",
			},
		},
	}
}

func TestDoAttachesScheme(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Zoho-oauthtoken valid" {
			t.Errorf("Authorization = %q, want %q", got, "Zoho-oauthtoken valid")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	client := auth.NewClient(storeWith("", "valid"), "Zoho-oauthtoken", discardLogger())

	req, _ := http.NewRequest(http.MethodGet, api.URL, nil)
	resp, err := client.Do(context.Background(), "zoho", req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
}

func TestDoRefreshesOnUnauthorized(t *testing.T) {
	var tokenCalls atomic.Int64
	tokens := newTokenServer(t, &tokenCalls)
	defer tokens.Close()

	var apiCalls atomic.Int64
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	store := storeWith(tokens.URL, "stale")
	client := auth.NewClient(store, "Bearer", discardLogger())

	req, _ := http.NewRequest(http.MethodGet, api.URL, nil)
	resp, err := client.Do(context.Background(), "zoho", req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if got := apiCalls.Load(); got != 2 {
		t.Errorf("api calls = %d, want 2", got)
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint calls = %d, want 1", got)
	}
	if len(store.saved) != 1 || store.saved[0] != "fresh" {
		t.Errorf("persisted tokens = %v, want [fresh]", store.saved)
	}
}

func TestDoRetriesExactlyOnce(t *testing.T) {
	var tokenCalls atomic.Int64
	tokens := newTokenServer(t, &tokenCalls)
	defer tokens.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer api.Close()

	client := auth.NewClient(storeWith(tokens.URL, "stale"), "Bearer", discardLogger())

	req, _ := http.NewRequest(http.MethodGet, api.URL, nil)
	_, err := client.Do(context.Background(), "zoho", req)
	if !errors.Is(err, auth.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint calls = %d, want 1", got)
	}
}

func TestDoRewindsBodyOnRetry(t *testing.T) {
	var tokenCalls atomic.Int64
	tokens := newTokenServer(t, &tokenCalls)
	defer tokens.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"stage":"Sold"}` {
			t.Errorf("retried body = %q", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	client := auth.NewClient(storeWith(tokens.URL, "stale"), "Bearer", discardLogger())

	req, _ := http.NewRequest(http.MethodPut, api.URL, strings.NewReader(`{"stage":"Sold"}`))
	resp, err := client.Do(context.Background(), "zoho", req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
}

func TestDoConcurrentRefreshSingleFlight(t *testing.T) {
	var tokenCalls atomic.Int64
	tokens := newTokenServer(t, &tokenCalls)
	defer tokens.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	client := auth.NewClient(storeWith(tokens.URL, "stale"), "Bearer", discardLogger())

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodGet, api.URL, nil)
			resp, err := client.Do(context.Background(), "zoho", req)
			if err == nil {
				resp.Body.Close()
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("call %d: %v", i, err)
		}
	}
	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint calls = %d, want 1", got)
	}
}

func TestDoEagerRefreshWithoutAccessToken(t *testing.T) {
	var tokenCalls atomic.Int64
	tokens := newTokenServer(t, &tokenCalls)
	defer tokens.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	client := auth.NewClient(storeWith(tokens.URL, ""), "Bearer", discardLogger())

	req, _ := http.NewRequest(http.MethodGet, api.URL, nil)
	resp, err := client.Do(context.Background(), "zoho", req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	if got := tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint calls = %d, want 1", got)
	}
}

func TestDoUpstreamError(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("backend down"))
	}))
	defer api.Close()

	client := auth.NewClient(storeWith("", "valid"), "Bearer", discardLogger())

	req, _ := http.NewRequest(http.MethodGet, api.URL, nil)
	_, err := client.Do(context.Background(), "zoho", req)
	if !auth.IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("err = %v, want upstream 502", err)
	}

	var ue *auth.UpstreamError
	if !errors.As(err, &ue) || ue.Body != "backend down" {
		t.Errorf("upstream body = %+v, want backend down", err)
	}
}

func TestResolvePrincipal(t *testing.T) {
	store := storeWith("", "valid")
	client := auth.NewClient(store, "Bearer", discardLogger())

	ctx := context.Background()
	if got := client.ResolvePrincipal(ctx, "zoho", "fallback"); got != "zoho" {
		t.Errorf("ResolvePrincipal = %q, want zoho", got)
	}
	if got := client.ResolvePrincipal(ctx, "esign:rep@atlaspest.com", "esign"); got != "esign" {
		t.Errorf("ResolvePrincipal = %q, want esign", got)
	}
}
