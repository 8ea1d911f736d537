package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Client issues HTTP requests on behalf of principals, attaching the
// principal's access token and transparently refreshing it on a 401.
//
// The refresh lock is per principal and held only around the
// refresh-and-store operation, never around the outer API call, so
// unrelated traffic is not serialized. Each refresh bumps a generation
// counter; a caller whose 401 raced another caller's refresh reuses the
// new token instead of hitting the token endpoint again.
type Client struct {
	http   *http.Client
	store  Store
	scheme string
	logger *slog.Logger

	mu     sync.Mutex
	states map[string]*principalState
}

type principalState struct {
	mu    sync.Mutex
	token string
	gen   uint64
}

// NewClient creates a Client over the given credential store. scheme is the
// Authorization scheme ("Bearer", "Zoho-oauthtoken", ...).
func NewClient(store Store, scheme string, logger *slog.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 60 * time.Second},
		store:  store,
		scheme: scheme,
		logger: logger.With("system", "auth"),
		states: make(map[string]*principalState),
	}
}

// ResolvePrincipal returns key if a credential exists for it, otherwise
// fallback. Sales-rep scoped calls use this to fall back to the default
// service principal when the rep has no provisioned identity.
func (c *Client) ResolvePrincipal(ctx context.Context, key, fallback string) string {
	ok, err := c.store.Exists(ctx, key)
	if err != nil || !ok {
		return fallback
	}
	return key
}

// Do issues req on behalf of principal. On a 401 it refreshes the
// principal's access token and retries the original request exactly once;
// a second 401 is surfaced as ErrAuthFailed. Transport errors pass through
// untouched. Non-2xx, non-401 responses are drained and returned as
// *UpstreamError. The request must have GetBody set if it carries a body
// (http.NewRequest does this for common body types).
func (c *Client) Do(ctx context.Context, principal string, req *http.Request) (*http.Response, error) {
	token, gen, err := c.token(ctx, principal)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp)

		token, err = c.refresh(ctx, principal, gen)
		if err != nil {
			return nil, err
		}

		retry, err := rewind(ctx, req)
		if err != nil {
			return nil, err
		}

		resp, err = c.send(ctx, retry, token)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			drain(resp)
			return nil, fmt.Errorf("%w: principal %s rejected after refresh", ErrAuthFailed, principal)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		resp.Body.Close()
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, req *http.Request, token string) (*http.Response, error) {
	r := req.Clone(ctx)
	r.Header.Set("Authorization", c.scheme+" "+token)
	return c.http.Do(r)
}

// token returns the principal's current access token and the refresh
// generation it was read at. An empty stored token forces an eager refresh
// (fresh deployments have refresh material but no access token yet).
func (c *Client) token(ctx context.Context, principal string) (string, uint64, error) {
	state := c.state(principal)

	state.mu.Lock()
	if state.token != "" {
		token, gen := state.token, state.gen
		state.mu.Unlock()
		return token, gen, nil
	}
	state.mu.Unlock()

	cred, err := c.store.Find(ctx, principal)
	if err != nil {
		return "", 0, err
	}

	if cred.AccessToken == "" {
		token, err := c.refresh(ctx, principal, 0)
		if err != nil {
			return "", 0, err
		}
		state.mu.Lock()
		gen := state.gen
		state.mu.Unlock()
		return token, gen, nil
	}

	state.mu.Lock()
	state.token = cred.AccessToken
	token, gen := state.token, state.gen
	state.mu.Unlock()
	return token, gen, nil
}

// refresh exchanges the refresh secret for a new access token and persists
// it. If another caller already refreshed after generation readGen, the
// newer token is reused without calling the token endpoint.
func (c *Client) refresh(ctx context.Context, principal string, readGen uint64) (string, error) {
	state := c.state(principal)

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.gen > readGen && state.token != "" {
		return state.token, nil
	}

	cred, err := c.store.Find(ctx, principal)
	if err != nil {
		return "", err
	}

	token, err := c.requestToken(ctx, cred)
	if err != nil {
		return "", fmt.Errorf("%w: refresh for principal %s: %v", ErrAuthFailed, principal, err)
	}

	if err := c.store.SaveAccessToken(ctx, principal, token); err != nil {
		return "", err
	}

	state.token = token
	state.gen++
	return token, nil
}

func (c *Client) requestToken(ctx context.Context, cred *Credential) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {cred.RefreshToken},
	}
	if cred.ClientID != "" {
		form.Set("client_id", cred.ClientID)
		form.Set("client_secret", cred.ClientSecret)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, cred.TokenURL,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return "", fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}

	return payload.AccessToken, nil
}

func (c *Client) state(principal string) *principalState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.states[principal]
	if !ok {
		state = &principalState{}
		c.states[principal] = state
	}
	return state
}

func rewind(ctx context.Context, req *http.Request) (*http.Request, error) {
	retry := req.Clone(ctx)
	if req.Body == nil || req.GetBody == nil {
		return retry, nil
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("rewind request body: %w", err)
	}
	retry.Body = body
	return retry, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	resp.Body.Close()
}
