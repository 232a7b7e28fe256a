// Package storeclient is an HTTP client for the storefront API that keeps a
// cookie session alive: a 401 triggers one shared refresh of the access
// token and the failed request is replayed once.
package storeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	DefaultRefreshTimeout = 10 * time.Second

	refreshPath = "/api/auth/refresh-token"
	logoutPath  = "/api/auth/logout"
	signinPath  = "/api/auth/signin"
	signupPath  = "/api/auth/signup"
)

var ErrNoReplay = errors.New("storeclient: request body cannot be replayed")

type Options struct {
	// HTTPClient is used as-is when it already has a cookie jar.
	HTTPClient     *http.Client
	RefreshTimeout time.Duration
}

type Client struct {
	baseURL        string
	hc             *http.Client
	refreshTimeout time.Duration

	sf singleflight.Group

	mu sync.Mutex
	// gen counts finished refreshes; lastOK is the outcome of the latest.
	gen    uint64
	lastOK bool
	user   *User
}

func New(baseURL string, opts Options) (*Client, error) {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("storeclient: cookie jar: %w", err)
		}
		cp := *hc
		cp.Jar = jar
		hc = &cp
	}
	timeout := opts.RefreshTimeout
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		hc:             hc,
		refreshTimeout: timeout,
	}, nil
}

// User returns the locally mirrored user, nil when signed out.
func (c *Client) User() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Client) setUser(u *User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

func (c *Client) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Do sends req. A 401 on a request that is not itself part of the session
// endpoints waits for a shared refresh and replays req exactly once. When
// the refresh fails the local user is cleared and the first 401 is
// returned as an *APIError. req itself is never sent: the jar writes its
// cookies into the request it is given, so each attempt goes out as a clone
// and the replay picks up the renewed cookie alone.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	sentGen := c.generation()

	resp, err := c.hc.Do(req.Clone(req.Context()))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !refreshable(req) {
		return resp, nil
	}

	denied := newAPIError(resp)

	if !c.awaitRefresh(req.Context(), sentGen) {
		return nil, denied
	}

	replay, err := cloneForReplay(req)
	if err != nil {
		return nil, errors.Join(denied, err)
	}
	return c.hc.Do(replay)
}

// awaitRefresh reports whether the session was renewed. A refresh that
// finished after the request was sent is reused instead of starting another.
// The generation check and joining the flight happen under one lock so a
// late 401 cannot start a second refresh for the same expiry.
func (c *Client) awaitRefresh(ctx context.Context, sentGen uint64) bool {
	c.mu.Lock()
	if c.gen != sentGen {
		ok := c.lastOK
		c.mu.Unlock()
		return ok
	}
	ch := c.sf.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		err := c.refresh(rctx)
		if err != nil {
			logging.FromContext(ctx).Warn("session_refresh_failed", "error", err)
			c.bestEffortLogout(rctx)
		}

		c.mu.Lock()
		c.gen++
		c.lastOK = err == nil
		if err != nil {
			c.user = nil
		}
		c.mu.Unlock()
		return nil, err
	})
	c.mu.Unlock()

	select {
	case res := <-ch:
		return res.Err == nil
	case <-ctx.Done():
		return false
	}
}

func (c *Client) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return newAPIError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// bestEffortLogout asks the server to drop the cookies of a dead session.
func (c *Client) bestEffortLogout(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+logoutPath, nil)
	if err != nil {
		return
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func refreshable(req *http.Request) bool {
	switch req.URL.Path {
	case refreshPath, logoutPath, signinPath, signupPath:
		return false
	}
	return true
}

func cloneForReplay(req *http.Request) (*http.Request, error) {
	replay := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return replay, nil
	}
	if req.GetBody == nil {
		return nil, ErrNoReplay
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReplay, err)
	}
	replay.Body = body
	return replay, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("storeclient: encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("storeclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("storeclient: decode response: %w", err)
	}
	return nil
}
