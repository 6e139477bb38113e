package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/permitscope/permitscope/pkg/cache"
	"github.com/permitscope/permitscope/pkg/errors"
)

func TestPageMatrixDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/access/pages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pages":[{"id":"1","key":"admin","route":"/admin"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	matrix, err := c.PageMatrix(context.Background())
	if err != nil {
		t.Fatalf("PageMatrix: %v", err)
	}
	if len(matrix.Pages) != 1 || matrix.Pages[0].Route != "/admin" {
		t.Errorf("matrix = %+v", matrix)
	}
}

func TestUsersDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/users" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`[{"id":7,"username":"jdoe"}]`))
	}))
	defer srv.Close()

	users, err := NewClient(srv.URL).Users(context.Background())
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if len(users) != 1 || users[0].Username != "jdoe" {
		t.Errorf("users = %+v", users)
	}
}

func TestUserMatrixEscapesID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"id":"a/b","username":"odd"}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).UserMatrix(context.Background(), "a/b"); err != nil {
		t.Fatalf("UserMatrix: %v", err)
	}
	if gotPath != "/api/v1/access/users/a%2Fb" {
		t.Errorf("path = %q, want escaped user id", gotPath)
	}
}

func TestForbiddenIsPermanent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).PageMatrix(context.Background())
	if !errors.Is(err, errors.ErrCodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
	if calls != 1 {
		t.Errorf("403 must not be retried: %d calls", calls)
	}
}

func TestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).UserMatrix(context.Background(), "ghost")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestUnauthorized(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Users(context.Background())
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("err = %v, want UNAUTHORIZED", err)
	}
	if calls != 1 {
		t.Errorf("401 must not be retried: %d calls", calls)
	}
}

func TestServerErrorIsRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"pages":[]}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).PageMatrix(context.Background()); err != nil {
		t.Fatalf("PageMatrix after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("5xx should be retried once here: %d calls", calls)
	}
}

func TestUnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	// Cancel during the retry backoff so the test does not sit out the
	// full exponential delay.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL).PageMatrix(ctx)
	if err == nil {
		t.Fatal("expected an error from an unreachable directory")
	}
}

func TestResponseCacheServesRepeatFetch(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[{"id":"u1","username":"jdoe"}]`))
	}))
	defer srv.Close()

	store, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	c := NewClient(srv.URL, WithCache(store, time.Minute))

	for i := 0; i < 2; i++ {
		users, err := c.Users(context.Background())
		if err != nil {
			t.Fatalf("Users #%d: %v", i+1, err)
		}
		if len(users) != 1 || users[0].Username != "jdoe" {
			t.Fatalf("users #%d = %+v", i+1, users)
		}
	}
	if calls != 1 {
		t.Errorf("server calls = %d, want the second fetch served from cache", calls)
	}
}

func TestWithRefreshBypassesResponseCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `[{"id":"u%d","username":"jdoe"}]`, calls)
	}))
	defer srv.Close()

	store, _ := cache.NewFileCache(t.TempDir())
	c := NewClient(srv.URL, WithCache(store, time.Minute))

	if _, err := c.Users(context.Background()); err != nil {
		t.Fatalf("Users: %v", err)
	}
	users, err := c.Users(WithRefresh(context.Background()))
	if err != nil {
		t.Fatalf("Users with refresh: %v", err)
	}
	if calls != 2 {
		t.Fatalf("server calls = %d, want refresh to hit the server", calls)
	}
	if users[0].ID != "u2" {
		t.Errorf("refresh returned %+v, want the live response", users[0])
	}

	// The refreshed body replaces the cached one.
	users, err = c.Users(context.Background())
	if err != nil {
		t.Fatalf("Users after refresh: %v", err)
	}
	if calls != 2 || users[0].ID != "u2" {
		t.Errorf("calls = %d, users = %+v; want the refreshed entry cached", calls, users)
	}
}

func TestResponseCacheScopedByBaseURL(t *testing.T) {
	serve := func(body string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
	}
	srvA := serve(`[{"id":"a","username":"alice"}]`)
	defer srvA.Close()
	srvB := serve(`[{"id":"b","username":"bob"}]`)
	defer srvB.Close()

	store, _ := cache.NewFileCache(t.TempDir())
	a := NewClient(srvA.URL, WithCache(store, time.Minute))
	b := NewClient(srvB.URL, WithCache(store, time.Minute))

	if _, err := a.Users(context.Background()); err != nil {
		t.Fatalf("Users from a: %v", err)
	}
	users, err := b.Users(context.Background())
	if err != nil {
		t.Fatalf("Users from b: %v", err)
	}
	// Same path, different directory: the shared store must not leak a's
	// response to b.
	if len(users) != 1 || users[0].Username != "bob" {
		t.Errorf("users from b = %+v", users)
	}
}

func TestWithHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHeader("Authorization", "Bearer token"))
	if _, err := c.Users(context.Background()); err != nil {
		t.Fatalf("Users: %v", err)
	}
	if got != "Bearer token" {
		t.Errorf("Authorization = %q", got)
	}
}
