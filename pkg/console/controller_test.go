package console

import (
	"context"
	"testing"

	"github.com/permitscope/permitscope/pkg/directory"
	"github.com/permitscope/permitscope/pkg/errors"
)

// fakeFetcher serves canned matrices and records how often it was hit.
type fakeFetcher struct {
	pages     directory.RawPageMatrix
	user      directory.RawUserMatrix
	pagesErr  error
	userErr   error
	pageCalls int
	userCalls int
}

func (f *fakeFetcher) PageMatrix(ctx context.Context) (directory.RawPageMatrix, error) {
	f.pageCalls++
	return f.pages, f.pagesErr
}

func (f *fakeFetcher) UserMatrix(ctx context.Context, userID string) (directory.RawUserMatrix, error) {
	f.userCalls++
	return f.user, f.userErr
}

func pagesMatrix() directory.RawPageMatrix {
	return directory.RawPageMatrix{Pages: []directory.RawPage{
		{ID: "1", Key: "admin", Label: "Admin", Route: "/admin"},
		{ID: "2", Key: "users", Label: "Users", Route: "/admin/users",
			Actions: []directory.RawAction{{Label: "Create user", Action: "create"}}},
	}}
}

func TestLoadPagesReady(t *testing.T) {
	c := New(&fakeFetcher{pages: pagesMatrix()}, nil)

	if err := c.Load(context.Background(), Selection{Kind: SelectPages}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Phase() != PhaseReady {
		t.Fatalf("phase = %q, want %q", c.Phase(), PhaseReady)
	}
	// Hierarchy collapses the two routes into one root; only roots are
	// visible while everything is collapsed.
	g := c.Graph()
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "page:1" {
		t.Fatalf("collapsed graph = %v", g.Nodes)
	}
}

func TestApplyDiscardsStaleGeneration(t *testing.T) {
	f := &fakeFetcher{pages: pagesMatrix()}
	c := New(f, nil)

	pagesSel := Selection{Kind: SelectPages}
	old := c.Select(pagesSel)
	stale := c.Fetch(context.Background(), old, pagesSel)

	// A newer selection supersedes the in-flight fetch.
	userSel := Selection{Kind: SelectUser, UserID: "u1"}
	fresh := c.Select(userSel)

	if c.Apply(stale) {
		t.Error("stale snapshot must be discarded")
	}
	if c.Phase() != PhaseLoading {
		t.Errorf("phase = %q, want still %q", c.Phase(), PhaseLoading)
	}
	if !c.Apply(c.Fetch(context.Background(), fresh, userSel)) {
		t.Error("current-generation snapshot must apply")
	}
}

func TestToggleRebuildsWithoutRefetch(t *testing.T) {
	f := &fakeFetcher{pages: pagesMatrix()}
	c := New(f, nil)
	if err := c.Load(context.Background(), Selection{Kind: SelectPages}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.Toggle("page:1")
	if !c.Expanded("page:1") {
		t.Error("toggle should mark the node expanded")
	}
	if len(c.Graph().Nodes) != 2 {
		t.Errorf("expanded root should reveal its child: %d nodes", len(c.Graph().Nodes))
	}

	c.Toggle("page:1")
	if c.Expanded("page:1") {
		t.Error("second toggle should collapse again")
	}
	if f.pageCalls != 1 {
		t.Errorf("toggles must not re-fetch: %d calls", f.pageCalls)
	}
}

func TestSearchHighlights(t *testing.T) {
	c := New(&fakeFetcher{pages: pagesMatrix()}, nil)
	if err := c.Load(context.Background(), Selection{Kind: SelectPages}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Toggle("page:1")
	c.Toggle("page:2")

	c.Search("create user")
	var highlighted int
	for _, n := range c.Graph().Nodes {
		if n.Highlight {
			highlighted++
		}
	}
	// Action plus both ancestors.
	if highlighted != 3 {
		t.Errorf("highlighted = %d, want 3", highlighted)
	}

	c.Search("")
	for _, n := range c.Graph().Nodes {
		if n.Highlight {
			t.Errorf("node %s still highlighted after clearing query", n.ID)
		}
	}
	if c.Query() != "" {
		t.Errorf("query = %q, want empty", c.Query())
	}
}

func TestFocusPageNotFound(t *testing.T) {
	c := New(&fakeFetcher{pages: pagesMatrix()}, nil)
	if err := c.Load(context.Background(), Selection{Kind: SelectPages}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.FocusPage("missing")
	if c.Phase() != PhaseNotFound {
		t.Fatalf("phase = %q, want %q", c.Phase(), PhaseNotFound)
	}
	if !errors.Is(c.Err(), errors.ErrCodePageNotFound) {
		t.Errorf("err = %v, want PAGE_NOT_FOUND", c.Err())
	}
}

func TestFocusPageExpandsPath(t *testing.T) {
	c := New(&fakeFetcher{pages: pagesMatrix()}, nil)
	if err := c.Load(context.Background(), Selection{Kind: SelectPages}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	c.FocusPage("2")
	if c.Phase() != PhaseReady {
		t.Fatalf("phase = %q, want %q", c.Phase(), PhaseReady)
	}
	// The drill-down is materialized into the expanded set so later toggles
	// behave normally.
	if !c.Expanded("page:1") || !c.Expanded("page:2") {
		t.Error("focus path should be materialized as expanded")
	}

	c.Toggle("page:2")
	if c.Expanded("page:2") {
		t.Error("toggle after focus should collapse normally")
	}
}

func TestApplyForbiddenEntersAccessDenied(t *testing.T) {
	f := &fakeFetcher{userErr: errors.New(errors.ErrCodeForbidden, "access denied")}
	c := New(f, nil)

	err := c.Load(context.Background(), Selection{Kind: SelectUser, UserID: "u1"})
	if !errors.Is(err, errors.ErrCodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
	if c.Phase() != PhaseAccessDenied {
		t.Errorf("phase = %q, want %q", c.Phase(), PhaseAccessDenied)
	}
	if len(c.Graph().Nodes) != 0 {
		t.Error("failed fetch must not leave partial graph state")
	}
}

func TestApplyErrorResetsGraph(t *testing.T) {
	f := &fakeFetcher{pages: pagesMatrix()}
	c := New(f, nil)
	if err := c.Load(context.Background(), Selection{Kind: SelectPages}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Graph().Nodes) == 0 {
		t.Fatal("expected a graph before the failure")
	}

	f.pagesErr = errors.New(errors.ErrCodeNetwork, "connection refused")
	err := c.Load(context.Background(), Selection{Kind: SelectPages})
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Fatalf("err = %v, want NETWORK_ERROR", err)
	}
	if c.Phase() != PhaseError {
		t.Errorf("phase = %q, want %q", c.Phase(), PhaseError)
	}
	if len(c.Graph().Nodes) != 0 {
		t.Error("graph should reset to empty on error")
	}
}

func TestSelectResetsInteractionState(t *testing.T) {
	c := New(&fakeFetcher{pages: pagesMatrix()}, nil)
	if err := c.Load(context.Background(), Selection{Kind: SelectPages}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c.Toggle("page:1")
	c.Search("users")

	sel := Selection{Kind: SelectPages}
	gen := c.Select(sel)
	if c.Expanded("page:1") {
		t.Error("new selection should reset the expanded set")
	}
	if c.Query() != "" {
		t.Error("new selection should reset the query")
	}
	if c.Phase() != PhaseLoading {
		t.Errorf("phase = %q, want %q", c.Phase(), PhaseLoading)
	}
	if !c.Apply(c.Fetch(context.Background(), gen, sel)) {
		t.Error("fresh fetch should apply")
	}
}

func TestSelectPageIDNotInSnapshot(t *testing.T) {
	c := New(&fakeFetcher{pages: pagesMatrix()}, nil)

	err := c.Load(context.Background(), Selection{Kind: SelectPages, PageID: "missing"})
	if !errors.Is(err, errors.ErrCodePageNotFound) {
		t.Fatalf("err = %v, want PAGE_NOT_FOUND", err)
	}
	if c.Phase() != PhaseNotFound {
		t.Errorf("phase = %q, want %q", c.Phase(), PhaseNotFound)
	}
}

func TestFetchUsesCapturedSelection(t *testing.T) {
	f := &fakeFetcher{pages: pagesMatrix(), user: directory.RawUserMatrix{ID: "u1"}}
	c := New(f, nil)

	userSel := Selection{Kind: SelectUser, UserID: "u1"}
	gen := c.Select(userSel)

	// The event loop switches selections while the first fetch is still in
	// flight. The fetch must act on the selection it was started with, not
	// on whatever the controller holds by then.
	c.Select(Selection{Kind: SelectPages})

	snap := c.Fetch(context.Background(), gen, userSel)
	if f.userCalls != 1 || f.pageCalls != 0 {
		t.Errorf("calls = %d user, %d pages; want the captured selection fetched",
			f.userCalls, f.pageCalls)
	}
	if c.Apply(snap) {
		t.Error("superseded snapshot must be discarded")
	}
}

func TestSelectPageIDEmptySnapshot(t *testing.T) {
	// Zero pages in the directory. A page id is still "not in the current
	// snapshot" and must not land in a ready state with an empty graph.
	c := New(&fakeFetcher{}, nil)

	err := c.Load(context.Background(), Selection{Kind: SelectPages, PageID: "1"})
	if !errors.Is(err, errors.ErrCodePageNotFound) {
		t.Fatalf("err = %v, want PAGE_NOT_FOUND", err)
	}
	if c.Phase() != PhaseNotFound {
		t.Errorf("phase = %q, want %q", c.Phase(), PhaseNotFound)
	}
}

func TestLoadUser(t *testing.T) {
	f := &fakeFetcher{user: directory.RawUserMatrix{
		ID:       "u1",
		Username: "jdoe",
		Roles:    []directory.RawRole{{Name: "admin"}},
	}}
	c := New(f, nil)

	if err := c.Load(context.Background(), Selection{Kind: SelectUser, UserID: "u1"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	g := c.Graph()
	if len(g.Nodes) != 1 || g.Nodes[0].ID != "user:u1" {
		t.Fatalf("collapsed user graph = %v", g.Nodes)
	}
	if f.userCalls != 1 {
		t.Errorf("user fetches = %d, want 1", f.userCalls)
	}
}
