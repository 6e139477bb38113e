// Package console owns the interactive state of the access graph: the
// expanded-node set, the search query, and the current selection.
//
// All mutable state lives in a single Controller and is mutated only
// through its methods; the normalizer, hierarchy reconstructor, graph
// builder, and layout adapter are pure functions invoked synchronously on
// every mutation. The Controller itself is single-threaded: callers that
// fetch on a goroutine pass Fetch the generation and selection captured
// from Select, so the fetch never reads controller fields, and hand the
// result back through Apply, which discards stale responses with a
// generation guard so a superseded fetch can never overwrite fresher
// state.
package console

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/permitscope/permitscope/pkg/directory"
	"github.com/permitscope/permitscope/pkg/errors"
	"github.com/permitscope/permitscope/pkg/hierarchy"
	"github.com/permitscope/permitscope/pkg/layout"
	"github.com/permitscope/permitscope/pkg/model"
	"github.com/permitscope/permitscope/pkg/normalize"
	"github.com/permitscope/permitscope/pkg/vizgraph"
)

// Phase is the user-visible display state of the console.
type Phase string

const (
	// PhaseIdle means no selection has been made yet.
	PhaseIdle Phase = "idle"
	// PhaseLoading means a fetch for the current selection is in flight.
	PhaseLoading Phase = "loading"
	// PhaseReady means the graph is built and renderable.
	PhaseReady Phase = "ready"
	// PhaseError means the fetch failed; retryable error banner.
	PhaseError Phase = "error"
	// PhaseAccessDenied is the dedicated 403 state, distinct from PhaseError.
	PhaseAccessDenied Phase = "access-denied"
	// PhaseNotFound means the selection is absent from the authoritative
	// snapshot; reported locally without re-fetching.
	PhaseNotFound Phase = "not-found"
)

// SelectionKind distinguishes the two browsable trees.
type SelectionKind string

const (
	// SelectPages browses the full UI-page access matrix.
	SelectPages SelectionKind = "pages"
	// SelectUser browses one user's access record.
	SelectUser SelectionKind = "user"
)

// Selection identifies what the console is showing. For SelectUser, UserID
// names the record to fetch; for SelectPages, PageID optionally focuses one
// page for the drill-down view.
type Selection struct {
	Kind   SelectionKind
	UserID string
	PageID string
}

// Fetcher is the read surface of the directory client consumed by the
// controller. *directory.Client satisfies it.
type Fetcher interface {
	PageMatrix(ctx context.Context) (directory.RawPageMatrix, error)
	UserMatrix(ctx context.Context, userID string) (directory.RawUserMatrix, error)
}

// Snapshot is one fetch's normalized result, tagged with the generation of
// the selection that requested it.
type Snapshot struct {
	Generation uint64
	Pages      []*model.PageNode
	User       *model.UserAccessRecord
	Err        error
}

// Controller orchestrates fetch → normalize → hierarchy → build → layout
// and owns all interactive state. Not safe for concurrent use; confine it
// to one goroutine (the event loop).
type Controller struct {
	fetcher   Fetcher
	logger    *log.Logger
	direction layout.Direction

	generation uint64
	selection  Selection
	expanded   map[string]bool
	query      string
	focus      string // pending drill-down focus for the next build

	pages []*model.PageNode
	user  *model.UserAccessRecord

	phase Phase
	err   error
	graph vizgraph.Graph
}

// New creates a controller. logger may be nil.
func New(fetcher Fetcher, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		fetcher:   fetcher,
		logger:    logger,
		direction: layout.DirectionVertical,
		expanded:  map[string]bool{},
		phase:     PhaseIdle,
	}
}

// Select switches to a new selection. The expanded set and query are
// reset, the phase becomes loading, and the returned generation must be
// passed to Fetch together with sel itself; results from older generations
// are discarded by Apply.
func (c *Controller) Select(sel Selection) uint64 {
	c.generation++
	c.selection = sel
	c.expanded = map[string]bool{}
	c.query = ""
	c.focus = ""
	c.pages = nil
	c.user = nil
	c.graph = vizgraph.Graph{}
	c.err = nil
	c.phase = PhaseLoading
	if sel.Kind == SelectPages && sel.PageID != "" {
		c.focus = "page:" + sel.PageID
	}
	return c.generation
}

// Fetch performs the fetch for sel and tags the snapshot with gen, both as
// returned by Select. It reads no controller state, so it is safe to run
// on a separate goroutine while the event loop keeps mutating the
// controller; pass the result to Apply on the controller's goroutine.
func (c *Controller) Fetch(ctx context.Context, gen uint64, sel Selection) Snapshot {
	switch sel.Kind {
	case SelectUser:
		raw, err := c.fetcher.UserMatrix(ctx, sel.UserID)
		if err != nil {
			return Snapshot{Generation: gen, Err: err}
		}
		return Snapshot{Generation: gen, User: normalize.User(raw)}
	default:
		raw, err := c.fetcher.PageMatrix(ctx)
		if err != nil {
			return Snapshot{Generation: gen, Err: err}
		}
		return Snapshot{Generation: gen, Pages: hierarchy.Build(normalize.Pages(raw.Pages))}
	}
}

// Apply installs a fetched snapshot. Stale snapshots (from superseded
// selections) are discarded and false is returned. On error the
// visualization state resets to empty rather than showing partial data;
// a 403 enters the dedicated access-denied phase.
func (c *Controller) Apply(snap Snapshot) bool {
	if snap.Generation != c.generation {
		c.logger.Debug("discarding stale fetch",
			"generation", snap.Generation, "current", c.generation)
		return false
	}
	if snap.Err != nil {
		c.pages = nil
		c.user = nil
		c.graph = vizgraph.Graph{}
		c.err = snap.Err
		if errors.Is(snap.Err, errors.ErrCodeForbidden) {
			c.phase = PhaseAccessDenied
		} else {
			c.phase = PhaseError
		}
		return true
	}

	c.pages = snap.Pages
	c.user = snap.User
	c.err = nil
	c.phase = PhaseReady

	// An absent page id is a local not-found even against an empty
	// snapshot; the snapshot stays authoritative either way.
	if c.selection.PageID != "" && !pageExists(c.pages, c.selection.PageID) {
		c.err = errors.New(errors.ErrCodePageNotFound,
			"page %s not in the current snapshot", c.selection.PageID)
		c.phase = PhaseNotFound
		c.focus = ""
	}

	c.rebuild()
	return true
}

// Load is the synchronous convenience used by the CLI: Select + Fetch +
// Apply in one call.
func (c *Controller) Load(ctx context.Context, sel Selection) error {
	gen := c.Select(sel)
	c.Apply(c.Fetch(ctx, gen, sel))
	return c.err
}

// Toggle flips the expansion of one node and rebuilds. O(1) set mutation;
// never re-fetches.
func (c *Controller) Toggle(id string) {
	if c.expanded[id] {
		delete(c.expanded, id)
	} else {
		c.expanded[id] = true
	}
	c.rebuild()
}

// Search updates the query and rebuilds with fresh highlights.
func (c *Controller) Search(query string) {
	c.query = query
	c.rebuild()
}

// FocusPage drills down to a page within the current pages snapshot.
// A page id absent from the snapshot is reported as a local not-found
// without triggering a re-fetch; the snapshot stays authoritative.
func (c *Controller) FocusPage(pageID string) {
	if len(c.pages) == 0 {
		return
	}
	if !pageExists(c.pages, pageID) {
		c.err = errors.New(errors.ErrCodePageNotFound,
			"page %s not in the current snapshot", pageID)
		c.phase = PhaseNotFound
		return
	}
	c.err = nil
	c.phase = PhaseReady
	c.selection.PageID = pageID
	c.focus = "page:" + pageID
	c.rebuild()
}

// SetDirection changes the layout direction and re-lays out the current
// build.
func (c *Controller) SetDirection(d layout.Direction) {
	c.direction = d
	c.rebuild()
}

// Graph returns the current laid-out build output.
func (c *Controller) Graph() vizgraph.Graph { return c.graph }

// Phase returns the current display state.
func (c *Controller) Phase() Phase { return c.phase }

// Err returns the current error, if any. Use errors.GetCode to branch on
// the display state (access denied vs. retryable banner vs. not found).
func (c *Controller) Err() error { return c.err }

// Selection returns the current selection.
func (c *Controller) Selection() Selection { return c.selection }

// Query returns the current search query.
func (c *Controller) Query() string { return c.query }

// Expanded reports whether a node id is currently expanded.
func (c *Controller) Expanded(id string) bool { return c.expanded[id] }

// rebuild re-derives the entire visible node/edge list from the canonical
// snapshot and lays it out. It runs synchronously on every state mutation;
// nothing is patched incrementally.
func (c *Controller) rebuild() {
	opts := vizgraph.Options{
		Expanded: c.expanded,
		Query:    c.query,
		Focus:    c.focus,
	}

	var g vizgraph.Graph
	switch {
	case c.user != nil:
		g = vizgraph.BuildUser(c.user, opts)
	case c.pages != nil:
		g = vizgraph.BuildPages(c.pages, opts)
	default:
		c.graph = vizgraph.Graph{}
		return
	}

	// Drill-down force-expansion applies to the first build after a
	// selection only: materialize it into the expanded set so subsequent
	// toggles behave normally.
	if c.focus != "" {
		for _, n := range g.Nodes {
			if n.Expanded {
				c.expanded[n.ID] = true
			}
		}
		c.focus = ""
	}

	c.graph = layout.Assign(g, c.direction)
}

func pageExists(pages []*model.PageNode, id string) bool {
	for _, p := range pages {
		if p == nil {
			continue
		}
		if p.ID == id || pageExists(p.Children, id) {
			return true
		}
	}
	return false
}
