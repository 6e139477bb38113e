package vizgraph

import (
	"fmt"
	"strings"

	"github.com/permitscope/permitscope/pkg/model"
)

// Options drives one build pass.
type Options struct {
	// Expanded is the set of node ids whose children/actions are visible.
	Expanded map[string]bool

	// Query is the case-insensitive substring search term. Empty means no
	// highlighting.
	Query string

	// Focus is the id of an explicitly selected node. Every node on the
	// path from the root to the focus is force-expanded regardless of the
	// Expanded set, so the relevant path is always visible on first render.
	Focus string

	// ExpandAll forces every collapsible node open, ignoring Expanded.
	// Used for full static exports.
	ExpandAll bool
}

// BuildPages derives the visible graph for a page forest. It is pure,
// deterministic, and total: malformed input (nil nodes, nil collections)
// degrades to empty output, never an error.
func BuildPages(roots []*model.PageNode, opts Options) Graph {
	b := newBuilder(opts)
	spans := make([]*span, 0, len(roots))
	for _, p := range roots {
		if s := b.pageSpan(p); s != nil {
			spans = append(spans, s)
		}
	}
	return b.emit(spans)
}

// BuildUser derives the visible graph for a user access record: a 5-level
// fan-out user → role → policy → endpoint → action → page. Shared policies
// or endpoints under different roles stay distinct nodes; the record is a
// tree, not a DAG.
func BuildUser(rec *model.UserAccessRecord, opts Options) Graph {
	b := newBuilder(opts)
	if rec == nil {
		return b.emit(nil)
	}
	return b.emit([]*span{b.userSpan(rec)})
}

// span is an internal build candidate: the node prototype plus the subtree
// and match information needed to decide emission and highlighting. The
// full tree is always walked eagerly so that badges and highlight
// propagation see descendants regardless of the current expansion state.
type span struct {
	node      *Node
	children  []*span
	selfMatch bool
	anyMatch  bool
}

type builder struct {
	opts  opts
	seen  map[string]int
	query string
}

type opts struct {
	expanded  map[string]bool
	focus     string
	expandAll bool
}

func newBuilder(o Options) *builder {
	expanded := o.Expanded
	if expanded == nil {
		expanded = map[string]bool{}
	}
	return &builder{
		opts:  opts{expanded: expanded, focus: o.Focus, expandAll: o.ExpandAll},
		seen:  make(map[string]int),
		query: strings.ToLower(strings.TrimSpace(o.Query)),
	}
}

// assignID reserves a unique node id, disambiguating duplicates with an
// ordinal suffix so that identical endpoints under one policy stay distinct.
func (b *builder) assignID(base string) string {
	n := b.seen[base]
	b.seen[base]++
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s#%d", base, n)
}

// matches reports whether any of the fields contains the query,
// case-insensitively. Always false for an empty query.
func (b *builder) matches(fields ...string) bool {
	if b.query == "" {
		return false
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), b.query) {
			return true
		}
	}
	return false
}

func (b *builder) newNode(id string, cat Category, title string) *Node {
	return &Node{
		ID:       id,
		Category: cat,
		Title:    title,
		Size:     DefaultDimensions(cat),
	}
}

// =============================================================================
// Page tree spans
// =============================================================================

func (b *builder) pageSpan(p *model.PageNode) *span {
	if p == nil {
		return nil
	}
	title := p.Label
	if title == "" {
		title = p.Key
	}
	if title == "" {
		title = p.Route
	}
	id := b.assignID("page:" + pageKey(p))
	node := b.newNode(id, CategoryPage, title)
	node.Subtitle = p.Route

	s := &span{
		node:      node,
		selfMatch: b.matches(p.Label, p.Key, p.Route, p.ID),
	}
	for _, a := range p.Actions {
		s.children = append(s.children, b.actionSpan(id, a, nil))
	}
	for _, c := range p.Children {
		if cs := b.pageSpan(c); cs != nil {
			s.children = append(s.children, cs)
		}
	}

	if n := len(p.Actions); n > 0 {
		node.Badges = append(node.Badges, Badge{Label: "actions", Count: n})
	}
	if n := countDescendantPages(p); n > 0 {
		node.Badges = append(node.Badges, Badge{Label: "pages", Count: n})
	}
	node.Collapsible = len(s.children) > 0
	return s
}

func (b *builder) actionSpan(parentID string, a model.PageAction, page *model.PageRef) *span {
	title := a.Label
	if title == "" {
		title = a.Action
	}
	id := b.assignID(parentID + "/action:" + actionKey(a))
	node := b.newNode(id, CategoryAction, title)
	node.Subtitle = a.Endpoint

	fields := []string{a.Label, a.Action, a.Endpoint}
	if a.Details != nil {
		fields = append(fields, a.Details.Service, a.Details.Method, a.Details.Path)
	}
	s := &span{node: node, selfMatch: b.matches(fields...)}

	if page != nil {
		ps := b.pageRefSpan(id, page)
		s.children = append(s.children, ps)
		node.Collapsible = true
	}
	return s
}

func (b *builder) pageRefSpan(parentID string, ref *model.PageRef) *span {
	title := ref.Label
	if title == "" {
		title = ref.Key
	}
	id := b.assignID(parentID + "/page:" + ref.Route)
	node := b.newNode(id, CategoryPage, title)
	node.Subtitle = ref.Route
	return &span{
		node:      node,
		selfMatch: b.matches(ref.Label, ref.Key, ref.Route),
	}
}

// =============================================================================
// User access tree spans
// =============================================================================

func (b *builder) userSpan(rec *model.UserAccessRecord) *span {
	title := rec.Username
	if title == "" {
		title = rec.FullName
	}
	id := b.assignID("user:" + rec.ID)
	node := b.newNode(id, CategoryUser, title)
	node.Subtitle = rec.FullName
	node.Description = rec.Email

	s := &span{
		node:      node,
		selfMatch: b.matches(rec.Username, rec.FullName, rec.Email, rec.ID),
	}
	endpoints := 0
	for _, r := range rec.Roles {
		s.children = append(s.children, b.roleSpan(id, r))
		endpoints += countRoleEndpoints(r)
	}
	if n := len(rec.Roles); n > 0 {
		node.Badges = append(node.Badges, Badge{Label: "roles", Count: n})
	}
	if endpoints > 0 {
		node.Badges = append(node.Badges, Badge{Label: "endpoints", Count: endpoints})
	}
	node.Collapsible = len(s.children) > 0
	return s
}

func (b *builder) roleSpan(parentID string, r model.Role) *span {
	id := b.assignID(parentID + "/role:" + r.Name)
	node := b.newNode(id, CategoryRole, r.Name)
	node.Description = r.Description

	s := &span{node: node, selfMatch: b.matches(r.Name, r.Description)}
	for _, p := range r.Policies {
		s.children = append(s.children, b.policySpan(id, p))
	}

	// Transitive counts across all of the role's policies, recomputed from
	// the live subtree on every build.
	if n := countRoleEndpoints(r); n > 0 {
		node.Badges = append(node.Badges, Badge{Label: "endpoints", Count: n})
	}
	if n := len(uniqueRolePages(r)); n > 0 {
		node.Badges = append(node.Badges, Badge{Label: "pages", Count: n})
	}
	node.Collapsible = len(s.children) > 0
	return s
}

func (b *builder) policySpan(parentID string, p model.Policy) *span {
	id := b.assignID(parentID + "/policy:" + p.Name)
	node := b.newNode(id, CategoryPolicy, p.Name)
	node.Description = p.Description

	s := &span{node: node, selfMatch: b.matches(p.Name, p.Description)}
	for _, e := range p.Endpoints {
		s.children = append(s.children, b.endpointSpan(id, e))
	}
	if n := len(p.Endpoints); n > 0 {
		node.Badges = append(node.Badges, Badge{Label: "endpoints", Count: n})
	}
	if n := len(uniquePolicyPages(p)); n > 0 {
		node.Badges = append(node.Badges, Badge{Label: "pages", Count: n})
	}
	node.Collapsible = len(s.children) > 0
	return s
}

func (b *builder) endpointSpan(parentID string, e model.Endpoint) *span {
	title := strings.TrimSpace(e.Method + " " + e.Path)
	id := b.assignID(parentID + "/endpoint:" + title)
	node := b.newNode(id, CategoryEndpoint, title)
	node.Subtitle = endpointSubtitle(e)
	node.Description = e.Description

	s := &span{
		node:      node,
		selfMatch: b.matches(e.Method, e.Path, e.Service, e.Version, e.Description),
	}
	for _, a := range e.PageActions {
		s.children = append(s.children, b.actionSpan(id, a.PageAction, a.Page))
	}
	if n := len(e.PageActions); n > 0 {
		node.Badges = append(node.Badges, Badge{Label: "actions", Count: n})
	}
	node.Collapsible = len(s.children) > 0
	return s
}

// =============================================================================
// Emission
// =============================================================================

// emit resolves highlight propagation and the focus path, then walks the
// span forest top-down emitting nodes and edges bounded by the expansion
// state.
func (b *builder) emit(spans []*span) Graph {
	for _, s := range spans {
		propagateMatches(s)
	}

	forced := make(map[string]bool)
	if b.opts.focus != "" {
		for _, s := range spans {
			if markFocusPath(s, b.opts.focus, forced) {
				break
			}
		}
	}

	g := Graph{Nodes: []*Node{}, Edges: []Edge{}}
	for _, s := range spans {
		b.emitSpan(s, forced, &g)
	}
	return g
}

func (b *builder) emitSpan(s *span, forced map[string]bool, g *Graph) {
	node := s.node
	node.Highlight = s.anyMatch
	node.Expanded = node.Collapsible && (b.opts.expandAll || b.opts.expanded[node.ID] || forced[node.ID])
	g.Nodes = append(g.Nodes, node)

	if !node.Expanded {
		return
	}
	for _, c := range s.children {
		b.emitSpan(c, forced, g)
		g.Edges = append(g.Edges, Edge{
			ID:        edgeID(node.ID, c.node.ID),
			Source:    node.ID,
			Target:    c.node.ID,
			Highlight: node.Highlight && c.node.Highlight,
		})
	}
}

// propagateMatches bubbles descendant matches upward: a composite span is
// highlighted when its own fields match or any descendant, at any depth,
// matches. Descendants are visited eagerly regardless of expansion.
func propagateMatches(s *span) bool {
	s.anyMatch = s.selfMatch
	for _, c := range s.children {
		if propagateMatches(c) {
			s.anyMatch = true
		}
	}
	return s.anyMatch
}

// markFocusPath records every span from the root down to the focus id, and
// the focus's entire subtree, as force-expanded. Returns true when the
// focus was found in this span's subtree.
func markFocusPath(s *span, focus string, forced map[string]bool) bool {
	if s.node.ID == focus {
		markSubtree(s, forced)
		return true
	}
	for _, c := range s.children {
		if markFocusPath(c, focus, forced) {
			forced[s.node.ID] = true
			return true
		}
	}
	return false
}

func markSubtree(s *span, forced map[string]bool) {
	forced[s.node.ID] = true
	for _, c := range s.children {
		markSubtree(c, forced)
	}
}

// =============================================================================
// Count helpers
// =============================================================================

func countDescendantPages(p *model.PageNode) int {
	n := len(p.Children)
	for _, c := range p.Children {
		n += countDescendantPages(c)
	}
	return n
}

func countRoleEndpoints(r model.Role) int {
	n := 0
	for _, p := range r.Policies {
		n += len(p.Endpoints)
	}
	return n
}

func uniquePolicyPages(p model.Policy) map[string]bool {
	pages := make(map[string]bool)
	for _, e := range p.Endpoints {
		for _, a := range e.PageActions {
			if a.Page != nil && a.Page.Route != "" {
				pages[a.Page.Route] = true
			}
		}
	}
	return pages
}

func uniqueRolePages(r model.Role) map[string]bool {
	pages := make(map[string]bool)
	for _, p := range r.Policies {
		for route := range uniquePolicyPages(p) {
			pages[route] = true
		}
	}
	return pages
}

func pageKey(p *model.PageNode) string {
	if p.ID != "" {
		return p.ID
	}
	if p.Route != "" {
		return p.Route
	}
	return p.Key
}

func actionKey(a model.PageAction) string {
	if a.Action != "" {
		return a.Action
	}
	return a.Label
}

func endpointSubtitle(e model.Endpoint) string {
	switch {
	case e.Service != "" && e.Version != "":
		return e.Service + " " + e.Version
	case e.Service != "":
		return e.Service
	default:
		return e.Version
	}
}
