// Package model defines the canonical in-memory representation of access
// directory data: page trees and user access records.
//
// All downstream packages (normalize, hierarchy, vizgraph, console) operate
// exclusively on these types. Instances are created once per fetch by the
// normalizer, live for the duration of a selection, and are replaced
// wholesale on the next fetch - there is no incremental patching.
//
// # Invariants
//
//   - Page ids are unique within a fetched snapshot.
//   - Routes are normalized: trailing slash stripped unless the route is "/".
//   - Page trees are acyclic; they are rebuilt fresh, never mutated in place.
//   - When an action carries endpoint details, the endpoint string is derived
//     as "<method> <path>"; details always win over an independently supplied
//     string.
package model

import "strings"

// PageActionEndpoint describes the REST endpoint linked to a page action.
// All fields are optional; an endpoint with every field empty means the
// action has no linked endpoint.
type PageActionEndpoint struct {
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
	Method  string `json:"method,omitempty"`
	Path    string `json:"path,omitempty"`
}

// IsZero reports whether no endpoint information is present.
func (e PageActionEndpoint) IsZero() bool {
	return e.Service == "" && e.Version == "" && e.Method == "" && e.Path == ""
}

// String returns the canonical "<method> <path>" form, or "" if neither
// field is set.
func (e PageActionEndpoint) String() string {
	if e.Method == "" && e.Path == "" {
		return ""
	}
	return strings.TrimSpace(e.Method + " " + e.Path)
}

// PageAction is a user-triggerable operation on a page (e.g. "Create",
// "Export"). Endpoint carries the raw endpoint string; Details the
// structured form. Details are authoritative when both are present.
type PageAction struct {
	Label    string              `json:"label"`
	Action   string              `json:"action"`
	Endpoint string              `json:"endpoint,omitempty"`
	Details  *PageActionEndpoint `json:"endpoint_details,omitempty"`
}

// Clone returns a deep copy of the action.
func (a PageAction) Clone() PageAction {
	out := a
	if a.Details != nil {
		d := *a.Details
		out.Details = &d
	}
	return out
}

// PageNode is one page in the UI page tree.
type PageNode struct {
	ID        string       `json:"id"`
	Key       string       `json:"key"`
	Label     string       `json:"label"`
	Route     string       `json:"route"`
	Requested bool         `json:"is_requested,omitempty"`
	Actions   []PageAction `json:"actions"`
	Children  []*PageNode  `json:"children"`
}

// Clone returns a deep copy of the node and its entire subtree.
func (p *PageNode) Clone() *PageNode {
	if p == nil {
		return nil
	}
	out := &PageNode{
		ID:        p.ID,
		Key:       p.Key,
		Label:     p.Label,
		Route:     p.Route,
		Requested: p.Requested,
		Actions:   make([]PageAction, len(p.Actions)),
		Children:  make([]*PageNode, len(p.Children)),
	}
	for i, a := range p.Actions {
		out.Actions[i] = a.Clone()
	}
	for i, c := range p.Children {
		out.Children[i] = c.Clone()
	}
	return out
}

// ClonePages deep-copies a page forest.
func ClonePages(pages []*PageNode) []*PageNode {
	out := make([]*PageNode, len(pages))
	for i, p := range pages {
		out[i] = p.Clone()
	}
	return out
}

// NormalizeRoute canonicalizes a route for use as a hierarchy key.
// Trailing slashes are stripped ("/settings/" → "/settings") except for the
// root route "/", which is preserved as-is.
func NormalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	if route == "/" || route == "" {
		return route
	}
	return strings.TrimRight(route, "/")
}

// ParentRoute returns the inferred parent route: the route with its final
// path segment removed. Returns "" when the route has no parent (root "/",
// a single top-level segment, or an unparseable route).
func ParentRoute(route string) string {
	route = NormalizeRoute(route)
	if route == "" || route == "/" {
		return ""
	}
	idx := strings.LastIndex(route, "/")
	if idx <= 0 {
		// No slash, or a single top-level segment like "/users".
		return ""
	}
	return route[:idx]
}

// PageRef is a lightweight back-reference from an endpoint's action to the
// page it appears on.
type PageRef struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Route string `json:"route"`
}

// EndpointAction is a page action as seen from the endpoint side of the
// user access tree; it additionally carries the page it belongs to.
type EndpointAction struct {
	PageAction
	Page *PageRef `json:"page,omitempty"`
}

// Clone returns a deep copy of the endpoint action.
func (a EndpointAction) Clone() EndpointAction {
	out := EndpointAction{PageAction: a.PageAction.Clone()}
	if a.Page != nil {
		p := *a.Page
		out.Page = &p
	}
	return out
}

// Endpoint is a concrete REST endpoint granted by a policy.
type Endpoint struct {
	Service     string           `json:"service"`
	Version     string           `json:"version"`
	Method      string           `json:"method"`
	Path        string           `json:"path"`
	Description string           `json:"description,omitempty"`
	PageActions []EndpointAction `json:"page_actions"`
}

// Policy is a named group of endpoint grants.
type Policy struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Endpoints   []Endpoint `json:"endpoints"`
}

// Role is a named group of policies assigned to users.
type Role struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Policies    []Policy `json:"policies"`
}

// UserAccessRecord is the full access tree for one user: a 5-level fan-out
// (user → role → policy → endpoint → action → page). It is a tree, not a
// DAG: the same policy or endpoint may legitimately appear under multiple
// roles as distinct nodes, and no cross-branch deduplication is performed.
type UserAccessRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Roles    []Role `json:"roles"`
}

// User is a directory user list entry.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}
