// Package normalize converts raw Access Directory Service payloads into the
// canonical model.
//
// The directory delivers pages and user access matrices in several
// inconsistent shapes (see pkg/directory). This package resolves them with a
// fixed field-precedence table:
//
//   - Page identity: values nested under "page" win over top-level fields.
//   - Children: read from both "children" and "pages"; first non-empty wins.
//   - Action endpoint: structured details are merged field-by-field, with
//     the bare endpoint string parsed as "<METHOD> <rest-as-path>" fallback.
//   - Nil or missing collections normalize to empty slices, never errors.
//
// Every function here is total and pure: malformed input degrades to empty
// fields, and the output never aliases the raw input.
package normalize

import (
	"fmt"
	"strings"

	"github.com/permitscope/permitscope/pkg/directory"
	"github.com/permitscope/permitscope/pkg/model"
)

// Pages normalizes a raw page forest into canonical page nodes.
// The result is a fresh, acyclic tree with no references into raw.
func Pages(raw []directory.RawPage) []*model.PageNode {
	out := make([]*model.PageNode, 0, len(raw))
	for _, rp := range raw {
		out = append(out, page(rp))
	}
	return out
}

// User normalizes a raw per-user access matrix.
func User(raw directory.RawUserMatrix) *model.UserAccessRecord {
	rec := &model.UserAccessRecord{
		ID:       idString(raw.ID),
		Username: raw.Username,
		FullName: raw.FullName,
		Email:    raw.Email,
		Roles:    make([]model.Role, 0, len(raw.Roles)),
	}
	for _, rr := range raw.Roles {
		rec.Roles = append(rec.Roles, role(rr))
	}
	return rec
}

// Users normalizes a directory user list.
func Users(raw []directory.RawUser) []model.User {
	out := make([]model.User, 0, len(raw))
	for _, ru := range raw {
		out = append(out, model.User{
			ID:       idString(ru.ID),
			Username: ru.Username,
			FullName: ru.FullName,
			Email:    ru.Email,
		})
	}
	return out
}

func page(raw directory.RawPage) *model.PageNode {
	p := &model.PageNode{
		ID:        idString(raw.ID),
		Key:       raw.Key,
		Label:     raw.Label,
		Route:     raw.Route,
		Requested: raw.Requested,
	}

	// Nested identity wins over flat fields when both are present.
	if raw.Page != nil {
		if id := idString(raw.Page.ID); id != "" {
			p.ID = id
		}
		if raw.Page.Key != "" {
			p.Key = raw.Page.Key
		}
		if raw.Page.Label != "" {
			p.Label = raw.Page.Label
		}
		if raw.Page.Route != "" {
			p.Route = raw.Page.Route
		}
	}
	p.Route = model.NormalizeRoute(p.Route)

	p.Actions = make([]model.PageAction, 0, len(raw.Actions))
	for _, ra := range raw.Actions {
		p.Actions = append(p.Actions, Action(ra))
	}

	// Children arrive under either field name; first non-empty wins.
	children := raw.Children
	if len(children) == 0 {
		children = raw.Pages
	}
	p.Children = make([]*model.PageNode, 0, len(children))
	for _, rc := range children {
		p.Children = append(p.Children, page(rc))
	}
	return p
}

// Action normalizes a raw page action, merging the structured endpoint
// details with the bare endpoint string. Details win per field; the string
// is parsed as a fallback for method and path. When details are present but
// the string is absent, the string is derived as "<method> <path>".
func Action(raw directory.RawAction) model.PageAction {
	a := model.PageAction{
		Label:    raw.Label,
		Action:   raw.Action,
		Endpoint: raw.Endpoint,
	}

	parsedMethod, parsedPath := ParseEndpointString(raw.Endpoint)
	details := model.PageActionEndpoint{Method: parsedMethod, Path: parsedPath}
	if raw.Details != nil {
		if raw.Details.Service != "" {
			details.Service = raw.Details.Service
		}
		if raw.Details.Version != "" {
			details.Version = raw.Details.Version
		}
		if raw.Details.Method != "" {
			details.Method = raw.Details.Method
		}
		if raw.Details.Path != "" {
			details.Path = raw.Details.Path
		}
	}

	if !details.IsZero() {
		a.Details = &details
		if a.Endpoint == "" {
			a.Endpoint = details.String()
		}
	}
	return a
}

func endpointAction(raw directory.RawAction) model.EndpointAction {
	a := model.EndpointAction{PageAction: Action(raw)}
	if raw.Page != nil {
		a.Page = &model.PageRef{
			Key:   raw.Page.Key,
			Label: raw.Page.Label,
			Route: model.NormalizeRoute(raw.Page.Route),
		}
	}
	return a
}

func role(raw directory.RawRole) model.Role {
	r := model.Role{
		Name:        raw.Name,
		Description: raw.Description,
		Policies:    make([]model.Policy, 0, len(raw.Policies)),
	}
	for _, rp := range raw.Policies {
		r.Policies = append(r.Policies, policy(rp))
	}
	return r
}

func policy(raw directory.RawPolicy) model.Policy {
	p := model.Policy{
		Name:        raw.Name,
		Description: raw.Description,
		Endpoints:   make([]model.Endpoint, 0, len(raw.Endpoints)),
	}
	for _, re := range raw.Endpoints {
		p.Endpoints = append(p.Endpoints, endpoint(re))
	}
	return p
}

func endpoint(raw directory.RawEndpoint) model.Endpoint {
	e := model.Endpoint{
		Service:     raw.Service,
		Version:     raw.Version,
		Method:      raw.Method,
		Path:        raw.Path,
		Description: raw.Description,
		PageActions: make([]model.EndpointAction, 0, len(raw.PageActions)),
	}
	for _, ra := range raw.PageActions {
		e.PageActions = append(e.PageActions, endpointAction(ra))
	}
	return e
}

// ParseEndpointString splits a bare endpoint string into method and path.
// The first whitespace-delimited token is the method; everything after it
// is the path. A string with no space is treated as a path with no method.
func ParseEndpointString(s string) (method, path string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	method, path, found := strings.Cut(s, " ")
	if !found {
		return "", s
	}
	return method, strings.TrimSpace(path)
}

// idString renders a raw identifier (string or JSON number) as a string.
// Whole-number floats are printed without a decimal point so that a JSON
// "id": 1 round-trips as "1".
func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		if id == float64(int64(id)) {
			return fmt.Sprintf("%d", int64(id))
		}
		return fmt.Sprintf("%v", id)
	case int:
		return fmt.Sprintf("%d", id)
	case int64:
		return fmt.Sprintf("%d", id)
	default:
		return fmt.Sprintf("%v", id)
	}
}
