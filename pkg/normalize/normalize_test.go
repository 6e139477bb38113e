package normalize

import (
	"testing"

	"github.com/permitscope/permitscope/pkg/directory"
)

func TestPagesNestedIdentityWins(t *testing.T) {
	raw := []directory.RawPage{{
		ID:    "flat-id",
		Key:   "flat-key",
		Label: "Flat",
		Route: "/flat",
		Page: &directory.RawPageIdentity{
			ID:    float64(1),
			Key:   "users",
			Label: "Users",
			Route: "/users",
		},
	}}

	pages := Pages(raw)
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	p := pages[0]
	if p.ID != "1" {
		t.Errorf("ID = %q, want %q", p.ID, "1")
	}
	if p.Key != "users" || p.Label != "Users" || p.Route != "/users" {
		t.Errorf("nested identity not preferred: %+v", p)
	}
}

func TestPagesFlatIdentityKeptWhenNestedPartial(t *testing.T) {
	raw := []directory.RawPage{{
		ID:    "flat-id",
		Label: "Flat",
		Route: "/flat",
		Page:  &directory.RawPageIdentity{Label: "Nested"},
	}}

	p := Pages(raw)[0]
	if p.ID != "flat-id" {
		t.Errorf("ID = %q, want flat fallback %q", p.ID, "flat-id")
	}
	if p.Label != "Nested" {
		t.Errorf("Label = %q, want nested override %q", p.Label, "Nested")
	}
	if p.Route != "/flat" {
		t.Errorf("Route = %q, want flat fallback %q", p.Route, "/flat")
	}
}

func TestPagesChildrenFieldPrecedence(t *testing.T) {
	raw := []directory.RawPage{{
		Route:    "/a",
		Children: []directory.RawPage{{Route: "/a/child"}},
		Pages:    []directory.RawPage{{Route: "/a/ignored"}},
	}}

	p := Pages(raw)[0]
	if len(p.Children) != 1 || p.Children[0].Route != "/a/child" {
		t.Fatalf("children field should win: %+v", p.Children)
	}

	raw[0].Children = nil
	p = Pages(raw)[0]
	if len(p.Children) != 1 || p.Children[0].Route != "/a/ignored" {
		t.Fatalf("pages field should be the fallback: %+v", p.Children)
	}
}

func TestPagesNilCollectionsBecomeEmpty(t *testing.T) {
	p := Pages([]directory.RawPage{{Route: "/a"}})[0]
	if p.Actions == nil {
		t.Error("Actions should be an empty slice, not nil")
	}
	if p.Children == nil {
		t.Error("Children should be an empty slice, not nil")
	}
}

func TestPagesNormalizesRoutes(t *testing.T) {
	p := Pages([]directory.RawPage{{Route: "/settings/"}})[0]
	if p.Route != "/settings" {
		t.Errorf("Route = %q, want %q", p.Route, "/settings")
	}
}

func TestActionDetailsWinPerField(t *testing.T) {
	a := Action(directory.RawAction{
		Action:   "create",
		Endpoint: "POST /api/users",
		Details:  &directory.RawEndpointDetails{Service: "iam", Path: "/api/v2/users"},
	})

	if a.Details == nil {
		t.Fatal("expected details")
	}
	if a.Details.Service != "iam" {
		t.Errorf("Service = %q, want %q", a.Details.Service, "iam")
	}
	if a.Details.Path != "/api/v2/users" {
		t.Errorf("Path = %q, want details to win over parsed string", a.Details.Path)
	}
	if a.Details.Method != "POST" {
		t.Errorf("Method = %q, want parsed fallback %q", a.Details.Method, "POST")
	}
	if a.Endpoint != "POST /api/users" {
		t.Errorf("Endpoint string rewritten: %q", a.Endpoint)
	}
}

func TestActionEndpointDerivedFromDetails(t *testing.T) {
	a := Action(directory.RawAction{
		Action:  "delete",
		Details: &directory.RawEndpointDetails{Method: "DELETE", Path: "/api/users/1"},
	})
	if a.Endpoint != "DELETE /api/users/1" {
		t.Errorf("Endpoint = %q, want derived %q", a.Endpoint, "DELETE /api/users/1")
	}
}

func TestActionStringOnly(t *testing.T) {
	a := Action(directory.RawAction{Action: "export", Endpoint: "GET /api/reports"})
	if a.Details == nil {
		t.Fatal("expected details parsed from the endpoint string")
	}
	if a.Details.Method != "GET" || a.Details.Path != "/api/reports" {
		t.Errorf("parsed details = %+v", a.Details)
	}
}

func TestActionNoEndpoint(t *testing.T) {
	a := Action(directory.RawAction{Action: "view"})
	if a.Details != nil {
		t.Errorf("expected no details, got %+v", a.Details)
	}
	if a.Endpoint != "" {
		t.Errorf("Endpoint = %q, want empty", a.Endpoint)
	}
}

func TestParseEndpointString(t *testing.T) {
	tests := []struct {
		in           string
		method, path string
	}{
		{"POST /api/users", "POST", "/api/users"},
		{"GET  /api/users", "GET", "/api/users"},
		{"/api/users", "", "/api/users"},
		{"", "", ""},
		{"  DELETE /x ", "DELETE", "/x"},
	}
	for _, tt := range tests {
		method, path := ParseEndpointString(tt.in)
		if method != tt.method || path != tt.path {
			t.Errorf("ParseEndpointString(%q) = (%q, %q), want (%q, %q)",
				tt.in, method, path, tt.method, tt.path)
		}
	}
}

func TestUserNumericID(t *testing.T) {
	rec := User(directory.RawUserMatrix{ID: float64(42), Username: "jdoe"})
	if rec.ID != "42" {
		t.Errorf("ID = %q, want %q", rec.ID, "42")
	}
	if rec.Roles == nil {
		t.Error("Roles should be an empty slice, not nil")
	}
}

func TestUserFullTree(t *testing.T) {
	rec := User(directory.RawUserMatrix{
		ID:       "u1",
		Username: "jdoe",
		Roles: []directory.RawRole{{
			Name: "admin",
			Policies: []directory.RawPolicy{{
				Name: "iam-full",
				Endpoints: []directory.RawEndpoint{{
					Method: "POST",
					Path:   "/api/users",
					PageActions: []directory.RawAction{{
						Action:   "create",
						Endpoint: "POST /api/users",
						Page:     &directory.RawPageIdentity{Key: "users", Route: "/users/"},
					}},
				}},
			}},
		}},
	})

	if len(rec.Roles) != 1 || len(rec.Roles[0].Policies) != 1 {
		t.Fatalf("unexpected tree shape: %+v", rec)
	}
	ep := rec.Roles[0].Policies[0].Endpoints[0]
	if len(ep.PageActions) != 1 {
		t.Fatalf("got %d page actions, want 1", len(ep.PageActions))
	}
	pa := ep.PageActions[0]
	if pa.Page == nil || pa.Page.Route != "/users" {
		t.Errorf("page ref route not normalized: %+v", pa.Page)
	}
}

func TestUsersIDKinds(t *testing.T) {
	users := Users([]directory.RawUser{
		{ID: "abc", Username: "a"},
		{ID: float64(7), Username: "b"},
		{Username: "c"},
	})
	want := []string{"abc", "7", ""}
	for i, u := range users {
		if u.ID != want[i] {
			t.Errorf("users[%d].ID = %q, want %q", i, u.ID, want[i])
		}
	}
}
