package model

import "testing"

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/settings", "/settings"},
		{"/settings/", "/settings"},
		{"/settings//", "/settings"},
		{"/", "/"},
		{"", ""},
		{"  /admin/users/  ", "/admin/users"},
	}
	for _, tt := range tests {
		if got := NormalizeRoute(tt.in); got != tt.want {
			t.Errorf("NormalizeRoute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParentRoute(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/admin/users", "/admin"},
		{"/admin/users/roles", "/admin/users"},
		{"/admin", ""},
		{"/admin/", ""},
		{"/", ""},
		{"", ""},
		{"noslash", ""},
	}
	for _, tt := range tests {
		if got := ParentRoute(tt.in); got != tt.want {
			t.Errorf("ParentRoute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPageActionEndpointString(t *testing.T) {
	tests := []struct {
		name string
		e    PageActionEndpoint
		want string
	}{
		{"both", PageActionEndpoint{Method: "POST", Path: "/api/users"}, "POST /api/users"},
		{"path only", PageActionEndpoint{Path: "/api/users"}, "/api/users"},
		{"method only", PageActionEndpoint{Method: "GET"}, "GET"},
		{"empty", PageActionEndpoint{Service: "billing"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageActionEndpointIsZero(t *testing.T) {
	if !(PageActionEndpoint{}).IsZero() {
		t.Error("empty endpoint should be zero")
	}
	if (PageActionEndpoint{Service: "billing"}).IsZero() {
		t.Error("endpoint with a service should not be zero")
	}
}

func TestPageNodeCloneIsDeep(t *testing.T) {
	orig := &PageNode{
		ID:    "1",
		Route: "/admin",
		Actions: []PageAction{
			{Action: "create", Details: &PageActionEndpoint{Method: "POST", Path: "/api/admin"}},
		},
		Children: []*PageNode{{ID: "2", Route: "/admin/users"}},
	}

	clone := orig.Clone()
	clone.Route = "/changed"
	clone.Actions[0].Details.Method = "DELETE"
	clone.Children[0].ID = "99"

	if orig.Route != "/admin" {
		t.Errorf("clone mutated original route: %q", orig.Route)
	}
	if orig.Actions[0].Details.Method != "POST" {
		t.Errorf("clone shares action details with original")
	}
	if orig.Children[0].ID != "2" {
		t.Errorf("clone shares children with original")
	}
}

func TestCloneNil(t *testing.T) {
	var p *PageNode
	if p.Clone() != nil {
		t.Error("cloning nil should return nil")
	}
}
