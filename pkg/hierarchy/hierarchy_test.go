package hierarchy

import (
	"testing"

	"github.com/permitscope/permitscope/pkg/model"
)

func page(id, route string) *model.PageNode {
	return &model.PageNode{ID: id, Route: route}
}

// findByID walks a forest looking for a page id.
func findByID(pages []*model.PageNode, id string) *model.PageNode {
	for _, p := range pages {
		if p.ID == id {
			return p
		}
		if found := findByID(p.Children, id); found != nil {
			return found
		}
	}
	return nil
}

func TestBuildChain(t *testing.T) {
	roots := Build([]*model.PageNode{
		page("c", "/admin/users/roles"),
		page("a", "/admin"),
		page("b", "/admin/users"),
	})

	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	if roots[0].ID != "a" {
		t.Fatalf("root = %q, want %q", roots[0].ID, "a")
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].ID != "b" {
		t.Fatalf("a's children = %+v", roots[0].Children)
	}
	if len(roots[0].Children[0].Children) != 1 || roots[0].Children[0].Children[0].ID != "c" {
		t.Fatalf("b's children = %+v", roots[0].Children[0].Children)
	}
}

func TestBuildOrphanStaysRoot(t *testing.T) {
	roots := Build([]*model.PageNode{
		page("deep", "/reports/q1/summary"),
		page("home", "/"),
	})
	// "/reports/q1" does not exist, so the deep page stays a root.
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
}

func TestBuildSegmentBoundary(t *testing.T) {
	roots := Build([]*model.PageNode{
		page("report", "/report"),
		page("reports-q1", "/reports/q1"),
	})
	// "/reports/q1"'s parent is "/reports", not "/report".
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2: %+v", len(roots), roots)
	}
	if got := findByID(roots[0].Children, "reports-q1"); got != nil {
		t.Error("/report must not capture /reports/q1")
	}
}

func TestBuildTrailingSlashMatches(t *testing.T) {
	roots := Build([]*model.PageNode{
		page("parent", "/settings/"),
		page("child", "/settings/profile"),
	})
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	if roots[0].Route != "/settings" {
		t.Errorf("root route = %q, want normalized %q", roots[0].Route, "/settings")
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].ID != "child" {
		t.Fatalf("trailing-slash parent did not capture child: %+v", roots[0].Children)
	}
}

func TestBuildOrderInvariant(t *testing.T) {
	a := []*model.PageNode{
		page("1", "/a"),
		page("2", "/a/b"),
		page("3", "/a/b/c"),
		page("4", "/x"),
	}
	b := []*model.PageNode{
		page("3", "/a/b/c"),
		page("4", "/x"),
		page("2", "/a/b"),
		page("1", "/a"),
	}

	ra, rb := Build(a), Build(b)
	if len(ra) != len(rb) {
		t.Fatalf("root counts differ: %d vs %d", len(ra), len(rb))
	}
	for _, id := range []string{"1", "2", "3", "4"} {
		pa, pb := findByID(ra, id), findByID(rb, id)
		if pa == nil || pb == nil {
			t.Fatalf("page %s missing from a forest", id)
		}
		if len(pa.Children) != len(pb.Children) {
			t.Errorf("page %s child counts differ: %d vs %d", id, len(pa.Children), len(pb.Children))
		}
	}
}

func TestBuildPreservesExplicitNesting(t *testing.T) {
	parent := page("p", "/dash")
	parent.Children = []*model.PageNode{page("c", "/dash/widgets")}

	roots := Build([]*model.PageNode{parent})
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	if len(roots[0].Children) != 1 {
		t.Fatalf("explicit child duplicated or lost: %+v", roots[0].Children)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	in := []*model.PageNode{
		page("a", "/admin"),
		page("b", "/admin/users"),
	}
	Build(in)
	if len(in[0].Children) != 0 {
		t.Error("input forest was mutated")
	}
}

func TestBuildIdempotent(t *testing.T) {
	first := Build([]*model.PageNode{
		page("a", "/admin"),
		page("b", "/admin/users"),
	})
	second := Build(first)

	if len(second) != 1 {
		t.Fatalf("got %d roots, want 1", len(second))
	}
	if len(second[0].Children) != 1 {
		t.Fatalf("re-running Build changed the structure: %+v", second[0].Children)
	}
}

func TestBuildCycleGuard(t *testing.T) {
	// The parent candidate for outer (/x/y) sits inside outer's own subtree.
	outer := page("outer", "/x/y/z")
	outer.Children = []*model.PageNode{page("inner", "/x/y")}

	roots := Build([]*model.PageNode{outer})
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}

	// Walk with a step bound; a cycle would never terminate otherwise.
	steps := 0
	var walk func(p *model.PageNode)
	walk = func(p *model.PageNode) {
		steps++
		if steps > 10 {
			t.Fatal("cycle detected in built forest")
		}
		for _, c := range p.Children {
			walk(c)
		}
	}
	walk(roots[0])
}

func TestBuildDuplicateRouteMerges(t *testing.T) {
	dup := page("second", "/admin")
	dup.Actions = []model.PageAction{{Label: "Export", Action: "export"}}
	dup.Children = []*model.PageNode{page("nested", "/admin/reports")}

	roots := Build([]*model.PageNode{
		page("first", "/admin"),
		dup,
		page("child", "/admin/users"),
	})

	if len(roots) != 1 {
		t.Fatalf("got %d roots, want duplicates merged into 1", len(roots))
	}
	first := roots[0]
	if first.ID != "first" {
		t.Fatalf("root = %q, want first-seen %q", first.ID, "first")
	}
	if findByID(roots, "second") != nil {
		t.Error("duplicate-route page must not survive as its own node")
	}
	if len(first.Actions) != 1 || first.Actions[0].Action != "export" {
		t.Errorf("duplicate's actions should fold into the slot owner: %+v", first.Actions)
	}
	if findByID(first.Children, "nested") == nil {
		t.Errorf("duplicate's children should move to the slot owner: %+v", first.Children)
	}
	if findByID(first.Children, "child") == nil {
		t.Errorf("route inference should still attach to the owner: %+v", first.Children)
	}
}

func TestBuildTrailingSlashDuplicatesMerge(t *testing.T) {
	roots := Build([]*model.PageNode{
		page("a", "/settings"),
		page("b", "/settings/"),
	})

	// Both routes normalize to "/settings"; siblings with an identical
	// route must never appear.
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	if roots[0].ID != "a" || roots[0].Route != "/settings" {
		t.Errorf("merged node = %+v, want first-seen identity", roots[0])
	}
}
