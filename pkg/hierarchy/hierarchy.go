// Package hierarchy reconstructs a page tree from flat or partially nested
// page lists using route-path inference.
//
// The Access Directory Service does not reliably deliver parent links, so
// the tree is rebuilt from route strings: a page at "/admin/users" becomes a
// child of the page at "/admin" when one exists. Matching is per full path
// segment, so "/report" never captures "/reports/q1".
//
// Build is a pure, idempotent transform: calling it twice on the same input
// yields structurally identical forests regardless of input order.
package hierarchy

import "github.com/permitscope/permitscope/pkg/model"

// Build deep-clones the input pages and reassembles them into a forest
// keyed by normalized route.
//
// Every input node (including pre-existing children at any depth) is
// indexed by its normalized route; the first node seen for a route owns the
// slot. Later nodes resolving to the same route ("/settings" and
// "/settings/" normalize identically) describe the same page and are folded
// into the owner: their actions and children move over, the owner's
// identity fields win, and the duplicate never appears in the output. A
// node whose inferred parent route ("/admin/users" → "/admin") resolves to
// a different node in the index is attached as that node's child, at most
// once, and withdrawn from the root candidates. Nodes with no inferable
// parent, or whose parent route is absent from the index, remain roots.
// Explicit parent/child links present in the input are preserved and never
// overridden.
func Build(flat []*model.PageNode) []*model.PageNode {
	clones := model.ClonePages(flat)

	byRoute := make(map[string]*model.PageNode)
	var all []*model.PageNode
	attached := make(map[*model.PageNode]bool)
	merged := make(map[*model.PageNode]bool)

	var index func(p *model.PageNode, hasParent bool)
	index = func(p *model.PageNode, hasParent bool) {
		if p == nil {
			return
		}
		p.Route = model.NormalizeRoute(p.Route)

		if owner, seen := byRoute[p.Route]; seen && p.Route != "" && owner != p {
			// Same route twice: fold the duplicate into the slot owner
			// instead of emitting siblings with an identical route.
			merged[p] = true
			owner.Actions = append(owner.Actions, p.Actions...)
			children := p.Children
			p.Children = nil
			for _, child := range children {
				owner.Children = append(owner.Children, child)
				index(child, true)
			}
			return
		}

		all = append(all, p)
		if hasParent {
			attached[p] = true
		}
		if p.Route != "" {
			byRoute[p.Route] = p
		}
		for _, child := range p.Children {
			index(child, true)
		}
	}
	for _, p := range clones {
		index(p, false)
	}

	for _, p := range all {
		if attached[p] {
			continue
		}
		parentRoute := model.ParentRoute(p.Route)
		if parentRoute == "" {
			continue
		}
		parent, ok := byRoute[parentRoute]
		if !ok || parent == p || inSubtree(p, parent) {
			continue
		}
		if hasChild(parent, p) {
			attached[p] = true
			continue
		}
		parent.Children = append(parent.Children, p)
		attached[p] = true
	}

	// A nested duplicate stays in its original parent's child list after
	// the fold; drop those husks.
	if len(merged) > 0 {
		for _, p := range all {
			kept := p.Children[:0]
			for _, child := range p.Children {
				if !merged[child] {
					kept = append(kept, child)
				}
			}
			p.Children = kept
		}
	}

	roots := make([]*model.PageNode, 0, len(clones))
	for _, p := range clones {
		if !attached[p] && !merged[p] {
			roots = append(roots, p)
		}
	}
	return roots
}

// inSubtree reports whether target is root or one of its descendants.
// Attaching a node to a page inside its own subtree would create a cycle.
func inSubtree(root, target *model.PageNode) bool {
	if root == target {
		return true
	}
	for _, c := range root.Children {
		if inSubtree(c, target) {
			return true
		}
	}
	return false
}

func hasChild(parent, child *model.PageNode) bool {
	for _, c := range parent.Children {
		if c == child {
			return true
		}
	}
	return false
}
