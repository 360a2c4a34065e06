package dashboard

import (
	"sort"

	"universe-planner/internal/model"
)

// TreeNode is one universe in the universes listing.
type TreeNode struct {
	Universe UniverseRef `json:"universe"`
	ParentID *uint       `json:"parent_id"`
	Depth    int         `json:"depth"`
	Children []*TreeNode `json:"children"`
}

// BuildTree arranges universes into a forest, expanding one level at a time
// from the roots. A universe is a root when it has no parent or its parent is
// missing. Every universe appears exactly once: nodes only reachable through
// a parent cycle are attached as extra roots, starting from the lowest id.
func BuildTree(universes []model.Universe) []*TreeNode {
	byID := indexUniverses(universes)
	children := make(map[uint][]*model.Universe)
	var roots []*model.Universe
	for i := range universes {
		u := &universes[i]
		if u.ParentID == nil || byID[*u.ParentID] == nil || *u.ParentID == u.ID {
			roots = append(roots, u)
			continue
		}
		children[*u.ParentID] = append(children[*u.ParentID], u)
	}
	sortUniverses(roots)
	for _, list := range children {
		sortUniverses(list)
	}

	visited := make(map[uint]bool, len(universes))
	var forest []*TreeNode
	expand := func(rootSet []*model.Universe) {
		level := make([]*TreeNode, 0, len(rootSet))
		for _, u := range rootSet {
			if visited[u.ID] {
				continue
			}
			visited[u.ID] = true
			node := &TreeNode{Universe: *refOf(u), ParentID: u.ParentID, Children: []*TreeNode{}}
			forest = append(forest, node)
			level = append(level, node)
		}
		for depth := 1; len(level) > 0; depth++ {
			var next []*TreeNode
			for _, parent := range level {
				for _, c := range children[parent.Universe.ID] {
					if visited[c.ID] {
						continue
					}
					visited[c.ID] = true
					node := &TreeNode{Universe: *refOf(c), ParentID: c.ParentID, Depth: depth, Children: []*TreeNode{}}
					parent.Children = append(parent.Children, node)
					next = append(next, node)
				}
			}
			level = next
		}
	}

	expand(roots)
	if len(visited) < len(universes) {
		rest := make([]*model.Universe, 0, len(universes)-len(visited))
		for i := range universes {
			rest = append(rest, &universes[i])
		}
		sort.Slice(rest, func(i, j int) bool { return rest[i].ID < rest[j].ID })
		for _, u := range rest {
			if !visited[u.ID] {
				expand([]*model.Universe{u})
			}
		}
	}
	return forest
}

// Ancestors returns the chain of parents of u, root first. The walk stops at
// a missing parent or when a universe repeats.
func Ancestors(u *model.Universe, byID map[uint]*model.Universe) []*model.Universe {
	var chain []*model.Universe
	seen := map[uint]bool{u.ID: true}
	for cur := u; cur.ParentID != nil; {
		parent := byID[*cur.ParentID]
		if parent == nil || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		cur = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func sortUniverses(list []*model.Universe) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}
