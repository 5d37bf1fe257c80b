package catalog

import (
	"sort"

	"github.com/google/uuid"

	"catalog-service/internal/domain"
	"catalog-service/internal/i18n"
)

// maxTreeDepth bounds the nesting BuildTree produces. Deeper nodes are
// promoted to roots.
const maxTreeDepth = 32

// BuildTree turns a flat, sort_order ordered category list into a forest.
// Titles resolve for lang with the slug as last fallback. A category whose
// parent is not in the list becomes a root, and so does a node that would
// close a parent cycle. Sibling order follows the input order.
func BuildTree(categories []domain.Category, lang string) []domain.CategoryNode {
	index := make(map[uuid.UUID]int, len(categories))
	for i, c := range categories {
		index[c.ID] = i
	}

	children := make(map[int][]int, len(categories))
	var rootIdx []int
	for i, c := range categories {
		p, ok := -1, false
		if c.ParentID != nil {
			p, ok = index[*c.ParentID]
		}
		if !ok || p == i {
			rootIdx = append(rootIdx, i)
			continue
		}
		children[p] = append(children[p], i)
	}

	visited := make([]bool, len(categories))
	var build func(i, depth int) domain.CategoryNode
	build = func(i, depth int) domain.CategoryNode {
		visited[i] = true
		c := categories[i]
		node := domain.CategoryNode{
			ID:       c.ID,
			Slug:     c.Slug,
			Title:    i18n.Resolve(lang, c.Names, c.Slug),
			Icon:     c.Icon,
			Children: []domain.CategoryNode{},
		}
		if depth >= maxTreeDepth {
			return node
		}
		for _, ci := range children[i] {
			if !visited[ci] {
				node.Children = append(node.Children, build(ci, depth+1))
			}
		}
		return node
	}

	type placed struct {
		idx  int
		node domain.CategoryNode
	}
	var roots []placed
	for _, i := range rootIdx {
		roots = append(roots, placed{i, build(i, 1)})
	}
	// Whatever is still unvisited sits on a cycle or below the depth cap.
	for i := range categories {
		if !visited[i] {
			roots = append(roots, placed{i, build(i, 1)})
		}
	}
	sort.SliceStable(roots, func(a, b int) bool { return roots[a].idx < roots[b].idx })

	forest := make([]domain.CategoryNode, len(roots))
	for i, r := range roots {
		forest[i] = r.node
	}
	return forest
}
