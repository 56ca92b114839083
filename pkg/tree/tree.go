// Package tree builds ordered forests from flat records that point at their
// parent by id, such as menu items and threaded comments.
package tree

import "slices"

// Node is one record in a built forest. Children only point downwards.
type Node[T any] struct {
	Item     T
	Children []*Node[T]
}

// Build turns a flat list into a forest.
//
// id returns the key of an item, parent returns the key of its parent and
// whether it has one, and cmp orders siblings (negative when a sorts before b).
// Items whose parent is unknown, or that only hang off a parent cycle, are
// not reachable from any root and are left out of the result. When two items
// share an id, children attach to the first one.
func Build[T any, K comparable](items []T, id func(T) K, parent func(T) (K, bool), cmp func(a, b T) int) []*Node[T] {
	index := make(map[K]int, len(items))
	for i, item := range items {
		if _, dup := index[id(item)]; !dup {
			index[id(item)] = i
		}
	}

	children := make([][]int, len(items))
	roots := make([]int, 0, len(items))
	for i, item := range items {
		p, ok := parent(item)
		if !ok {
			roots = append(roots, i)
			continue
		}
		pi, found := index[p]
		if !found || pi == i {
			continue
		}
		children[pi] = append(children[pi], i)
	}

	byOrder := func(a, b int) int { return cmp(items[a], items[b]) }
	slices.SortStableFunc(roots, byOrder)
	for i := range children {
		slices.SortStableFunc(children[i], byOrder)
	}

	visited := make([]bool, len(items))
	var materialize func(i int) *Node[T]
	materialize = func(i int) *Node[T] {
		visited[i] = true
		n := &Node[T]{Item: items[i]}
		for _, c := range children[i] {
			if visited[c] {
				continue
			}
			n.Children = append(n.Children, materialize(c))
		}
		return n
	}

	forest := make([]*Node[T], 0, len(roots))
	for _, r := range roots {
		forest = append(forest, materialize(r))
	}
	return forest
}

// Walk visits every node depth-first, parents before children.
func Walk[T any](nodes []*Node[T], fn func(n *Node[T], depth int)) {
	var visit func(ns []*Node[T], depth int)
	visit = func(ns []*Node[T], depth int) {
		for _, n := range ns {
			fn(n, depth)
			visit(n.Children, depth+1)
		}
	}
	visit(nodes, 0)
}

// Size counts the nodes of a forest.
func Size[T any](nodes []*Node[T]) int {
	total := 0
	Walk(nodes, func(*Node[T], int) { total++ })
	return total
}
