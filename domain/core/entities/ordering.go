package entities

import "sort"

// SortByCreatedDesc orders todos newest first by creation time
func SortByCreatedDesc(todos []*Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		return todos[i].createdAt.After(todos[j].createdAt)
	})
}

// SortByCompletedDesc orders todos newest first by completion time.
// Active todos sort last.
func SortByCompletedDesc(todos []*Todo) {
	sort.SliceStable(todos, func(i, j int) bool {
		a, b := todos[i].completedAt, todos[j].completedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// CreatedPosition returns the index at which todo belongs in a slice ordered
// by creation time descending.
func CreatedPosition(todos []*Todo, todo *Todo) int {
	return sort.Search(len(todos), func(i int) bool {
		return !todos[i].createdAt.After(todo.createdAt)
	})
}
