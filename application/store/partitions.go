package store

import (
	"todolist-backend/domain/core/entities"
	"todolist-backend/domain/core/valueobjects"
)

// The helpers below never modify their input slice, so a slice handed to a
// reader before a mutation keeps its contents.

func prepend(list []*entities.Todo, todo *entities.Todo) []*entities.Todo {
	return insertAt(list, 0, todo)
}

func insertAt(list []*entities.Todo, i int, todo *entities.Todo) []*entities.Todo {
	out := make([]*entities.Todo, 0, len(list)+1)
	out = append(out, list[:i]...)
	out = append(out, todo)
	return append(out, list[i:]...)
}

func replaceAt(list []*entities.Todo, i int, todo *entities.Todo) []*entities.Todo {
	out := make([]*entities.Todo, len(list))
	copy(out, list)
	out[i] = todo
	return out
}

func removeByID(list []*entities.Todo, id valueobjects.TodoID) []*entities.Todo {
	out := make([]*entities.Todo, 0, len(list))
	for _, t := range list {
		if !t.ID().Equals(id) {
			out = append(out, t)
		}
	}
	return out
}

func cloneAll(list []*entities.Todo) []*entities.Todo {
	out := make([]*entities.Todo, len(list))
	for i, t := range list {
		out[i] = t.Clone()
	}
	return out
}
