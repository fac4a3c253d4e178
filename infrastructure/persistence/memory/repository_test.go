package memory

import (
	"testing"

	"todolist-backend/application/ports"
	"todolist-backend/infrastructure/persistence/repotest"
)

func TestRepository_Contract(t *testing.T) {
	repotest.RunContract(t, func(t *testing.T, clock ports.Clock) ports.TodoRepository {
		return NewRepository(clock)
	})
}
