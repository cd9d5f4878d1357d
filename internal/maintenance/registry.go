package maintenance

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Task is a named maintenance step. Run executes inside the transaction that
// also records it in the ledger and reports the number of rows it touched.
type Task interface {
	Name() string
	Run(ctx context.Context, tx *gorm.DB) (int64, error)
}

// Repeatable marks tasks that converge on every run and therefore bypass the
// apply-once ledger.
type Repeatable interface {
	Repeatable() bool
}

func isRepeatable(task Task) bool {
	r, ok := task.(Repeatable)
	return ok && r.Repeatable()
}

// Registry tracks registered tasks in run order.
type Registry struct {
	tasks []Task
	names map[string]struct{}
}

// NewRegistry builds a registry preloaded with the provided tasks.
func NewRegistry(tasks ...Task) (*Registry, error) {
	registry := &Registry{names: map[string]struct{}{}}
	for _, task := range tasks {
		if err := registry.Register(task); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register adds a task. Names must be unique because the ledger is keyed on them.
func (r *Registry) Register(task Task) error {
	if task == nil {
		return nil
	}
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	name := task.Name()
	if name == "" {
		return fmt.Errorf("task name is required")
	}
	if _, exists := r.names[name]; exists {
		return fmt.Errorf("task %q registered twice", name)
	}
	r.names[name] = struct{}{}
	r.tasks = append(r.tasks, task)
	return nil
}

// Tasks returns the registered tasks in the order they were added.
func (r *Registry) Tasks() []Task {
	tasks := make([]Task, len(r.tasks))
	copy(tasks, r.tasks)
	return tasks
}
