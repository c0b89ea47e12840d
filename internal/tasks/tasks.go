// Package tasks caches the to-do list of one project, or of the unattributed
// tasks when no project is selected. Every write is followed by a refetch.
package tasks

import (
	"fmt"

	"github.com/sadopc/hourtree/internal/store"
)

type Store interface {
	GetTasks(projectID *int64) ([]store.Task, error)
	AddTask(name string, projectID *int64) (int64, error)
	UpdateTask(id int64, name string) (int64, error)
	DeleteTask(id int64) (int64, error)
}

type List struct {
	store     Store
	projectID *int64
	tasks     []store.Task
}

func New(s Store, projectID *int64) (*List, error) {
	l := &List{store: s, projectID: copyID(projectID)}
	if err := l.Fetch(); err != nil {
		return nil, err
	}
	return l, nil
}

// SwitchProject points the list at another project and reloads it.
func (l *List) SwitchProject(projectID *int64) error {
	l.projectID = copyID(projectID)
	return l.Fetch()
}

func (l *List) ProjectID() *int64 {
	return copyID(l.projectID)
}

func (l *List) Fetch() error {
	tasks, err := l.store.GetTasks(l.projectID)
	if err != nil {
		return fmt.Errorf("fetch tasks: %w", err)
	}
	l.tasks = tasks
	return nil
}

func (l *List) All() []store.Task {
	return l.tasks
}

// Add creates a task under the list's current project.
func (l *List) Add(name string) (int64, error) {
	id, err := l.store.AddTask(name, l.projectID)
	if err != nil {
		return 0, fmt.Errorf("add task: %w", err)
	}
	return id, l.Fetch()
}

func (l *List) Edit(id int64, name string) error {
	if _, err := l.store.UpdateTask(id, name); err != nil {
		return fmt.Errorf("edit task %d: %w", id, err)
	}
	return l.Fetch()
}

func (l *List) Delete(id int64) error {
	if _, err := l.store.DeleteTask(id); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return l.Fetch()
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
