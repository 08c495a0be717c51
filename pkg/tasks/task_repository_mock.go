package tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockTaskRepository is a task repository for testing
type MockTaskRepository struct {
	Tasks []*Task
	lock  sync.Mutex
}

// Add adds a task
func (m *MockTaskRepository) Add(_ context.Context, task *Task) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	task.LastModifiedAt = task.CreatedAt
	task.ID = primitive.NewObjectID()

	for index, subtask := range task.Subtasks {
		if subtask.ID.IsZero() {
			task.Subtasks[index].ID = primitive.NewObjectID()
		}
	}

	stored := *task
	m.Tasks = append(m.Tasks, &stored)
	return nil
}

// FindByID returns a copy of the stored task
func (m *MockTaskRepository) FindByID(_ context.Context, taskID string) (*Task, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, t := range m.Tasks {
		if t.ID.Hex() == taskID {
			found := *t
			found.Subtasks = append([]Subtask(nil), t.Subtasks...)
			return &found, nil
		}
	}

	return nil, errors.Wrap(communication.ErrNotFound, "task")
}

// FindAll finds the tasks in scope, newest first
func (m *MockTaskRepository) FindAll(_ context.Context, scope policy.Scope, page int, pageSize int) ([]TaskView, int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	tasks := []TaskView{}
	for _, t := range m.Tasks {
		if scope.Allows(t.AssignedTo.Hex()) {
			tasks = append(tasks, TaskView{Task: *t})
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID.Hex() > tasks[j].ID.Hex()
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	count := len(tasks)
	start := page * pageSize
	if start > count {
		start = count
	}
	end := start + pageSize
	if end > count {
		end = count
	}

	return tasks[start:end], count, nil
}

// Update replaces the stored task
func (m *MockTaskRepository) Update(_ context.Context, task *Task, _ *TaskPatch) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i, t := range m.Tasks {
		if t.ID == task.ID {
			task.LastModifiedAt = time.Now()
			stored := *task
			m.Tasks[i] = &stored
			return nil
		}
	}

	return errors.Wrap(communication.ErrNotFound, "task")
}

// Delete removes a task
func (m *MockTaskRepository) Delete(_ context.Context, taskID string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i, t := range m.Tasks {
		if t.ID.Hex() == taskID {
			m.Tasks = append(m.Tasks[:i], m.Tasks[i+1:]...)
			return nil
		}
	}

	return errors.Wrap(communication.ErrNotFound, "task")
}
