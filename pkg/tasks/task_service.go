package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/locking"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/users"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskObserver is told about task lifecycle events after they were stored
type TaskObserver interface {
	TaskAssigned(ctx context.Context, task *Task)
	TaskCompleted(ctx context.Context, task *Task)
}

// TaskObservable is an Observable
type TaskObservable interface {
	Subscribe(o TaskObserver)
	Unsubscribe(o TaskObserver)
}

// Service runs the task lifecycle: authorization, validation, persistence and notification
type Service struct {
	TaskRepository TaskRepositoryInterface
	UserRepository users.UserRepositoryInterface
	Logger         logger.Interface
	// Locker serializes updates of one task, a process local locker is used when nil
	Locker      locking.LockerInterface
	subscribers []TaskObserver
	lockerOnce  sync.Once
}

const updateLockTTL = 10 * time.Second

// Subscribe is useful for listening to task changes
func (s *Service) Subscribe(o TaskObserver) {
	s.subscribers = append(s.subscribers, o)
}

// Unsubscribe unsubscribes from a subscription
func (s *Service) Unsubscribe(o TaskObserver) {
	for i, subscriber := range s.subscribers {
		if subscriber == o {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			return
		}
	}
}

// Create assigns a new task. The actor becomes assignedBy, the assignee is told about it.
func (s *Service) Create(ctx context.Context, actor auth.Identity, task *Task) error {
	if !actor.Can(policy.ActionTaskCreate, false) {
		return errors.Wrapf(communication.ErrForbidden, "role %s can't create tasks", actor.Role)
	}

	assignedBy, err := primitive.ObjectIDFromHex(actor.SubjectID)
	if err != nil {
		return errors.Wrap(communication.ErrInvalidToken, "subject is not a user id")
	}
	task.AssignedBy = assignedBy

	if task.AssignedTo.IsZero() {
		return errors.Wrap(communication.ErrValidation, "assignedTo is required")
	}

	err = s.ensureUserExists(ctx, task.AssignedTo)
	if err != nil {
		return err
	}

	if task.Status == "" {
		task.Status = StatusPending
	}

	err = validate(task)
	if err != nil {
		return err
	}

	err = s.TaskRepository.Add(ctx, task)
	if err != nil {
		return err
	}

	s.publishAssigned(ctx, task)

	return nil
}

// Update applies a partial update. Progress fields need ownership, everything else needs the update-all permission.
func (s *Service) Update(ctx context.Context, actor auth.Identity, taskID string, patch *TaskPatch) (*Task, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, errors.Wrap(communication.ErrValidation, "nothing to update")
	}

	// held until observers ran, so a concurrent update always sees the stored status
	lock, err := s.locker().Acquire(ctx, "task:"+taskID, updateLockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "could not acquire task lock")
	}
	defer func() {
		err := lock.Release(context.Background())
		if err != nil {
			s.Logger.Warning("Could not release task lock", err)
		}
	}()

	task, err := s.TaskRepository.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	isOwner := !task.AssignedTo.IsZero() && task.AssignedTo.Hex() == actor.SubjectID

	action := policy.ActionTaskUpdateAll
	if patch.TouchesOnlyProgress(task) {
		action = policy.ActionTaskUpdateProgress
	}

	if !actor.Can(action, isOwner) {
		return nil, errors.Wrapf(communication.ErrForbidden, "role %s can't update this task", actor.Role)
	}

	if patch.Status != nil && !AcceptTransition(task.Status, *patch.Status) {
		return nil, errors.Wrapf(communication.ErrValidation, "task can't move from %s to %s", task.Status, *patch.Status)
	}

	previousAssignee := task.AssignedTo
	if patch.AssignedTo != nil && *patch.AssignedTo != previousAssignee {
		if patch.AssignedTo.IsZero() {
			return nil, errors.Wrap(communication.ErrValidation, "assignedTo can't be removed")
		}

		err = s.ensureUserExists(ctx, *patch.AssignedTo)
		if err != nil {
			return nil, err
		}
	}

	wasCompleted := task.Status == StatusCompleted

	err = patch.Apply(task)
	if err != nil {
		return nil, err
	}

	err = validate(task)
	if err != nil {
		return nil, err
	}

	err = s.TaskRepository.Update(ctx, task, patch)
	if err != nil {
		return nil, err
	}

	if task.AssignedTo != previousAssignee {
		s.publishAssigned(ctx, task)
	}

	if !wasCompleted && task.Status == StatusCompleted {
		s.publishCompleted(ctx, task)
	}

	return task, nil
}

// List returns the tasks visible to actor, newest first
func (s *Service) List(ctx context.Context, actor auth.Identity, page int, pageSize int) ([]TaskView, int, error) {
	if pageSize <= 0 || pageSize > communication.MaxPageSize {
		pageSize = communication.MaxPageSize
	}
	if page < 0 {
		page = 0
	}

	return s.TaskRepository.FindAll(ctx, actor.Scope(), page, pageSize)
}

// Get returns one task if it is visible to actor
func (s *Service) Get(ctx context.Context, actor auth.Identity, taskID string) (*Task, error) {
	task, err := s.TaskRepository.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !actor.Scope().Allows(task.AssignedTo.Hex()) {
		return nil, errors.Wrap(communication.ErrNotFound, "task")
	}

	return task, nil
}

// Delete removes a task
func (s *Service) Delete(ctx context.Context, actor auth.Identity, taskID string) error {
	if !actor.Can(policy.ActionTaskDelete, false) {
		return errors.Wrapf(communication.ErrForbidden, "role %s can't delete tasks", actor.Role)
	}

	return s.TaskRepository.Delete(ctx, taskID)
}

func (s *Service) locker() locking.LockerInterface {
	s.lockerOnce.Do(func() {
		if s.Locker == nil {
			s.Locker = locking.NewLockerMemory()
		}
	})
	return s.Locker
}

func (s *Service) ensureUserExists(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.UserRepository.FindByID(ctx, userID.Hex())
	if errors.Is(err, communication.ErrNotFound) {
		return errors.Wrapf(communication.ErrValidation, "assignee %s does not exist", userID.Hex())
	}
	return err
}

func (s *Service) publishAssigned(ctx context.Context, task *Task) {
	for _, subscriber := range s.subscribers {
		subscriber.TaskAssigned(ctx, task)
	}
}

func (s *Service) publishCompleted(ctx context.Context, task *Task) {
	for _, subscriber := range s.subscribers {
		subscriber.TaskCompleted(ctx, task)
	}
}

func validate(task *Task) error {
	if !task.Status.IsValid() {
		return errors.Wrapf(communication.ErrValidation, "unknown task status %q", task.Status)
	}

	err := validator.New().Struct(task)
	if err != nil {
		return errors.Wrap(communication.ErrValidation, err.Error())
	}

	return nil
}
