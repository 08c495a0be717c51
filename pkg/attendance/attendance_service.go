package attendance

import (
	"context"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/auth"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/date"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/locking"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const lockTTL = 10 * time.Second

// Service records daily check-ins
type Service struct {
	RecordRepository RecordRepositoryInterface
	Locker           locking.LockerInterface
	Logger           logger.Interface
	// Location decides where a calendar day starts, the server's local zone when nil
	Location *time.Location
	Now      func() time.Time
}

// MarkPresent records the actor's attendance for today. A second call on the same day fails with ErrAlreadyMarked.
func (s *Service) MarkPresent(ctx context.Context, actor auth.Identity, status Status) (*Record, error) {
	if !actor.Can(policy.ActionAttendanceMark, true) {
		return nil, errors.Wrapf(communication.ErrForbidden, "role %s can't mark attendance", actor.Role)
	}

	userID, err := primitive.ObjectIDFromHex(actor.SubjectID)
	if err != nil {
		return nil, errors.Wrap(communication.ErrInvalidToken, "subject is not a user id")
	}

	if status == "" {
		status = StatusPresent
	}
	status, err = ParseStatus(string(status))
	if err != nil {
		return nil, err
	}

	lock, err := s.Locker.Acquire(ctx, "attendance:"+actor.SubjectID, lockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "could not acquire attendance lock")
	}
	defer func() {
		err := lock.Release(context.Background())
		if err != nil {
			s.Logger.Warning("Could not release attendance lock", err)
		}
	}()

	now := s.now()
	window := date.DayWindow(now)

	_, err = s.RecordRepository.FindInWindow(ctx, userID, window)
	if err == nil {
		return nil, communication.ErrAlreadyMarked
	}
	if !errors.Is(err, communication.ErrNotFound) {
		return nil, err
	}

	record := &Record{
		UserID: userID,
		Date:   now,
		Day:    date.DayKey(now),
		Status: status,
	}

	err = s.RecordRepository.Add(ctx, record)
	if errors.Is(err, ErrDuplicateDay) {
		return nil, communication.ErrAlreadyMarked
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// List returns the records visible to actor, newest first
func (s *Service) List(ctx context.Context, actor auth.Identity, page int, pageSize int) ([]RecordView, int, error) {
	if !actor.Role.IsValid() {
		return nil, 0, errors.Wrap(communication.ErrForbidden, "unknown role")
	}

	if pageSize <= 0 || pageSize > communication.MaxPageSize {
		pageSize = communication.MaxPageSize
	}
	if page < 0 {
		page = 0
	}

	return s.RecordRepository.FindAll(ctx, actor.Scope(), page, pageSize)
}

func (s *Service) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	if s.Location != nil {
		return now.In(s.Location)
	}
	return now.Local()
}
