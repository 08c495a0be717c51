package attendance

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
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

type clock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *clock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *clock) Set(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = now
}

func newService(now time.Time) (*Service, *MockRecordRepository, *clock) {
	repository := &MockRecordRepository{}
	c := &clock{now: now}

	return &Service{
		RecordRepository: repository,
		Locker:           locking.NewLockerMemory(),
		Logger:           logger.Discard{},
		Location:         time.UTC,
		Now:              c.Now,
	}, repository, c
}

func staffIdentity() auth.Identity {
	return auth.Identity{SubjectID: primitive.NewObjectID().Hex(), Role: policy.RoleStaff}
}

func TestService_MarkPresent(t *testing.T) {
	service, repository, c := newService(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	actor := staffIdentity()

	record, err := service.MarkPresent(context.Background(), actor, "")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != StatusPresent || record.Day != "2024-03-10" || record.UserID.Hex() != actor.SubjectID {
		t.Errorf("unexpected record %+v", record)
	}

	c.Set(time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC))
	_, err = service.MarkPresent(context.Background(), actor, StatusLeave)
	if !errors.Is(err, communication.ErrAlreadyMarked) {
		t.Errorf("second mark: %v", err)
	}

	c.Set(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	_, err = service.MarkPresent(context.Background(), actor, StatusLeave)
	if err != nil {
		t.Errorf("next day: %v", err)
	}

	if len(repository.Records) != 2 {
		t.Errorf("stored %d records", len(repository.Records))
	}
}

func TestService_MarkPresentValidation(t *testing.T) {
	service, repository, _ := newService(time.Now())

	tests := []struct {
		name    string
		actor   auth.Identity
		status  Status
		wantErr error
	}{
		{"unknown role", auth.Identity{SubjectID: primitive.NewObjectID().Hex()}, "", communication.ErrForbidden},
		{"bad subject", auth.Identity{SubjectID: "nope", Role: policy.RoleStaff}, "", communication.ErrInvalidToken},
		{"bad status", staffIdentity(), "Vacation", communication.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.MarkPresent(context.Background(), tt.actor, tt.status)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(repository.Records) != 0 {
		t.Error("rejected marks were stored")
	}
}

func TestService_MarkPresentConcurrent(t *testing.T) {
	service, repository, _ := newService(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	actor := staffIdentity()

	var wg sync.WaitGroup
	var succeeded, alreadyMarked int64

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.MarkPresent(context.Background(), actor, StatusPresent)
			switch {
			case err == nil:
				atomic.AddInt64(&succeeded, 1)
			case errors.Is(err, communication.ErrAlreadyMarked):
				atomic.AddInt64(&alreadyMarked, 1)
			default:
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || alreadyMarked != 19 {
		t.Errorf("succeeded = %d, already marked = %d", succeeded, alreadyMarked)
	}
	if len(repository.Records) != 1 {
		t.Errorf("stored %d records", len(repository.Records))
	}
}

type racingRepository struct {
	MockRecordRepository
}

// FindInWindow never sees the existing record, as if another request inserted in between
func (r *racingRepository) FindInWindow(context.Context, primitive.ObjectID, date.Timespan) (*Record, error) {
	return nil, errors.Wrap(communication.ErrNotFound, "attendance record")
}

func TestService_MarkPresentUniqueIndex(t *testing.T) {
	service, _, _ := newService(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	repository := &racingRepository{}
	service.RecordRepository = repository
	actor := staffIdentity()

	_, err := service.MarkPresent(context.Background(), actor, "")
	if err != nil {
		t.Fatal(err)
	}

	_, err = service.MarkPresent(context.Background(), actor, "")
	if !errors.Is(err, communication.ErrAlreadyMarked) {
		t.Errorf("duplicate insert: %v", err)
	}
}

func TestService_List(t *testing.T) {
	service, _, c := newService(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	staff := staffIdentity()
	other := staffIdentity()
	manager := auth.Identity{SubjectID: primitive.NewObjectID().Hex(), Role: policy.RoleManager}

	for day := 0; day < 3; day++ {
		c.Set(time.Date(2024, 3, 10+day, 9, 0, 0, 0, time.UTC))
		for _, actor := range []auth.Identity{staff, other} {
			if _, err := service.MarkPresent(context.Background(), actor, ""); err != nil {
				t.Fatal(err)
			}
		}
	}

	own, count, err := service.List(context.Background(), staff, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 || own[0].Day != "2024-03-12" {
		t.Errorf("staff list = %d %+v", count, own)
	}
	for _, record := range own {
		if record.UserID.Hex() != staff.SubjectID {
			t.Errorf("foreign record %+v", record)
		}
	}

	all, count, err := service.List(context.Background(), manager, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if count != 6 || len(all) != 6 {
		t.Errorf("manager sees %d records", count)
	}

	_, _, err = service.List(context.Background(), auth.Identity{SubjectID: staff.SubjectID}, 0, 10)
	if !errors.Is(err, communication.ErrForbidden) {
		t.Errorf("unknown role list: %v", err)
	}
}
