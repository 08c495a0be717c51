package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/date"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockRecordRepository keeps records in memory and enforces one record per user and day like the unique index
type MockRecordRepository struct {
	Records []*Record
	lock    sync.Mutex
}

// Add adds a record
func (m *MockRecordRepository) Add(_ context.Context, record *Record) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, r := range m.Records {
		if r.UserID == record.UserID && r.Day == record.Day {
			return ErrDuplicateDay
		}
	}

	record.CreatedAt = time.Now()
	record.LastModifiedAt = record.CreatedAt
	record.ID = primitive.NewObjectID()

	stored := *record
	m.Records = append(m.Records, &stored)
	return nil
}

// FindInWindow finds the record of userID inside window
func (m *MockRecordRepository) FindInWindow(_ context.Context, userID primitive.ObjectID, window date.Timespan) (*Record, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, r := range m.Records {
		if r.UserID == userID && window.ContainsTime(r.Date) {
			found := *r
			return &found, nil
		}
	}

	return nil, errors.Wrap(communication.ErrNotFound, "attendance record")
}

// FindAll finds the records in scope, newest first
func (m *MockRecordRepository) FindAll(_ context.Context, scope policy.Scope, page int, pageSize int) ([]RecordView, int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	records := []RecordView{}
	for _, r := range m.Records {
		if scope.Allows(r.UserID.Hex()) {
			records = append(records, RecordView{Record: *r})
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.After(records[j].Date)
	})

	count := len(records)
	start := page * pageSize
	if start > count {
		start = count
	}
	end := start + pageSize
	if end > count {
		end = count
	}

	return records[start:end], count, nil
}
