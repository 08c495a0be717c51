package works

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockEngagementRepository keeps engagements in memory
type MockEngagementRepository struct {
	Engagements []*Engagement
	lock        sync.Mutex
}

// Add adds an engagement
func (m *MockEngagementRepository) Add(_ context.Context, engagement *Engagement) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	engagement.CreatedAt = time.Now()
	engagement.LastModifiedAt = engagement.CreatedAt
	engagement.ID = primitive.NewObjectID()

	stored := *engagement
	m.Engagements = append(m.Engagements, &stored)
	return nil
}

// FindByID finds an engagement by id
func (m *MockEngagementRepository) FindByID(_ context.Context, id string) (*Engagement, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, e := range m.Engagements {
		if e.ID.Hex() == id {
			found := *e
			return &found, nil
		}
	}

	return nil, errors.Wrap(communication.ErrNotFound, "work")
}

// FindAll returns a page of engagements, newest first
func (m *MockEngagementRepository) FindAll(_ context.Context, page int, pageSize int) ([]Engagement, int, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	engagements := []Engagement{}
	for _, e := range m.Engagements {
		engagements = append(engagements, *e)
	}
	sort.SliceStable(engagements, func(i, j int) bool {
		return engagements[i].CreatedAt.After(engagements[j].CreatedAt)
	})

	count := len(engagements)
	start := page * pageSize
	if start > count {
		start = count
	}
	end := start + pageSize
	if end > count {
		end = count
	}

	return engagements[start:end], count, nil
}

// Update replaces the stored engagement
func (m *MockEngagementRepository) Update(_ context.Context, engagement *Engagement, _ *EngagementPatch) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i, e := range m.Engagements {
		if e.ID == engagement.ID {
			engagement.LastModifiedAt = time.Now()
			stored := *engagement
			m.Engagements[i] = &stored
			return nil
		}
	}

	return errors.Wrap(communication.ErrNotFound, "work")
}

// Remove deletes an engagement
func (m *MockEngagementRepository) Remove(_ context.Context, id string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	for i, e := range m.Engagements {
		if e.ID.Hex() == id {
			m.Engagements = append(m.Engagements[:i], m.Engagements[i+1:]...)
			return nil
		}
	}

	return errors.Wrap(communication.ErrNotFound, "work")
}
