package users

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

// MockUserRepository keeps users in memory
type MockUserRepository struct {
	Users []*User
	lock  sync.Mutex
}

// Add adds a user, usernames are unique
func (r *MockUserRepository) Add(_ context.Context, user *User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, u := range r.Users {
		if u.Username == user.Username {
			return errors.Wrapf(communication.ErrConflict, "username %s is taken", user.Username)
		}
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.LastModifiedAt = user.CreatedAt

	stored := *user
	r.Users = append(r.Users, &stored)
	return nil
}

// FindByID finds a user by ID
func (r *MockUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, user := range r.Users {
		if user.ID.Hex() == id {
			found := *user
			return &found, nil
		}
	}

	return nil, errors.Wrap(communication.ErrNotFound, "user")
}

// FindByUsername finds a user by username
func (r *MockUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, user := range r.Users {
		if user.Username == username {
			found := *user
			return &found, nil
		}
	}

	return nil, errors.Wrap(communication.ErrNotFound, "user")
}

// FindAll returns a page of users ordered by username
func (r *MockUserRepository) FindAll(_ context.Context, page int, pageSize int) ([]User, int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	all := make([]User, 0, len(r.Users))
	for _, user := range r.Users {
		found := *user
		found.Password = ""
		all = append(all, found)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })

	start := page * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}

	return all[start:end], len(all), nil
}

// FindByRoles returns every user holding one of the roles
func (r *MockUserRepository) FindByRoles(_ context.Context, roles ...policy.Role) ([]User, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	result := make([]User, 0)
	for _, user := range r.Users {
		for _, role := range roles {
			if user.Role == role {
				result = append(result, *user)
				break
			}
		}
	}

	return result, nil
}

// Count returns the number of users
func (r *MockUserRepository) Count(_ context.Context) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	return int64(len(r.Users)), nil
}

// Update replaces a user
func (r *MockUserRepository) Update(_ context.Context, user *User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for _, u := range r.Users {
		if u.Username == user.Username && u.ID != user.ID {
			return errors.Wrapf(communication.ErrConflict, "username %s is taken", user.Username)
		}
	}

	for i, u := range r.Users {
		if u.ID == user.ID {
			user.LastModifiedAt = time.Now()
			stored := *user
			r.Users[i] = &stored
			return nil
		}
	}

	return errors.Wrap(communication.ErrNotFound, "user")
}

// Remove deletes a user
func (r *MockUserRepository) Remove(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for i, user := range r.Users {
		if user.ID.Hex() == id {
			r.Users = append(r.Users[:i], r.Users[i+1:]...)
			return nil
		}
	}

	return errors.Wrap(communication.ErrNotFound, "user")
}
