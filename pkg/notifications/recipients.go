package notifications

import (
	"context"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/users"
)

const adminsKey = "notifications:admins"

// RecipientResolver finds the users that are told about finished tasks
type RecipientResolver interface {
	Admins(ctx context.Context) ([]string, error)
}

// RepositoryResolver reads the admins from the user repository on every call
type RepositoryResolver struct {
	UserRepository users.UserRepositoryInterface
}

// Admins returns the ids of all Senior and Manager users
func (r *RepositoryResolver) Admins(ctx context.Context) ([]string, error) {
	admins, err := r.UserRepository.FindByRoles(ctx, policy.RoleSenior, policy.RoleManager)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(admins))
	for _, admin := range admins {
		ids = append(ids, admin.ID.Hex())
	}

	return ids, nil
}

// CachedResolver keeps the result of another resolver in a RecipientCacheInterface
type CachedResolver struct {
	Resolver RecipientResolver
	Cache    RecipientCacheInterface
	Logger   logger.Interface
}

// Admins serves from the cache and falls back to the wrapped resolver
func (r *CachedResolver) Admins(ctx context.Context) ([]string, error) {
	cached, err := r.Cache.Get(ctx, adminsKey)
	if err == nil {
		return cached, nil
	}

	admins, err := r.Resolver.Admins(ctx)
	if err != nil {
		return nil, err
	}

	err = r.Cache.Add(ctx, adminsKey, admins)
	if err != nil {
		r.Logger.Warning("Could not cache notification recipients", err)
	}

	return admins, nil
}

// UsersChanged drops the cached admins after a user was added, changed or removed
func (r *CachedResolver) UsersChanged() {
	err := r.Cache.Invalidate(context.Background(), adminsKey)
	if err != nil {
		r.Logger.Warning("Could not invalidate notification recipients", err)
	}
}
