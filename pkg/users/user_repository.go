package users

import (
	"context"
	"regexp"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepositoryInterface is the interface for a UserRepository
type UserRepositoryInterface interface {
	Add(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindAll(ctx context.Context, page int, pageSize int) ([]User, int, error)
	FindByRoles(ctx context.Context, roles ...policy.Role) ([]User, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, user *User) error
	Remove(ctx context.Context, id string) error
}

// UserRepository does everything related to user storing
type UserRepository struct {
	DB     *mongo.Collection
	Logger logger.Interface
}

// EnsureIndexes creates the unique username index
func (s UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := s.DB.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	return err
}

// Add adds a user
func (s UserRepository) Add(ctx context.Context, user *User) error {
	user.CreatedAt = time.Now()
	user.LastModifiedAt = time.Now()
	user.ID = primitive.NewObjectID()

	_, err := s.DB.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(communication.ErrConflict, "username %s is taken", user.Username)
	}
	return err
}

// FindByID finds a user by ID
func (s UserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.Wrap(communication.ErrNotFound, "malformed user id")
	}

	return s.findOne(ctx, bson.M{"_id": objectID})
}

// FindByUsername finds a user by its username
func (s UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s UserRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u = User{}

	result := s.DB.FindOne(ctx, filter)
	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return nil, errors.Wrap(communication.ErrNotFound, "user")
		}
		return nil, result.Err()
	}

	err := result.Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindAll returns a page of users ordered by username
func (s UserRepository) FindAll(ctx context.Context, page int, pageSize int) ([]User, int, error) {
	users := make([]User, 0)

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "username", Value: 1}})
	findOptions.SetSkip(int64(page * pageSize))
	findOptions.SetLimit(int64(pageSize))
	findOptions.SetProjection(bson.M{"password": 0})

	cursor, err := s.DB.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, err
	}

	err = cursor.All(ctx, &users)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.DB.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	return users, int(count), nil
}

// FindByRoles returns every user holding one of the roles, whatever spelling the document stores
func (s UserRepository) FindByRoles(ctx context.Context, roles ...policy.Role) ([]User, error) {
	users := make([]User, 0)
	cursor, err := s.DB.Find(ctx, roleFilter(roles...), options.Find().SetProjection(bson.M{"password": 0}))
	if err != nil {
		return nil, err
	}

	err = cursor.All(ctx, &users)
	if err != nil {
		return nil, err
	}

	return users, nil
}

// roleFilter matches every spelling ParseRole accepts, ignoring case and surrounding blanks
func roleFilter(roles ...policy.Role) bson.M {
	patterns := bson.A{}
	for _, role := range roles {
		for _, spelling := range role.Spellings() {
			patterns = append(patterns, primitive.Regex{
				Pattern: `^\s*` + regexp.QuoteMeta(spelling) + `\s*$`,
				Options: "i",
			})
		}
	}

	return bson.M{"role": bson.M{"$in": patterns}}
}

// Count returns the number of stored users
func (s UserRepository) Count(ctx context.Context) (int64, error) {
	return s.DB.CountDocuments(ctx, bson.M{})
}

// Update updates a user
func (s UserRepository) Update(ctx context.Context, user *User) error {
	user.LastModifiedAt = time.Now()

	result, err := s.DB.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": user})
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(communication.ErrConflict, "username %s is taken", user.Username)
	}
	if err != nil {
		return err
	}

	if result.MatchedCount != 1 {
		return errors.Wrap(communication.ErrNotFound, "user")
	}

	return nil
}

// Remove Deletes a user
func (s UserRepository) Remove(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrap(communication.ErrNotFound, "malformed user id")
	}

	result, err := s.DB.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount != 1 {
		return errors.Wrap(communication.ErrNotFound, "user")
	}

	return nil
}
