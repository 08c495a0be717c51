package tasks

import (
	"context"
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

// TaskRepositoryInterface is used to define a TaskRepository
type TaskRepositoryInterface interface {
	Add(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, taskID string) (*Task, error)
	FindAll(ctx context.Context, scope policy.Scope, page int, pageSize int) ([]TaskView, int, error)
	Update(ctx context.Context, task *Task, patch *TaskPatch) error
	Delete(ctx context.Context, taskID string) error
}

// MongoDBTaskRepository does everything related to storing and finding tasks
type MongoDBTaskRepository struct {
	DB              *mongo.Collection
	UsersCollection string
	Logger          logger.Interface
}

// EnsureIndexes creates the indexes list queries rely on
func (s *MongoDBTaskRepository) EnsureIndexes(ctx context.Context) error {
	_, err := s.DB.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
	})
	return err
}

// Add adds a task
func (s *MongoDBTaskRepository) Add(ctx context.Context, task *Task) error {
	task.CreatedAt = time.Now()
	task.LastModifiedAt = task.CreatedAt
	task.ID = primitive.NewObjectID()

	for index, subtask := range task.Subtasks {
		if subtask.ID.IsZero() {
			task.Subtasks[index].ID = primitive.NewObjectID()
		}
	}

	_, err := s.DB.InsertOne(ctx, task)
	return err
}

// FindByID finds a task by id
func (s *MongoDBTaskRepository) FindByID(ctx context.Context, taskID string) (*Task, error) {
	taskObjectID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return nil, errors.Wrap(communication.ErrNotFound, "malformed task id")
	}

	task := Task{}
	result := s.DB.FindOne(ctx, bson.M{"_id": taskObjectID})
	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return nil, errors.Wrap(communication.ErrNotFound, "task")
		}
		return nil, result.Err()
	}

	err = result.Decode(&task)
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// FindAll finds the tasks visible in scope, newest first, with the assignee populated
func (s *MongoDBTaskRepository) FindAll(ctx context.Context, scope policy.Scope, page int, pageSize int) ([]TaskView, int, error) {
	t := []TaskView{}

	filter := bson.M{}
	if !scope.Unrestricted {
		ownerID, err := primitive.ObjectIDFromHex(scope.OwnerID)
		if err != nil {
			return t, 0, nil
		}
		filter["assignedTo"] = ownerID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64(page * pageSize)}},
		{{Key: "$limit", Value: int64(pageSize)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         s.usersCollection(),
			"localField":   "assignedTo",
			"foreignField": "_id",
			"as":           "assignee",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$assignee", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{"assignee.password": 0, "assignee.profileImage": 0,
			"assignee.createdAt": 0, "assignee.lastModifiedAt": 0}}},
	}

	cursor, err := s.DB.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}

	err = cursor.All(ctx, &t)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.DB.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return t, int(count), nil
}

// Update writes the fields the patch touched
func (s *MongoDBTaskRepository) Update(ctx context.Context, task *Task, patch *TaskPatch) error {
	task.LastModifiedAt = time.Now()

	result, err := s.DB.UpdateOne(ctx, bson.M{"_id": task.ID}, bson.M{"$set": patch.setDocument(task)},
		options.Update().SetUpsert(false))
	if err != nil {
		return err
	}

	if result.MatchedCount != 1 {
		return errors.Wrap(communication.ErrNotFound, "task")
	}

	return nil
}

// Delete removes a task
func (s *MongoDBTaskRepository) Delete(ctx context.Context, taskID string) error {
	taskObjectID, err := primitive.ObjectIDFromHex(taskID)
	if err != nil {
		return errors.Wrap(communication.ErrNotFound, "malformed task id")
	}

	result, err := s.DB.DeleteOne(ctx, bson.M{"_id": taskObjectID})
	if err != nil {
		return err
	}

	if result.DeletedCount != 1 {
		return errors.Wrap(communication.ErrNotFound, "task")
	}

	return nil
}

func (s *MongoDBTaskRepository) usersCollection() string {
	if s.UsersCollection == "" {
		return "users"
	}
	return s.UsersCollection
}
