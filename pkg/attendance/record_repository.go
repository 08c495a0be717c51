package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/date"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/policy"
	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateDay is returned when a record for the same user and day exists
var ErrDuplicateDay = errors.New("attendance record for this day exists")

// RecordRepositoryInterface stores attendance records
type RecordRepositoryInterface interface {
	Add(ctx context.Context, record *Record) error
	FindInWindow(ctx context.Context, userID primitive.ObjectID, window date.Timespan) (*Record, error)
	FindAll(ctx context.Context, scope policy.Scope, page int, pageSize int) ([]RecordView, int, error)
}

// MongoDBRecordRepository stores attendance records in MongoDB
type MongoDBRecordRepository struct {
	DB              *mongo.Collection
	UsersCollection string
	Logger          logger.Interface
}

// EnsureIndexes creates the unique (userId, day) index that backs the one record per day rule
func (s *MongoDBRecordRepository) EnsureIndexes(ctx context.Context) error {
	_, err := s.DB.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("user_day_unique").
				SetPartialFilterExpression(bson.M{"day": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
	})
	return err
}

// Add adds a record
func (s *MongoDBRecordRepository) Add(ctx context.Context, record *Record) error {
	record.CreatedAt = time.Now()
	record.LastModifiedAt = record.CreatedAt
	record.ID = primitive.NewObjectID()

	_, err := s.DB.InsertOne(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateDay
	}
	return err
}

// FindInWindow finds the record of userID whose date lies inside window
func (s *MongoDBRecordRepository) FindInWindow(ctx context.Context, userID primitive.ObjectID, window date.Timespan) (*Record, error) {
	record := Record{}

	result := s.DB.FindOne(ctx, bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": window.Start, "$lte": window.End},
	})
	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return nil, pkgerrors.Wrap(communication.ErrNotFound, "attendance record")
		}
		return nil, result.Err()
	}

	err := result.Decode(&record)
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// FindAll finds the records in scope, newest first, with the user populated
func (s *MongoDBRecordRepository) FindAll(ctx context.Context, scope policy.Scope, page int, pageSize int) ([]RecordView, int, error) {
	records := []RecordView{}

	filter := bson.M{}
	if !scope.Unrestricted {
		ownerID, err := primitive.ObjectIDFromHex(scope.OwnerID)
		if err != nil {
			return records, 0, nil
		}
		filter["userId"] = ownerID
	}

	usersCollection := s.UsersCollection
	if usersCollection == "" {
		usersCollection = "users"
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64(page * pageSize)}},
		{{Key: "$limit", Value: int64(pageSize)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "userId",
			"foreignField": "_id",
			"as":           "user",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$user", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{"user.password": 0, "user.profileImage": 0,
			"user.createdAt": 0, "user.lastModifiedAt": 0}}},
	}

	cursor, err := s.DB.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}

	err = cursor.All(ctx, &records)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.DB.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return records, int(count), nil
}
