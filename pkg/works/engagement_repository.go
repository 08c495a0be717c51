package works

import (
	"context"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EngagementRepositoryInterface stores client engagements
type EngagementRepositoryInterface interface {
	Add(ctx context.Context, engagement *Engagement) error
	FindByID(ctx context.Context, id string) (*Engagement, error)
	FindAll(ctx context.Context, page int, pageSize int) ([]Engagement, int, error)
	Update(ctx context.Context, engagement *Engagement, patch *EngagementPatch) error
	Remove(ctx context.Context, id string) error
}

// MongoDBEngagementRepository stores engagements in MongoDB
type MongoDBEngagementRepository struct {
	DB     *mongo.Collection
	Logger logger.Interface
}

// EnsureIndexes creates the index backing the newest-first listing
func (s *MongoDBEngagementRepository) EnsureIndexes(ctx context.Context) error {
	_, err := s.DB.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("created_desc"),
	})
	return err
}

// Add adds an engagement
func (s *MongoDBEngagementRepository) Add(ctx context.Context, engagement *Engagement) error {
	engagement.CreatedAt = time.Now()
	engagement.LastModifiedAt = engagement.CreatedAt
	engagement.ID = primitive.NewObjectID()

	_, err := s.DB.InsertOne(ctx, engagement)
	return err
}

// FindByID finds an engagement by id
func (s *MongoDBEngagementRepository) FindByID(ctx context.Context, id string) (*Engagement, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.Wrap(communication.ErrNotFound, "malformed work id")
	}

	engagement := Engagement{}
	result := s.DB.FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		if result.Err() == mongo.ErrNoDocuments {
			return nil, errors.Wrap(communication.ErrNotFound, "work")
		}
		return nil, result.Err()
	}

	err = result.Decode(&engagement)
	if err != nil {
		return nil, err
	}

	return &engagement, nil
}

// FindAll returns a page of engagements, newest first
func (s *MongoDBEngagementRepository) FindAll(ctx context.Context, page int, pageSize int) ([]Engagement, int, error) {
	engagements := []Engagement{}

	findOptions := options.Find()
	findOptions.SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	findOptions.SetSkip(int64(page * pageSize))
	findOptions.SetLimit(int64(pageSize))

	cursor, err := s.DB.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, err
	}

	err = cursor.All(ctx, &engagements)
	if err != nil {
		return nil, 0, err
	}

	count, err := s.DB.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	return engagements, int(count), nil
}

// Update writes the fields present in patch
func (s *MongoDBEngagementRepository) Update(ctx context.Context, engagement *Engagement, patch *EngagementPatch) error {
	engagement.LastModifiedAt = time.Now()

	set, err := patch.setDocument(engagement.LastModifiedAt)
	if err != nil {
		return err
	}

	result, err := s.DB.UpdateOne(ctx, bson.M{"_id": engagement.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}

	if result.MatchedCount != 1 {
		return errors.Wrap(communication.ErrNotFound, "work")
	}

	return nil
}

// Remove deletes an engagement
func (s *MongoDBEngagementRepository) Remove(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errors.Wrap(communication.ErrNotFound, "malformed work id")
	}

	result, err := s.DB.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount != 1 {
		return errors.Wrap(communication.ErrNotFound, "work")
	}

	return nil
}
