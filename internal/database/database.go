package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/logger"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names, shared with the records the previous backend wrote
const (
	CollectionUsers      = "users"
	CollectionTasks      = "tasks"
	CollectionAttendance = "attendances"
	CollectionWorks      = "works"
)

// Indexer is a repository that owns indexes
type Indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// Connect opens a client for url, pings the primary and returns the named database
func Connect(ctx context.Context, url string, name string, logger logger.Interface) (*mongo.Client, *mongo.Database, error) {
	clientOptions := options.Client().ApplyURI(url).SetConnectTimeout(10 * time.Second)

	client, err := mongo.NewClient(clientOptions)
	if err != nil {
		return nil, nil, err
	}

	err = client.Connect(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not connect to database")
	}

	err = client.Ping(ctx, readpref.Primary())
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "database did not answer ping")
	}

	logger.Info(fmt.Sprintf("Database %s connected", name))

	return client, client.Database(name), nil
}

// EnsureIndexes creates the indexes of every repository, stopping at the first failure
func EnsureIndexes(ctx context.Context, indexers ...Indexer) error {
	for _, indexer := range indexers {
		err := indexer.EnsureIndexes(ctx)
		if err != nil {
			return errors.Wrapf(err, "could not create indexes for %T", indexer)
		}
	}

	return nil
}
