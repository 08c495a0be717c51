package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// CloudStorage stores files in a Google Cloud Storage bucket
type CloudStorage struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewCloudStorage connects to the bucket, objects are stored under prefix
func NewCloudStorage(ctx context.Context, bucket string, prefix string, opts ...option.ClientOption) (*CloudStorage, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &CloudStorage{client: client, bucket: bucket, prefix: prefix}, nil
}

// Save uploads the file and returns its public URL
func (s *CloudStorage) Save(ctx context.Context, name string, contentType string, content io.Reader) (string, error) {
	objectName := s.prefix + "/" + name
	writer := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType

	_, err := io.Copy(writer, io.LimitReader(content, MaxImageSize))
	if err != nil {
		_ = writer.Close()
		return "", err
	}

	err = writer.Close()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName), nil
}

// Close releases the client
func (s *CloudStorage) Close() error {
	return s.client.Close()
}
