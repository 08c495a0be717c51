package logger

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/logging"
	"google.golang.org/api/option"
)

// GoogleCloudLogger sends structured entries to Google Cloud Logging
type GoogleCloudLogger struct {
	client *logging.Client
	logger *logging.Logger
}

// NewGoogleCloudLogger builds a GoogleCloudLogger writing into the log logID of projectID
func NewGoogleCloudLogger(ctx context.Context, projectID string, logID string, opts ...option.ClientOption) (*GoogleCloudLogger, error) {
	client, err := logging.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, err
	}

	return &GoogleCloudLogger{
		client: client,
		logger: client.Logger(logID),
	}, nil
}

func (l *GoogleCloudLogger) log(severity logging.Severity, message string, err error) {
	payload := map[string]interface{}{
		"message": message,
	}

	if err != nil {
		payload["error"] = err.Error()
	}

	l.logger.Log(logging.Entry{
		Severity: severity,
		Payload:  payload,
	})
}

// Error is for throwing a log message with status Error
func (l *GoogleCloudLogger) Error(message string, err error) {
	l.log(logging.Error, message, err)
}

// Warning is for throwing a log message with status Warning
func (l *GoogleCloudLogger) Warning(message string, err error) {
	l.log(logging.Warning, message, err)
}

// Info is for throwing a log message with status Info
func (l *GoogleCloudLogger) Info(message string) {
	l.log(logging.Info, message, nil)
}

// Debug is for throwing a log message with status Debug
func (l *GoogleCloudLogger) Debug(message string) {
	l.log(logging.Debug, message, nil)
}

// Fatal logs synchronously, flushes and exits
func (l *GoogleCloudLogger) Fatal(err error) {
	l.logger.Log(logging.Entry{
		Severity: logging.Critical,
		Payload:  map[string]interface{}{"error": fmt.Sprint(err)},
	})
	_ = l.Close()
	os.Exit(1)
}

// Close flushes buffered entries
func (l *GoogleCloudLogger) Close() error {
	return l.client.Close()
}
