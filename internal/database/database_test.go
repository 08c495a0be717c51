package database

import (
	"context"
	"testing"

	"github.com/pkg/errors"
)

type recordingIndexer struct {
	calls *[]string
	name  string
	err   error
}

func (r recordingIndexer) EnsureIndexes(context.Context) error {
	*r.calls = append(*r.calls, r.name)
	return r.err
}

func TestEnsureIndexes(t *testing.T) {
	var calls []string
	failure := errors.New("index build failed")

	err := EnsureIndexes(context.Background(),
		recordingIndexer{calls: &calls, name: "users"},
		recordingIndexer{calls: &calls, name: "attendance", err: failure},
		recordingIndexer{calls: &calls, name: "tasks"},
	)

	if !errors.Is(err, failure) {
		t.Fatalf("EnsureIndexes() error = %v", err)
	}
	if len(calls) != 2 || calls[0] != "users" || calls[1] != "attendance" {
		t.Errorf("unexpected calls %v", calls)
	}
}

func TestEnsureIndexes_None(t *testing.T) {
	if err := EnsureIndexes(context.Background()); err != nil {
		t.Error(err)
	}
}
