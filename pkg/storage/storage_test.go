package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/pkg/errors"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"png", "me.png", "image/png", 100, false},
		{"jpg upper", "ME.JPG", "image/jpeg", 100, false},
		{"gif", "me.gif", "image/gif", 100, true},
		{"png disguised", "me.png", "application/pdf", 100, true},
		{"too large", "me.png", "image/png", MaxImageSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(tt.filename, tt.contentType, tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateImage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, communication.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDiskStorage_Save(t *testing.T) {
	directory := t.TempDir()
	store, err := NewDiskStorage(directory, "uploads")
	if err != nil {
		t.Fatal(err)
	}

	name := UniqueName("profileImage", "avatar.PNG")
	if !strings.HasPrefix(name, "profileImage-") || !strings.HasSuffix(name, ".png") {
		t.Errorf("UniqueName() = %s", name)
	}

	publicPath, err := store.Save(context.Background(), name, "image/png", bytes.NewBufferString("image"))
	if err != nil {
		t.Fatal(err)
	}
	if publicPath != "uploads/"+name {
		t.Errorf("Save() = %s", publicPath)
	}

	content, err := os.ReadFile(filepath.Join(directory, name))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "image" {
		t.Errorf("stored %q", content)
	}
}

func TestDiskStorage_SaveRejectsOversized(t *testing.T) {
	directory := t.TempDir()
	store, err := NewDiskStorage(directory, "uploads")
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Save(context.Background(), "big.png", "image/png", bytes.NewReader(make([]byte, MaxImageSize+10)))
	if err == nil {
		t.Fatal("expected size error")
	}

	entries, _ := os.ReadDir(directory)
	if len(entries) != 0 {
		t.Errorf("partial file left behind")
	}
}
