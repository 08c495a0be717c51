package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nikhilkumar202002/domain-dude-attendance/pkg/communication"
	"github.com/pkg/errors"
)

// MaxImageSize is the largest accepted profile image
const MaxImageSize = 5 * 1024 * 1024

var imageTypes = regexp.MustCompile(`jpeg|jpg|png`)

// Storage persists binary files under a path
type Storage interface {
	// Save stores the content and returns the public path of the file
	Save(ctx context.Context, name string, contentType string, content io.Reader) (string, error)
}

// ValidateImage accepts jpeg and png files by extension and content type
func ValidateImage(filename string, contentType string, size int64) error {
	extension := strings.ToLower(filepath.Ext(filename))
	if !imageTypes.MatchString(extension) || !imageTypes.MatchString(strings.ToLower(contentType)) {
		return errors.Wrap(communication.ErrValidation, "images only (jpeg, jpg, png)")
	}

	if size > MaxImageSize {
		return errors.Wrapf(communication.ErrValidation, "image is larger than %d bytes", MaxImageSize)
	}

	return nil
}

// UniqueName builds a collision free file name keeping the original extension
func UniqueName(field string, filename string) string {
	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().Unix(), uuid.New().String()[:8],
		strings.ToLower(filepath.Ext(filename)))
}
