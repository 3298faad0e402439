package core

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// FileStorage is any service that can store uploaded objects and hand back
// a public URL for them. Two logical buckets exist: avatar images and
// lecture videos.
type FileStorage interface {
	Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}

// ObjectKey builds a collision-free object name from the owning user's ID,
// the upload time and the original file extension.
func ObjectKey(ownerID, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%d%s", ownerID, now.UnixNano(), filepath.Ext(filename))
}
