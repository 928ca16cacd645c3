// Package blobstore stores uploaded files. Backends share the Store interface:
// S3-compatible object storage through minio-go, a local directory, and an
// in-memory store for tests. Fallback chains them so an upload lands on the
// first backend that accepts it.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hms/hms/internal/platform/apperr"
)

var (
	ErrObjectNotFound = fmt.Errorf("file %w", apperr.ErrNotFound)
	ErrInvalidKey     = errors.New("invalid object key")
	ErrNoBackend      = errors.New("no storage backend accepted the object")
)

// Backend tags recorded next to each stored object.
const (
	BackendS3     = "s3"
	BackendLocal  = "local"
	BackendMemory = "memory"
)

// Object describes a stored file. URL is empty when the backend has no
// public address for it.
type Object struct {
	Backend     string
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// Store is one storage backend.
type Store interface {
	Backend() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName reduces name to a safe single path segment.
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		return "file"
	}
	if len(name) > 128 {
		name = name[len(name)-128:]
	}
	return name
}

// NewKey builds "<prefix>/<unix millis>-<sanitized name>".
func NewKey(prefix, fileName string, now time.Time) string {
	return prefix + "/" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + SanitizeFileName(fileName)
}

// validKey rejects keys that could escape a backend's namespace.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
