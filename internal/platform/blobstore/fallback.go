package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Fallback tries its stores in order until one accepts the upload. Reads and
// deletes are routed by the backend tag recorded with the object.
type Fallback struct {
	stores []Store
	logger zerolog.Logger
}

func NewFallback(logger zerolog.Logger, stores ...Store) *Fallback {
	var nonNil []Store
	for _, s := range stores {
		if s != nil {
			nonNil = append(nonNil, s)
		}
	}
	return &Fallback{stores: nonNil, logger: logger}
}

// Backends lists the configured backend tags in order.
func (f *Fallback) Backends() []string {
	out := make([]string, len(f.stores))
	for i, s := range f.stores {
		out[i] = s.Backend()
	}
	return out
}

// Put stores r under key. r is rewound before each retry.
func (f *Fallback) Put(ctx context.Context, key string, r io.ReadSeeker, size int64, contentType string) (Object, error) {
	var errs []error
	for i, s := range f.stores {
		if i > 0 {
			if _, err := r.Seek(0, io.SeekStart); err != nil {
				return Object{}, fmt.Errorf("rewind upload: %w", err)
			}
		}
		obj, err := s.Put(ctx, key, r, size, contentType)
		if err == nil {
			return obj, nil
		}
		if errors.Is(err, ErrInvalidKey) || ctx.Err() != nil {
			return Object{}, err
		}
		f.logger.Warn().Err(err).Str("backend", s.Backend()).Str("key", key).Msg("storage backend rejected upload, falling back")
		errs = append(errs, fmt.Errorf("%s: %w", s.Backend(), err))
	}
	if len(errs) == 0 {
		return Object{}, ErrNoBackend
	}
	return Object{}, fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}

func (f *Fallback) store(backend string) (Store, error) {
	for _, s := range f.stores {
		if s.Backend() == backend {
			return s, nil
		}
	}
	return nil, fmt.Errorf("storage backend %q not configured", backend)
}

// Open streams the object stored on backend under key.
func (f *Fallback) Open(ctx context.Context, backend, key string) (io.ReadCloser, error) {
	s, err := f.store(backend)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, key)
}

// Delete removes the object stored on backend under key.
func (f *Fallback) Delete(ctx context.Context, backend, key string) error {
	s, err := f.store(backend)
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}
