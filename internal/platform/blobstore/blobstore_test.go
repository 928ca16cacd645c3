package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/apperr"
)

func TestSanitizeFileName(t *testing.T) {
	tests := map[string]string{
		"blood test.pdf":        "blood_test.pdf",
		"../../etc/passwd":      "passwd",
		`C:\scans\x-ray #1.png`: "x-ray_1.png",
		"..":                    "file",
		"":                      "file",
	}
	for in, want := range tests {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	if got := NewKey("lab-reports", "cbc results.pdf", now); got != "lab-reports/1700000000123-cbc_results.pdf" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestValidKey(t *testing.T) {
	for _, k := range []string{"", "/abs", "a/../b", "a//b", `a\b`, "."} {
		if validKey(k) {
			t.Errorf("expected %q to be rejected", k)
		}
	}
	if !validKey("lab-reports/1-a.pdf") {
		t.Error("expected nested key to be valid")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	obj, err := s.Put(ctx, "lab-reports/1-a.txt", strings.NewReader("hello"), 5, "text/plain")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Backend != BackendMemory || obj.Size != 5 || obj.URL != "" {
		t.Errorf("unexpected object %+v", obj)
	}

	rc, err := s.Open(ctx, obj.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "hello" {
		t.Errorf("expected hello, got %q", data)
	}

	if err := s.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Open(ctx, obj.Key); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	obj, err := s.Put(ctx, "lab-reports/1-a.txt", strings.NewReader("report body"), -1, "text/plain")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Backend != BackendLocal || obj.Size != int64(len("report body")) {
		t.Errorf("unexpected object %+v", obj)
	}

	onDisk, err := os.ReadFile(filepath.Join(dir, "lab-reports", "1-a.txt"))
	if err != nil || string(onDisk) != "report body" {
		t.Fatalf("expected bytes on disk, got %q %v", onDisk, err)
	}

	rc, err := s.Open(ctx, obj.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rc.Close()

	if _, err := s.Put(ctx, "../escape.txt", strings.NewReader("x"), 1, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected invalid key, got %v", err)
	}
	if err := s.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, obj.Key); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFallback_UsesNextBackend(t *testing.T) {
	ctx := context.Background()
	primary := NewMemoryStore()
	primary.FailPut = true
	local, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	f := NewFallback(zerolog.Nop(), primary, nil, local)

	if got := f.Backends(); len(got) != 2 || got[0] != BackendMemory || got[1] != BackendLocal {
		t.Fatalf("unexpected backends %v", got)
	}

	obj, err := f.Put(ctx, "lab-reports/2-b.txt", bytes.NewReader([]byte("fallback")), 8, "text/plain")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if obj.Backend != BackendLocal {
		t.Fatalf("expected local backend, got %s", obj.Backend)
	}

	rc, err := f.Open(ctx, obj.Backend, obj.Key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "fallback" {
		t.Errorf("expected full content after rewind, got %q", data)
	}

	if err := f.Delete(ctx, obj.Backend, obj.Key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.Open(ctx, BackendS3, obj.Key); err == nil {
		t.Error("expected error for unconfigured backend")
	}
}

func TestFallback_AllFail(t *testing.T) {
	a := NewMemoryStore()
	a.FailPut = true
	f := NewFallback(zerolog.Nop(), a)
	if _, err := f.Put(context.Background(), "k/1", strings.NewReader("x"), 1, ""); !errors.Is(err, ErrNoBackend) {
		t.Errorf("expected ErrNoBackend, got %v", err)
	}
	if _, err := NewFallback(zerolog.Nop()).Put(context.Background(), "k/1", strings.NewReader("x"), 1, ""); !errors.Is(err, ErrNoBackend) {
		t.Errorf("expected ErrNoBackend with no stores, got %v", err)
	}
}

func TestMinioStore_ObjectURL(t *testing.T) {
	s := &MinioStore{cfg: MinioConfig{Endpoint: "s3.local:9000", Bucket: "hms"}}
	if got := s.objectURL("lab-reports/1-a.pdf"); got != "http://s3.local:9000/hms/lab-reports/1-a.pdf" {
		t.Errorf("unexpected url %q", got)
	}
	s.cfg.UseSSL = true
	s.cfg.PublicURL = "https://cdn.example.com/files/"
	if got := s.objectURL("lab-reports/1-a.pdf"); got != "https://cdn.example.com/files/lab-reports/1-a.pdf" {
		t.Errorf("unexpected url %q", got)
	}
}
