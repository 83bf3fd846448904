package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Qubut/IP-Claim/internal/infrastructure/storage/minio"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// Source yields raw HUPD JSON documents to import.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Each calls fn for every document.  A non-nil error from fn aborts the
	// walk; per-document read failures are reported through fn's err value
	// so the caller decides whether to continue.
	Each(ctx context.Context, fn func(name string, data []byte, readErr error) error) error
}

// DirSource walks a directory tree for .json files.
type DirSource struct {
	root string
}

// NewDirSource builds a source over the given directory.
func NewDirSource(root string) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "source directory is not readable")
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeBadRequest, "source path is not a directory")
	}
	return &DirSource{root: root}, nil
}

func (s *DirSource) Name() string { return "dir:" + s.root }

func (s *DirSource) Each(ctx context.Context, fn func(string, []byte, error) error) error {
	return filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		data, readErr := os.ReadFile(path)
		return fn(path, data, readErr)
	})
}

// BucketSource lists HUPD documents from object storage under a prefix.
type BucketSource struct {
	store  minio.DocumentStore
	prefix string
}

// NewBucketSource builds a source over the document store.
func NewBucketSource(store minio.DocumentStore, prefix string) *BucketSource {
	return &BucketSource{store: store, prefix: prefix}
}

func (s *BucketSource) Name() string { return "bucket:" + s.prefix }

func (s *BucketSource) Each(ctx context.Context, fn func(string, []byte, error) error) error {
	return s.store.List(ctx, s.prefix, func(info minio.DocumentInfo) error {
		data, readErr := s.store.Get(ctx, info.Key)
		return fn(info.Key, data, readErr)
	})
}
