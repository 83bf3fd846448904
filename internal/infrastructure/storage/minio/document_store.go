package minio

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

const jsonContentType = "application/json"

// DocumentInfo describes one stored HUPD JSON file.
type DocumentInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// DocumentStore reads and writes raw HUPD patent JSON files. Keys are plain
// object names; Put derives them from the publication number.
type DocumentStore interface {
	Put(ctx context.Context, publicationNumber string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// List walks the JSON objects under prefix, invoking fn for each. A
	// non-nil error from fn aborts the walk.
	List(ctx context.Context, prefix string, fn func(DocumentInfo) error) error
}

type documentStore struct {
	client *Client
	logger logging.Logger
}

// NewDocumentStore returns a DocumentStore over the client's bucket.
func NewDocumentStore(client *Client, log logging.Logger) DocumentStore {
	return &documentStore{
		client: client,
		logger: log.Named("document_store"),
	}
}

// DocumentKey derives the object key for a publication number.
func DocumentKey(publicationNumber string) string {
	return publicationNumber + ".json"
}

func (s *documentStore) Put(ctx context.Context, publicationNumber string, data []byte) (string, error) {
	if publicationNumber == "" {
		return "", errors.New(errors.ErrCodeBadRequest, "publication number is required")
	}
	if len(data) == 0 {
		return "", errors.New(errors.ErrCodeBadRequest, "document data is required")
	}

	key := DocumentKey(publicationNumber)
	_, err := s.client.api.PutObject(ctx, s.client.bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: jsonContentType})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to store document")
	}

	s.logger.Debug("Stored document",
		logging.String("key", key),
		logging.Int("bytes", len(data)))
	return key, nil
}

func (s *documentStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "object key is required")
	}

	obj, err := s.client.api.ReadObject(ctx, s.client.bucket, key)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "document not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to open document")
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, errors.Wrap(err, errors.ErrCodeNotFound, "document not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to read document")
	}
	return data, nil
}

func (s *documentStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.client.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat document")
	}
	return true, nil
}

func (s *documentStore) Delete(ctx context.Context, key string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete document")
	}
	return nil
}

func (s *documentStore) List(ctx context.Context, prefix string, fn func(DocumentInfo) error) error {
	objects := s.client.api.ListObjects(ctx, s.client.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for obj := range objects {
		if obj.Err != nil {
			return errors.Wrap(obj.Err, errors.ErrCodeStorageError, "failed to list documents")
		}
		if !strings.EqualFold(path.Ext(obj.Key), ".json") {
			continue
		}
		if err := fn(DocumentInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		}); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// isNoSuchKey recognises the not-found error responses from the server.
func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
