// Package storage reads stored images back out of the hosted object store so
// the HTTP layer can serve them around the browser CORS restriction.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"
)

var ErrObjectNotFound = errors.New("storage_object_not_found")

// Object is one stored image: its content type and a byte stream the caller
// must close.
type Object struct {
	ContentType string
	Body        io.ReadCloser
}

type ImageStore struct {
	bucket  string
	objects *gstorage.ObjectsService
}

func NewImageStore(ctx context.Context, bucket, credentialsPath string, opts ...option.ClientOption) (*ImageStore, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("storage bucket required")
	}
	if credentialsPath != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsPath)}, opts...)
	}
	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage service: %w", err)
	}
	return &ImageStore{bucket: bucket, objects: svc.Objects}, nil
}

// Open stats the object and returns its byte stream. A missing object is
// ErrObjectNotFound; content type falls back to image/jpeg when the stored
// metadata has none.
func (s *ImageStore) Open(ctx context.Context, path string) (*Object, error) {
	meta, err := s.objects.Get(s.bucket, path).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("stat object %s: %w", path, err)
	}

	resp, err := s.objects.Get(s.bucket, path).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("read object %s: %w", path, err)
	}

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return &Object{ContentType: contentType, Body: resp.Body}, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
