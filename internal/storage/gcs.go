package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

type GCSWriter struct {
	client *gcs.Client
	bucket string
}

func NewGCSWriter(ctx context.Context, bucket string) (*GCSWriter, error) {
	c, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSWriter{client: c, bucket: bucket}, nil
}

func (g *GCSWriter) Close() error { return g.client.Close() }

// Put writes the object privately and only if it does not exist yet.
func (g *GCSWriter) Put(ctx context.Context, obj Object) (string, error) {
	path := fmt.Sprintf("gs://%s/%s", g.bucket, obj.Name)

	h := g.client.Bucket(g.bucket).Object(obj.Name).If(gcs.Conditions{DoesNotExist: true})
	w := h.NewWriter(ctx)
	w.ContentType = obj.ContentType
	w.CacheControl = "private, no-store"
	w.Metadata = obj.Metadata
	// transcripts are small; send in one request
	w.ChunkSize = 0

	if _, err := io.Copy(w, bytes.NewReader(obj.Body)); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		if alreadyExists(err) {
			return path, nil
		}
		return "", err
	}
	return path, nil
}

func alreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
