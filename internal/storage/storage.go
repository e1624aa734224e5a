// Package storage archives finished call transcripts in object storage.
package storage

import "context"

// Object is one archived blob. Metadata is stored alongside it as object
// metadata, not in the body.
type Object struct {
	Name        string
	ContentType string
	Metadata    map[string]string
	Body        []byte
}

// ObjectWriter stores an object and returns the path it was written to.
// Writing a name that already exists leaves the stored object untouched.
type ObjectWriter interface {
	Put(ctx context.Context, obj Object) (storedPath string, err error)
}
