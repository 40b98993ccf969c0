// Package blobstore abstracts the durable artifact store. Paths are the
// addressing scheme (content is not hashed); the returned URL is what
// gets persisted on the submission record.
package blobstore

import "context"

type Store interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, url string) ([]byte, error)
}
