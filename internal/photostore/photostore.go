package photostore

import (
	"context"
	"io"
)

// PhotoStore persists photo blobs for work orders and quotes. The database
// only ever holds the returned filename; re-parenting a photo between
// documents never touches the blob.
type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (filename string, err error)
	Get(ctx context.Context, filename string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, filename string) error
}
