package core

import (
	"context"
	"fmt"
)

// DeleteProcessor removes photo blobs from the object store. A job is the
// bare object key; deleting an already-absent key succeeds (S3 delete is
// idempotent), so retried jobs converge.
type DeleteProcessor struct {
	store ObjectStore
}

func NewDeleteProcessor(store ObjectStore) *DeleteProcessor {
	return &DeleteProcessor{store: store}
}

func (p *DeleteProcessor) Process(ctx context.Context, objectKey string) error {
	if objectKey == "" {
		return fmt.Errorf("empty object key")
	}
	return p.store.Delete(ctx, objectKey)
}
