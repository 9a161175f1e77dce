package core

import "time"

// Redis keys and defaults for the blob-deletion queue.
const (
	PendingDeletesKey    = "pending_object_deletes"
	ProcessingDeletesKey = "processing_object_deletes"
	// DefaultVisibilityTimeout is how long a worker may hold a job before it
	// is considered abandoned and requeued.
	DefaultVisibilityTimeout = 30 * time.Second
)
