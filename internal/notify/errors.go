package notify

import "errors"

var (
	// ErrUserDirectoryRequired is returned when a user directory is not provided.
	ErrUserDirectoryRequired = errors.New("user directory required")

	// ErrContentStoreRequired is returned when a content store is not provided.
	ErrContentStoreRequired = errors.New("content store required")

	// ErrNotificationStoreRequired is returned when a notification store is not provided.
	ErrNotificationStoreRequired = errors.New("notification store required")
)
