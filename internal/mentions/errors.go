package mentions

import "errors"

var (
	// ErrUserDirectoryRequired is returned when a user directory is not provided.
	ErrUserDirectoryRequired = errors.New("user directory required")

	// ErrRendererRequired is returned when a nil renderer is configured.
	ErrRendererRequired = errors.New("renderer required")

	// ErrContentStoreRequired is returned when a content store is not provided.
	ErrContentStoreRequired = errors.New("content store required")

	// ErrNotifierRequired is returned when a notifier is not provided.
	ErrNotifierRequired = errors.New("notifier required")

	// ErrResolverRequired is returned when a resolver is not provided.
	ErrResolverRequired = errors.New("resolver required")
)
