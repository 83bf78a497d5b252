package search

import "errors"

var (
	// ErrIndexRequired is returned when no index is provided to NewEngine.
	ErrIndexRequired = errors.New("search index required")

	// ErrInvalidPerPage is returned when a default page size below 1 is configured.
	ErrInvalidPerPage = errors.New("per-page default must be positive")
)
