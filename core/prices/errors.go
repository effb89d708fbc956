package prices

import "errors"

var (
	// ErrDatasetUnavailable indicates the raw dataset could not be fetched or
	// refreshed. Callers may keep working with the local copy.
	ErrDatasetUnavailable = errors.New("price dataset unavailable")

	// ErrTimestampNotCovered indicates no published interval contains the
	// requested instant.
	ErrTimestampNotCovered = errors.New("timestamp not covered by any price interval")

	// ErrEmptyRange indicates a statistical query over a window without data.
	ErrEmptyRange = errors.New("no prices in requested range")
)
