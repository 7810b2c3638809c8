package inference

import "errors"

var (
	// ErrMissingColumns is returned when description or count cannot be located
	ErrMissingColumns = errors.New("Required column types missing")

	// ErrDuplicateProductIDs is returned when the mapped product ids are not unique
	ErrDuplicateProductIDs = errors.New("Duplicate product IDs found. Each product ID must be unique.")

	// ErrNoValidRows is returned when sanitization leaves an empty table
	ErrNoValidRows = errors.New("No valid rows remaining after removing non-numeric count values.")

	// ErrUnparseable is returned when no import strategy yields a table
	ErrUnparseable = errors.New("could not parse the file as a table with any known delimiter or header layout")

	// ErrEmptyTable is returned by Infer for a table without rows
	ErrEmptyTable = errors.New("the uploaded file has no data rows")
)
