package format

import "errors"

var (
	// ErrUnsupportedFormat indicates a file extension outside the handler
	// lookup table. Raised before the file is opened.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrInvalidFormat indicates a file that is not a valid instance of
	// its claimed format: an unreadable SQLite header, unparseable CSV.
	ErrInvalidFormat = errors.New("file is not a valid instance of its format")
)
