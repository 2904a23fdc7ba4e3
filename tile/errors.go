package tile

import "fmt"

// InvalidNameError is returned when a file's stem does not match the
// expected [NS]dd[EW]ddd pattern.
type InvalidNameError struct {
	Path string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("tile: invalid file name %q: expected [NS]dd[EW]ddd.hgt", e.Path)
}

// InvalidLengthError is returned when a file's byte length matches
// neither the 1" nor the 3" layout.
type InvalidLengthError struct {
	Path  string
	Bytes int64
}

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("tile: invalid length %d for %q: expected 1\" (25934402) or 3\" (2884802) layout", e.Bytes, e.Path)
}
