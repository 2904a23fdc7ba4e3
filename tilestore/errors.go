package tilestore

import "fmt"

// NoHeightFilesError is returned by Open when a tile directory
// contains no .hgt files.
type NoHeightFilesError struct {
	Dir string
}

func (e *NoHeightFilesError) Error() string {
	return fmt.Sprintf("tilestore: no .hgt files found in %s", e.Dir)
}
