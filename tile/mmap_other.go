//go:build !unix

package tile

import "fmt"

// newMmapStore is not supported on non-Unix platforms; callers should
// use Open (in-memory) there instead. Grounded on the teacher pack's
// own unix/other split for memory mapping (pspoerri-geotiff2pmtiles).
func newMmapStore(path string) (*mmapStore, error) {
	return nil, fmt.Errorf("tile: memory mapping is not supported on this platform, use Open instead")
}
