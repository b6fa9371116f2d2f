package index

import "fmt"

// DimensionMismatchError is returned when a vector's length disagrees with
// the index's configured dimensionality. Fatal to the single call, not the
// process.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: index expects %d, got %d", e.Want, e.Got)
}
