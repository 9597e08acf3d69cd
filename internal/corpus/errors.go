package corpus

import "fmt"

// OutOfRangeError reports a global index outside [0, totalUnits).
type OutOfRangeError struct {
	Index int
	Total int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("global index %d out of range [0, %d)", e.Index, e.Total)
}

// NotFoundError reports an address that does not exist in the corpus:
// an unknown tractate name or a chapter/unit index beyond its bounds.
type NotFoundError struct {
	Tractate string
	Chapter  int
	Unit     int
	Reason   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no unit %s %d:%d in corpus: %s", e.Tractate, e.Chapter, e.Unit, e.Reason)
}
