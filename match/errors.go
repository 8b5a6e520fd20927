package match

import "fmt"

// InvalidQueryError indicates a match request that cannot be answered:
// an empty or unknown feature selection, or a candidate count outside
// the collection size. The batch that issued the query decides whether
// to abort or skip.
type InvalidQueryError struct {
	Reason string
	Err    error
}

func (e *InvalidQueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid query: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid query: %s", e.Reason)
}

func (e *InvalidQueryError) Unwrap() error {
	return e.Err
}
