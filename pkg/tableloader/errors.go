package tableloader

import "fmt"

// ParseError reports a table that could not be decoded. Row is the 1-based
// row or line the problem was found on, or 0 when unknown.
type ParseError struct {
	Source string
	Row    int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d: %v", e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
