package search

import (
	"errors"
	"fmt"
)

// ErrInvalidSearchExpression matches every *InvalidSearchExpressionError.
var ErrInvalidSearchExpression = errors.New("invalid search expression")

// InvalidSearchExpressionError reports an expression that fell through to
// the regular expression path and did not compile.
type InvalidSearchExpressionError struct {
	Expression string
	Err        error
}

func (e *InvalidSearchExpressionError) Error() string {
	return fmt.Sprintf("invalid search expression %q: %v", e.Expression, e.Err)
}

func (e *InvalidSearchExpressionError) Unwrap() error {
	return e.Err
}

func (e *InvalidSearchExpressionError) Is(target error) bool {
	return target == ErrInvalidSearchExpression
}
