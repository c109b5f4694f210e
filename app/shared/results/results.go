// Package results carries the outcome of a service operation: either a success
// value or a domain failure. Infrastructure errors travel separately as a plain
// error return.
package results

// OperationResult holds exactly one of Success or Failure.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// SuccessResult wraps a success value.
func SuccessResult[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// FailureResult wraps a domain failure.
func FailureResult[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}

// IsSuccess reports whether the result carries a success value.
func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

// IsFailure reports whether the result carries a domain failure.
func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}

// Map converts the success value, leaving a failure untouched.
func Map[S any, T any, F any](r OperationResult[S, F], fn func(S) T) OperationResult[T, F] {
	if r.Failure != nil {
		return OperationResult[T, F]{Failure: r.Failure}
	}
	if r.Success == nil {
		return OperationResult[T, F]{}
	}
	return SuccessResult[T, F](fn(*r.Success))
}
