package usecases

import (
	"errors"
	"fmt"
)

var (
	ErrNoExecutor       = errors.New("no executor registered for node type")
	ErrNoEvaluator      = errors.New("no evaluator registered for edge type")
	ErrDependencyExists = errors.New("dependency already indexed")
	ErrNoDependency     = errors.New("dependency not found")
	ErrWrongExecution   = errors.New("request targets a different execution")
	ErrNotInitialized   = errors.New("resolver not initialized with a graph")
)

// CriticalError marks a node failure that must never be retried, even
// under a retry failure policy.
type CriticalError struct {
	Err error
}

func (e *CriticalError) Error() string {
	return fmt.Sprintf("critical: %v", e.Err)
}

func (e *CriticalError) Unwrap() error { return e.Err }

// Critical wraps err so the coordinator skips retries for it.
func Critical(err error) error {
	if err == nil {
		return nil
	}
	return &CriticalError{Err: err}
}

// IsCritical reports whether err (or anything it wraps) is critical.
func IsCritical(err error) bool {
	var ce *CriticalError
	return errors.As(err, &ce)
}
