package oauth

import "fmt"

// Failure is returned for every way the authorization step can fail: the
// token endpoint is unreachable, answers non-2xx, returns a malformed token
// payload, or the provider redirected back with an error instead of a code.
type Failure struct {
	Reason string
	Err    error
}

// NewFailure wraps err with a short reason
func NewFailure(reason string, err error) *Failure {
	return &Failure{Reason: reason, Err: err}
}

func (e *Failure) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Failure) Unwrap() error {
	return e.Err
}
