package kafka

import "errors"

// Retryable marks a handler failure that is expected to succeed on a later
// attempt: a flaky downstream dependency, a lock timeout, a dropped
// connection. The consumer runtime backs off and retries up to its
// configured limit before giving up.
type Retryable struct {
	Reason string
	Err    error
}

func (r *Retryable) Error() string {
	if r.Err != nil {
		return r.Reason + ": " + r.Err.Error()
	}
	return r.Reason
}

func (r *Retryable) Unwrap() error { return r.Err }

// NewRetryable wraps err as a Retryable failure with the given reason.
func NewRetryable(reason string, err error) error {
	return &Retryable{Reason: reason, Err: err}
}

// Permanent marks a handler failure that will never succeed no matter how
// many times it is retried: malformed input, a validation failure, a 4xx
// from a downstream API. The consumer runtime routes it to the dead-letter
// queue immediately without spending a retry budget on it.
type Permanent struct {
	Reason string
	Err    error
}

func (p *Permanent) Error() string {
	if p.Err != nil {
		return p.Reason + ": " + p.Err.Error()
	}
	return p.Reason
}

func (p *Permanent) Unwrap() error { return p.Err }

// NewPermanent wraps err as a Permanent failure with the given reason.
func NewPermanent(reason string, err error) error {
	return &Permanent{Reason: reason, Err: err}
}

// isPermanent reports whether err should be routed to the DLQ without
// retrying. Anything that is neither explicitly Retryable nor explicitly
// Permanent is treated as retryable, matching the "unknown error, retry for
// safety" rule handlers inherit from the event-processing contract.
func isPermanent(err error) bool {
	var perm *Permanent
	return errors.As(err, &perm)
}
