package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/ofxhost/internal/status"
)

// ErrStopped is returned by Submit after Stop, and by jobs that were still
// queued when the scheduler shut down.
var ErrStopped = errors.New("scheduler stopped")

// ErrEffectFailed marks jobs rejected because an earlier render of the same
// effect failed fatally.
var ErrEffectFailed = errors.New("effect failed")

// RenderError describes a failed render job.
type RenderError struct {
	// Effect is the instance ID of the rendered effect.
	Effect string

	// Seq is the job's sequence number.
	Seq int64

	// Cause is the underlying error.
	Cause error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s (seq=%d): %v", e.Effect, e.Seq, e.Cause)
}

func (e *RenderError) Unwrap() error { return e.Cause }

// Code returns the status code of the cause, if any.
func (e *RenderError) Code() status.Code { return status.CodeOf(e.Cause) }

// IsEffectFailed reports whether err rejected a job because its effect had
// already failed.
func IsEffectFailed(err error) bool {
	return errors.Is(err, ErrEffectFailed)
}
