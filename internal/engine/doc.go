// Package engine schedules render jobs across effect instances.
//
// ARCHITECTURE:
//
// Intake and Lanes:
// Submit stamps each job with a seq from the Clock and appends it to a
// single intake queue. Run dispatches jobs from the intake to one lane per
// effect instance. A lane renders its jobs one at a time in seq order, so
// an effect never has two render sessions open. Lanes of different effects
// run concurrently, bounded by the worker limit.
//
// Job Flow:
// 1. Submit() stamps the job and enqueues it on the intake
// 2. Run() moves it to the lane of its effect (created on first use)
// 3. The lane takes a worker slot and opens a render session
// 4. Every parameter is evaluated at the job time, then the renderer runs
// 5. The session ends and the job's Done channel closes
//
// Failure Model:
// A status code that is fatal to the effect (Unsupported, TypeMismatch,
// InvalidCast) marks the lane failed; later jobs for that effect finish
// with ErrEffectFailed without rendering. Every other error fails only its
// own job.
//
// Backlog:
// WithMaxPending bounds the unfinished jobs of each effect. A job holds its
// backlog slot until it finishes, however it finishes; Submit beyond the
// limit returns a BacklogExceededError that matches status.ErrBusy.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Jobs are ordered by the seq Clock.Stamp assigns, never by wall-clock time.
//
// Shutdown:
// Stop() closes the intake and lets queued jobs finish. Cancelling the
// context passed to Run fails every job still queued with the context
// error.
package engine
