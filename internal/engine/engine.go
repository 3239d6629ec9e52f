package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/status"
)

// NamedValue is one parameter value in a render result.
type NamedValue struct {
	Name  string
	Value param.Value
}

// Result is the outcome of one render job: every parameter evaluated at the
// render time, in declaration order.
type Result struct {
	Seq    int64
	Effect string
	Time   param.Time
	Values []NamedValue
}

// Value returns the result value of parameter name, or nil.
func (r Result) Value(name string) param.Value {
	for _, nv := range r.Values {
		if nv.Name == name {
			return nv.Value
		}
	}
	return nil
}

// RenderFunc is the plugin's render action. It runs inside an open render
// session, after parameter values have been evaluated.
type RenderFunc func(ctx context.Context, s *effect.Session) error

// Job is a submitted render.
type Job struct {
	Seq    int64
	Effect *effect.Instance
	Time   param.Time

	done    chan struct{}
	result  Result
	err     error
	release func()
}

func (j *Job) finish(res Result, err error) {
	j.result, j.err = res, err
	if j.release != nil {
		j.release()
	}
	close(j.done)
}

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (Result, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWorkers caps how many effects render at the same time.
// Default: runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithRenderer sets the render action. Without one a job only evaluates
// parameters.
func WithRenderer(fn RenderFunc) Option {
	return func(s *Scheduler) { s.render = fn }
}

// WithMaxPending caps the unfinished jobs of one effect. Submit rejects
// further renders with a BacklogExceededError until some finish.
// Default: 0 (unlimited).
func WithMaxPending(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxPending = n
		}
	}
}

// WithClock sets the sequence clock. Pass ResumeClock to continue the
// numbering of an earlier scheduler.
func WithClock(c *Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// Scheduler runs render jobs.
//
// Jobs for one effect run in submission order on that effect's lane, one at
// a time, so an effect never sees two concurrent render sessions. Lanes of
// different effects run in parallel up to the worker limit.
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//
// A render that fails with Unsupported, TypeMismatch or InvalidCast marks
// its effect failed: every later job for that effect fails fast with
// ErrEffectFailed. Other errors fail only their own job.
type Scheduler struct {
	clock   *Clock
	intake  *jobQueue
	workers int
	slots   chan struct{}
	render  RenderFunc

	maxPending int
	quota      *PendingQuota

	lanes map[string]*lane // owned by Run
	wg    sync.WaitGroup
}

type lane struct {
	id     string
	queue  *jobQueue
	failed error // written only by the lane goroutine
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   NewClock(),
		intake:  newJobQueue(),
		workers: runtime.GOMAXPROCS(0),
		lanes:   make(map[string]*lane),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.slots = make(chan struct{}, s.workers)
	s.quota = NewPendingQuota(s.maxPending)
	return s
}

// Submit queues a render of fx at time t.
// Returns ErrStopped once the scheduler has been stopped, or a
// BacklogExceededError when fx already has the maximum pending jobs.
func (s *Scheduler) Submit(fx *effect.Instance, t param.Time) (*Job, error) {
	id := fx.ID()
	if err := s.quota.Acquire(id); err != nil {
		slog.Warn("render rejected", "effect", id, "error", err)
		return nil, err
	}
	j := &Job{
		Effect:  fx,
		Time:    t,
		done:    make(chan struct{}),
		release: func() { s.quota.Release(id) },
	}
	if !s.intake.EnqueueStamped(j, s.clock) {
		s.quota.Release(id)
		return nil, ErrStopped
	}
	slog.Debug("render submitted", "effect", fx.ID(), "seq", j.Seq, "time", float64(t))
	return j, nil
}

// Run dispatches submitted jobs to effect lanes.
// Blocks until ctx is cancelled or Stop() is called. After Stop, jobs
// already submitted still run; after cancellation they fail with the
// context error.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler starting", "workers", s.workers)
	defer s.shutdown()

	for {
		if j, ok := s.intake.TryDequeue(); ok {
			s.dispatch(ctx, j)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("scheduler stopping: context cancelled")
			s.intake.Close()
			s.drain(s.intake, ctx.Err())
			return ctx.Err()

		case <-s.intake.Wait():
			if s.intake.Drained() {
				slog.Info("scheduler stopping: stopped")
				return nil
			}
		}
	}
}

// Pending returns the number of submitted jobs of fx that have not finished.
func (s *Scheduler) Pending(fx *effect.Instance) int {
	return s.quota.Pending(fx.ID())
}

// Stop closes the intake. Run returns once every queued job has finished.
func (s *Scheduler) Stop() {
	s.intake.Close()
}

func (s *Scheduler) shutdown() {
	for _, l := range s.lanes {
		l.queue.Close()
	}
	s.wg.Wait()
}

func (s *Scheduler) dispatch(ctx context.Context, j *Job) {
	id := j.Effect.ID()
	l, ok := s.lanes[id]
	if !ok {
		l = &lane{id: id, queue: newJobQueue()}
		s.lanes[id] = l
		s.wg.Add(1)
		go s.runLane(ctx, l)
	}
	l.queue.Enqueue(j)
}

func (s *Scheduler) runLane(ctx context.Context, l *lane) {
	defer s.wg.Done()
	for {
		if j, ok := l.queue.TryDequeue(); ok {
			s.execute(ctx, l, j)
			continue
		}

		select {
		case <-ctx.Done():
			l.queue.Close()
			s.drain(l.queue, ctx.Err())
			return
		case <-l.queue.Wait():
			if l.queue.Drained() {
				return
			}
		}
	}
}

// drain fails every job left in q with err.
func (s *Scheduler) drain(q *jobQueue, err error) {
	for {
		j, ok := q.TryDequeue()
		if !ok {
			return
		}
		j.finish(Result{}, &RenderError{Effect: j.Effect.ID(), Seq: j.Seq, Cause: err})
	}
}

// execute runs one job on its lane.
// CRITICAL: Called only from the lane goroutine.
func (s *Scheduler) execute(ctx context.Context, l *lane, j *Job) {
	if err := ctx.Err(); err != nil {
		j.finish(Result{}, &RenderError{Effect: l.id, Seq: j.Seq, Cause: err})
		return
	}
	if l.failed != nil {
		j.finish(Result{}, &RenderError{
			Effect: l.id,
			Seq:    j.Seq,
			Cause:  fmt.Errorf("%w: %w", ErrEffectFailed, l.failed),
		})
		return
	}

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		j.finish(Result{}, &RenderError{Effect: l.id, Seq: j.Seq, Cause: ctx.Err()})
		return
	}
	res, err := s.renderJob(ctx, j)
	<-s.slots

	if err != nil {
		if status.IsFatalToEffect(err) {
			l.failed = err
		}
		logRenderError(j, err)
		j.finish(Result{}, &RenderError{Effect: l.id, Seq: j.Seq, Cause: err})
		return
	}
	slog.Debug("render complete", "effect", l.id, "seq", j.Seq, "time", float64(j.Time))
	j.finish(res, nil)
}

func (s *Scheduler) renderJob(ctx context.Context, j *Job) (Result, error) {
	sess, err := j.Effect.BeginRender(j.Time)
	if err != nil {
		return Result{}, err
	}
	defer sess.End()

	res := Result{Seq: j.Seq, Effect: j.Effect.ID(), Time: j.Time}
	for _, name := range j.Effect.Params().Names() {
		v, err := sess.Value(name)
		if err != nil {
			return Result{}, err
		}
		res.Values = append(res.Values, NamedValue{Name: name, Value: v})
	}
	if s.render != nil {
		if err := s.render(ctx, sess); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

func logRenderError(j *Job, err error) {
	attrs := []any{
		"error", err,
		"effect", j.Effect.ID(),
		"plugin", j.Effect.Descriptor().ID(),
		"seq", j.Seq,
		"time", float64(j.Time),
	}
	if code := status.CodeOf(err); code != "" {
		attrs = append(attrs, "code", code, "fatal", status.IsFatalToEffect(err))
	}
	slog.Error("render failed", attrs...)
}
