package param

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/ofxhost/internal/identity"
	"github.com/roach88/ofxhost/internal/property"
	"github.com/roach88/ofxhost/internal/status"
)

// Change describes a value change published to observers. It is delivered
// after the new value is visible through Get.
type Change struct {
	Param    Param
	Time     Time
	Keyframe bool
}

// Observer receives value changes.
type Observer func(Change)

// Option configures a Set.
type Option func(*Set)

// WithPolicy sets the interpolation and numeric policy of every parameter.
func WithPolicy(p Policy) Option {
	return func(s *Set) { s.policy = p }
}

// WithIDGenerator sets the identity generator for parameter instances.
func WithIDGenerator(g identity.Generator) Option {
	return func(s *Set) { s.ids = g }
}

// WithLogger sets the logger for change and hook events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Set) { s.logger = l }
}

// WithTime sets the initial current time.
func WithTime(t Time) Option {
	return func(s *Set) { s.time = t }
}

type observer struct {
	id int
	fn Observer
}

// Set is the ParamSet of one effect instance: every parameter instance in
// descriptor declaration order, the current evaluation time, and the
// observer list for value changes.
type Set struct {
	params []Param
	byName map[string]Param
	policy Policy
	ids    identity.Generator
	logger *slog.Logger

	mu        sync.RWMutex
	time      Time
	observers []observer
	nextID    int
	active    map[string]int // parameters whose observers are running
}

// NewSet instantiates one parameter per descriptor, in order. Duplicate
// names fail with DuplicateAttribute.
func NewSet(descs []*Descriptor, opts ...Option) (*Set, error) {
	s := &Set{
		byName: make(map[string]Param, len(descs)),
		policy: DefaultPolicy(),
		ids:    identity.Default,
		logger: slog.Default(),
		active: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	for _, d := range descs {
		p, err := Instantiate(d, s.policy, s.ids)
		if err != nil {
			return nil, fmt.Errorf("param set: %w", err)
		}
		if err := s.add(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) add(p Param) error {
	name := p.Descriptor().Name()
	if _, dup := s.byName[name]; dup {
		return status.New(status.CodeDuplicateAttribute, name, "parameter declared twice")
	}
	p.attach(s)
	s.params = append(s.params, p)
	s.byName[name] = p
	return nil
}

// Len returns the number of parameters.
func (s *Set) Len() int { return len(s.params) }

// Names returns the parameter names in declaration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.params))
	for i, p := range s.params {
		out[i] = p.Descriptor().Name()
	}
	return out
}

// Params returns the parameters in declaration order.
func (s *Set) Params() []Param { return slices.Clone(s.params) }

// At returns the parameter at position i.
func (s *Set) At(i int) (Param, error) {
	if i < 0 || i >= len(s.params) {
		return nil, status.IndexOutOfRange("params", i, len(s.params))
	}
	return s.params[i], nil
}

// Fetch returns the parameter called name.
func (s *Set) Fetch(name string) (Param, error) {
	p, ok := s.byName[name]
	if !ok {
		return nil, status.UnknownParameter(name)
	}
	return p, nil
}

// FetchAs returns the parameter called name as the concrete variant P.
// A parameter of another variant fails with InvalidCast.
func FetchAs[P Param](s *Set, name string) (P, error) {
	var zero P
	p, err := s.Fetch(name)
	if err != nil {
		return zero, err
	}
	typed, ok := p.(P)
	if !ok {
		return zero, status.InvalidCast(name, fmt.Sprintf("%T", zero), fmt.Sprintf("%T", p))
	}
	return typed, nil
}

// Policy returns the policy shared by every parameter.
func (s *Set) Policy() Policy { return s.policy }

// Time returns the current evaluation time.
func (s *Set) Time() Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.time
}

// SetTime moves the current evaluation time used by Get and Set.
func (s *Set) SetTime(t Time) {
	s.mu.Lock()
	s.time = t
	s.mu.Unlock()
}

// Subscribe registers fn for every value change and returns a function
// that removes it.
func (s *Set) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers = append(s.observers, observer{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.observers = slices.DeleteFunc(s.observers, func(o observer) bool { return o.id == id })
	}
}

// publish delivers c to every observer. While they run, mutating the same
// parameter fails with Reentrant.
func (s *Set) publish(c Change) {
	name := c.Param.Descriptor().Name()
	s.mu.Lock()
	obs := slices.Clone(s.observers)
	s.active[name]++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.active[name]--; s.active[name] <= 0 {
			delete(s.active, name)
		}
		s.mu.Unlock()
	}()

	s.logger.Debug("param changed", "param", name, "time", float64(c.Time), "keyframe", c.Keyframe)
	for _, o := range obs {
		o.fn(c)
	}
}

func (s *Set) notifying(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[name] > 0
}

// observable resolves a parameter property the host may hook. Only range
// properties declared on the parameter qualify.
func (s *Set) observable(paramName, propName string) (Param, error) {
	p, err := s.Fetch(paramName)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(overridable, propName) || !p.Properties().Has(propName) {
		return nil, status.Unsupported(propName, "observe "+paramName)
	}
	return p, nil
}

// AddNotifyHook observes writes to a range property of a parameter. The
// hook runs after the parameter's own validation and can still veto the
// write. A nil hook removes a previously added one.
func (s *Set) AddNotifyHook(paramName, propName string, hook property.NotifyHook) error {
	p, err := s.observable(paramName, propName)
	if err != nil {
		return err
	}
	props := p.Properties()
	if hook == nil {
		return props.AddNotifyHook(propName, property.NotifyFunc(p.Notify))
	}
	return props.AddNotifyHook(propName, property.NotifyFunc(func(name string, single bool, index int) error {
		if err := p.Notify(name, single, index); err != nil {
			return err
		}
		if err := hook.Notify(name, single, index); err != nil {
			s.logger.Debug("host hook rejected write", "param", paramName, "property", name, "error", err)
			return err
		}
		return nil
	}))
}

// AddGetHook makes hook authoritative for a range property of a parameter.
// A nil hook removes it.
func (s *Set) AddGetHook(paramName, propName string, hook property.GetHook) error {
	p, err := s.observable(paramName, propName)
	if err != nil {
		return err
	}
	return p.Properties().AddGetHook(propName, hook)
}

// Clone returns a set of clones of every parameter at the same time and
// policy. Observers and host hooks are not carried over.
func (s *Set) Clone() (*Set, error) {
	c := &Set{
		byName: make(map[string]Param, len(s.params)),
		policy: s.policy,
		ids:    s.ids,
		logger: s.logger,
		time:   s.Time(),
		active: make(map[string]int),
	}
	for _, p := range s.params {
		cp, err := p.Clone()
		if err != nil {
			return nil, err
		}
		if err := c.add(cp); err != nil {
			return nil, err
		}
	}
	return c, nil
}
