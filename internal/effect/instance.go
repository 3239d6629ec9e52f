package effect

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/ofxhost/internal/attribute"
	"github.com/roach88/ofxhost/internal/identity"
	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/status"
)

type config struct {
	ids    identity.Generator
	logger *slog.Logger
	policy param.Policy
}

// Option configures an Instance.
type Option func(*config)

// WithIDGenerator sets the generator for effect, clip and parameter identities.
func WithIDGenerator(g identity.Generator) Option {
	return func(c *config) { c.ids = g }
}

// WithLogger sets the logger for wiring and render session events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithPolicy sets the numeric policy of the parameter set.
func WithPolicy(p param.Policy) Option {
	return func(c *config) { c.policy = p }
}

// Instance is one live effect: a clip per clip descriptor and the ParamSet.
//
// An Instance follows the single-writer rule: at most one render session at
// a time, and wiring only between sessions.
type Instance struct {
	id        string
	desc      *Descriptor
	clips     []*attribute.Clip
	clipIndex map[string]int
	params    *param.Set
	cfg       config

	render sync.Mutex // held for the lifetime of a Session
}

// NewInstance creates an effect from a published descriptor. Every clip
// starts unconnected and every parameter at its default.
func NewInstance(desc *Descriptor, opts ...Option) (*Instance, error) {
	if !desc.Published() {
		return nil, fmt.Errorf("effect %s: descriptor is not published", desc.ID())
	}
	cfg := config{ids: identity.Default, logger: slog.Default(), policy: param.DefaultPolicy()}
	for _, opt := range opts {
		opt(&cfg)
	}

	id := cfg.ids.Generate()
	params, err := param.NewSet(desc.params,
		param.WithPolicy(cfg.policy),
		param.WithIDGenerator(cfg.ids),
		param.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("effect %s: %w", desc.ID(), err)
	}

	fx := &Instance{
		id:        id,
		desc:      desc,
		clipIndex: make(map[string]int, len(desc.clips)),
		params:    params,
		cfg:       cfg,
	}
	for _, cd := range desc.clips {
		c, err := attribute.NewClip(cd, cfg.ids)
		if err != nil {
			return nil, fmt.Errorf("effect %s: %w", desc.ID(), err)
		}
		fx.addClip(c)
	}
	fx.cfg.logger.Debug("effect created", "effect", desc.ID(), "id", fx.id)
	return fx, nil
}

func (fx *Instance) addClip(c *attribute.Clip) {
	fx.clipIndex[c.ClipDescriptor().Name()] = len(fx.clips)
	fx.clips = append(fx.clips, c)
}

// ID returns the instance identity.
func (fx *Instance) ID() string { return fx.id }

// Descriptor returns the plugin descriptor.
func (fx *Instance) Descriptor() *Descriptor { return fx.desc }

// Params returns the ParamSet.
func (fx *Instance) Params() *param.Set { return fx.params }

// Clips returns the clips in declaration order.
func (fx *Instance) Clips() []*attribute.Clip {
	return append([]*attribute.Clip(nil), fx.clips...)
}

// Clip returns the clip called name.
func (fx *Instance) Clip(name string) (*attribute.Clip, error) {
	i, ok := fx.clipIndex[name]
	if !ok {
		return nil, status.UnknownClip(name)
	}
	return fx.clips[i], nil
}

// Connect is the wiring step for one clip. It fails with NotSettable while
// a render session is active.
func (fx *Instance) Connect(name string, connected bool) error {
	c, err := fx.Clip(name)
	if err != nil {
		return err
	}
	if err := c.Connect(connected); err != nil {
		return err
	}
	fx.cfg.logger.Debug("clip wired", "effect", fx.desc.ID(), "clip", name, "connected", connected)
	return nil
}

// Negotiate picks the component for clip name from what upstream offers
// and connects the clip.
func (fx *Instance) Negotiate(name string, offered ...attribute.Component) (attribute.Component, error) {
	c, err := fx.Clip(name)
	if err != nil {
		return "", err
	}
	comp, err := c.Negotiate(offered)
	if err != nil {
		return "", err
	}
	if err := fx.Connect(name, true); err != nil {
		return "", err
	}
	return comp, nil
}

// BeginRender opens a render session at time t. It fails with Busy while
// another session is open and with UnconnectedClip when a required clip is
// not wired. During the session clip connections are fixed and the ParamSet
// evaluates at t.
func (fx *Instance) BeginRender(t param.Time) (*Session, error) {
	if !fx.render.TryLock() {
		return nil, status.New(status.CodeBusy, fx.desc.ID(), "a render session is already active")
	}
	for _, c := range fx.clips {
		if !c.IsOptional() && !c.Connected() {
			fx.render.Unlock()
			return nil, status.New(status.CodeUnconnectedClip, c.Name(), "required clip is not connected")
		}
	}
	for _, c := range fx.clips {
		c.LockConnection()
	}
	fx.params.SetTime(t)
	fx.cfg.logger.Debug("render session started", "effect", fx.desc.ID(), "time", float64(t))
	return &Session{fx: fx, time: t}, nil
}

// Clone returns a new effect with a fresh identity, unconnected clips and
// a copy of every parameter's state.
func (fx *Instance) Clone() (*Instance, error) {
	params, err := fx.params.Clone()
	if err != nil {
		return nil, fmt.Errorf("effect %s: clone: %w", fx.desc.ID(), err)
	}
	clone := &Instance{
		id:        fx.cfg.ids.Generate(),
		desc:      fx.desc,
		clipIndex: make(map[string]int, len(fx.clips)),
		params:    params,
		cfg:       fx.cfg,
	}
	for _, c := range fx.clips {
		cc, err := c.Clone()
		if err != nil {
			return nil, fmt.Errorf("effect %s: %w", fx.desc.ID(), err)
		}
		clone.addClip(cc)
	}
	return clone, nil
}

// Session is an open render of one effect at one time.
type Session struct {
	fx   *Instance
	time param.Time
	once sync.Once
}

// Effect returns the effect being rendered.
func (s *Session) Effect() *Instance { return s.fx }

// Time returns the render time.
func (s *Session) Time() param.Time { return s.time }

// Value evaluates parameter name at the render time.
func (s *Session) Value(name string) (param.Value, error) {
	p, err := s.fx.params.Fetch(name)
	if err != nil {
		return nil, err
	}
	return param.GetAtV(p, p.Kind(), s.time)
}

// End closes the session. Calling End more than once is a no-op.
func (s *Session) End() {
	s.once.Do(func() {
		for _, c := range s.fx.clips {
			c.UnlockConnection()
		}
		s.fx.cfg.logger.Debug("render session ended", "effect", s.fx.desc.ID(), "time", float64(s.time))
		s.fx.render.Unlock()
	})
}
