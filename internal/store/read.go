package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/property"
)

// ListEffects returns every saved effect, oldest save first.
//
// Returns an empty slice (not nil) if nothing is stored.
func (s *Store) ListEffects(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plugin_id, schema_hash, state_hash, time, seq
		FROM effects
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query effects: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var t float64
		if err := rows.Scan(&r.ID, &r.PluginID, &r.SchemaHash, &r.StateHash, &t, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan effect: %w", err)
		}
		r.Time = param.Time(t)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate effects: %w", err)
	}
	return records, nil
}

// LoadState reads the full stored form of one effect.
// Returns ErrNotFound if id was never saved.
func (s *Store) LoadState(ctx context.Context, id string) (*EffectState, error) {
	st := &EffectState{}
	var t float64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, plugin_id, schema_hash, state_hash, time, seq
		FROM effects WHERE id = ?
	`, id).Scan(&st.ID, &st.PluginID, &st.SchemaHash, &st.StateHash, &t, &st.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load effect %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load effect %s: %w", id, err)
	}
	st.Time = param.Time(t)

	if st.Clips, err = s.readClips(ctx, id); err != nil {
		return nil, err
	}
	if st.Params, err = s.readParams(ctx, id); err != nil {
		return nil, err
	}
	if st.Properties, err = s.readProperties(ctx, id); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) readClips(ctx context.Context, id string) ([]ClipState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, connected FROM clips WHERE effect_id = ? ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	defer rows.Close()

	var out []ClipState
	for rows.Next() {
		var c ClipState
		if err := rows.Scan(&c.Name, &c.Connected); err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) readParams(ctx context.Context, id string) ([]ParamState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, kind, value FROM param_values WHERE effect_id = ? ORDER BY ordinal ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query params: %w", err)
	}
	var out []ParamState
	for rows.Next() {
		var p ParamState
		if err := rows.Scan(&p.Name, &p.Kind, &p.Value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan param: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate params: %w", err)
	}
	rows.Close()

	// Keyframes are read after the params cursor is closed: the store holds
	// a single connection.
	for i := range out {
		keys, err := s.readKeyframes(ctx, id, out[i].Name)
		if err != nil {
			return nil, err
		}
		out[i].Keyframes = keys
	}
	return out, nil
}

func (s *Store) readKeyframes(ctx context.Context, id, name string) ([]KeyframeState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, value FROM keyframes WHERE effect_id = ? AND param = ? ORDER BY time ASC
	`, id, name)
	if err != nil {
		return nil, fmt.Errorf("query keyframes: %w", err)
	}
	defer rows.Close()

	var out []KeyframeState
	for rows.Next() {
		var k KeyframeState
		if err := rows.Scan(&k.Time, &k.Value); err != nil {
			return nil, fmt.Errorf("scan keyframe: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *Store) readProperties(ctx context.Context, id string) ([]PropertyState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner, name, type, vals FROM properties
		WHERE effect_id = ?
		ORDER BY owner COLLATE BINARY ASC, name COLLATE BINARY ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query properties: %w", err)
	}
	defer rows.Close()

	var out []PropertyState
	for rows.Next() {
		var p PropertyState
		if err := rows.Scan(&p.Owner, &p.Name, &p.Type, &p.Values); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Restore loads the saved effect id into fx, which must be an instance of
// the same plugin. Properties are applied first so values are clamped to
// the restored ranges.
//
// The state is rehearsed on a clone of fx before fx is touched, so rows
// that fail to decode or are rejected by the parameters leave fx as it
// was. Only a write the live instance alone refuses, such as wiring a clip
// during a render session, can leave it partially restored.
func (s *Store) Restore(ctx context.Context, id string, fx *effect.Instance) error {
	st, err := s.LoadState(ctx, id)
	if err != nil {
		return err
	}
	if st.PluginID != fx.Descriptor().ID() {
		return fmt.Errorf("restore %s: saved effect is a %s, not a %s", id, st.PluginID, fx.Descriptor().ID())
	}
	rehearsal, err := fx.Clone()
	if err != nil {
		return fmt.Errorf("restore %s: %w", id, err)
	}
	if err := applyState(rehearsal, st); err != nil {
		return fmt.Errorf("restore %s: %w", id, err)
	}
	if err := applyState(fx, st); err != nil {
		return fmt.Errorf("restore %s: %w", id, err)
	}
	return nil
}

func applyState(fx *effect.Instance, st *EffectState) error {
	if err := applyProperties(fx, st.Properties); err != nil {
		return err
	}
	for _, c := range st.Clips {
		if err := fx.Connect(c.Name, c.Connected); err != nil {
			return err
		}
	}
	for _, ps := range st.Params {
		if err := restoreParam(fx.Params(), ps); err != nil {
			return err
		}
	}
	fx.Params().SetTime(st.Time)
	return nil
}

func restoreParam(set *param.Set, ps ParamState) error {
	p, err := set.Fetch(ps.Name)
	if err != nil {
		return err
	}
	kind, err := param.ParseKind(ps.Kind)
	if err != nil {
		return fmt.Errorf("param %s: %w", ps.Name, err)
	}
	snap := param.Snapshot{Kind: kind}
	if snap.Value, err = unmarshalParamValue(kind, ps.Value); err != nil {
		return fmt.Errorf("param %s: %w", ps.Name, err)
	}
	for _, k := range ps.Keyframes {
		v, err := unmarshalParamValue(kind, k.Value)
		if err != nil {
			return fmt.Errorf("param %s keyframe %g: %w", ps.Name, k.Time, err)
		}
		snap.Keyframes = append(snap.Keyframes, param.Keyframe[param.Value]{Time: param.Time(k.Time), Value: v})
	}
	return p.Restore(snap)
}

type propWrite struct {
	props *property.Set
	state PropertyState
	vals  []property.Value
}

// applyProperties writes stored properties through the host path. A write
// can be rejected only because a sibling is still at its old value (a
// display minimum above the old maximum), so failed writes are retried
// until a pass makes no progress.
func applyProperties(fx *effect.Instance, states []PropertyState) error {
	pending := make([]propWrite, 0, len(states))
	for _, st := range states {
		props, err := ownerProps(fx, st.Owner)
		if err != nil {
			return err
		}
		t, err := property.ParseType(st.Type)
		if err != nil {
			return fmt.Errorf("%s %s: %w", st.Owner, st.Name, err)
		}
		vals, err := property.UnmarshalValues(t, []byte(st.Values))
		if err != nil {
			return fmt.Errorf("%s %s: %w", st.Owner, st.Name, err)
		}
		pending = append(pending, propWrite{props: props, state: st, vals: vals})
	}

	for len(pending) > 0 {
		var failed []propWrite
		var firstErr error
		for _, w := range pending {
			if err := w.props.SetAll(w.state.Name, w.vals); err != nil {
				failed = append(failed, w)
				if firstErr == nil {
					firstErr = fmt.Errorf("%s %s: %w", w.state.Owner, w.state.Name, err)
				}
			}
		}
		if len(failed) == len(pending) {
			return firstErr
		}
		pending = failed
	}
	return nil
}

func ownerProps(fx *effect.Instance, owner string) (*property.Set, error) {
	switch {
	case strings.HasPrefix(owner, "param:"):
		p, err := fx.Params().Fetch(strings.TrimPrefix(owner, "param:"))
		if err != nil {
			return nil, err
		}
		return p.Properties(), nil
	case strings.HasPrefix(owner, "clip:"):
		c, err := fx.Clip(strings.TrimPrefix(owner, "clip:"))
		if err != nil {
			return nil, err
		}
		return c.Properties(), nil
	}
	return nil, fmt.Errorf("unknown property owner %q", owner)
}
