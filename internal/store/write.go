package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/property"
)

// Record is the summary row of a saved effect.
type Record struct {
	ID         string     `json:"id"`
	PluginID   string     `json:"plugin_id"`
	SchemaHash string     `json:"schema_hash"`
	StateHash  string     `json:"state_hash"`
	Time       param.Time `json:"time"`
	Seq        int64      `json:"seq"`
}

// EffectState is the full stored form of an effect.
type EffectState struct {
	Record
	Clips      []ClipState     `json:"clips"`
	Params     []ParamState    `json:"params"`
	Properties []PropertyState `json:"properties"`
}

// ClipState is the stored connection state of one clip.
type ClipState struct {
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// ParamState is the stored value state of one parameter. Values are
// canonical JSON arrays.
type ParamState struct {
	Name      string          `json:"name"`
	Kind      string          `json:"kind"`
	Value     string          `json:"value"`
	Keyframes []KeyframeState `json:"keyframes,omitempty"`
}

// KeyframeState is one stored keyframe.
type KeyframeState struct {
	Time  float64 `json:"time"`
	Value string  `json:"value"`
}

// PropertyState is one stored host-settable property. Owner is
// "param:<name>" or "clip:<name>".
type PropertyState struct {
	Owner  string `json:"owner"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Values string `json:"values"`
}

func paramOwner(name string) string { return "param:" + name }
func clipOwner(name string) string  { return "clip:" + name }

// Capture reads the persistent state of fx without writing it.
func Capture(fx *effect.Instance) (*EffectState, error) {
	params := fx.Params()
	st := &EffectState{Record: Record{
		ID:       fx.ID(),
		PluginID: fx.Descriptor().ID(),
		Time:     params.Time(),
	}}

	for _, c := range fx.Clips() {
		name := c.ClipDescriptor().Name()
		st.Clips = append(st.Clips, ClipState{Name: name, Connected: c.Connected()})
		props, err := settableProps(clipOwner(name), c.Properties())
		if err != nil {
			return nil, err
		}
		st.Properties = append(st.Properties, props...)
	}

	for _, p := range params.Params() {
		ps, err := captureParam(p)
		if err != nil {
			return nil, err
		}
		st.Params = append(st.Params, ps)
		props, err := settableProps(paramOwner(p.Descriptor().Name()), p.Properties())
		if err != nil {
			return nil, err
		}
		st.Properties = append(st.Properties, props...)
	}

	st.StateHash = stateHash(st)
	return st, nil
}

func captureParam(p param.Param) (ParamState, error) {
	snap := p.Snapshot()
	name := p.Descriptor().Name()
	val, err := marshalParamValue(snap.Value)
	if err != nil {
		return ParamState{}, fmt.Errorf("param %s: %w", name, err)
	}
	ps := ParamState{Name: name, Kind: snap.Kind.String(), Value: val}
	for _, k := range snap.Keyframes {
		kv, err := marshalParamValue(k.Value)
		if err != nil {
			return ParamState{}, fmt.Errorf("param %s keyframe %g: %w", name, float64(k.Time), err)
		}
		ps.Keyframes = append(ps.Keyframes, KeyframeState{Time: float64(k.Time), Value: kv})
	}
	return ps, nil
}

func settableProps(owner string, props *property.Set) ([]PropertyState, error) {
	entries, err := props.Entries()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", owner, err)
	}
	var out []PropertyState
	for _, e := range entries {
		if !e.HostSettable {
			continue
		}
		vals, err := property.MarshalValues(e.Values)
		if err != nil {
			return nil, fmt.Errorf("%s: property %s: %w", owner, e.Name, err)
		}
		out = append(out, PropertyState{Owner: owner, Name: e.Name, Type: e.Type.String(), Values: string(vals)})
	}
	return out, nil
}

// SaveEffect writes the state of fx under its ID, replacing any earlier
// save. schemaHash ties the record to the schema the effect was built from.
func (s *Store) SaveEffect(ctx context.Context, fx *effect.Instance, schemaHash string) (Record, error) {
	st, err := Capture(fx)
	if err != nil {
		return Record{}, fmt.Errorf("save effect: %w", err)
	}
	st.SchemaHash = schemaHash

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("save effect: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM effects`).Scan(&st.Seq); err != nil {
		return Record{}, fmt.Errorf("save effect: next seq: %w", err)
	}
	if err := deleteEffect(ctx, tx, st.ID); err != nil {
		return Record{}, fmt.Errorf("save effect: %w", err)
	}
	if err := insertState(ctx, tx, st); err != nil {
		return Record{}, fmt.Errorf("save effect %s: %w", st.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("save effect: commit: %w", err)
	}
	return st.Record, nil
}

func insertState(ctx context.Context, tx *sql.Tx, st *EffectState) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO effects (id, plugin_id, schema_hash, state_hash, time, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, st.ID, st.PluginID, st.SchemaHash, st.StateHash, float64(st.Time), st.Seq)
	if err != nil {
		return fmt.Errorf("insert effect: %w", err)
	}

	for i, c := range st.Clips {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO clips (effect_id, name, ordinal, connected) VALUES (?, ?, ?, ?)
		`, st.ID, c.Name, i, c.Connected)
		if err != nil {
			return fmt.Errorf("insert clip %s: %w", c.Name, err)
		}
	}

	for i, p := range st.Params {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO param_values (effect_id, name, ordinal, kind, value) VALUES (?, ?, ?, ?, ?)
		`, st.ID, p.Name, i, p.Kind, p.Value)
		if err != nil {
			return fmt.Errorf("insert param %s: %w", p.Name, err)
		}
		for _, k := range p.Keyframes {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO keyframes (effect_id, param, time, value) VALUES (?, ?, ?, ?)
			`, st.ID, p.Name, k.Time, k.Value)
			if err != nil {
				return fmt.Errorf("insert keyframe %s@%g: %w", p.Name, k.Time, err)
			}
		}
	}

	for _, pr := range st.Properties {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO properties (effect_id, owner, name, type, vals) VALUES (?, ?, ?, ?, ?)
		`, st.ID, pr.Owner, pr.Name, pr.Type, pr.Values)
		if err != nil {
			return fmt.Errorf("insert property %s %s: %w", pr.Owner, pr.Name, err)
		}
	}
	return nil
}

// DeleteEffect removes a saved effect. Deleting an unknown ID returns
// ErrNotFound.
func (s *Store) DeleteEffect(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete effect: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM effects WHERE id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("delete effect: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete effect %s: %w", id, ErrNotFound)
	}
	if err := deleteEffect(ctx, tx, id); err != nil {
		return fmt.Errorf("delete effect: %w", err)
	}
	return tx.Commit()
}

// deleteEffect removes every row of one effect, children first.
func deleteEffect(ctx context.Context, tx *sql.Tx, id string) error {
	for _, q := range []string{
		`DELETE FROM keyframes WHERE effect_id = ?`,
		`DELETE FROM param_values WHERE effect_id = ?`,
		`DELETE FROM clips WHERE effect_id = ?`,
		`DELETE FROM properties WHERE effect_id = ?`,
		`DELETE FROM effects WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return nil
}
