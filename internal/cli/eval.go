package cli

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/status"
	"github.com/roach88/ofxhost/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Plugin string
	Param  string
	Time   float64
	From   float64
	Keys   []string // "time=value"
	Save   string   // state database to save the keyed instance to
}

// EvalResult is the evaluation of one parameter at one time.
type EvalResult struct {
	Plugin     string    `json:"plugin"`
	Param      string    `json:"param"`
	Kind       string    `json:"kind"`
	Time       float64   `json:"time"`
	Value      string    `json:"value"`
	Derivative string    `json:"derivative,omitempty"`
	From       float64   `json:"from"`
	Integral   string    `json:"integral,omitempty"`
	Keyframes  []float64 `json:"keyframes,omitempty"`
	SavedAs    string    `json:"saved_as,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <schema-dir>",
		Short: "Evaluate a parameter at a time",
		Long: `Instantiate a plugin, optionally key a parameter, and print its value,
derivative and integral at a time.

The integral runs from --from to --time. Derivative and integral are only
reported for numeric parameters.

Examples:
  ofxhost eval ./plugins --plugin com.example.Blur --param radius
  ofxhost eval ./plugins --plugin com.example.Blur --param radius \
      --key 0=0 --key 10=100 --time 5
  ofxhost eval ./plugins --plugin com.example.Grade --param lift \
      --key 0=0,0,0 --key 4=1,0.5,0 --time 2 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Plugin, "plugin", "", "plugin identifier (required)")
	cmd.Flags().StringVar(&opts.Param, "param", "", "parameter name (required)")
	cmd.Flags().Float64Var(&opts.Time, "time", 0, "evaluation time")
	cmd.Flags().Float64Var(&opts.From, "from", 0, "start of the integration interval")
	cmd.Flags().StringArrayVar(&opts.Keys, "key", nil, "keyframe as time=value (repeatable)")
	cmd.Flags().StringVar(&opts.Save, "save", "", "save the keyed instance to this state database")
	_ = cmd.MarkFlagRequired("plugin")
	_ = cmd.MarkFlagRequired("param")

	return cmd
}

func runEval(opts *EvalOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	res, err := loadSchemas(f, dir)
	if err != nil {
		return err
	}
	desc, err := findPlugin(f, res, opts.Plugin)
	if err != nil {
		return err
	}

	if !isFinite(opts.Time) || !isFinite(opts.From) {
		return f.Fail(ExitCommandError, ErrCodeUsage, "--time and --from must be finite", nil)
	}

	fx, err := effect.NewInstance(desc, effect.WithLogger(opts.Logger()))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to instantiate plugin", err)
	}
	p, err := fx.Params().Fetch(opts.Param)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
	}

	for _, key := range opts.Keys {
		t, v, err := parseKey(p.Descriptor(), key)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeUsage, err.Error(), nil)
		}
		if err := param.SetAtV(p, t, v); err != nil {
			return f.Fail(ExitFailure, ErrCodeEvaluation, err.Error(), statusDetails(err))
		}
		f.VerboseLog("Keyed %s at %g = %s", opts.Param, float64(t), v)
	}

	fx.Params().SetTime(param.Time(opts.Time))
	result, err := evaluate(p, param.Time(opts.Time), param.Time(opts.From))
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeEvaluation, err.Error(), statusDetails(err))
	}
	result.Plugin = desc.ID()

	if opts.Save != "" {
		id, err := saveInstance(cmd.Context(), opts.Save, fx, res.Hash)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeStore, err.Error(), nil)
		}
		result.SavedAs = id
		f.VerboseLog("Saved %s to %s", id, opts.Save)
	}

	if f.JSON() {
		return f.Success(result)
	}
	w := f.Writer
	fmt.Fprintf(w, "%s.%s (%s) at t=%g\n", result.Plugin, result.Param, result.Kind, result.Time)
	fmt.Fprintf(w, "  value:      %s\n", result.Value)
	if result.Derivative != "" {
		fmt.Fprintf(w, "  derivative: %s\n", result.Derivative)
		fmt.Fprintf(w, "  integral:   %s (from t=%g)\n", result.Integral, result.From)
	}
	if len(result.Keyframes) > 0 {
		fmt.Fprintf(w, "  keyframes:  %v\n", result.Keyframes)
	}
	if result.SavedAs != "" {
		fmt.Fprintf(w, "  saved as:   %s\n", result.SavedAs)
	}
	return nil
}

func saveInstance(ctx context.Context, path string, fx *effect.Instance, schemaHash string) (string, error) {
	st, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer st.Close()

	rec, err := st.SaveEffect(ctx, fx, schemaHash)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// evaluate reads p at t. Derivative and integral are skipped for kinds
// that do not support them.
func evaluate(p param.Param, t, from param.Time) (EvalResult, error) {
	kind := p.Kind()
	result := EvalResult{
		Param: p.Descriptor().Name(),
		Kind:  kind.String(),
		Time:  float64(t),
		From:  float64(from),
	}
	for _, kt := range p.KeyframeTimes() {
		result.Keyframes = append(result.Keyframes, float64(kt))
	}

	v, err := param.GetAtV(p, kind, t)
	if err != nil {
		return result, err
	}
	result.Value = v.String()

	if !kind.Numeric() {
		return result, nil
	}
	d, err := param.DeriveV(p, kind, t)
	if err != nil {
		return result, err
	}
	result.Derivative = d.String()
	in, err := param.IntegrateV(p, kind, from, t)
	if err != nil {
		return result, err
	}
	result.Integral = in.String()
	return result, nil
}

// parseKey parses "time=value" for the parameter described by d.
func parseKey(d *param.Descriptor, key string) (param.Time, param.Value, error) {
	ts, vs, ok := strings.Cut(key, "=")
	if !ok {
		return 0, nil, fmt.Errorf("keyframe %q: expected time=value", key)
	}
	t, err := strconv.ParseFloat(strings.TrimSpace(ts), 64)
	if err != nil {
		return 0, nil, fmt.Errorf("keyframe %q: bad time: %w", key, err)
	}
	if !isFinite(t) {
		return 0, nil, fmt.Errorf("keyframe %q: time must be finite", key)
	}
	v, err := parseValue(d, strings.TrimSpace(vs))
	if err != nil {
		return 0, nil, fmt.Errorf("keyframe %q: %w", key, err)
	}
	return param.Time(t), v, nil
}

// parseValue converts command-line text to a value of d's kind. Choices
// take an option label or an index; composites take comma-separated numbers.
func parseValue(d *param.Descriptor, s string) (param.Value, error) {
	switch d.Kind() {
	case param.KindInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad integer %q", s)
		}
		return param.IntValue(n), nil
	case param.KindDouble:
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("bad double %q", s)
		}
		return param.DoubleValue(x), nil
	case param.KindBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("bad boolean %q", s)
		}
		return param.BoolValue(b), nil
	case param.KindString:
		return param.StringValue(s), nil
	case param.KindChoice:
		options := d.Options()
		for i, o := range options {
			if o == s {
				return param.ChoiceValue{Index: i, Option: o}, nil
			}
		}
		i, err := strconv.Atoi(s)
		if err != nil || i < 0 || i >= len(options) {
			return nil, fmt.Errorf("unknown option %q (options: %s)", s, strings.Join(options, ", "))
		}
		return param.ChoiceValue{Index: i, Option: options[i]}, nil
	case param.KindComposite:
		parts := strings.Split(s, ",")
		if len(parts) != d.Dimension() {
			return nil, fmt.Errorf("expected %d components, got %d", d.Dimension(), len(parts))
		}
		tv := make(param.TupleValue, len(parts))
		for i, part := range parts {
			x, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return nil, fmt.Errorf("bad component %q", part)
			}
			tv[i] = x
		}
		return tv, nil
	}
	return nil, fmt.Errorf("unsupported kind %s", d.Kind())
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// statusDetails exposes the host status code of err, if any.
func statusDetails(err error) any {
	code := status.CodeOf(err)
	if code == "" {
		return nil
	}
	return map[string]string{"status": string(code), "ofx_status": code.OfxStatus()}
}
