package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ofxhost/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	DBPath string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect [effect-id]",
		Short: "Show saved effects",
		Long: `List the effects saved in a state database, or dump the stored
snapshot of one effect: clip connections, parameter values and keyframes,
and host-settable property overrides.

Examples:
  ofxhost inspect --db ./state.db
  ofxhost inspect --db ./state.db 0192f7a4-...-7c1e --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runInspect(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to the state database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runInspect(opts *InspectOptions, id string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	// Opening a missing path would create an empty database.
	if _, err := os.Stat(opts.DBPath); err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("database not found: %s", opts.DBPath), nil)
	}
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, err.Error(), nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	if id == "" {
		records, err := st.ListEffects(ctx)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeStore, err.Error(), nil)
		}
		if f.JSON() {
			return f.Success(records)
		}
		writeRecordsText(f.Writer, records)
		return nil
	}

	state, err := st.LoadState(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ExitFailure, ErrCodeStore, fmt.Sprintf("effect %s not found", id), nil)
	}
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeStore, err.Error(), nil)
	}
	if f.JSON() {
		return f.Success(state)
	}
	writeStateText(f.Writer, state)
	return nil
}

func writeRecordsText(w io.Writer, records []store.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No effects saved.")
		return
	}
	for _, r := range records {
		fmt.Fprintf(w, "%s  %s  t=%g  seq=%d\n", r.ID, r.PluginID, float64(r.Time), r.Seq)
	}
}

func writeStateText(w io.Writer, st *store.EffectState) {
	fmt.Fprintf(w, "%s (%s)\n", st.ID, st.PluginID)
	fmt.Fprintf(w, "  time:   %g\n", float64(st.Time))
	fmt.Fprintf(w, "  schema: %s\n", st.SchemaHash)
	fmt.Fprintf(w, "  state:  %s\n", st.StateHash)

	fmt.Fprintln(w, "  clips:")
	for _, c := range st.Clips {
		mark := "-"
		if c.Connected {
			mark = "connected"
		}
		fmt.Fprintf(w, "    %-12s %s\n", c.Name, mark)
	}

	fmt.Fprintln(w, "  params:")
	for _, p := range st.Params {
		fmt.Fprintf(w, "    %-12s %-10s %s\n", p.Name, p.Kind, p.Value)
		for _, k := range p.Keyframes {
			fmt.Fprintf(w, "      @%g %s\n", k.Time, k.Value)
		}
	}

	if len(st.Properties) > 0 {
		fmt.Fprintln(w, "  properties:")
		for _, p := range st.Properties {
			fmt.Fprintf(w, "    %s %s = %s\n", p.Owner, p.Name, p.Values)
		}
	}
}
