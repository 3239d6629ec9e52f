package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Plugin string // only describe this plugin
}

// PluginSummary describes one plugin.
type PluginSummary struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Group   string         `json:"group,omitempty"`
	Version string         `json:"version"`
	Clips   []ClipSummary  `json:"clips"`
	Params  []ParamSummary `json:"params"`
}

// ClipSummary describes one clip of a plugin.
type ClipSummary struct {
	Name       string   `json:"name"`
	Optional   bool     `json:"optional"`
	Mask       bool     `json:"mask,omitempty"`
	Components []string `json:"components"`
}

// ParamSummary describes one parameter of a plugin.
type ParamSummary struct {
	Name     string      `json:"name"`
	Label    string      `json:"label"`
	Kind     string      `json:"kind"`
	Layout   string      `json:"layout,omitempty"`
	Default  string      `json:"default"`
	Range    [][]float64 `json:"range,omitempty"` // per component [min, max]
	Options  []string    `json:"options,omitempty"`
	Animates bool        `json:"animates"`
	Hint     string      `json:"hint,omitempty"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <schema-dir>",
		Short: "List plugins with their clips and parameters",
		Long: `Load the CUE plugin schemas in a directory and print every plugin
with its clips and parameters in declaration order.

Examples:
  ofxhost describe ./plugins
  ofxhost describe ./plugins --plugin com.example.Blur --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Plugin, "plugin", "", "only describe this plugin")

	return cmd
}

func runDescribe(opts *DescribeOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	res, err := loadSchemas(f, dir)
	if err != nil {
		return err
	}

	plugins := res.Plugins
	if opts.Plugin != "" {
		d, err := findPlugin(f, res, opts.Plugin)
		if err != nil {
			return err
		}
		plugins = []*effect.Descriptor{d}
	}

	summaries := make([]PluginSummary, len(plugins))
	for i, d := range plugins {
		summaries[i] = summarizePlugin(d)
	}

	if f.JSON() {
		return f.Success(summaries)
	}
	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(f.Writer)
		}
		writePluginText(f.Writer, s)
	}
	return nil
}

func summarizePlugin(d *effect.Descriptor) PluginSummary {
	major, minor := d.Version()
	s := PluginSummary{
		ID:      d.ID(),
		Label:   d.Label(),
		Group:   d.Grouping(),
		Version: fmt.Sprintf("%d.%d", major, minor),
		Clips:   make([]ClipSummary, 0, len(d.Clips())),
		Params:  make([]ParamSummary, 0, len(d.Params())),
	}
	for _, c := range d.Clips() {
		comps := make([]string, 0, len(c.SupportedComponents()))
		for _, comp := range c.SupportedComponents() {
			comps = append(comps, comp.Short())
		}
		s.Clips = append(s.Clips, ClipSummary{
			Name:       c.Name(),
			Optional:   c.IsOptional(),
			Mask:       c.IsMask(),
			Components: comps,
		})
	}
	for _, p := range d.Params() {
		s.Params = append(s.Params, summarizeParam(p))
	}
	return s
}

func summarizeParam(p *param.Descriptor) ParamSummary {
	s := ParamSummary{
		Name:     p.Name(),
		Label:    p.Label(),
		Kind:     p.Kind().String(),
		Layout:   string(p.Layout()),
		Default:  p.Default().String(),
		Options:  p.Options(),
		Animates: p.Animates(),
		Hint:     p.Hint(),
	}
	if p.Kind().Numeric() {
		for i := 0; i < p.Dimension(); i++ {
			lo, hi := p.HardRange(i)
			s.Range = append(s.Range, []float64{lo, hi})
		}
	}
	return s
}

func writePluginText(w io.Writer, s PluginSummary) {
	fmt.Fprintf(w, "%s (%s) v%s\n", s.ID, s.Label, s.Version)
	if s.Group != "" {
		fmt.Fprintf(w, "  group: %s\n", s.Group)
	}

	fmt.Fprintln(w, "  clips:")
	for _, c := range s.Clips {
		var flags []string
		if c.Optional {
			flags = append(flags, "optional")
		}
		if c.Mask {
			flags = append(flags, "mask")
		}
		line := fmt.Sprintf("    %-12s %s", c.Name, strings.Join(c.Components, ","))
		if len(flags) > 0 {
			line += " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w, "  params:")
	for _, p := range s.Params {
		kind := p.Kind
		if p.Layout != "" {
			kind = p.Layout
		}
		line := fmt.Sprintf("    %-12s %-10s default=%s", p.Name, kind, p.Default)
		if len(p.Range) == 1 {
			line += fmt.Sprintf(" range=[%g, %g]", p.Range[0][0], p.Range[0][1])
		}
		if len(p.Options) > 0 {
			line += " options=" + strings.Join(p.Options, "|")
		}
		if !p.Animates {
			line += " static"
		}
		fmt.Fprintln(w, line)
	}
}
