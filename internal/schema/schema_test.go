package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ofxhost/internal/attribute"
	"github.com/roach88/ofxhost/internal/param"
)

func codes(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		var ce *CompileError
		if errors.As(err, &ce) {
			out = append(out, ce.Code)
		} else {
			out = append(out, "?")
		}
	}
	return out
}

func TestLoadDir_Plugins(t *testing.T) {
	res, errs := LoadDir("testdata/plugins", LoadModeCollectAll)
	require.Empty(t, errs)
	require.NotNil(t, res)

	assert.Equal(t, 2, res.FileCount)
	assert.Len(t, res.Plugins, 2)
	assert.Len(t, res.Hash, 64)

	blur := res.Plugin("com.example.Blur")
	require.NotNil(t, blur)
	assert.True(t, blur.Published())
	assert.Equal(t, "Gaussian Blur", blur.LongLabel())
	assert.Equal(t, "Filter", blur.Grouping())
	major, minor := blur.Version()
	assert.Equal(t, 2, major)
	assert.Equal(t, 1, minor)

	mask, err := blur.Clip("Mask")
	require.NoError(t, err)
	assert.True(t, mask.IsOptional())
	assert.True(t, mask.IsMask())
	assert.Equal(t, []attribute.Component{attribute.ComponentAlpha}, mask.SupportedComponents())

	names := make([]string, 0, 3)
	for _, p := range blur.Params() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"radius", "quality", "iterations"}, names)

	radius, err := blur.Param("radius")
	require.NoError(t, err)
	assert.Equal(t, param.KindDouble, radius.Kind())
	assert.Equal(t, param.DoubleValue(2), radius.Default())
	assert.Equal(t, "Blur radius in pixels", radius.Hint())
	lo, hi := radius.DisplayRange(0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 25.0, hi)

	quality, err := blur.Param("quality")
	require.NoError(t, err)
	assert.Equal(t, param.ChoiceValue{Index: 1, Option: "good"}, quality.Default())

	iterations, err := blur.Param("iterations")
	require.NoError(t, err)
	assert.Equal(t, param.IntValue(3), iterations.Default())
}

func TestLoadDir_Composites(t *testing.T) {
	res, errs := LoadDir("testdata/plugins", LoadModeCollectAll)
	require.Empty(t, errs)

	grade := res.Plugin("com.example.Grade")
	require.NotNil(t, grade)

	_, err := grade.Clip("Source")
	require.NoError(t, err)

	lift, err := grade.Param("lift")
	require.NoError(t, err)
	assert.Equal(t, param.LayoutRGB, lift.Layout())
	assert.Equal(t, param.TupleValue{0, 0, 0}, lift.Default())
	lo, hi := lift.HardRange(2)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 1.0, hi)

	gain, err := grade.Param("gain")
	require.NoError(t, err)
	assert.Equal(t, 4, gain.Dimension())

	center, err := grade.Param("center")
	require.NoError(t, err)
	assert.False(t, center.Animates())
	assert.Equal(t, []string{"x", "y"}, center.DimensionLabels())

	note, err := grade.Param("note")
	require.NoError(t, err)
	assert.Equal(t, param.StringValue("graded"), note.Default())
}

func TestLoadDir_CollectsAllErrors(t *testing.T) {
	res, errs := LoadDir("testdata/invalid", LoadModeCollectAll)
	require.NotNil(t, res)
	assert.Empty(t, res.Plugins)

	got := codes(errs)
	for _, code := range []string{
		ErrCodeUnknownKind,
		ErrCodeDefaultRange,
		ErrCodeNoOptions,
		ErrCodeChoiceDefault,
		ErrCodeUnknownComponent,
		ErrCodeNoOutputClip,
		ErrCodeDimension,
		ErrCodeMinMax,
	} {
		assert.Contains(t, got, code)
	}
	assert.NotContains(t, got, ErrCodeDisplayRange)
}

func TestLoadDir_ErrorsCarryPositions(t *testing.T) {
	_, errs := LoadDir("testdata/invalid", LoadModeCollectAll)
	require.NotEmpty(t, errs)

	var found bool
	for _, err := range errs {
		var ce *CompileError
		require.True(t, errors.As(err, &ce))
		if ce.Code != ErrCodeDefaultRange || ce.Field != "params.amount.default" {
			continue
		}
		found = true
		assert.True(t, ce.Pos.IsValid())
		assert.Contains(t, ce.Error(), "bad.cue:")
		assert.Contains(t, ce.Message, "outside [0, 1]")
	}
	assert.True(t, found)
}

func TestCompile_FailFast(t *testing.T) {
	src := `
		plugin: First: params: p: type: "curve"
		plugin: Second: params: q: type: "spline"
	`
	_, all := CompileString(src, "two.cue", LoadModeCollectAll)
	_, first := CompileString(src, "two.cue", LoadModeFailFast)

	// Each plugin lacks an Output clip and has one unknown type.
	assert.Len(t, all, 4)
	assert.Equal(t, []string{ErrCodeNoOutputClip, ErrCodeUnknownKind}, codes(first))
}

func TestLoadDir_Missing(t *testing.T) {
	_, errs := LoadDir("testdata/nope", LoadModeCollectAll)
	assert.Equal(t, []string{ErrCodeNotFound}, codes(errs))

	_, errs = LoadDir(t.TempDir(), LoadModeCollectAll)
	assert.Equal(t, []string{ErrCodeNoFiles}, codes(errs))
}

func TestLoadDir_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	src := "package plugins\n\nplugin: {\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.cue"), []byte(src), 0644))

	_, errs := LoadDir(dir, LoadModeCollectAll)
	assert.Equal(t, []string{ErrCodeLoadFailed}, codes(errs))
}

func TestCompileString_DisplayRange(t *testing.T) {
	_, errs := CompileString(`
		plugin: Fade: {
			clips: Output: {}
			params: opacity: {
				type:        "double"
				default:     0.5
				min:         0
				max:         1
				display_max: 2
			}
		}
	`, "fade.cue", LoadModeCollectAll)

	assert.Equal(t, []string{ErrCodeDisplayRange}, codes(errs))
}

func TestCompileString_NoPlugins(t *testing.T) {
	_, errs := CompileString(`other: 1`, "empty.cue", LoadModeCollectAll)
	assert.Equal(t, []string{ErrCodeNoPlugins}, codes(errs))
}

func TestCompileString_Defaults(t *testing.T) {
	res, errs := CompileString(`
		plugin: Fill: {
			clips: Output: {}
			params: {
				level: type: "integer"
				color: type: "rgba"
				pick: {
					type:    "choice"
					options: ["one"]
				}
			}
		}
	`, "fill.cue", LoadModeCollectAll)
	require.Empty(t, errs)

	fill := res.Plugin("Fill")
	require.NotNil(t, fill)
	major, minor := fill.Version()
	assert.Equal(t, 1, major)
	assert.Equal(t, 0, minor)

	out, err := fill.Clip("Output")
	require.NoError(t, err)
	assert.True(t, out.SupportsTiles())
	assert.Equal(t, []attribute.Component{attribute.ComponentRGBA}, out.SupportedComponents())

	level, err := fill.Param("level")
	require.NoError(t, err)
	assert.Equal(t, param.IntValue(0), level.Default())

	color, err := fill.Param("color")
	require.NoError(t, err)
	assert.Equal(t, param.TupleValue{0, 0, 0, 0}, color.Default())
}

func TestHash_ChangesWithSchema(t *testing.T) {
	src := `
		plugin: Fade: {
			clips: Output: {}
			params: opacity: {
				type:    "double"
				default: %s
			}
		}
	`
	a, errs := CompileString(fmt.Sprintf(src, "0.5"), "a.cue", LoadModeCollectAll)
	require.Empty(t, errs)
	b, errs := CompileString(fmt.Sprintf(src, "0.5"), "b.cue", LoadModeCollectAll)
	require.Empty(t, errs)
	c, errs := CompileString(fmt.Sprintf(src, "0.25"), "c.cue", LoadModeCollectAll)
	require.Empty(t, errs)

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
}
