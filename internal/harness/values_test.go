package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ofxhost/internal/param"
)

func TestToValue(t *testing.T) {
	options := []string{"draft", "good", "best"}
	tests := []struct {
		name string
		kind param.Kind
		raw  any
		want param.Value
	}{
		{"integer", param.KindInteger, 4, param.IntValue(4)},
		{"integral float", param.KindInteger, 4.0, param.IntValue(4)},
		{"double from int", param.KindDouble, 3, param.DoubleValue(3)},
		{"double", param.KindDouble, 0.25, param.DoubleValue(0.25)},
		{"boolean", param.KindBoolean, true, param.BoolValue(true)},
		{"string", param.KindString, "hi", param.StringValue("hi")},
		{"choice label", param.KindChoice, "best", param.ChoiceValue{Index: 2, Option: "best"}},
		{"choice index", param.KindChoice, 1, param.ChoiceValue{Index: 1, Option: "good"}},
		{"choice index out of range", param.KindChoice, 9, param.ChoiceValue{Index: 9}},
		{"composite", param.KindComposite, []any{1, 0.5}, param.TupleValue{1, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := toValue(tt.kind, options, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToValue_Rejects(t *testing.T) {
	tests := []struct {
		name string
		kind param.Kind
		raw  any
	}{
		{"nil", param.KindDouble, nil},
		{"fractional integer", param.KindInteger, 2.5},
		{"string as double", param.KindDouble, "x"},
		{"number as boolean", param.KindBoolean, 1},
		{"unknown label", param.KindChoice, "ultra"},
		{"scalar as composite", param.KindComposite, 1},
		{"text component", param.KindComposite, []any{1, "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := toValue(tt.kind, []string{"draft"}, tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestValuesMatch(t *testing.T) {
	assert.True(t, valuesMatch(param.DoubleValue(100), param.DoubleValue(99.99999999999999)))
	assert.False(t, valuesMatch(param.DoubleValue(100), param.DoubleValue(100.001)))
	assert.True(t, valuesMatch(param.TupleValue{1, 2}, param.TupleValue{1, 2}))
	assert.False(t, valuesMatch(param.TupleValue{1, 2}, param.TupleValue{1, 2, 3}))
	assert.True(t, valuesMatch(param.ChoiceValue{Index: 1}, param.ChoiceValue{Index: 1, Option: "good"}))
	assert.True(t, valuesMatch(param.IntValue(3), param.IntValue(3)))
	assert.False(t, valuesMatch(param.IntValue(3), param.DoubleValue(3)))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "100", formatValue(param.DoubleValue(99.99999999999999)))
	assert.Equal(t, "0", formatValue(param.DoubleValue(math.Copysign(0, -1))))
	assert.Equal(t, "(0.5, 1, -1)", formatValue(param.TupleValue{0.5, 1, -1}))
	assert.Equal(t, "best", formatValue(param.ChoiceValue{Index: 2, Option: "best"}))
	assert.Equal(t, "", formatValue(nil))
}

func TestCheckValue(t *testing.T) {
	assert.Empty(t, checkValue("x", "good", param.ChoiceValue{Index: 1, Option: "good"}))
	assert.Empty(t, checkValue("x", 1, param.ChoiceValue{Index: 1, Option: "good"}))
	assert.Contains(t, checkValue("x", "best", param.ChoiceValue{Index: 1, Option: "good"}), `expected "best"`)
	assert.Contains(t, checkValue("x", []any{1, 1}, param.TupleValue{1, 2}), "expected (1, 1), got (1, 2)")
	assert.Contains(t, checkValue("x", "a", param.DoubleValue(1)), "bad expectation")
}
