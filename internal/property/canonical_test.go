package property

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalValues(t *testing.T) {
	tests := []struct {
		name string
		vals []Value
		want string
	}{
		{"strings", []Value{String("a<b>"), String("")}, `["a<b>",""]`},
		{"ints", []Value{Int(-3), Int(0)}, `[-3,0]`},
		{"doubles", []Value{Double(1), Double(0.25), Double(-2.5)}, `[1,0.25,-2.5]`},
		{"pointer", []Value{Pointer(4096)}, `[4096]`},
		{"empty", nil, `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalValues(tt.vals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalValues_RejectsNonFinite(t *testing.T) {
	_, err := MarshalValues([]Value{Double(math.NaN())})
	assert.Error(t, err)

	_, err = MarshalValues([]Value{Double(math.Inf(1))})
	assert.Error(t, err)
}

func TestMarshalValues_NormalizesNFC(t *testing.T) {
	// "e" + combining acute accent composes to U+00E9.
	got, err := MarshalValues([]Value{String("e\u0301")})
	require.NoError(t, err)
	assert.Equal(t, "[\"\u00e9\"]", string(got))
}

func TestUnmarshalValues(t *testing.T) {
	vals, err := UnmarshalValues(TypeDouble, []byte(`[1,0.25]`))
	require.NoError(t, err)
	assert.Equal(t, []Value{Double(1), Double(0.25)}, vals)

	vals, err = UnmarshalValues(TypeInt, []byte(`[9007199254740993]`))
	require.NoError(t, err)
	assert.Equal(t, []Value{Int(9007199254740993)}, vals)

	_, err = UnmarshalValues(TypeInt, []byte(`[1.5]`))
	assert.Error(t, err)

	_, err = UnmarshalValues(TypeString, []byte(`[1]`))
	assert.Error(t, err)
}

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	s := MustNewSet(
		Spec{Name: "b", Type: TypeInt, Dimension: 1, Default: Int(2)},
		Spec{Name: "a", Type: TypeString, Dimension: 1, HostSettable: true, Default: String("x")},
	)

	got, err := MarshalCanonical(s)
	require.NoError(t, err)
	assert.Equal(t,
		`{"a":{"dimension":1,"settable":true,"type":"string","values":["x"]},"b":{"dimension":1,"settable":false,"type":"int","values":[2]}}`,
		string(got))
}

func TestEntries_FollowDeclarationOrder(t *testing.T) {
	s := MustNewSet(
		Spec{Name: "z", Type: TypeInt, Dimension: 1},
		Spec{Name: "a", Type: TypeInt, Dimension: 2},
	)

	entries, err := s.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "z", entries[0].Name)
	assert.Equal(t, 2, entries[1].Dimension)
}

func TestHash_DomainSeparated(t *testing.T) {
	a := Hash("ofxhost/schema/v1", []byte("x"))
	b := Hash("ofxhost/state/v1", []byte("x"))

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Hash("ofxhost/schema/v1", []byte("x")))
}

func TestParseType_RoundTrip(t *testing.T) {
	for _, typ := range []Type{TypeString, TypeInt, TypeDouble, TypePointer} {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseType("float")
	assert.Error(t, err)
}
