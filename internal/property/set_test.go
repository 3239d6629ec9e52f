package property

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ofxhost/internal/status"
)

func labelSpec() Spec {
	return Spec{Name: "OfxPropLabel", Type: TypeString, Dimension: 1, HostSettable: true, Default: String("")}
}

func TestDeclare_IdenticalSpecIsIdempotent(t *testing.T) {
	s, err := NewSet(labelSpec())
	require.NoError(t, err)

	require.NoError(t, s.Declare(labelSpec()))
	assert.Equal(t, 1, s.Len())
}

func TestDeclare_DifferentSpecFails(t *testing.T) {
	s, err := NewSet(labelSpec())
	require.NoError(t, err)

	changed := labelSpec()
	changed.Dimension = 2
	err = s.Declare(changed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrDuplicateProperty))

	changed = labelSpec()
	changed.Default = String("x")
	assert.ErrorIs(t, s.Declare(changed), status.ErrDuplicateProperty)
}

func TestDeclare_DefaultTypeMustMatch(t *testing.T) {
	_, err := NewSet(Spec{Name: "bad", Type: TypeInt, Dimension: 1, Default: Double(1)})
	assert.ErrorIs(t, err, status.ErrTypeMismatch)
}

func TestDeclare_NilDefaultIsZero(t *testing.T) {
	s, err := NewSet(Spec{Name: "n", Type: TypeDouble, Dimension: 2})
	require.NoError(t, err)

	v, err := s.Get("n", 1)
	require.NoError(t, err)
	assert.Equal(t, Double(0), v)
}

func TestDimensionSafety(t *testing.T) {
	for _, n := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("dim_%d", n), func(t *testing.T) {
			s, err := NewSet(Spec{Name: "p", Type: TypeInt, Dimension: n, HostSettable: true})
			require.NoError(t, err)

			for i := 0; i < n; i++ {
				require.NoError(t, s.Set("p", i, Int(i*10)))
				v, err := s.Get("p", i)
				require.NoError(t, err)
				assert.Equal(t, Int(i*10), v)
			}

			for _, bad := range []int{-1, n, n + 1} {
				_, err := s.Get("p", bad)
				assert.ErrorIs(t, err, status.ErrIndexOutOfRange, "get index %d", bad)
				assert.ErrorIs(t, s.Set("p", bad, Int(1)), status.ErrIndexOutOfRange, "set index %d", bad)
			}
		})
	}
}

func TestGet_UnknownProperty(t *testing.T) {
	s := MustNewSet()

	_, err := s.Get("missing", 0)
	assert.ErrorIs(t, err, status.ErrUnknownProperty)
	assert.ErrorIs(t, s.SetInternal("missing", 0, Int(1)), status.ErrUnknownProperty)
}

func TestSet_TypeMismatchLeavesValue(t *testing.T) {
	s := MustNewSet(labelSpec())
	require.NoError(t, s.Set("OfxPropLabel", 0, String("Blur")))

	err := s.Set("OfxPropLabel", 0, Int(3))
	assert.ErrorIs(t, err, status.ErrTypeMismatch)

	got, err := s.String("OfxPropLabel", 0)
	require.NoError(t, err)
	assert.Equal(t, "Blur", got)
}

func TestSet_NotSettableFromHost(t *testing.T) {
	s := MustNewSet(Spec{Name: "OfxPropShortLabel", Type: TypeString, Dimension: 1})

	assert.ErrorIs(t, s.Set("OfxPropShortLabel", 0, String("x")), status.ErrNotSettable)
	require.NoError(t, s.SetInternal("OfxPropShortLabel", 0, String("x")))

	got, err := s.String("OfxPropShortLabel", 0)
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestNotify_ObservesPostState(t *testing.T) {
	s := MustNewSet(Spec{Name: "p", Type: TypeDouble, Dimension: 3, HostSettable: true})

	var seen []Value
	require.NoError(t, s.AddNotifyHook("p", NotifyFunc(func(name string, single bool, index int) error {
		assert.Equal(t, "p", name)
		assert.True(t, single)
		v, err := s.Get(name, index)
		require.NoError(t, err)
		seen = append(seen, v)
		return nil
	})))

	require.NoError(t, s.Set("p", 2, Double(0.5)))
	require.NoError(t, s.Set("p", 0, Double(1.5)))
	assert.Equal(t, []Value{Double(0.5), Double(1.5)}, seen)
}

func TestNotify_SetAllReportsDimension(t *testing.T) {
	s := MustNewSet(Spec{Name: "p", Type: TypeInt, Dimension: 3, HostSettable: true})

	var gotSingle bool
	var gotIndex int
	require.NoError(t, s.AddNotifyHook("p", NotifyFunc(func(_ string, single bool, index int) error {
		gotSingle, gotIndex = single, index
		return nil
	})))

	require.NoError(t, s.SetAll("p", []Value{Int(1), Int(2), Int(3)}))
	assert.False(t, gotSingle)
	assert.Equal(t, 3, gotIndex)

	assert.ErrorIs(t, s.SetAll("p", []Value{Int(1)}), status.ErrIndexOutOfRange)
}

func TestNotify_HookErrorRollsBack(t *testing.T) {
	s := MustNewSet(Spec{Name: "p", Type: TypeInt, Dimension: 1, HostSettable: true, Default: Int(7)})
	require.NoError(t, s.AddNotifyHook("p", NotifyFunc(func(string, bool, int) error {
		return status.MissingHostFeature("p", "notify")
	})))

	err := s.Set("p", 0, Int(9))
	assert.ErrorIs(t, err, status.ErrMissingHostFeature)

	got, err := s.Int("p", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)
}

func TestNotify_ReentrantSetFails(t *testing.T) {
	s := MustNewSet(Spec{Name: "p", Type: TypeInt, Dimension: 1, HostSettable: true})

	var inner error
	require.NoError(t, s.AddNotifyHook("p", NotifyFunc(func(name string, _ bool, _ int) error {
		inner = s.Set(name, 0, Int(100))
		return nil
	})))

	require.NoError(t, s.Set("p", 0, Int(1)))
	assert.ErrorIs(t, inner, status.ErrReentrant)

	got, err := s.Int("p", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestNotify_LastWriterWins(t *testing.T) {
	s := MustNewSet(Spec{Name: "p", Type: TypeInt, Dimension: 1, HostSettable: true})

	var calls []string
	require.NoError(t, s.AddNotifyHook("p", NotifyFunc(func(string, bool, int) error {
		calls = append(calls, "first")
		return nil
	})))
	require.NoError(t, s.AddNotifyHook("p", NotifyFunc(func(string, bool, int) error {
		calls = append(calls, "second")
		return nil
	})))

	require.NoError(t, s.Set("p", 0, Int(1)))
	assert.Equal(t, []string{"second"}, calls)

	assert.ErrorIs(t, s.AddNotifyHook("missing", NotifyFunc(nil)), status.ErrUnknownProperty)
}

func TestGetHook_IsAuthoritative(t *testing.T) {
	s := MustNewSet(Spec{Name: "count", Type: TypeInt, Dimension: 1})
	require.NoError(t, s.SetInternal("count", 0, Int(1)))

	live := 4
	require.NoError(t, s.AddGetHook("count", GetFunc(func(string, int) (Value, error) {
		return Int(live), nil
	})))

	got, err := s.Int("count", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)

	live = 5
	vals, err := s.Values("count")
	require.NoError(t, err)
	assert.Equal(t, []Value{Int(5)}, vals)
}

func TestGetHook_WrongTypeIsReported(t *testing.T) {
	s := MustNewSet(Spec{Name: "count", Type: TypeInt, Dimension: 1})
	require.NoError(t, s.AddGetHook("count", GetFunc(func(string, int) (Value, error) {
		return String("four"), nil
	})))

	_, err := s.Get("count", 0)
	assert.ErrorIs(t, err, status.ErrTypeMismatch)
}

func TestReset_RestoresDefault(t *testing.T) {
	s := MustNewSet(Spec{Name: "p", Type: TypeDouble, Dimension: 2, HostSettable: true, Default: Double(0.25)})
	require.NoError(t, s.Set("p", 1, Double(3)))

	require.NoError(t, s.Reset("p"))
	vals, err := s.Values("p")
	require.NoError(t, err)
	assert.Equal(t, []Value{Double(0.25), Double(0.25)}, vals)
}

func TestFreeze(t *testing.T) {
	s := MustNewSet(labelSpec())
	s.Freeze()

	assert.True(t, s.Frozen())
	assert.ErrorIs(t, s.Set("OfxPropLabel", 0, String("x")), status.ErrNotSettable)
	assert.ErrorIs(t, s.Declare(Spec{Name: "new", Type: TypeInt, Dimension: 1}), status.ErrNotSettable)
}

func TestClone_DoesNotAliasOrCopyHooks(t *testing.T) {
	s := MustNewSet(Spec{Name: "p", Type: TypeInt, Dimension: 2, HostSettable: true})
	hookCalls := 0
	require.NoError(t, s.AddNotifyHook("p", NotifyFunc(func(string, bool, int) error {
		hookCalls++
		return nil
	})))
	s.Freeze()

	c := s.Clone()
	assert.False(t, c.Frozen())
	assert.True(t, s.Equal(c))

	require.NoError(t, c.Set("p", 0, Int(42)))
	assert.Equal(t, 0, hookCalls)
	assert.False(t, s.Equal(c))

	orig, err := s.Int("p", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), orig)
}

func TestEqual_IgnoresDeclarationOrder(t *testing.T) {
	a := MustNewSet(labelSpec(), Spec{Name: "n", Type: TypeInt, Dimension: 1})
	b := MustNewSet(Spec{Name: "n", Type: TypeInt, Dimension: 1}, labelSpec())

	assert.True(t, a.Equal(b))
	assert.Equal(t, []string{"OfxPropLabel", "n"}, a.Names())
	assert.Equal(t, []string{"n", "OfxPropLabel"}, b.Names())
}

func TestTypedGetters(t *testing.T) {
	s := MustNewSet(
		Spec{Name: "s", Type: TypeString, Dimension: 1, Default: String("a")},
		Spec{Name: "i", Type: TypeInt, Dimension: 1, Default: Int(1)},
		Spec{Name: "d", Type: TypeDouble, Dimension: 1, Default: Double(0.5)},
		Spec{Name: "p", Type: TypePointer, Dimension: 1, Default: Pointer(16)},
	)

	str, err := s.String("s", 0)
	require.NoError(t, err)
	assert.Equal(t, "a", str)

	b, err := s.Bool("i", 0)
	require.NoError(t, err)
	assert.True(t, b)

	d, err := s.Double("d", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, d)

	p, err := s.Pointer("p", 0)
	require.NoError(t, err)
	assert.Equal(t, uintptr(16), p)

	_, err = s.Double("i", 0)
	assert.ErrorIs(t, err, status.ErrTypeMismatch)
}
