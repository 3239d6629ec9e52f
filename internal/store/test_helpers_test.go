package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/ofxhost/internal/attribute"
	"github.com/roach88/ofxhost/internal/effect"
	"github.com/roach88/ofxhost/internal/param"
	"github.com/roach88/ofxhost/internal/testutil"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestDescriptor builds a published plugin with one parameter of
// every kind.
func createTestDescriptor(t *testing.T) *effect.Descriptor {
	t.Helper()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("descriptor: %v", err)
		}
	}

	d, err := effect.NewDescriptor("com.example.Grade")
	must(err)
	src, err := attribute.NewClipDescriptor(effect.SourceClip)
	must(err)
	out, err := attribute.NewClipDescriptor(effect.OutputClip)
	must(err)
	must(d.DefineClip(src))
	must(d.DefineClip(out))

	gain, err := param.NewDouble("gain", 1, param.WithRange(0, 10), param.WithDisplayRange(0, 5))
	must(err)
	count, err := param.NewInteger("count", 2)
	must(err)
	invert, err := param.NewBoolean("invert", false)
	must(err)
	note, err := param.NewString("note", "")
	must(err)
	mode, err := param.NewChoice("mode", []string{"fast", "best"}, 0)
	must(err)
	tint, err := param.NewComposite("tint", param.LayoutRGB, []float64{1, 1, 1})
	must(err)
	for _, p := range []*param.Descriptor{gain, count, invert, note, mode, tint} {
		must(d.DefineParam(p))
	}
	d.Publish()
	return d
}

func createTestEffect(t *testing.T, d *effect.Descriptor, prefix string) *effect.Instance {
	t.Helper()
	fx, err := effect.NewInstance(d,
		effect.WithIDGenerator(testutil.NewSequentialIDs(prefix)),
		effect.WithLogger(testutil.DiscardLogger()),
	)
	if err != nil {
		t.Fatalf("NewInstance() failed: %v", err)
	}
	return fx
}
