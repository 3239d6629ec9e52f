package property

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Entry is the enumerable form of one declared property, as consumed by
// persistence and schema hashing.
type Entry struct {
	Name         string
	Type         Type
	Dimension    int
	HostSettable bool
	Values       []Value
}

// Entries enumerates every property in declaration order. Values honour
// registered get hooks.
func (s *Set) Entries() ([]Entry, error) {
	out := make([]Entry, 0, len(s.order))
	for _, name := range s.order {
		spec := s.specs[name]
		vals, err := s.Values(name)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}
		out = append(out, Entry{
			Name:         name,
			Type:         spec.Type,
			Dimension:    spec.Dimension,
			HostSettable: spec.HostSettable,
			Values:       vals,
		})
	}
	return out, nil
}

// MarshalValues encodes values as a canonical JSON array.
// Strings are NFC normalized and not HTML escaped; doubles use the shortest
// round-trip representation; NaN and infinities are rejected.
func MarshalValues(vals []Value) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalValues decodes a JSON array written by MarshalValues.
// Every element must decode as t.
func UnmarshalValues(t Type, data []byte) ([]Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode %s values: %w", t, err)
	}

	out := make([]Value, len(raw))
	for i, r := range raw {
		v, err := convertValue(t, r)
		if err != nil {
			return nil, fmt.Errorf("values[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// MarshalCanonical encodes the whole set as a canonical JSON object keyed by
// property name, with keys in UTF-16 code unit order.
func MarshalCanonical(s *Set) ([]byte, error) {
	entries, err := s.Entries()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(entries, func(a, b Entry) int { return compareKeys(a.Name, b.Name) })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalString(e.Name)
		if err != nil {
			return nil, err
		}
		vals, err := MarshalValues(e.Values)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", e.Name, err)
		}
		buf.Write(key)
		// Inner keys are written already sorted: dimension < settable < type < values.
		fmt.Fprintf(&buf, `:{"dimension":%d,"settable":%t,"type":"%s","values":`, e.Dimension, e.HostSettable, e.Type)
		buf.Write(vals)
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Hash computes SHA-256 over data with domain separation.
// Format: SHA256(domain + 0x00 + data).
func Hash(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func marshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case String:
		return marshalString(string(val))
	case Int:
		return []byte(strconv.FormatInt(int64(val), 10)), nil
	case Pointer:
		return []byte(strconv.FormatUint(uint64(val), 10)), nil
	case Double:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("non-finite double %v", f)
		}
		return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
	case nil:
		return nil, fmt.Errorf("nil value")
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

func convertValue(t Type, r any) (Value, error) {
	switch t {
	case TypeString:
		s, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", r)
		}
		return String(s), nil
	case TypeInt:
		n, ok := r.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %T", r)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("expected integer, got %s", n)
		}
		return Int(i), nil
	case TypePointer:
		n, ok := r.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected pointer, got %T", r)
		}
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected pointer, got %s", n)
		}
		return Pointer(uintptr(u)), nil
	case TypeDouble:
		n, ok := r.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected double, got %T", r)
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("expected double, got %s", n)
		}
		return Double(f), nil
	default:
		return nil, fmt.Errorf("unknown property type %d", t)
	}
}

// compareKeys orders strings by UTF-16 code units, as canonical JSON requires.
func compareKeys(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
