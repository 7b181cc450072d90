package canon

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStableStringifyKeyOrderIndependence(t *testing.T) {
	a := map[string]any{
		"b": 1,
		"a": map[string]any{"y": []any{1, 2}, "x": "v"},
	}
	b := map[string]any{
		"a": map[string]any{"x": "v", "y": []any{1, 2}},
		"b": 1,
	}

	assert.Equal(t, StableStringify(a), StableStringify(b))
	assert.True(t, Equal(a, b))
}

func TestStableStringifyDeepNesting(t *testing.T) {
	// Decode the same logical document from two differently-ordered JSON
	// texts and require identical stable output.
	text1 := `{"paths":{"/pets":{"get":{"tags":["a","b"],"deprecated":false}}},"info":{"title":"t"}}`
	text2 := `{"info":{"title":"t"},"paths":{"/pets":{"get":{"deprecated":false,"tags":["a","b"]}}}}`

	var d1, d2 any
	require.NoError(t, json.Unmarshal([]byte(text1), &d1))
	require.NoError(t, json.Unmarshal([]byte(text2), &d2))

	assert.Equal(t, StableStringify(d1), StableStringify(d2))
}

func TestStableStringifyArrayOrderPreserved(t *testing.T) {
	a := map[string]any{"tags": []any{"a", "b"}}
	b := map[string]any{"tags": []any{"b", "a"}}

	assert.NotEqual(t, StableStringify(a), StableStringify(b),
		"array order is meaningful and must survive canonicalization")
}

func TestStableStringifyNumbers(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"integral float", 3.0, "3"},
		{"fractional float", 3.5, "3.5"},
		{"int", 3, "3"},
		{"json number integral", json.Number("3.0"), "3"},
		{"json number fraction", json.Number("0.25"), "0.25"},
		{"negative integral float", -7.0, "-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StableStringify(tt.in))
		})
	}
}

func TestStableStringifyNumberDecoderIndependence(t *testing.T) {
	// encoding/json decodes numbers to float64; a decoder using json.Number
	// must produce the same stable output.
	assert.Equal(t, StableStringify(float64(42)), StableStringify(json.Number("42")))
}

func TestCanonicalizeNil(t *testing.T) {
	assert.Nil(t, Canonicalize(nil))
	assert.Equal(t, "null", StableStringify(nil))
}

func TestCanonicalizeUnexpectedType(t *testing.T) {
	type odd struct{ X int }
	got := Canonicalize(odd{X: 1})
	_, isString := got.(string)
	assert.True(t, isString, "unexpected types are stringified, got %T", got)
}

func TestCanonicalizeNonStringMapKeys(t *testing.T) {
	in := map[any]any{1: "a", "b": 2}
	got, ok := Canonicalize(in).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a", got["1"])
	assert.Equal(t, 2, got["b"])
}

func TestStableStringifyEscaping(t *testing.T) {
	out := StableStringify(map[string]any{"k": "a\"b\n"})
	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "a\"b\n", decoded["k"])
}
