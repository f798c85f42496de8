package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-3), "-3"},
		{"big", Big("340282366920938463463374607431768211455"), "340282366920938463463374607431768211455"},
		{"bool true", Bool(true), "true"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"tuple", Array{Int(10), String("hi")}, `[10,"hi"]`},
		{"nested", Object{"z": Object{"b": Int(1), "a": Int(2)}, "a": Int(3)}, `{"a":3,"z":{"a":2,"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(Null{})
	assert.Error(t, err)

	_, err = MarshalCanonical(Object{"a": Array{Null{}}})
	assert.Error(t, err)

	_, err = MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalCanonical_RejectsMalformedBig(t *testing.T) {
	_, err := MarshalCanonical(Big("12abc"))
	assert.Error(t, err)
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	result, err := MarshalCanonical(String("<a&b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(result))
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed U+00E9.
	result, err := MarshalCanonical(String("cafe\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(result))
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	result, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
}

func TestMarshalCanonical_EscapedBackslashBeforeU2028Text(t *testing.T) {
	// A literal backslash followed by the text "u2028" must stay escaped.
	result, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result))
}

func TestMarshalCanonical_ControlCharactersEscaped(t *testing.T) {
	result, err := MarshalCanonical(String("a\nb\tc"))
	require.NoError(t, err)
	assert.Equal(t, `"a\nb\tc"`, string(result))
}

func TestDigest_Deterministic(t *testing.T) {
	a, err := Digest(DomainTrace, Object{"x": Int(1), "y": Int(2)})
	require.NoError(t, err)
	b, err := Digest(DomainTrace, Object{"y": Int(2), "x": Int(1)})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Digest(DomainMetadata, Object{"x": Int(1), "y": Int(2)})
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "domain separation")
}

func TestStateDigest(t *testing.T) {
	empty := StateDigest(map[string]string{})
	one := StateDigest(map[string]string{"0100000000": "00000000"})
	assert.NotEqual(t, empty, one)
	assert.Equal(t, one, StateDigest(map[string]string{"0100000000": "00000000"}))
}
