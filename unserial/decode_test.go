package unserial

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// ============================================================
// Scalars
// ============================================================

func TestDecode_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *Value
	}{
		{"int", "i:4;", Int(4)},
		{"negative int", "i:-7;", Int(-7)},
		{"empty int", "i:;", Int(0)},
		{"fractional int payload", "i:1.5;", Float(1.5)},
		{"integral float int payload", "i:3.0;", Int(3)},
		{"float", "d:0.123;", Float(0.123)},
		{"float exponent", "d:1.5e3;", Float(1500)},
		{"float prefix", "d:2.5abc;", Float(2.5)},
		{"float inf", "d:INF;", Float(math.Inf(1))},
		{"float negative inf", "d:-INF;", Float(math.Inf(-1))},
		{"bool true", "b:1;", Bool(true)},
		{"bool false", "b:0;", Bool(false)},
		{"empty bool", "b:;", Bool(false)},
		{"null", "N;", Null()},
		{"string", `s:5:"hello";`, Str("hello")},
		{"empty string", `s:0:"";`, Str("")},
		{"E string", `E:3:"abc";`, Str("abc")},
		{"string with quotes", `s:5:"a"b"c";`, Str(`a"b"c`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.True(t, Equal(tt.expected, got), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestDecode_MalformedNumbersDegrade(t *testing.T) {
	v, err := Decode("d:;")
	require.NoError(t, err)
	f, err := v.AsFloat()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f))

	v, err = Decode("d:NAN;")
	require.NoError(t, err)
	f, err = v.AsFloat()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f))

	v, err = Decode("i:abc;")
	require.NoError(t, err)
	f, err = v.AsFloat()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(f))
}

func TestDecode_MultiByteStrings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"three byte quotes", `s:47:"“@MstrKapowski Great start to the year bud”";`, "“@MstrKapowski Great start to the year bud”"},
		{"length inside a rune", `s:1:"é";`, "é"},
		{"four byte rune", `s:4:"😀";`, "😀"},
		{"length too short", `s:2:"hello";`, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			s, err := got.AsStr()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestDecode_RecoveredStringKeepsCursor(t *testing.T) {
	v, err := Decode(`a:2:{i:0;s:2:"hello";i:1;i:9;}`)
	require.NoError(t, err)
	assert.Equal(t, `["hello" 9]`, Canonical(v))
}

// ============================================================
// Arrays
// ============================================================

func TestDecode_Arrays(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *Value
	}{
		{
			"sequential keys",
			`a:2:{i:0;s:5:"hello";i:1;s:5:"world";}`,
			ListOf(Str("hello"), Str("world")),
		},
		{
			"string key",
			`a:2:{i:0;s:5:"hello";s:1:"x";s:5:"world";}`,
			MapOf(Entry("0", Str("hello")), Entry("x", Str("world"))),
		},
		{
			"empty",
			`a:0:{}`,
			ListOf(),
		},
		{
			"out of order keys keep insertion order",
			`a:2:{i:1;s:1:"a";i:0;s:1:"b";}`,
			MapOf(Entry("1", Str("a")), Entry("0", Str("b"))),
		},
		{
			"single element lists unwrap inside maps",
			`a:2:{s:3:"url";a:1:{i:0;s:3:"abc";}s:4:"tags";a:2:{i:0;s:1:"x";i:1;s:1:"y";}}`,
			MapOf(Entry("url", Str("abc")), Entry("tags", ListOf(Str("x"), Str("y")))),
		},
		{
			"single element lists stay inside lists",
			`a:1:{i:0;a:1:{i:0;i:1;}}`,
			ListOf(ListOf(Int(1))),
		},
		{
			"integer and string keys share a namespace",
			`a:2:{s:1:"5";i:1;i:5;i:2;}`,
			MapOf(Entry("5", Int(2))),
		},
		{
			"nested",
			`a:2:{s:4:"type";s:4:"cite";s:10:"properties";a:1:{s:4:"name";a:1:{i:0;s:3:"Bob";}}}`,
			MapOf(
				Entry("type", Str("cite")),
				Entry("properties", MapOf(Entry("name", Str("Bob")))),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.True(t, Equal(tt.expected, got), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestDecode_PromotionIsVisibleToLaterReferences(t *testing.T) {
	v, err := Decode(`a:2:{s:1:"a";i:1;s:1:"b";r:1;}`)
	require.NoError(t, err)
	require.Equal(t, TypeMap, v.Type())
	assert.Same(t, v, v.Get("b"))
	assert.Equal(t, `{"a"=1 "b"=^cycle}`, Canonical(v))
}

func TestDecode_EarlierReferencesKeepTheList(t *testing.T) {
	v, err := Decode(`a:2:{i:0;r:1;s:1:"k";i:5;}`)
	require.NoError(t, err)
	require.Equal(t, TypeMap, v.Type())

	first := v.Get("0")
	require.Equal(t, TypeList, first.Type())
	inner, err := first.Index(0)
	require.NoError(t, err)
	assert.Same(t, first, inner)
	assert.True(t, Equal(Int(5), v.Get("k")))
}

// ============================================================
// Objects
// ============================================================

func TestDecode_Objects(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected *Value
	}{
		{
			"empty",
			`O:8:"stdClass":0:{}`,
			ObjectOf("stdClass"),
		},
		{
			"public member",
			`O:8:"stdClass":1:{s:3:"foo";s:3:"bar";}`,
			ObjectOf("stdClass", Entry("foo", Str("bar"))),
		},
		{
			"protected member",
			"O:8:\"stdClass\":1:{s:6:\"\x00*\x00foo\";s:3:\"bar\";}",
			ObjectOf("stdClass", Entry("foo", Str("bar"))),
		},
		{
			"protected member with short length",
			"O:8:\"stdClass\":1:{s:3:\"\x00*\x00foo\";s:3:\"bar\";}",
			ObjectOf("stdClass", Entry("foo", Str("bar"))),
		},
		{
			"private member of another class",
			"O:8:\"stdClass\":1:{s:15:\"\x00otherClass\x00foo\";s:3:\"bar\";}",
			ObjectOf("stdClass", Entry("otherClass::foo", Str("bar"))),
		},
		{
			"private member of own class",
			"O:3:\"Foo\":1:{s:8:\"\x00Foo\x00bar\";i:1;}",
			ObjectOf("Foo", Entry("bar", Int(1))),
		},
		{
			"integer member key",
			`O:3:"Foo":1:{i:0;s:1:"a";}`,
			ObjectOf("Foo", Entry("0", Str("a"))),
		},
		{
			"duplicate member overwrites",
			`O:3:"Foo":3:{s:1:"a";i:1;s:1:"b";i:2;s:1:"a";i:3;}`,
			ObjectOf("Foo", Entry("a", Int(3)), Entry("b", Int(2))),
		},
		{
			"nested object",
			`O:3:"Foo":1:{s:3:"bar";O:3:"Bar":1:{s:1:"x";N;}}`,
			ObjectOf("Foo", Entry("bar", ObjectOf("Bar", Entry("x", Null())))),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.True(t, Equal(tt.expected, got), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestDecode_ObjectSelfReference(t *testing.T) {
	v, err := Decode(`O:8:"stdClass":1:{s:4:"self";r:1;}`)
	require.NoError(t, err)
	assert.Same(t, v, v.Get("self"))
}

// ============================================================
// Custom objects
// ============================================================

func TestDecode_Custom(t *testing.T) {
	v, err := Decode(`C:5:"hello":2:{s:4:"name";s:5:"hello";s:9:"serialized";s:5:"world";}`)
	require.NoError(t, err)

	obj, err := v.AsObject()
	require.NoError(t, err)
	assert.True(t, obj.Custom)
	assert.Equal(t, "hello", obj.Class)
	assert.Equal(t, `s:4:"name";s:5:"hello";s:9:"serialized";s:5:"world";`, obj.Payload)
}

func TestDecode_CustomExactLength(t *testing.T) {
	input := `C:3:"Foo":5:{hello}`
	v, n, err := DecodePrefix(input, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, len(input), n)
	assert.True(t, Equal(CustomOf("Foo", "hello"), v))
}

func TestDecode_CustomTakesNoReferenceSlot(t *testing.T) {
	v, err := Decode(`a:3:{i:0;C:3:"Foo":5:{hello}i:1;i:9;i:2;r:2;}`)
	require.NoError(t, err)
	assert.Equal(t, `[Foo("hello") 9 9]`, Canonical(v))
}

// ============================================================
// Back-references
// ============================================================

func TestDecode_BackReferences(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"top level ignores trailing reference", "i:4;r:0;", "4"},
		{"value reference", "a:2:{i:0;i:4;i:1;r:2;}", "[4 4]"},
		{"value references are recorded", "a:3:{i:0;i:4;i:1;r:2;i:2;r:3;}", "[4 4 4]"},
		{"references are not recorded", "a:3:{i:0;i:4;i:1;R:2;i:2;r:3;}", "[4 4 undefined]"},
		{"null takes a slot", `a:3:{i:0;N;i:1;s:1:"x";i:2;r:3;}`, `[null "x" "x"]`},
		{"empty table", "r:1;", "undefined"},
		{"zero index", "a:1:{i:0;r:0;}", "[undefined]"},
		{"non-integer index", "a:1:{i:0;R:x;}", "[undefined]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, Canonical(got))
		})
	}
}

func TestDecode_OutOfRangeReferenceIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	v, err := DecodeWithOptions("a:1:{i:0;r:5;}", DecodeOptions{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, "[undefined]", Canonical(v))

	entries := logs.FilterMessage("back-reference out of range").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "5", fields["index"])
	assert.EqualValues(t, 1, fields["table_size"])
	assert.EqualValues(t, 9, fields["offset"])
}

func TestDecode_PromotionIsTraced(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	_, err := DecodeWithOptions(`a:2:{i:0;i:1;s:1:"x";i:2;}`, DecodeOptions{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("array promoted to map").Len())
}

// ============================================================
// Errors
// ============================================================

func TestDecode_UnknownTypeTag(t *testing.T) {
	_, err := Decode("x:0;")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTypeTag))

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, KindUnknownTypeTag, de.Kind)
	assert.Equal(t, "x", de.Tag)
	assert.Equal(t, 0, de.Offset)
	assert.Nil(t, de.Partial)
	assert.EqualError(t, err, `unserial: unknown type "x" at position 0`)
}

func TestDecode_UnknownKeyTypeTag(t *testing.T) {
	_, err := Decode("a:1:{d:0.5;i:1;}")
	require.ErrorIs(t, err, ErrUnknownKeyTypeTag)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "d", de.Tag)
	assert.Equal(t, 5, de.Offset)
	require.NotNil(t, de.Partial)
	assert.Equal(t, TypeList, de.Partial.Type())
	assert.Equal(t, 0, de.Partial.Len())
}

func TestDecode_MalformedPropertyName(t *testing.T) {
	_, err := Decode("O:8:\"stdClass\":1:{s:5:\"\x00*foo\";s:3:\"bar\";}")
	require.ErrorIs(t, err, ErrMalformedPropertyName)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "\x00*foo", de.Name)
	assert.Equal(t, 23, de.Offset)

	obj, err := de.Partial.AsObject()
	require.NoError(t, err)
	assert.Equal(t, "stdClass", obj.Class)
	assert.Equal(t, 0, obj.Members.Len())
}

func TestDecode_PartialIsOutermostContainer(t *testing.T) {
	_, err := Decode("a:2:{i:0;i:1;i:1;a:1:{i:0;x:1;}}")
	require.ErrorIs(t, err, ErrUnknownTypeTag)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 26, de.Offset)
	require.NotNil(t, de.Partial)
	assert.Equal(t, "[1]", Canonical(de.Partial))
}

func TestDecode_UnexpectedEnd(t *testing.T) {
	inputs := []string{
		"",
		"N",
		"i:5",
		`s:10:"abc`,
		`s:10:"hi";i:1;`,
		`s:1:"a"`,
		"a:1:{i:0;",
		"a:2",
		`O:3:"Foo"`,
		`C:3:"Foo":5:{hello`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := Decode(input)
			require.ErrorIs(t, err, ErrUnexpectedEnd)
		})
	}
}

// ============================================================
// Properties
// ============================================================

func TestDecode_Idempotent(t *testing.T) {
	input := "a:3:{s:1:\"a\";d:0.5;s:1:\"b\";O:3:\"Foo\":1:{s:6:\"\x00*\x00bar\";a:1:{i:0;N;}}s:1:\"c\";r:3;}"

	first, err := Decode(input)
	require.NoError(t, err)
	second, err := Decode(input)
	require.NoError(t, err)

	assert.True(t, Equal(first, second))
	assert.NotSame(t, first, second)
	assert.Equal(t, Canonical(first), Canonical(second))
}

func TestDecodePrefix_BackToBack(t *testing.T) {
	input := `i:1;s:1:"a";N;`

	v, n, err := DecodePrefix(input, DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "1", Canonical(v))
	assert.Equal(t, 4, n)

	v, m, err := DecodePrefix(input[n:], DecodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, `"a"`, Canonical(v))
	assert.Equal(t, 8, m)

	v, k, err := DecodePrefix(input[n+m:], DecodeOptions{})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
	assert.Equal(t, 2, k)
}

func TestDecodeBytes(t *testing.T) {
	v, err := DecodeBytes([]byte("b:1;"))
	require.NoError(t, err)
	b, err := v.AsBool()
	require.NoError(t, err)
	assert.True(t, b)
}
