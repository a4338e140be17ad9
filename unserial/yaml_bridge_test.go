package unserial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToYAML(t *testing.T) {
	v, err := Decode(`a:2:{s:4:"type";s:4:"cite";s:10:"properties";a:2:{s:4:"name";s:3:"Bob";s:3:"age";i:42;}}`)
	require.NoError(t, err)

	got, err := ToYAML(v)
	require.NoError(t, err)
	assert.Equal(t, "type: cite\nproperties:\n  name: Bob\n  age: 42\n", string(got))
}

func TestToYAML_Scalars(t *testing.T) {
	got, err := ToYAML(ListOf(Str("123"), Bool(true), Null(), Float(math.NaN()), Float(0.5)))
	require.NoError(t, err)
	assert.Equal(t, "- \"123\"\n- true\n- null\n- .nan\n- 0.5\n", string(got))
}

func TestToYAML_Objects(t *testing.T) {
	got, err := ToYAMLWithOpts(ObjectOf("Foo", Entry("x", Int(1))), BridgeOpts{Extended: true})
	require.NoError(t, err)
	assert.Equal(t, "$class: Foo\nx: 1\n", string(got))

	got, err = ToYAML(CustomOf("Foo", "hello"))
	require.NoError(t, err)
	assert.Equal(t, "__PHP_Incomplete_Class_Name: Foo\nserialized: hello\n", string(got))
}

func TestToYAML_Cycle(t *testing.T) {
	v, err := Decode(`O:8:"stdClass":1:{s:4:"self";r:1;}`)
	require.NoError(t, err)
	_, err = ToYAML(v)
	assert.ErrorIs(t, err, ErrCyclicValue)
}
