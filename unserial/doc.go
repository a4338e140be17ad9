// Package unserial decodes PHP's native serialize() format into Go values
// without a PHP runtime.
//
// The format is length-prefixed and self-describing. Every value starts
// with a one-letter tag:
//
//	i:42;                     integer
//	d:0.5;                    float (INF, -INF and NAN are accepted)
//	b:1;                      boolean
//	s:5:"hello";              string, length in bytes
//	N;                        null
//	a:2:{i:0;s:1:"a";i:1;N;}  array: count, then key/value pairs
//	O:3:"Foo":1:{s:1:"x";i:1;} object: class name, count, members
//	C:3:"Foo":5:{hello}       custom-serialized object, payload kept opaque
//	r:1;  R:1;                back-references, 1-based
//
// # Data Model
//
// Scalars: null, bool, int, float, str
// Containers: list, map, object (class record)
// Special: undefined (a back-reference that resolved to nothing)
//
// An array whose keys are exactly 0..n-1 decodes to a list; any other
// array decodes to an insertion-ordered map with string keys. The switch
// happens lazily at the first out-of-sequence key, and back-references
// taken before that point keep seeing the list.
//
// Non-public member names are normalized: protected members and private
// members of the object's own class keep their bare name, private members
// inherited from another class become "Class::name".
//
// # Errors
//
// Decoding stops at the first structural problem with a *DecodeError.
// Match the kind with errors.Is against ErrUnknownTypeTag,
// ErrUnknownKeyTypeTag, ErrMalformedPropertyName or ErrUnexpectedEnd.
// DecodeError.Partial holds the container that was being built.
//
// Malformed numbers are not errors: an empty integer is 0, a bad float is
// NaN, and any boolean other than "1" is false.
// Float payloads INF, -INF and NAN decode to the matching IEEE values, as
// PHP's unserialize() does; the JavaScript parser this decoder replaces
// turned INF and -INF into NaN.
//
// # Example
//
//	v, err := unserial.Decode(`a:2:{i:0;s:5:"hello";i:1;s:5:"world";}`)
//	if err != nil {
//		return err
//	}
//	out, _ := unserial.ToJSON(v) // ["hello","world"]
package unserial
