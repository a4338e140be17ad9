package unserial

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/elliotchance/orderedmap/v3"
)

// Type represents decoded value types.
type Type uint8

const (
	TypeNull Type = iota
	TypeUndefined // Unresolvable back-reference
	TypeBool
	TypeInt
	TypeFloat
	TypeStr
	TypeList
	TypeMap
	TypeObject // Class record: O:... or C:...
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeUndefined:
		return "undefined"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeStr:
		return "str"
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a decoded value.
//
// Lists, maps and objects are held by pointer, so every holder of a
// container (its parent, the reference table, an earlier back-reference)
// observes the same storage.
type Value struct {
	typ Type

	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string

	listVal *List
	mapVal  *Map
	objVal  *Object
}

// List is an ordered sequence of values decoded from an array whose keys
// were exactly 0..n-1.
type List struct {
	items []*Value
}

// Len returns the number of elements.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Items returns the elements in order.
func (l *List) Items() []*Value {
	if l == nil {
		return nil
	}
	return l.items
}

// At returns the i-th element, or nil when i is out of range.
func (l *List) At(i int) *Value {
	if l == nil || i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

func (l *List) append(v *Value) {
	l.items = append(l.items, v)
}

// Map is an insertion-ordered map with string keys.
// Integer keys are stored in their decimal form.
type Map struct {
	entries *orderedmap.OrderedMap[string, *Value]
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{entries: orderedmap.NewOrderedMap[string, *Value]()}
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return m.entries.Len()
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	return m.entries.Get(key)
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.entries.Get(key)
	return ok
}

// Set stores val under key. An existing key keeps its position.
func (m *Map) Set(key string, val *Value) {
	m.entries.Set(key, val)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, m.entries.Len())
	for k := range m.entries.AllFromFront() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates over the entries in insertion order.
func (m *Map) All() iter.Seq2[string, *Value] {
	return func(yield func(string, *Value) bool) {
		if m == nil {
			return
		}
		for k, v := range m.entries.AllFromFront() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// MapEntry is a key/value pair used to build maps and objects.
type MapEntry struct {
	Key   string
	Value *Value
}

// Entry creates a MapEntry.
func Entry(key string, value *Value) MapEntry {
	return MapEntry{Key: key, Value: value}
}

// Object is a class record.
//
// Objects decoded from O: carry their members. Objects decoded from C:
// (custom serialization) carry the class's opaque payload instead.
type Object struct {
	Class   string
	Members *Map
	Payload string
	Custom  bool
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{typ: TypeNull}
}

// Undefined creates the value produced by an unresolvable back-reference.
func Undefined() *Value {
	return &Value{typ: TypeUndefined}
}

// Bool creates a boolean value.
func Bool(v bool) *Value {
	return &Value{typ: TypeBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) *Value {
	return &Value{typ: TypeInt, intVal: v}
}

// Float creates a float value.
func Float(v float64) *Value {
	return &Value{typ: TypeFloat, floatVal: v}
}

// Str creates a string value.
func Str(v string) *Value {
	return &Value{typ: TypeStr, strVal: v}
}

// ListOf creates a list value.
func ListOf(values ...*Value) *Value {
	return &Value{typ: TypeList, listVal: &List{items: values}}
}

// MapOf creates a map value from key-value pairs.
func MapOf(entries ...MapEntry) *Value {
	m := NewMap()
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return &Value{typ: TypeMap, mapVal: m}
}

// ObjectOf creates a class record with members.
func ObjectOf(class string, members ...MapEntry) *Value {
	v := MapOf(members...)
	return &Value{typ: TypeObject, objVal: &Object{Class: class, Members: v.mapVal}}
}

// CustomOf creates a class record holding an opaque payload.
func CustomOf(class, payload string) *Value {
	return &Value{typ: TypeObject, objVal: &Object{Class: class, Payload: payload, Custom: true}}
}

func listValue(l *List) *Value {
	return &Value{typ: TypeList, listVal: l}
}

func mapValue(m *Map) *Value {
	return &Value{typ: TypeMap, mapVal: m}
}

func objectValue(o *Object) *Value {
	return &Value{typ: TypeObject, objVal: o}
}

// ============================================================
// Accessors
// ============================================================

// Type returns the value type.
func (v *Value) Type() Type {
	if v == nil {
		return TypeNull
	}
	return v.typ
}

// IsNull returns true if this is a null value.
func (v *Value) IsNull() bool {
	return v == nil || v.typ == TypeNull
}

// IsUndefined returns true if this value came from a back-reference that
// did not resolve.
func (v *Value) IsUndefined() bool {
	return v != nil && v.typ == TypeUndefined
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if err := v.expect(TypeBool); err != nil {
		return false, err
	}
	return v.boolVal, nil
}

// AsInt returns the integer value.
func (v *Value) AsInt() (int64, error) {
	if err := v.expect(TypeInt); err != nil {
		return 0, err
	}
	return v.intVal, nil
}

// AsFloat returns the float value.
func (v *Value) AsFloat() (float64, error) {
	if err := v.expect(TypeFloat); err != nil {
		return 0, err
	}
	return v.floatVal, nil
}

// AsStr returns the string value.
func (v *Value) AsStr() (string, error) {
	if err := v.expect(TypeStr); err != nil {
		return "", err
	}
	return v.strVal, nil
}

// AsList returns the list.
func (v *Value) AsList() (*List, error) {
	if err := v.expect(TypeList); err != nil {
		return nil, err
	}
	return v.listVal, nil
}

// AsMap returns the map.
func (v *Value) AsMap() (*Map, error) {
	if err := v.expect(TypeMap); err != nil {
		return nil, err
	}
	return v.mapVal, nil
}

// AsObject returns the class record.
func (v *Value) AsObject() (*Object, error) {
	if err := v.expect(TypeObject); err != nil {
		return nil, err
	}
	return v.objVal, nil
}

func (v *Value) expect(t Type) error {
	if v == nil {
		return fmt.Errorf("unserial: nil value")
	}
	if v.typ != t {
		return fmt.Errorf("unserial: expected %s, got %s", t, v.typ)
	}
	return nil
}

// Len returns the length of a list, map, or object's members.
func (v *Value) Len() int {
	if v == nil {
		return 0
	}
	switch v.typ {
	case TypeList:
		return v.listVal.Len()
	case TypeMap:
		return v.mapVal.Len()
	case TypeObject:
		return v.objVal.Members.Len()
	default:
		return 0
	}
}

// Get returns a member by key from a map or object.
func (v *Value) Get(key string) *Value {
	if v == nil {
		return nil
	}
	var m *Map
	switch v.typ {
	case TypeMap:
		m = v.mapVal
	case TypeObject:
		m = v.objVal.Members
	default:
		return nil
	}
	val, _ := m.Get(key)
	return val
}

// Index returns the i-th element of a list.
func (v *Value) Index(i int) (*Value, error) {
	if v == nil || v.typ != TypeList {
		return nil, fmt.Errorf("unserial: not a list")
	}
	if i < 0 || i >= v.listVal.Len() {
		return nil, fmt.Errorf("unserial: index %d out of bounds (len=%d)", i, v.listVal.Len())
	}
	return v.listVal.items[i], nil
}

// String returns the canonical dump of the value.
func (v *Value) String() string {
	return Canonical(v)
}

// soleElement returns the only element of a one-element list.
func (v *Value) soleElement() (*Value, bool) {
	if v == nil || v.typ != TypeList || v.listVal.Len() != 1 {
		return nil, false
	}
	return v.listVal.items[0], true
}

// keyString returns the map key form of an array or member key.
func keyString(k *Value) string {
	switch k.typ {
	case TypeInt:
		return strconv.FormatInt(k.intVal, 10)
	case TypeFloat:
		return formatFloat(k.floatVal)
	default:
		return k.strVal
	}
}
