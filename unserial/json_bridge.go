package unserial

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// Converts decoded values to JSON, keeping map and member order.
//   - NaN, ±Inf and undefined list elements become null
//   - undefined map members are left out
//   - objects become JSON objects of their members
//   - custom objects become {"__PHP_Incomplete_Class_Name": class, "serialized": payload}
//
// A value that contains itself cannot be represented and yields ErrCyclicValue.

// IncompleteClassKey names the class of a custom object in bridged output.
const IncompleteClassKey = "__PHP_Incomplete_Class_Name"

// SerializedKey holds the opaque payload of a custom object in bridged output.
const SerializedKey = "serialized"

// BridgeOpts configures JSON and YAML bridge behavior.
type BridgeOpts struct {
	// Extended adds a "$class" member carrying the class name of every
	// object decoded from O:. When false (default), the class name of
	// such objects is dropped.
	Extended bool
}

// ClassKey is the member added by BridgeOpts.Extended.
const ClassKey = "$class"

// DefaultBridgeOpts returns the default options.
func DefaultBridgeOpts() BridgeOpts {
	return BridgeOpts{Extended: false}
}

// ToJSON converts a value to compact JSON.
func ToJSON(v *Value) ([]byte, error) {
	return ToJSONWithOpts(v, DefaultBridgeOpts())
}

// ToJSONIndent converts a value to indented JSON.
func ToJSONIndent(v *Value, prefix, indent string) ([]byte, error) {
	data, err := ToJSON(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, prefix, indent); err != nil {
		return nil, fmt.Errorf("indent JSON: %w", err)
	}
	return out.Bytes(), nil
}

// ToJSONWithOpts converts a value to compact JSON with options.
func ToJSONWithOpts(v *Value, opts BridgeOpts) ([]byte, error) {
	w := jsonWriter{opts: opts, visiting: make(map[any]bool)}
	if err := w.write(v); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

type jsonWriter struct {
	buf      bytes.Buffer
	opts     BridgeOpts
	visiting map[any]bool
}

func (w *jsonWriter) write(v *Value) error {
	if v == nil {
		w.buf.WriteString("null")
		return nil
	}

	switch v.typ {
	case TypeNull, TypeUndefined:
		w.buf.WriteString("null")
		return nil

	case TypeBool:
		w.buf.WriteString(strconv.FormatBool(v.boolVal))
		return nil

	case TypeInt:
		w.buf.WriteString(strconv.FormatInt(v.intVal, 10))
		return nil

	case TypeFloat:
		if math.IsNaN(v.floatVal) || math.IsInf(v.floatVal, 0) {
			w.buf.WriteString("null")
			return nil
		}
		data, err := json.Marshal(v.floatVal)
		if err != nil {
			return err
		}
		w.buf.Write(data)
		return nil

	case TypeStr:
		return w.writeString(v.strVal)

	case TypeList:
		if err := w.enter(v.listVal); err != nil {
			return err
		}
		defer delete(w.visiting, v.listVal)
		w.buf.WriteByte('[')
		for i, item := range v.listVal.items {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.write(item); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
		return nil

	case TypeMap:
		if err := w.enter(v.mapVal); err != nil {
			return err
		}
		defer delete(w.visiting, v.mapVal)
		w.buf.WriteByte('{')
		if _, err := w.writeMembers(v.mapVal, false); err != nil {
			return err
		}
		w.buf.WriteByte('}')
		return nil

	case TypeObject:
		if err := w.enter(v.objVal); err != nil {
			return err
		}
		defer delete(w.visiting, v.objVal)
		obj := v.objVal
		w.buf.WriteByte('{')
		if obj.Custom {
			if err := w.writeString(IncompleteClassKey); err != nil {
				return err
			}
			w.buf.WriteByte(':')
			if err := w.writeString(obj.Class); err != nil {
				return err
			}
			w.buf.WriteByte(',')
			if err := w.writeString(SerializedKey); err != nil {
				return err
			}
			w.buf.WriteByte(':')
			if err := w.writeString(obj.Payload); err != nil {
				return err
			}
			w.buf.WriteByte('}')
			return nil
		}
		wrote := false
		if w.opts.Extended {
			if err := w.writeString(ClassKey); err != nil {
				return err
			}
			w.buf.WriteByte(':')
			if err := w.writeString(obj.Class); err != nil {
				return err
			}
			wrote = true
		}
		if _, err := w.writeMembers(obj.Members, wrote); err != nil {
			return err
		}
		w.buf.WriteByte('}')
		return nil

	default:
		return fmt.Errorf("unsupported value type: %s", v.typ)
	}
}

// writeMembers writes key:value pairs, skipping undefined values.
// comma reports whether a member was already written before.
func (w *jsonWriter) writeMembers(m *Map, comma bool) (bool, error) {
	for k, val := range m.All() {
		if val.IsUndefined() {
			continue
		}
		if comma {
			w.buf.WriteByte(',')
		}
		comma = true
		if err := w.writeString(k); err != nil {
			return comma, err
		}
		w.buf.WriteByte(':')
		if err := w.write(val); err != nil {
			return comma, err
		}
	}
	return comma, nil
}

func (w *jsonWriter) writeString(s string) error {
	enc := json.NewEncoder(&w.buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates with a newline.
	w.buf.Truncate(w.buf.Len() - 1)
	return nil
}

func (w *jsonWriter) enter(container any) error {
	if w.visiting[container] {
		return ErrCyclicValue
	}
	w.visiting[container] = true
	return nil
}
