package unserial

import (
	"strconv"

	"go.uber.org/zap"
)

// DecodeOptions configures the decoder.
type DecodeOptions struct {
	// Logger receives debug traces and warnings about suspicious input,
	// such as back-references that point past the reference table.
	// A nil Logger discards everything.
	Logger *zap.Logger
}

// Decode decodes the first serialized value in input.
// Anything after that value is ignored.
func Decode(input string) (*Value, error) {
	return DecodeWithOptions(input, DecodeOptions{})
}

// DecodeBytes is Decode for a byte slice.
func DecodeBytes(data []byte) (*Value, error) {
	return Decode(string(data))
}

// DecodeWithOptions decodes with explicit options.
func DecodeWithOptions(input string, opts DecodeOptions) (*Value, error) {
	v, _, err := DecodePrefix(input, opts)
	return v, err
}

// DecodePrefix decodes the first serialized value in input and reports
// how many bytes it occupied, so back-to-back values can be decoded one
// after the other.
func DecodePrefix(input string, opts DecodeOptions) (*Value, int, error) {
	d := newDecoder(input, opts)
	v, err := d.next()
	if err != nil {
		return nil, d.pos, err
	}
	if d.pos > len(input) {
		return nil, len(input), unexpectedEnd(len(input))
	}
	return v, d.pos, nil
}

// decoder holds the state of one top-level decode. It is never shared
// between calls.
type decoder struct {
	cursor
	refs refTable
	log  *zap.Logger
}

func newDecoder(input string, opts DecodeOptions) *decoder {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &decoder{cursor: cursor{input: input}, log: log}
}

// ============================================================
// Dispatch
// ============================================================

// next decodes one value of any type.
func (d *decoder) next() (*Value, error) {
	offset := d.pos
	tag, err := d.readTag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case 'i':
		return d.decodeInt()
	case 'd':
		return d.decodeFloat()
	case 'b':
		return d.decodeBool()
	case 's', 'E':
		return d.decodeString()
	case 'a':
		return d.decodeArray()
	case 'O':
		return d.decodeObject()
	case 'C':
		return d.decodeCustom()
	case 'r':
		return d.decodeRef(true, offset)
	case 'R':
		return d.decodeRef(false, offset)
	case 'N':
		return d.decodeNull()
	default:
		return nil, &DecodeError{Kind: KindUnknownTypeTag, Tag: d.input[offset : offset+1], Offset: offset}
	}
}

// nextKey decodes an array or object key. Keys take no reference slot.
func (d *decoder) nextKey() (*Value, error) {
	offset := d.pos
	tag, err := d.readTag()
	if err != nil {
		return nil, err
	}

	switch tag {
	case 'i':
		return d.readNumber()
	case 's':
		s, err := d.readStr()
		if err != nil {
			return nil, err
		}
		return Str(s), nil
	default:
		return nil, &DecodeError{Kind: KindUnknownKeyTypeTag, Tag: d.input[offset : offset+1], Offset: offset}
	}
}

// ============================================================
// Scalars
// ============================================================

func (d *decoder) decodeInt() (*Value, error) {
	v, err := d.readNumber()
	if err != nil {
		return nil, err
	}
	d.refs.push(v)
	return v, nil
}

func (d *decoder) decodeFloat() (*Value, error) {
	f, err := d.readFloat()
	if err != nil {
		return nil, err
	}
	v := Float(f)
	d.refs.push(v)
	return v, nil
}

func (d *decoder) decodeBool() (*Value, error) {
	b, err := d.readBool()
	if err != nil {
		return nil, err
	}
	v := Bool(b)
	d.refs.push(v)
	return v, nil
}

func (d *decoder) decodeString() (*Value, error) {
	s, err := d.readStr()
	if err != nil {
		return nil, err
	}
	v := Str(s)
	d.refs.push(v)
	return v, nil
}

func (d *decoder) decodeNull() (*Value, error) {
	v := Null()
	d.refs.push(v)
	return v, nil
}

// readStr reads a quoted string, tracing length-prefix recovery.
func (d *decoder) readStr() (string, error) {
	start := d.pos
	s, recovered, err := d.readString('"')
	if err != nil {
		return "", err
	}
	if recovered {
		d.log.Debug("string length prefix did not match its content",
			zap.Int("offset", start),
			zap.Int("length", len(s)))
	}
	return s, nil
}

// ============================================================
// Containers
// ============================================================

// decodeArray decodes a:<n>:{<key><value>...}.
//
// The array is built as a list while its keys run 0, 1, 2, ... and turns
// into a map at the first key that breaks the sequence. Elements gathered
// so far are re-keyed by position, and the reference slot is pointed at
// the map. Back-references resolved before that moment keep the list.
func (d *decoder) decodeArray() (*Value, error) {
	n, err := d.readLength()
	if err != nil {
		return nil, err
	}

	list := &List{}
	cur := listValue(list)
	slot := d.refs.push(cur)
	var m *Map

	for i := 0; i < n; i++ {
		key, err := d.nextKey()
		if err != nil {
			return nil, withPartial(err, cur)
		}
		val, err := d.next()
		if err != nil {
			return nil, withPartial(err, cur)
		}

		if m == nil && key.typ == TypeInt && key.intVal == int64(list.Len()) {
			list.append(val)
			continue
		}

		if m == nil {
			m = NewMap()
			for idx, item := range list.items {
				m.Set(strconv.Itoa(idx), item)
			}
			cur = mapValue(m)
			d.refs.set(slot, cur)
			d.log.Debug("array promoted to map",
				zap.Int("slot", slot),
				zap.Int("elements", list.Len()),
				zap.String("key", keyString(key)))
		}

		// Single-element lists inside maps are unwrapped.
		if inner, ok := val.soleElement(); ok {
			val = inner
		}
		m.Set(keyString(key), val)
	}

	d.pos++
	return cur, nil
}

// decodeObject decodes O:<len>:"<class>":<n>:{<key><value>...}.
func (d *decoder) decodeObject() (*Value, error) {
	obj := &Object{Members: NewMap()}
	v := objectValue(obj)
	d.refs.push(v)

	class, err := d.readStr()
	if err != nil {
		return nil, err
	}
	obj.Class = class

	n, err := d.readLength()
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		key, err := d.nextKey()
		if err != nil {
			return nil, withPartial(err, v)
		}
		raw := keyString(key)
		name := raw
		if key.typ == TypeStr {
			name, err = normalizePropertyName(raw, class, d.pos-len(raw)-2)
			if err != nil {
				return nil, withPartial(err, v)
			}
		}
		val, err := d.next()
		if err != nil {
			return nil, withPartial(err, v)
		}
		obj.Members.Set(name, val)
	}

	d.pos++
	return v, nil
}

// decodeCustom decodes C:<len>:"<class>":<n>:{<payload>}.
//
// The payload is the class's own serialization and is kept verbatim.
// Custom objects are not recorded in the reference table.
func (d *decoder) decodeCustom() (*Value, error) {
	class, err := d.readStr()
	if err != nil {
		return nil, err
	}

	start := d.pos
	payload, recovered, err := d.readString('}')
	if err != nil {
		return nil, err
	}
	// The payload is followed by '}' only, not by a delimiter pair.
	d.pos--

	d.log.Debug("custom payload",
		zap.String("class", class),
		zap.Int("offset", start),
		zap.Int("length", len(payload)),
		zap.Bool("recovered", recovered))
	return CustomOf(class, payload), nil
}

// ============================================================
// Back-references
// ============================================================

// decodeRef resolves r:<n>; and R:<n>;. Indices are 1-based. Only r:
// records the resolved value as a new slot.
//
// An index outside the table yields Undefined rather than an error.
func (d *decoder) decodeRef(record bool, offset int) (*Value, error) {
	index, err := d.readNumber()
	if err != nil {
		return nil, err
	}

	v, ok := d.refs.resolve(index)
	if !ok {
		d.log.Warn("back-reference out of range",
			zap.String("index", keyString(index)),
			zap.Int("table_size", d.refs.len()),
			zap.Int("offset", offset))
		v = Undefined()
	}

	if record {
		d.refs.push(v)
	}
	return v, nil
}
