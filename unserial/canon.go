package unserial

import (
	"strconv"
	"strings"
)

// ============================================================
// Canonical dump
// ============================================================
//
// A deterministic single-line rendering of a decoded value:
//
//	null, undefined, true, 42, 0.5, NaN, "str"
//	[1 2 3]
//	{"k"=v "k2"=v2}
//	Class{"member"=v}
//	Class("opaque payload")
//
// A container that contains itself renders the repeated occurrence as ^cycle.

// Canonical returns the canonical dump of v.
func Canonical(v *Value) string {
	var b strings.Builder
	c := canonWriter{b: &b, visiting: make(map[any]bool)}
	c.write(v)
	return b.String()
}

type canonWriter struct {
	b        *strings.Builder
	visiting map[any]bool
}

func (c *canonWriter) write(v *Value) {
	if v == nil {
		c.b.WriteString("null")
		return
	}

	switch v.typ {
	case TypeNull:
		c.b.WriteString("null")
	case TypeUndefined:
		c.b.WriteString("undefined")
	case TypeBool:
		c.b.WriteString(strconv.FormatBool(v.boolVal))
	case TypeInt:
		c.b.WriteString(strconv.FormatInt(v.intVal, 10))
	case TypeFloat:
		c.b.WriteString(formatFloat(v.floatVal))
	case TypeStr:
		c.b.WriteString(strconv.Quote(v.strVal))
	case TypeList:
		if c.enter(v.listVal) {
			return
		}
		c.b.WriteByte('[')
		for i, item := range v.listVal.Items() {
			if i > 0 {
				c.b.WriteByte(' ')
			}
			c.write(item)
		}
		c.b.WriteByte(']')
		delete(c.visiting, v.listVal)
	case TypeMap:
		if c.enter(v.mapVal) {
			return
		}
		c.writeMap(v.mapVal)
		delete(c.visiting, v.mapVal)
	case TypeObject:
		if c.enter(v.objVal) {
			return
		}
		c.b.WriteString(v.objVal.Class)
		if v.objVal.Custom {
			c.b.WriteByte('(')
			c.b.WriteString(strconv.Quote(v.objVal.Payload))
			c.b.WriteByte(')')
		} else {
			c.writeMap(v.objVal.Members)
		}
		delete(c.visiting, v.objVal)
	}
}

// enter marks a container as being written. It reports true, after
// writing the cycle marker, if the container is already on the path.
func (c *canonWriter) enter(container any) bool {
	if c.visiting[container] {
		c.b.WriteString("^cycle")
		return true
	}
	c.visiting[container] = true
	return false
}

func (c *canonWriter) writeMap(m *Map) {
	c.b.WriteByte('{')
	first := true
	for k, val := range m.All() {
		if !first {
			c.b.WriteByte(' ')
		}
		first = false
		c.b.WriteString(strconv.Quote(k))
		c.b.WriteByte('=')
		c.write(val)
	}
	c.b.WriteByte('}')
}
