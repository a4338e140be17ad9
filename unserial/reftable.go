package unserial

// refTable records every value a back-reference can point at, in decode
// order. Scalars take slots too, so indices line up with the serializer's
// own counter.
type refTable struct {
	slots []*Value
}

// push appends v and returns its slot.
func (t *refTable) push(v *Value) int {
	t.slots = append(t.slots, v)
	return len(t.slots) - 1
}

// set replaces the value in slot i. Arrays use it when they turn from a
// list into a map.
func (t *refTable) set(i int, v *Value) {
	t.slots[i] = v
}

// resolve looks up a 1-based back-reference index.
func (t *refTable) resolve(index *Value) (*Value, bool) {
	if index.Type() != TypeInt {
		return nil, false
	}
	i := index.intVal - 1
	if i < 0 || i >= int64(len(t.slots)) {
		return nil, false
	}
	return t.slots[i], true
}

func (t *refTable) len() int {
	return len(t.slots)
}
