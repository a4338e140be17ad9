package unserial

import "math"

// Equal reports whether a and b are structurally equal. NaN equals NaN,
// map and member order is significant, and cyclic values compare equal
// when their shapes match.
func Equal(a, b *Value) bool {
	return equal(a, b, make(map[[2]any]bool))
}

func equal(a, b *Value, seen map[[2]any]bool) bool {
	if a == nil || b == nil {
		return a.Type() == TypeNull && b.Type() == TypeNull
	}
	if a.typ != b.typ {
		return false
	}

	switch a.typ {
	case TypeNull, TypeUndefined:
		return true
	case TypeBool:
		return a.boolVal == b.boolVal
	case TypeInt:
		return a.intVal == b.intVal
	case TypeFloat:
		if math.IsNaN(a.floatVal) {
			return math.IsNaN(b.floatVal)
		}
		return a.floatVal == b.floatVal
	case TypeStr:
		return a.strVal == b.strVal
	case TypeList:
		pair := [2]any{a.listVal, b.listVal}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		if a.listVal.Len() != b.listVal.Len() {
			return false
		}
		for i := range a.listVal.items {
			if !equal(a.listVal.items[i], b.listVal.items[i], seen) {
				return false
			}
		}
		return true
	case TypeMap:
		pair := [2]any{a.mapVal, b.mapVal}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		return equalMaps(a.mapVal, b.mapVal, seen)
	case TypeObject:
		pair := [2]any{a.objVal, b.objVal}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		ao, bo := a.objVal, b.objVal
		if ao.Class != bo.Class || ao.Custom != bo.Custom || ao.Payload != bo.Payload {
			return false
		}
		return equalMaps(ao.Members, bo.Members, seen)
	default:
		return false
	}
}

func equalMaps(a, b *Map, seen map[[2]any]bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	ak, bk := a.Keys(), b.Keys()
	for i := range ak {
		if ak[i] != bk[i] {
			return false
		}
		av, _ := a.Get(ak[i])
		bv, _ := b.Get(bk[i])
		if !equal(av, bv, seen) {
			return false
		}
	}
	return true
}
