package unserial

import "strings"

const (
	nulMarker       = "\x00"
	protectedMarker = "*"
)

// normalizePropertyName maps a serialized member name to its key.
//
// Public members are stored as-is. Non-public members are written as
// "\x00*\x00name" (protected) or "\x00Class\x00name" (private to Class).
// Protected members and private members of the declaring class become
// "name"; private members of another class become "Class::name".
//
// offset is reported on a malformed name.
func normalizePropertyName(raw, class string, offset int) (string, error) {
	if !strings.HasPrefix(raw, nulMarker) {
		return raw, nil
	}

	parts := strings.Split(raw[1:], nulMarker)
	if len(parts) < 2 || parts[0] == "" {
		return "", &DecodeError{Kind: KindMalformedPropertyName, Name: raw, Offset: offset}
	}

	owner, name := parts[0], parts[1]
	if owner == protectedMarker || owner == class {
		return name, nil
	}
	return owner + "::" + name, nil
}
