package unserial

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ToYAML converts a value to a YAML document, keeping map and member
// order. The mapping rules follow the JSON bridge, except that NaN and
// ±Inf keep their YAML spellings.
func ToYAML(v *Value) ([]byte, error) {
	return ToYAMLWithOpts(v, DefaultBridgeOpts())
}

// ToYAMLWithOpts converts a value to YAML with options.
func ToYAMLWithOpts(v *Value, opts BridgeOpts) ([]byte, error) {
	b := yamlBuilder{opts: opts, visiting: make(map[any]bool)}
	node, err := b.node(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

type yamlBuilder struct {
	opts     BridgeOpts
	visiting map[any]bool
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func strNode(s string) *yaml.Node {
	return scalarNode("!!str", s)
}

func (b *yamlBuilder) node(v *Value) (*yaml.Node, error) {
	if v == nil {
		return scalarNode("!!null", "null"), nil
	}

	switch v.typ {
	case TypeNull, TypeUndefined:
		return scalarNode("!!null", "null"), nil

	case TypeBool:
		return scalarNode("!!bool", strconv.FormatBool(v.boolVal)), nil

	case TypeInt:
		return scalarNode("!!int", strconv.FormatInt(v.intVal, 10)), nil

	case TypeFloat:
		f := v.floatVal
		switch {
		case math.IsNaN(f):
			return scalarNode("!!float", ".nan"), nil
		case math.IsInf(f, 1):
			return scalarNode("!!float", ".inf"), nil
		case math.IsInf(f, -1):
			return scalarNode("!!float", "-.inf"), nil
		}
		return scalarNode("!!float", strconv.FormatFloat(f, 'g', -1, 64)), nil

	case TypeStr:
		return strNode(v.strVal), nil

	case TypeList:
		if err := b.enter(v.listVal); err != nil {
			return nil, err
		}
		defer delete(b.visiting, v.listVal)
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.listVal.items {
			n, err := b.node(item)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil

	case TypeMap:
		if err := b.enter(v.mapVal); err != nil {
			return nil, err
		}
		defer delete(b.visiting, v.mapVal)
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if err := b.members(m, v.mapVal); err != nil {
			return nil, err
		}
		return m, nil

	case TypeObject:
		if err := b.enter(v.objVal); err != nil {
			return nil, err
		}
		defer delete(b.visiting, v.objVal)
		obj := v.objVal
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if obj.Custom {
			m.Content = append(m.Content,
				strNode(IncompleteClassKey), strNode(obj.Class),
				strNode(SerializedKey), strNode(obj.Payload))
			return m, nil
		}
		if b.opts.Extended {
			m.Content = append(m.Content, strNode(ClassKey), strNode(obj.Class))
		}
		if err := b.members(m, obj.Members); err != nil {
			return nil, err
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported value type: %s", v.typ)
	}
}

func (b *yamlBuilder) members(m *yaml.Node, src *Map) error {
	for k, val := range src.All() {
		if val.IsUndefined() {
			continue
		}
		n, err := b.node(val)
		if err != nil {
			return err
		}
		m.Content = append(m.Content, strNode(k), n)
	}
	return nil
}

func (b *yamlBuilder) enter(container any) error {
	if b.visiting[container] {
		return ErrCyclicValue
	}
	b.visiting[container] = true
	return nil
}
