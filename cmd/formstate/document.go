package main

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/reoring/formstate/value"
)

// loadValue parses a JSON or YAML document into the container model. JSON
// keeps key order through value.DecodeJSON; YAML keeps it through the node
// tree, and anchors referenced by aliases become shared references.
func loadValue(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		if v, err := value.DecodeJSON(trimmed); err == nil {
			return v, nil
		}
	}
	var n yaml.Node
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if len(n.Content) == 0 {
		return nil, nil
	}
	return fromYAMLNode(n.Content[0], map[*yaml.Node]any{})
}

func fromYAMLNode(n *yaml.Node, anchors map[*yaml.Node]any) (any, error) {
	if v, ok := anchors[n]; ok {
		return v, nil
	}
	switch n.Kind {
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias, anchors)
	case yaml.MappingNode:
		o := value.NewObject()
		anchors[n] = o
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("line %d: mapping key: %w", n.Content[i].Line, err)
			}
			v, err := fromYAMLNode(n.Content[i+1], anchors)
			if err != nil {
				return nil, err
			}
			o.Set(key, v)
		}
		return o, nil
	case yaml.SequenceNode:
		a := value.NewArray()
		anchors[n] = a
		for i, item := range n.Content {
			v, err := fromYAMLNode(item, anchors)
			if err != nil {
				return nil, err
			}
			a.SetAt(i, v)
		}
		return a, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.FromGo(v), nil
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}
