package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// Tags for values JSON cannot carry natively.
const (
	tagNode = "$node"
	tagTime = "$time"
)

// encodeNode serialises a node's fields and parent reference.
// A nil parent is stored as SQL NULL.
func encodeNode(node domain.Node) (string, any, error) {
	fields, err := json.Marshal(tagValue(node.Fields))
	if err != nil {
		return "", nil, fmt.Errorf("encoding fields: %w", err)
	}
	if node.ParentRef == nil {
		return string(fields), nil, nil
	}
	parent, err := json.Marshal(tagValue(node.ParentRef))
	if err != nil {
		return "", nil, fmt.Errorf("encoding parent: %w", err)
	}
	return string(fields), string(parent), nil
}

func decodeFields(data string) (map[string]any, error) {
	v, err := decodeValue(data)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	fields, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decoding fields: expected object, got %T", v)
	}
	return fields, nil
}

func decodeValue(data string) (any, error) {
	var raw any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("decoding value: %w", err)
	}
	return untagValue(raw), nil
}

func tagValue(v any) any {
	switch t := v.(type) {
	case domain.NodeReference:
		return map[string]any{tagNode: map[string]any{"type": t.TypeName, "id": t.ID}}
	case *domain.NodeReference:
		if t == nil {
			return nil
		}
		return tagValue(*t)
	case time.Time:
		return map[string]any{tagTime: t.UTC().Format(time.RFC3339Nano)}
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = tagValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = tagValue(inner)
		}
		return out
	default:
		return v
	}
}

func untagValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 1 {
			if ref, ok := t[tagNode].(map[string]any); ok {
				typeName, _ := ref["type"].(string)
				id, _ := ref["id"].(string)
				return domain.NodeReference{TypeName: typeName, ID: id}
			}
			if s, ok := t[tagTime].(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return ts.UTC()
				}
			}
		}
		for k, inner := range t {
			t[k] = untagValue(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = untagValue(inner)
		}
		return t
	default:
		return v
	}
}
