package filesystem

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// Tagged objects encode values JSON has no literal for. Each tag must be
// the only key of its object:
//
//	{"$timestamp": "2024-03-01T12:00:00Z"}
//	{"$geopoint": {"lat": 51.5, "long": -0.12}}
//	{"$ref": "users/alice"}
//	{"$bytes": "aGVsbG8="}
const (
	tagTimestamp = "$timestamp"
	tagGeoPoint  = "$geopoint"
	tagRef       = "$ref"
	tagBytes     = "$bytes"
)

// decodeDocument parses a JSON document into tagged fields.
// The top level must be an object.
func decodeDocument(data []byte) (map[string]domain.Value, error) {
	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document must be a JSON object, got %T", domain.ErrInvalidInput, parsed)
	}

	fields := make(map[string]domain.Value, len(obj))
	for k, v := range obj {
		value, err := toValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = value
	}
	return fields, nil
}

func toValue(v any) (domain.Value, error) {
	switch t := v.(type) {
	case nil:
		return domain.Null{}, nil
	case string:
		return domain.String(t), nil
	case bool:
		return domain.Bool(t), nil
	case int64:
		return domain.Number(t), nil
	case float64:
		return domain.Number(t), nil
	case []any:
		seq := make(domain.Sequence, len(t))
		for i, item := range t {
			value, err := toValue(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq[i] = value
		}
		return seq, nil
	case map[string]any:
		if len(t) == 1 {
			if value, ok, err := taggedValue(t); ok || err != nil {
				return value, err
			}
		}
		st := make(domain.Structure, len(t))
		for k, item := range t {
			value, err := toValue(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			st[k] = value
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: unsupported json value %T", domain.ErrInvalidInput, v)
	}
}

// taggedValue decodes a single-key tagged object. ok is false when the
// key is not a known tag.
func taggedValue(obj map[string]any) (domain.Value, bool, error) {
	for key, raw := range obj {
		switch key {
		case tagTimestamp:
			s, _ := raw.(string)
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, true, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, tagTimestamp, err)
			}
			return domain.Timestamp(ts.UTC()), true, nil
		case tagGeoPoint:
			point, _ := raw.(map[string]any)
			lat, latOK := number(point["lat"])
			long, longOK := number(point["long"])
			if !latOK || !longOK {
				return nil, true, fmt.Errorf("%w: %s needs numeric lat and long", domain.ErrInvalidInput, tagGeoPoint)
			}
			return domain.GeoPoint{Latitude: lat, Longitude: long}, true, nil
		case tagRef:
			s, _ := raw.(string)
			p, err := domain.ParsePath(s)
			if err != nil {
				return nil, true, fmt.Errorf("%s: %w", tagRef, err)
			}
			return domain.Reference{Path: p}, true, nil
		case tagBytes:
			s, _ := raw.(string)
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, true, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, tagBytes, err)
			}
			return domain.Bytes(b), true, nil
		}
	}
	return nil, false, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
