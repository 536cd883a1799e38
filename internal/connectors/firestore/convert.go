package firestore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	fsapi "google.golang.org/api/firestore/v1"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// documentsMarker separates the database prefix from the document path
// in resource names.
const documentsMarker = "/documents/"

// wireDocument is a document as returned by the REST API. Field values stay
// raw: the value kind is the one key present in the JSON object, which the
// generated API structs cannot report for "", false or 0.
type wireDocument struct {
	Name       string                     `json:"name"`
	Fields     map[string]json.RawMessage `json:"fields"`
	UpdateTime string                     `json:"updateTime"`
}

// wireList is one page of a collection listing.
type wireList struct {
	Documents     []wireDocument `json:"documents"`
	NextPageToken string         `json:"nextPageToken"`
}

// toRawDocument converts an API document. Fields of a kind docgraph does
// not model are dropped with a warning.
func toRawDocument(doc *wireDocument) (domain.RawDocument, error) {
	ref, err := pathFromName(doc.Name)
	if err != nil {
		return domain.RawDocument{}, err
	}
	fields := make(map[string]domain.Value, len(doc.Fields))
	for k, raw := range doc.Fields {
		value, err := toValue(raw)
		if errors.Is(err, domain.ErrUnsupportedField) {
			logger.Warn("firestore: %s: field %q: %v", ref, k, err)
			continue
		}
		if err != nil {
			return domain.RawDocument{}, fmt.Errorf("%s: field %q: %w", ref, k, err)
		}
		fields[k] = value
	}
	return domain.RawDocument{Path: ref, Fields: fields}, nil
}

// pathFromName extracts the document path from a resource name
// (projects/p/databases/d/documents/users/alice).
func pathFromName(name string) (domain.Path, error) {
	i := strings.Index(name, documentsMarker)
	if i < 0 {
		return nil, fmt.Errorf("%w: resource name %q", domain.ErrInvalidPath, name)
	}
	return domain.ParsePath(name[i+len(documentsMarker):])
}

// toValue decodes one REST value object such as {"stringValue": ""}.
func toValue(raw json.RawMessage) (domain.Value, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.Null{}, nil
	}
	var kinds map[string]json.RawMessage
	if err := json.Unmarshal(raw, &kinds); err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	if len(kinds) == 0 {
		return domain.Null{}, nil
	}
	if len(kinds) > 1 {
		return nil, fmt.Errorf("value with %d kinds", len(kinds))
	}

	for kind, payload := range kinds {
		switch kind {
		case "nullValue":
			return domain.Null{}, nil
		case "stringValue":
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("string: %w", err)
			}
			return domain.String(s), nil
		case "booleanValue":
			var b bool
			if err := json.Unmarshal(payload, &b); err != nil {
				return nil, fmt.Errorf("boolean: %w", err)
			}
			return domain.Bool(b), nil
		case "integerValue", "doubleValue":
			// The API type parses int64 strings and NaN/Infinity doubles.
			var v fsapi.Value
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, fmt.Errorf("number: %w", err)
			}
			if kind == "integerValue" {
				return domain.Number(v.IntegerValue), nil
			}
			return domain.Number(v.DoubleValue), nil
		case "timestampValue":
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("timestamp: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, fmt.Errorf("timestamp: %w", err)
			}
			return domain.Timestamp(ts.UTC()), nil
		case "geoPointValue":
			var ll fsapi.LatLng
			if err := json.Unmarshal(payload, &ll); err != nil {
				return nil, fmt.Errorf("geopoint: %w", err)
			}
			return domain.GeoPoint{Latitude: ll.Latitude, Longitude: ll.Longitude}, nil
		case "referenceValue":
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("reference: %w", err)
			}
			ref, err := pathFromName(s)
			if err != nil {
				return nil, err
			}
			return domain.Reference{Path: ref}, nil
		case "bytesValue":
			var s string
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("bytes: %w", err)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("bytes: %w", err)
			}
			return domain.Bytes(b), nil
		case "arrayValue":
			var arr struct {
				Values []json.RawMessage `json:"values"`
			}
			if err := json.Unmarshal(payload, &arr); err != nil {
				return nil, fmt.Errorf("array: %w", err)
			}
			seq := make(domain.Sequence, 0, len(arr.Values))
			for i, item := range arr.Values {
				value, err := toValue(item)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", i, err)
				}
				seq = append(seq, value)
			}
			return seq, nil
		case "mapValue":
			var m struct {
				Fields map[string]json.RawMessage `json:"fields"`
			}
			if err := json.Unmarshal(payload, &m); err != nil {
				return nil, fmt.Errorf("map: %w", err)
			}
			st := make(domain.Structure, len(m.Fields))
			for k, item := range m.Fields {
				value, err := toValue(item)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", k, err)
				}
				st[k] = value
			}
			return st, nil
		default:
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedField, kind)
		}
	}
	return domain.Null{}, nil
}
