package upstream

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Item is one raw upstream record. Every field is held as a list of strings:
// XML-originated payloads may collapse a one-element list into a bare scalar,
// so values are normalized into list form once, at the ingestion boundary.
type Item struct {
	Fields map[string][]string
	// Raw preserves the record exactly as received, for the audit blob.
	Raw json.RawMessage
}

// First returns the first value of a field, trimmed, or "" when absent.
func (it Item) First(key string) string {
	values := it.Fields[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// All returns every value of a field.
func (it Item) All(key string) []string {
	return it.Fields[key]
}

func itemFromMap(record map[string]any) Item {
	fields := make(map[string][]string, len(record))
	for key, value := range record {
		fields[key] = normalizeValue(value)
	}

	raw, err := json.Marshal(record)
	if err != nil {
		raw = nil
	}
	return Item{Fields: fields, Raw: raw}
}

// normalizeValue converts any JSON value into canonical list-of-string form.
func normalizeValue(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case bool:
		return []string{strconv.FormatBool(v)}
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			out = append(out, normalizeValue(elem)...)
		}
		return out
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return []string{string(raw)}
	}
}
