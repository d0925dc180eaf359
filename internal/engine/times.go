package engine

import "encoding/json"

// ParseTimes normalizes a raw per-area travel-time field into a mapping from
// reference id to seconds. The upstream pipeline delivers the field either as
// an already-structured mapping or as a serialized JSON object; both forms
// resolve to the same result, and anything unrecognizable resolves to an
// empty mapping so downstream steps see "no data" instead of failing.
func ParseTimes(raw any) map[string]float64 {
	switch v := raw.(type) {
	case nil:
		return map[string]float64{}
	case map[string]float64:
		out := make(map[string]float64, len(v))
		for k, sec := range v {
			out[k] = sec
		}
		return out
	case map[string]any:
		out := make(map[string]float64, len(v))
		for k, val := range v {
			if sec, ok := toSeconds(val); ok {
				out[k] = sec
			}
		}
		return out
	case json.RawMessage:
		return parseSerialized([]byte(v))
	case []byte:
		return parseSerialized(v)
	case string:
		return parseSerialized([]byte(v))
	default:
		return map[string]float64{}
	}
}

func parseSerialized(data []byte) map[string]float64 {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]float64{}
	}
	return ParseTimes(m)
}

func toSeconds(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
