package canon

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Canonicalize recursively normalizes a JSON-like value for structural
// comparison. Object values are rebuilt with canonicalized children (key
// ordering is applied at serialization time), array order is preserved, and
// nil stays nil. Values outside the JSON type set are replaced by their
// string form so that comparison never panics on unexpected input.
func Canonicalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string:
		return val
	case json.Number:
		return val
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = Canonicalize(child)
		}
		return out
	case map[any]any:
		// YAML decoders may produce non-string keys; coerce them.
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[fmt.Sprint(k)] = Canonicalize(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = Canonicalize(child)
		}
		return out
	default:
		return fmt.Sprint(val)
	}
}

// StableStringify serializes a value deterministically: object keys are
// emitted in lexicographic order at every nesting level, and numbers are
// formatted so that integral values always render without a fractional part
// or exponent. Identical logical content produces identical byte output
// regardless of input key order.
func StableStringify(v any) string {
	var sb strings.Builder
	writeStable(&sb, Canonicalize(v))
	return sb.String()
}

// Equal reports whether two values are structurally equal up to object key
// order at any depth.
func Equal(a, b any) bool {
	return StableStringify(a) == StableStringify(b)
}

func writeStable(sb *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if val {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case string:
		writeJSONString(sb, val)
	case json.Number:
		sb.WriteString(normalizeNumber(string(val)))
	case float64:
		sb.WriteString(formatFloat(val))
	case float32:
		sb.WriteString(formatFloat(float64(val)))
	case int:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int8:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int16:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int32:
		sb.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		sb.WriteString(strconv.FormatInt(val, 10))
	case uint:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint8:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint16:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint32:
		sb.WriteString(strconv.FormatUint(uint64(val), 10))
	case uint64:
		sb.WriteString(strconv.FormatUint(val, 10))
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeJSONString(sb, k)
			sb.WriteByte(':')
			writeStable(sb, val[k])
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, child := range val {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeStable(sb, child)
		}
		sb.WriteByte(']')
	default:
		// Canonicalize already stringified unknown types; this handles
		// callers bypassing it.
		writeJSONString(sb, fmt.Sprint(val))
	}
}

// formatFloat renders integral floats as plain integers so that 1.0 and 1
// compare equal after JSON round-trips through different decoders.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// normalizeNumber reformats a json.Number literal through the same rules as
// formatFloat, falling back to the raw literal when it does not parse.
func normalizeNumber(s string) string {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return formatFloat(f)
	}
	return s
}

// writeJSONString encodes a string with the standard library so escaping
// matches encoding/json byte-for-byte.
func writeJSONString(sb *strings.Builder, s string) {
	b, err := json.Marshal(s)
	if err != nil {
		// Marshaling a string cannot fail; keep the compiler honest.
		sb.WriteString(strconv.Quote(s))
		return
	}
	sb.Write(b)
}
