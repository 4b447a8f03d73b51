package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for a value or a plain
// Go payload. This is the ONLY serialization used for identity: global-key
// text, archive payload digests, and golden traces all go through it.
//
// Key differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats (returns error)
//  5. No null (returns error); optionals render as 0/1-element arrays
//
// Value variants map to JSON as: unit {}, bool, int64, numeric/text/party/
// contract-id/date/timestamp as strings or numbers, record as an object,
// variant as {"tag","value"}, enum as {"enum"}, list as an array, optional
// as []/[v], text map as an object, general map as an array of [k,v] pairs.
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case ValueUnit:
		buf.WriteString("{}")
		return nil
	case ValueBool:
		return marshalCanonical(buf, bool(val))
	case ValueInt64:
		return marshalCanonical(buf, int64(val))
	case ValueNumeric:
		return marshalCanonicalString(buf, string(val))
	case ValueText:
		return marshalCanonicalString(buf, string(val))
	case ValueDate:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case ValueTimestamp:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case ValueParty:
		return marshalCanonicalString(buf, string(val))
	case ValueContractID:
		return marshalCanonicalString(buf, string(val))
	case ValueRecord:
		fields := make(map[string]any, len(val.Fields))
		for _, f := range val.Fields {
			fields[f.Label] = f.Value
		}
		return marshalCanonicalObject(buf, fields)
	case ValueVariant:
		return marshalCanonicalObject(buf, map[string]any{
			"tag":   val.Constructor,
			"value": val.Value,
		})
	case ValueEnum:
		return marshalCanonicalObject(buf, map[string]any{
			"enum": val.Constructor,
		})
	case ValueList:
		elems := make([]any, len(val))
		for i, e := range val {
			elems[i] = e
		}
		return marshalCanonicalArray(buf, elems)
	case ValueOptional:
		if val.Value == nil {
			buf.WriteString("[]")
			return nil
		}
		return marshalCanonicalArray(buf, []any{val.Value})
	case ValueTextMap:
		entries := make(map[string]any, len(val))
		for _, e := range val {
			entries[e.Key] = e.Value
		}
		return marshalCanonicalObject(buf, entries)
	case ValueGenMap:
		pairs := make([]any, len(val))
		for i, e := range val {
			pairs[i] = []any{e.Key, e.Value}
		}
		return marshalCanonicalArray(buf, pairs)
	case string:
		return marshalCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case []any:
		return marshalCanonicalArray(buf, val)
	case map[string]any:
		return marshalCanonicalObject(buf, val)
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

func marshalCanonicalArray(buf *bytes.Buffer, elems []any) error {
	buf.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonical(buf, e); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func marshalCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonicalString(buf, k); err != nil {
			return fmt.Errorf("object key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := marshalCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("object[%q]: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// compareKeysRFC8785 compares strings by UTF-16 code units as required by
// RFC 8785. CRITICAL: Go's sort.Strings compares UTF-8 bytes, which orders
// supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
	ua := utf16.Encode([]rune(a))
	ub := utf16.Encode([]rune(b))
	for i := 0; i < len(ua) && i < len(ub); i++ {
		if ua[i] != ub[i] {
			if ua[i] < ub[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ua) < len(ub):
		return -1
	case len(ua) > len(ub):
		return 1
	default:
		return 0
	}
}

// marshalCanonicalString writes a canonical JSON string with NFC
// normalization. RFC 8785 compliance:
//   - No HTML escaping (<, >, & are NOT escaped)
//   - U+2028 and U+2029 are NOT escaped
//   - Only control characters, backslash, and quote are escaped
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	encoded := bytes.TrimSuffix(tmp.Bytes(), []byte("\n"))
	buf.Write(unescapeU2028U2029(encoded))
	return nil
}

// unescapeU2028U2029 rewrites \u2028 and \u2029 escapes to the literal
// characters per RFC 8785. The input is valid encoded JSON, so a backslash
// always starts an escape sequence; scanning escapes atomically left to
// right cannot confuse an escaped backslash followed by the text "u2028"
// with the escape itself.
func unescapeU2028U2029(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			i++
			continue
		}
		if i+6 <= len(data) && data[i+1] == 'u' && string(data[i+2:i+5]) == "202" &&
			(data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, 0xE2, 0x80, 0xA8) // U+2028
			} else {
				out = append(out, 0xE2, 0x80, 0xA9) // U+2029
			}
			i += 6
			continue
		}
		// Any other escape passes through atomically.
		out = append(out, data[i], data[i+1])
		i += 2
	}
	return out
}
