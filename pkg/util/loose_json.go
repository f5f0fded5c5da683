package util

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// DecodeLoose decodes a JSON object without a schema. Numbers stay
// json.Number so large ids survive.
func DecodeLoose(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// Dig walks nested objects by key and returns nil as soon as a step is missing
// or is not an object.
func Dig(v any, keys ...string) any {
	cur := v
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func AsSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// AsString renders scalars as text; objects, arrays and nil give "".
func AsString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func AsFloat(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		f, _ := t.Float64()
		return f
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	default:
		return 0
	}
}

func AsInt64(v any) int64 {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return int64(f)
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return i
		}
		return int64(AsFloat(t))
	default:
		return int64(AsFloat(v))
	}
}

// AsCode reads an API status code. A missing code counts as -1, never as success.
func AsCode(v any) int64 {
	if v == nil {
		return -1
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return -1
	}
	return AsInt64(v)
}
