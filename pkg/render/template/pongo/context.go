package pongo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-tplcompose/pkg/render/template"
)

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

func convertToContext(data map[string]any) (pongo2.Context, error) {
	out := make(pongo2.Context, len(data))
	for key, value := range data {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

// literalFloat64 and literalFloat32 print in their shortest literal form
// instead of pongo2's fixed six decimals while staying numeric for
// comparisons and arithmetic.
type literalFloat64 float64

func (f literalFloat64) String() string {
	return strconv.FormatFloat(float64(f), 'f', -1, 64)
}

type literalFloat32 float32

func (f literalFloat32) String() string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// convertValue maps composer values onto pongo2 values. Raw text becomes a
// safe value so autoescaping leaves it untouched; structs are flattened via
// their JSON shape so templates see the same field names as API payloads.
func convertValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case template.Text:
		return pongo2.AsSafeValue(string(v)), nil
	case template.TextFunc:
		return func() *pongo2.Value {
			return pongo2.AsSafeValue(string(v()))
		}, nil
	case *pongo2.Value:
		return v, nil
	case pongo2.Context:
		return convertMap(map[string]any(v))
	case map[string]any:
		return convertMap(v)
	case []any:
		return convertSlice(v)
	case string, bool, json.Number, fmt.Stringer:
		return v, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Func:
		return value, nil
	case reflect.Float64:
		return literalFloat64(rv.Float()), nil
	case reflect.Float32:
		return literalFloat32(rv.Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.String, reflect.Bool:
		return value, nil
	case reflect.Map, reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Map && rv.Type().Key().Kind() != reflect.String {
			return value, nil
		}
		if rv.Kind() != reflect.Map && rv.Type().Elem().Kind() == reflect.Uint8 {
			return value, nil
		}
		// Typed collections are left to pongo2's reflection unless they hold
		// structs, which get the JSON treatment below, or floats.
		if holdsFloats(rv.Type().Elem()) {
			return convertCollection(rv)
		}
		if !holdsStructs(rv.Type().Elem()) {
			return value, nil
		}
	}

	raw, err := jsonToAny(value)
	if err != nil {
		return nil, err
	}
	switch decoded := raw.(type) {
	case map[string]any:
		return convertMap(decoded)
	case []any:
		return convertSlice(decoded)
	default:
		return decoded, nil
	}
}

func holdsStructs(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func holdsFloats(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64:
		return true
	case reflect.Map, reflect.Slice, reflect.Array:
		return holdsFloats(t.Elem())
	}
	return false
}

func convertCollection(rv reflect.Value) (any, error) {
	if rv.Kind() == reflect.Map {
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			converted, err := convertValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = converted
		}
		return out, nil
	}
	out := make([]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		converted, err := convertValue(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func convertMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertSlice(in []any) ([]any, error) {
	out := make([]any, 0, len(in))
	for _, value := range in {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out = append(out, converted)
	}
	return out, nil
}

func jsonToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
