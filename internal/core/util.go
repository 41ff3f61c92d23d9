package core

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

var (
	timeType  = reflect.TypeOf(time.Time{})
	bytesType = reflect.TypeOf([]byte(nil))
)

// Normalize converts v into the generic JSON shapes used throughout the engine: slices and arrays become []any,
// string-keyed maps become map[string]any, pointers are dereferenced, time.Time becomes an RFC 3339 string and
// []byte a base64 string. Scalars keep their Go type. The result never shares containers with v.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return normalizeValue(reflect.ValueOf(v))
}

func normalizeValue(v reflect.Value) (any, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	if v.Type() == timeType {
		return formatTime(v.Interface().(time.Time)), nil
	}
	if v.Type().ConvertibleTo(bytesType) && v.Kind() == reflect.Slice {
		return base64.StdEncoding.EncodeToString(v.Convert(bytesType).Bytes()), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.String:
		if n, ok := v.Interface().(json.Number); ok {
			return n, nil
		}
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if v.Type().PkgPath() != "" {
			f, _ := ToFloat64(v.Interface())
			return f, nil
		}
		return v.Interface(), nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return []any{}, nil
		}
		out := make([]any, v.Len())
		for i := range out {
			elem, err := normalizeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", v.Type().Key())
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			elem, err := normalizeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = elem
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value of type %s", v.Type())
}

// NormalizeLiteral converts a filter comparison literal into one of string, int64, float64, bool, json.Number or
// nil. Containers are rejected.
func NormalizeLiteral(v any) (any, error) {
	n, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	switch x := n.(type) {
	case nil, string, bool, json.Number:
		return x, nil
	case float64:
		if !isFinite(x) {
			return nil, fmt.Errorf("non-finite number %v", x)
		}
		return x, nil
	case float32:
		return NormalizeLiteral(float64(x))
	case []any, map[string]any:
		return nil, fmt.Errorf("literal must be a string, number, boolean or null, got %s", KindOf(x))
	}

	rv := reflect.ValueOf(n)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return float64(u), nil
		}
		return int64(u), nil
	}
	return nil, fmt.Errorf("unsupported literal of type %T", v)
}

// formatTime renders t the way SCIM dateTime attributes are written.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
