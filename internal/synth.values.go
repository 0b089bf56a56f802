package internal

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Value helper error messages
const (
	ErrMsgTypeMismatch  = "type mismatch"
	ErrMsgNotComparable = "values are not comparable"
	ErrMsgNotContainer  = "value is not a container"
)

// KeyValue is one entry of a mapping, as produced by Entries
type KeyValue struct {
	Key   string
	Value any
}

// Stringify converts a runtime value into its output text.
// nil renders as the empty string, booleans as True/False, floats are
// rounded to DefaultFloatDigits significant digits, sequences as [a, b] and
// mappings as {k: v} with sorted keys.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return StringValueEmpty
	case string:
		return val
	case bool:
		if val {
			return StringValueTrue
		}
		return StringValueFalse
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case []byte:
		return string(val)
	case fmt.Stringer:
		if isNilPointer(v) {
			return StringValueEmpty
		}
		return val.String()
	case error:
		if isNilPointer(v) {
			return StringValueEmpty
		}
		return val.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Stringify(rv.Index(i).Interface())
		}
		return FmtOpenSquare + strings.Join(parts, FmtCommaSep) + FmtCloseSquare
	case reflect.Map:
		entries, _ := Entries(v)
		parts := make([]string, len(entries))
		for i, e := range entries {
			parts[i] = e.Key + FmtKeyValueSep + Stringify(e.Value)
		}
		return FmtOpenBrace + strings.Join(parts, FmtCommaSep) + FmtCloseBrace
	case reflect.Ptr:
		if rv.IsNil() {
			return StringValueEmpty
		}
		return Stringify(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// isNilPointer reports a typed nil pointer or interface, whose value-receiver
// methods would panic when called.
func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) && rv.IsNil()
}

// formatFloat prints f with at most DefaultFloatDigits significant digits and
// without a trailing exponent or zeros.
func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(f, 'g', DefaultFloatDigits, 64), 64)
	if err != nil {
		rounded = f
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Truthy reports whether a value counts as true in a condition
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case int:
		return val != 0
	case float64:
		return val != 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// Member looks up name on a mapping, struct field or (for numeric names)
// sequence element. The boolean is false when the member does not exist.
func Member(v any, name string) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		res, ok := val[name]
		return res, ok
	case map[string]string:
		res, ok := val[name]
		return res, ok
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		res := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !res.IsValid() {
			return nil, false
		}
		return res.Interface(), true
	case reflect.Slice, reflect.Array, reflect.String:
		idx, err := strconv.Atoi(name)
		if err != nil {
			return nil, false
		}
		return Index(rv.Interface(), idx)
	case reflect.Struct:
		f, ok := rv.Type().FieldByName(name)
		if !ok {
			return nil, false
		}
		field, err := rv.FieldByIndexErr(f.Index)
		if err != nil || !field.CanInterface() {
			return nil, false
		}
		return field.Interface(), true
	}
	return nil, false
}

// Index returns element idx of a sequence; negative indexes count from the end
func Index(v any, idx int) (any, bool) {
	if s, ok := v.([]any); ok {
		if idx < 0 {
			idx += len(s)
		}
		if idx < 0 || idx >= len(s) {
			return nil, false
		}
		return s[idx], true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if idx < 0 {
			idx += rv.Len()
		}
		if idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return rv.Index(idx).Interface(), true
	case reflect.String:
		runes := []rune(rv.String())
		if idx < 0 {
			idx += len(runes)
		}
		if idx < 0 || idx >= len(runes) {
			return nil, false
		}
		return string(runes[idx]), true
	}
	return nil, false
}

// Subscript resolves v[key] where key is a runtime value
func Subscript(v any, key any) (any, bool) {
	if n, ok := ToInt(key); ok {
		if _, isStr := key.(string); !isStr {
			return Index(v, n)
		}
	}
	return Member(v, Stringify(key))
}

// Length returns the number of elements (runes for strings) of v
func Length(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		return rv.Len(), true
	}
	return 0, false
}

// Items returns the elements of a sequence, the sorted keys of a mapping or
// the characters of a string.
func Items(v any) ([]any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, true
	case []any:
		return val, true
	case string:
		items := make([]any, 0, len(val))
		for _, r := range val {
			items = append(items, string(r))
		}
		return items, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	case reflect.Map:
		entries, _ := Entries(v)
		items := make([]any, len(entries))
		for i, e := range entries {
			items[i] = e.Key
		}
		return items, true
	}
	return nil, false
}

// Entries returns the entries of a mapping sorted by key
func Entries(v any) ([]KeyValue, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	entries := make([]KeyValue, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, KeyValue{
			Key:   Stringify(iter.Key().Interface()),
			Value: iter.Value().Interface(),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, true
}

// ToFloat converts numbers and numeric strings to float64
func ToFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// ToInt converts integers, integral floats and integer strings to int
func ToInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		return n, err == nil
	case float64:
		if val == math.Trunc(val) && val >= math.MinInt && val < math.MaxInt {
			return int(val), true
		}
		return 0, false
	case bool:
		return 0, false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt {
			return 0, false
		}
		return int(rv.Uint()), true
	}
	return 0, false
}

// IsNumber reports whether v holds a Go numeric type
func IsNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Equal compares two values with numeric coercion between number types
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if IsNumber(a) && IsNumber(b) {
		af, _ := ToFloat(a)
		bf, _ := ToFloat(b)
		return af == bf
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders two numbers or two strings
func Compare(a, b any) (int, error) {
	if IsNumber(a) && IsNumber(b) {
		af, _ := ToFloat(a)
		bf, _ := ToFloat(b)
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return strings.Compare(as, bs), nil
	}
	return 0, fmt.Errorf(ErrFmtWithName, ErrMsgNotComparable, fmt.Sprintf("%T and %T", a, b))
}

// Contains reports whether item is a substring, element or key of container
func Contains(container, item any) (bool, error) {
	if s, ok := container.(string); ok {
		return strings.Contains(s, Stringify(item)), nil
	}
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		_, ok := Member(container, Stringify(item))
		return ok, nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if Equal(rv.Index(i).Interface(), item) {
				return true, nil
			}
		}
		return false, nil
	}
	if container == nil {
		return false, nil
	}
	return false, fmt.Errorf(ErrFmtWithName, ErrMsgNotContainer, fmt.Sprintf("%T", container))
}
