package synth

import "github.com/itsatony/go-synth/internal"

// KeyValue is one mapping entry, as produced by Entries
type KeyValue = internal.KeyValue

// Value helpers for tag and filter implementations. They apply the same
// coercions the engine uses for paths, conditions and output.

// Equal compares two values, treating numbers of any type by value
func Equal(a, b any) bool { return internal.Equal(a, b) }

// Compare orders two numbers or two strings
func Compare(a, b any) (int, error) { return internal.Compare(a, b) }

// Contains reports whether a string, sequence or mapping contains item
func Contains(container, item any) (bool, error) { return internal.Contains(container, item) }

// Length returns the length of a string, sequence or mapping
func Length(v any) (int, bool) { return internal.Length(v) }

// Items returns the elements of a sequence, the runes of a string or the
// sorted keys of a mapping.
func Items(v any) ([]any, bool) { return internal.Items(v) }

// Entries returns the entries of a mapping sorted by key
func Entries(v any) ([]KeyValue, bool) { return internal.Entries(v) }

// ToInt converts integers, whole floats and numeric strings to int
func ToInt(v any) (int, bool) { return internal.ToInt(v) }

// ToFloat converts numbers and numeric strings to float64
func ToFloat(v any) (float64, bool) { return internal.ToFloat(v) }

// IsNumber reports whether v has a numeric type
func IsNumber(v any) bool { return internal.IsNumber(v) }
