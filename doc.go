// Package treediff computes structural differences between nested data values
// & replays or undoes those differences against a target
//
// treediff operates on the go types created by unmarshaling JSON or YAML:
//   map[string]interface{}, map[interface{}]interface{}, *Map
//   []interface{}
// plus scalars (string, bool, nil & every numeric kind), dates (time.Time),
// pattern literals (*regexp.Regexp) and the Undefined sentinel, which marks a
// key that is present but holds no value.
//
// Diff walks two values side by side & reports an ordered list of changes:
//   N  a key or index present only on the right
//   D  a key or index present only on the left
//   E  a value that differs between sides
//   A  an element past the end of the shorter of two arrays, wrapping an
//      N or D change for that element
// Native go maps are walked in sorted key order and *Map in insertion order,
// so the same inputs always produce the same changes. Values may contain
// cycles.
//
// Walking arrays pairs elements by index. OrderIndependentDiff instead sorts
// both arrays by a structural hash first, reporting only differences in the
// elements themselves.
//
// ApplyChange, RevertChange & ApplyDiff replay changes against a target,
// creating missing intermediate containers as they go
package treediff
