package treediff

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ValueType is the structural type of a value. Two values are only ever
// compared member-by-member when they share a ValueType, values of differing
// types are always reported as an edit
type ValueType string

const (
	// TypeUndefined is the type of the Undefined sentinel
	TypeUndefined = ValueType("undefined")
	// TypeNull is the type of nil
	TypeNull = ValueType("null")
	// TypeBool is the type of bool values
	TypeBool = ValueType("boolean")
	// TypeNumber covers every integer & floating point kind, plus json.Number
	TypeNumber = ValueType("number")
	// TypeString is the type of string values
	TypeString = ValueType("string")
	// TypeArray is the type of []interface{}
	TypeArray = ValueType("array")
	// TypeDate is the type of time.Time and *time.Time
	TypeDate = ValueType("date")
	// TypeRegexp is the type of pattern literals: *regexp.Regexp and anything
	// that prints as /.../
	TypeRegexp = ValueType("regexp")
	// TypeMath is the type of the Math singleton
	TypeMath = ValueType("math")
	// TypeObject covers all supported mappings
	TypeObject = ValueType("object")
)

type undefined struct{}

func (undefined) String() string { return "undefined" }

// MarshalJSON writes Undefined as null, JSON has no absent value
func (undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Undefined is the explicit absent value. A mapping may hold a key whose value
// is Undefined, which is distinct from not holding the key at all
var Undefined interface{} = undefined{}

// MathConstants is the type of the Math singleton
type MathConstants struct {
	E, Pi, Phi                    float64
	Sqrt2, SqrtE, SqrtPi, SqrtPhi float64
	Ln2, Log2E, Ln10, Log10E      float64
}

// Math is a singleton constants object. It has its own structural type, so it
// never compares equal to an ordinary object
var Math = &MathConstants{
	E: math.E, Pi: math.Pi, Phi: math.Phi,
	Sqrt2: math.Sqrt2, SqrtE: math.SqrtE, SqrtPi: math.SqrtPi, SqrtPhi: math.SqrtPhi,
	Ln2: math.Ln2, Log2E: math.Log2E, Ln10: math.Ln10, Log10E: math.Log10E,
}

var patternForm = regexp.MustCompile(`^/.*/`)

// TypeOf classifies a value. Values the package doesn't know get their Go type
// name as a type & are compared with reflect.DeepEqual
func TypeOf(v interface{}) ValueType {
	switch x := v.(type) {
	case undefined:
		return TypeUndefined
	case nil:
		return TypeNull
	case bool:
		return TypeBool
	case string:
		return TypeString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return TypeNumber
	case *MathConstants:
		if x == Math {
			return TypeMath
		}
	case []interface{}:
		return TypeArray
	case time.Time:
		return TypeDate
	case *time.Time:
		if x == nil {
			return TypeNull
		}
		return TypeDate
	case *regexp.Regexp:
		if x == nil {
			return TypeNull
		}
		return TypeRegexp
	case map[string]interface{}, map[interface{}]interface{}:
		return TypeObject
	case *Map:
		if x == nil {
			return TypeNull
		}
		return TypeObject
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
			break
		}
		if patternForm.MatchString(x.String()) {
			return TypeRegexp
		}
	}
	return ValueType(fmt.Sprintf("%T", v))
}

// isContainer reports types the differ descends into
func isContainer(t ValueType) bool {
	return t == TypeArray || t == TypeObject
}

// patternString gives the slash-delimited form of a pattern literal
func patternString(v interface{}) string {
	if re, ok := v.(*regexp.Regexp); ok {
		return "/" + re.String() + "/"
	}
	return v.(fmt.Stringer).String()
}

func timeOf(v interface{}) time.Time {
	if t, ok := v.(*time.Time); ok {
		return *t
	}
	return v.(time.Time)
}

// ref is an identity token for a container. Maps compare by pointer, slices
// by backing array & length
type ref struct {
	kind byte
	ptr  uintptr
	len  int
}

func refOf(v interface{}) (ref, bool) {
	switch x := v.(type) {
	case []interface{}:
		if len(x) == 0 {
			return ref{}, false
		}
		return ref{kind: 'a', ptr: reflect.ValueOf(x).Pointer(), len: len(x)}, true
	case map[string]interface{}:
		if x == nil {
			return ref{}, false
		}
		return ref{kind: 's', ptr: reflect.ValueOf(x).Pointer()}, true
	case map[interface{}]interface{}:
		if x == nil {
			return ref{}, false
		}
		return ref{kind: 'i', ptr: reflect.ValueOf(x).Pointer()}, true
	case *Map:
		if x == nil {
			return ref{}, false
		}
		return ref{kind: 'm', ptr: reflect.ValueOf(x).Pointer()}, true
	}
	return ref{}, false
}

// sameRef reports whether a & b are the same container
func sameRef(a, b interface{}) bool {
	ra, ok := refOf(a)
	if !ok {
		return false
	}
	rb, ok := refOf(b)
	return ok && ra == rb
}

// objectKeys lists a mapping's keys in traversal order. Native go maps have no
// order of their own, their keys are sorted so output is stable
func objectKeys(v interface{}) []interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		names := make([]string, 0, len(x))
		for name := range x {
			names = append(names, name)
		}
		sort.Strings(names)
		keys := make([]interface{}, len(names))
		for i, name := range names {
			keys[i] = name
		}
		return keys
	case map[interface{}]interface{}:
		keys := make([]interface{}, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.SliceStable(keys, func(i, j int) bool {
			ki, kj := keyString(keys[i]), keyString(keys[j])
			if ki != kj {
				return ki < kj
			}
			// a string key can read the same as a typed one, eg "int:1"
			return fmt.Sprintf("%T", keys[i]) < fmt.Sprintf("%T", keys[j])
		})
		return keys
	case *Map:
		return x.Keys()
	}
	return nil
}

func objectGet(v interface{}, key interface{}) (interface{}, bool) {
	switch x := v.(type) {
	case map[string]interface{}:
		s, ok := key.(string)
		if !ok {
			return nil, false
		}
		val, ok := x[s]
		return val, ok
	case map[interface{}]interface{}:
		if !hashable(key) {
			return nil, false
		}
		val, ok := x[key]
		return val, ok
	case *Map:
		return x.Get(key)
	}
	return nil, false
}

func hashable(key interface{}) bool {
	return key == nil || reflect.TypeOf(key).Comparable()
}

func keyString(k interface{}) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprintf("%T:%v", k, k)
}

// valuesEqual compares two non-container values of the same type
func valuesEqual(t ValueType, a, b interface{}) bool {
	switch t {
	case TypeUndefined, TypeNull, TypeMath:
		return true
	case TypeBool, TypeString:
		return a == b
	case TypeNumber:
		return numbersEqual(a, b)
	case TypeDate:
		return timeOf(a).Equal(timeOf(b))
	}
	return reflect.DeepEqual(a, b)
}

// numbersEqual compares numbers by value regardless of go type. Two NaNs
// compare equal
func numbersEqual(a, b interface{}) bool {
	ai, aInt := intOf(a)
	bi, bInt := intOf(b)
	if aInt && bInt {
		return ai == bi
	}
	af, bf := floatOf(a), floatOf(b)
	if math.IsNaN(af) && math.IsNaN(bf) {
		return true
	}
	return af == bf
}

func intOf(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) <= math.MaxInt64 {
			return int64(x), true
		}
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x), true
		}
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	}
	return 0, false
}

func floatOf(v interface{}) float64 {
	switch x := v.(type) {
	case float32:
		return float64(x)
	case float64:
		return x
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	}
	i, _ := intOf(v)
	return float64(i)
}

// textOf is the textual form of a non-container value, used for hashing
func textOf(t ValueType, v interface{}) string {
	switch t {
	case TypeNumber:
		if i, ok := intOf(v); ok {
			return strconv.FormatInt(i, 10)
		}
		f := floatOf(v)
		switch {
		case math.IsNaN(f):
			return "NaN"
		case math.IsInf(f, 1):
			return "Infinity"
		case math.IsInf(f, -1):
			return "-Infinity"
		}
		return numberString(f)
	case TypeDate:
		return timeOf(v).Format(time.RFC3339Nano)
	case TypeRegexp:
		return patternString(v)
	case TypeMath:
		return "[object Math]"
	case TypeNull:
		return "null"
	}
	return fmt.Sprint(v)
}

// numberString formats a finite float the way javascript's Number#toString
// does: plain decimals from 1e-6 up to 1e21, exponent form outside that range
func numberString(f float64) string {
	if f == 0 {
		return "0"
	}
	sign := ""
	if f < 0 {
		sign, f = "-", -f
	}

	// shortest round-tripping digits, with f == 0.digits * 10^n
	e := strconv.FormatFloat(f, 'e', -1, 64)
	at := strings.IndexByte(e, 'e')
	digits := strings.Replace(e[:at], ".", "", 1)
	x, _ := strconv.Atoi(e[at+1:])
	n, k := x+1, len(digits)

	switch {
	case k <= n && n <= 21:
		return sign + digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return sign + digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return sign + "0." + strings.Repeat("0", -n) + digits
	}

	mantissa := digits[:1]
	if k > 1 {
		mantissa += "." + digits[1:]
	}
	if n-1 >= 0 {
		return sign + mantissa + "e+" + strconv.Itoa(n-1)
	}
	return sign + mantissa + "e" + strconv.Itoa(n-1)
}

// cyclic reports whether v holds a container nested inside itself
func cyclic(v interface{}) bool {
	return (&cycleFinder{}).find(v)
}

type cycleFinder struct {
	ancestors []interface{}
}

func (f *cycleFinder) find(v interface{}) bool {
	if !isContainer(TypeOf(v)) {
		return false
	}
	for _, a := range f.ancestors {
		if sameRef(a, v) {
			return true
		}
	}
	f.ancestors = append(f.ancestors, v)
	defer func() { f.ancestors = f.ancestors[:len(f.ancestors)-1] }()

	if arr, ok := v.([]interface{}); ok {
		for _, el := range arr {
			if f.find(el) {
				return true
			}
		}
		return false
	}
	for _, key := range objectKeys(v) {
		el, _ := objectGet(v, key)
		if f.find(el) {
			return true
		}
	}
	return false
}
