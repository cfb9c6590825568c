package treediff

import (
	"fmt"
	"unicode/utf16"
)

// Hash computes an order-independent structural hash of a value. Arrays & objects
// hash to the sum of their members' hashes, so two arrays holding the same
// elements in any order hash alike. Hash is not collision resistant, it exists
// to give order-independent diffs a stable sort key
func Hash(v interface{}) int64 {
	h := &hasher{visiting: map[ref]bool{}}
	return h.hash(v)
}

// cycleHash stands in for a container that is already being hashed further up
// the tree
var cycleHash = int64(hashString("[ type: cycle ]"))

type hasher struct {
	visiting map[ref]bool
}

func (h *hasher) hash(v interface{}) int64 {
	t := TypeOf(v)
	if !isContainer(t) {
		return int64(hashString(fmt.Sprintf("[ type: %s ; value: %s ]", t, textOf(t, v))))
	}

	if r, ok := refOf(v); ok {
		if h.visiting[r] {
			return cycleHash
		}
		h.visiting[r] = true
		defer delete(h.visiting, r)
	}

	var accum int64
	if t == TypeArray {
		for _, item := range v.([]interface{}) {
			accum += h.hash(item)
		}
		return accum + int64(hashString(fmt.Sprintf("[type: array, hash: %d]", accum)))
	}

	for _, key := range objectKeys(v) {
		val, _ := objectGet(v, key)
		accum += int64(hashString(fmt.Sprintf("[ type: object, key: %v, value hash: %d ]", key, h.hash(val))))
	}
	return accum
}

// hashString is the classic h = h*31 + c string hash over UTF-16 code units,
// wrapping at 32 bits
func hashString(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}
