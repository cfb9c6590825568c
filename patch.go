package treediff

import (
	"fmt"
	"reflect"
	"strconv"
)

// ApplyChange applies a single change to target. target must be a mapping or
// slice (which is modified in place) or a non-nil pointer to a value. Changes
// to the root value itself, or anything that grows or shrinks a slice passed
// directly as target, need a pointer:
//
//   ApplyChange(list, EditedChange(Path{0}, "a", "b"))   // edits list[0]
//   ApplyChange(&list, DeletedChange(Path{0}, "a"))      // removes list[0]
//
// Missing intermediate containers are created on the way to the change's
// path: a slice when the next path element is an int index, a mapping
// otherwise. Existing intermediates are never replaced. A nil target or change,
// an unknown kind or a path running through a scalar are all silently ignored
func ApplyChange(target interface{}, change *Change) {
	if change == nil {
		return
	}
	root, set, ok := rootOf(target)
	if !ok {
		return
	}
	if s, bare := target.([]interface{}); bare && resizes(s, change, false) {
		return
	}
	set(apply(root, change))
}

// ApplyChangeFrom is ApplyChange for callers that pass the value a change was
// derived from. When change is nil & source is itself a change, source is
// applied
func ApplyChangeFrom(target, source interface{}, change *Change) {
	if change == nil {
		if c, ok := source.(*Change); ok {
			change = c
		}
	}
	ApplyChange(target, change)
}

// RevertChange undoes change on target: New values are removed, Deleted and
// Edited values get their LHS back. It does nothing unless target, source and
// change are all present
func RevertChange(target, source interface{}, change *Change) {
	if change == nil || absent(source) {
		return
	}
	root, set, ok := rootOf(target)
	if !ok {
		return
	}
	if s, bare := target.([]interface{}); bare && resizes(s, change, true) {
		return
	}
	set(revert(root, change))
}

// ApplyDiff diffs target against source & applies every resulting change to
// target, moving it toward source. When filter is non-nil only changes it
// returns true for are applied
func ApplyDiff(target, source interface{}, filter func(target, source interface{}, change *Change) bool) {
	if absent(source) {
		return
	}
	root, _, ok := rootOf(target)
	if !ok {
		return
	}
	ObservableDiff(root, source, func(c *Change) {
		if filter == nil || filter(target, source, c) {
			ApplyChange(target, c)
		}
	})
}

func absent(v interface{}) bool {
	return v == nil || v == Undefined
}

// rootOf resolves a patch target to the value changes apply to, and a func
// that stores a replacement root
func rootOf(target interface{}) (root interface{}, set func(interface{}), ok bool) {
	switch t := target.(type) {
	case nil:
		return nil, nil, false
	case *Map:
		if t == nil {
			return nil, nil, false
		}
		return t, keep, true
	case map[string]interface{}, map[interface{}]interface{}, []interface{}:
		return t, keep, true
	}

	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, nil, false
	}
	elem := rv.Elem()
	set = func(v interface{}) {
		if v == nil {
			elem.Set(reflect.Zero(elem.Type()))
			return
		}
		if nv := reflect.ValueOf(v); nv.Type().AssignableTo(elem.Type()) {
			elem.Set(nv)
		}
	}
	return elem.Interface(), set, true
}

// keep is the setter for targets that are modified in place & can't be
// replaced
func keep(interface{}) {}

// resizes reports whether applying (or reverting) c on s would need a slice
// of a different length, or a different value altogether, in place of s
func resizes(s []interface{}, c *Change, reverting bool) bool {
	path := c.Path
	for c.Kind == KindArray {
		if c.Item == nil {
			return false
		}
		path = append(path.extend(c.Index), c.Item.Path...)
		c = c.Item
	}
	if len(path) == 0 {
		return true
	}

	i, ok := parseIndex(path[0])
	if !ok || i < 0 {
		return false
	}
	if i >= len(s) {
		return true
	}
	removes := c.Kind == KindDeleted
	if reverting {
		removes = c.Kind == KindNew
	}
	return len(path) == 1 && removes
}

func apply(node interface{}, c *Change) interface{} {
	switch c.Kind {
	case KindNew, KindEdited:
		return assign(node, c.Path, c.RHS)
	case KindDeleted:
		return remove(node, c.Path)
	case KindArray:
		if c.Item == nil {
			return node
		}
		item := c.Item.under(c.Index)
		if len(c.Path) == 0 {
			return apply(node, item)
		}
		return within(node, c.Path, func(parent, key interface{}) interface{} {
			arr, ok := getChild(parent, key)
			if !ok || arr == Undefined {
				arr = []interface{}{}
			}
			return setChild(parent, key, apply(arr, item))
		})
	}
	return node
}

func revert(node interface{}, c *Change) interface{} {
	switch c.Kind {
	case KindNew:
		return remove(node, c.Path)
	case KindDeleted, KindEdited:
		return assign(node, c.Path, c.LHS)
	case KindArray:
		if c.Item == nil {
			return node
		}
		item := c.Item.under(c.Index)
		if len(c.Path) == 0 {
			return revert(node, item)
		}
		return within(node, c.Path, func(parent, key interface{}) interface{} {
			arr, ok := getChild(parent, key)
			if !ok || TypeOf(arr) != TypeArray {
				return parent
			}
			return setChild(parent, key, revert(arr, item))
		})
	}
	return node
}

// under returns a copy of c relocated beneath array index i
func (c *Change) under(i int) *Change {
	moved := *c
	moved.Path = append(Path{i}, c.Path...)
	return &moved
}

func assign(node interface{}, path Path, v interface{}) interface{} {
	if len(path) == 0 {
		return v
	}
	return within(node, path, func(parent, key interface{}) interface{} {
		return setChild(parent, key, v)
	})
}

func remove(node interface{}, path Path) interface{} {
	if len(path) == 0 {
		return nil
	}
	return within(node, path, deleteChild)
}

// within descends node along path to the container holding path's last
// element & replaces that container with the result of fn. Missing
// intermediates are created, replaced containers are stored back into their
// parents on the way out. Reaching a non-container stops the descent
func within(node interface{}, path Path, fn func(parent, key interface{}) interface{}) interface{} {
	if !isContainer(TypeOf(node)) && !isNilContainer(node) {
		return node
	}
	if len(path) == 1 {
		return fn(node, path[0])
	}

	key := path[0]
	child, ok := getChild(node, key)
	if !ok || child == Undefined {
		child = containerFor(node, path[1])
	}
	if !isContainer(TypeOf(child)) {
		return node
	}
	return setChild(node, key, within(child, path[1:], fn))
}

// isNilContainer reports typed nil containers, which TypeOf treats as null but
// setChild can still fill
func isNilContainer(v interface{}) bool {
	m, ok := v.(*Map)
	return ok && m == nil
}

func containerFor(parent, next interface{}) interface{} {
	if _, ok := next.(int); ok {
		return []interface{}{}
	}
	switch parent.(type) {
	case *Map:
		return NewMap()
	case map[interface{}]interface{}:
		return map[interface{}]interface{}{}
	}
	return map[string]interface{}{}
}

func getChild(parent, key interface{}) (interface{}, bool) {
	switch p := parent.(type) {
	case []interface{}:
		i, ok := parseIndex(key)
		if !ok || i < 0 || i >= len(p) {
			return nil, false
		}
		return p[i], true
	case map[string]interface{}:
		v, ok := p[keyName(key)]
		return v, ok
	case map[interface{}]interface{}:
		if !hashable(key) {
			return nil, false
		}
		v, ok := p[key]
		return v, ok
	case *Map:
		return p.Get(key)
	}
	return nil, false
}

// setChild stores v under key, returning parent or its replacement when it
// had to grow or be created. Slices are padded with nil up to key
func setChild(parent, key, v interface{}) interface{} {
	switch p := parent.(type) {
	case []interface{}:
		i, ok := parseIndex(key)
		if !ok || i < 0 {
			return p
		}
		for len(p) <= i {
			p = append(p, nil)
		}
		p[i] = v
		return p
	case map[string]interface{}:
		if p == nil {
			p = map[string]interface{}{}
		}
		p[keyName(key)] = v
		return p
	case map[interface{}]interface{}:
		if !hashable(key) {
			return p
		}
		if p == nil {
			p = map[interface{}]interface{}{}
		}
		p[key] = v
		return p
	case *Map:
		if !hashable(key) {
			return p
		}
		if p == nil {
			p = NewMap()
		}
		p.Set(key, v)
		return p
	}
	return parent
}

// deleteChild removes key from parent. Slice elements after key shift down
// to close the gap
func deleteChild(parent, key interface{}) interface{} {
	switch p := parent.(type) {
	case []interface{}:
		i, ok := parseIndex(key)
		if !ok || i < 0 || i >= len(p) {
			return p
		}
		copy(p[i:], p[i+1:])
		p[len(p)-1] = nil
		return p[:len(p)-1]
	case map[string]interface{}:
		delete(p, keyName(key))
	case map[interface{}]interface{}:
		if hashable(key) {
			delete(p, key)
		}
	case *Map:
		p.Delete(key)
	}
	return parent
}

// parseIndex reads a slice index from a path element. Decoded paths may carry
// indices as numeric strings
func parseIndex(key interface{}) (int, bool) {
	if s, ok := key.(string); ok {
		i, err := strconv.Atoi(s)
		return i, err == nil
	}
	if i, ok := intOf(key); ok {
		return int(i), true
	}
	return 0, false
}

// keyName is the string form of a key used on string-keyed maps
func keyName(key interface{}) string {
	if s, ok := key.(string); ok {
		return s
	}
	return fmt.Sprint(key)
}
