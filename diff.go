package treediff

import (
	"sort"
)

// Diff computes the changes that turn lhs into rhs. Diff returns nil when the
// two values have no differences, never an empty list
func Diff(lhs, rhs interface{}, opts ...DiffOption) Changes {
	changes := ObservableDiff(lhs, rhs, nil, opts...)
	if len(changes) == 0 {
		return nil
	}
	return changes
}

// OrderIndependentDiff is Diff with array element order ignored
func OrderIndependentDiff(lhs, rhs interface{}, opts ...DiffOption) Changes {
	all := make([]DiffOption, 0, len(opts)+1)
	all = append(all, opts...)
	return Diff(lhs, rhs, append(all, OptionOrderIndependent())...)
}

// ObservableDiff computes the changes that turn lhs into rhs, calling observer
// once per change in emission order. The returned list is never nil
func ObservableDiff(lhs, rhs interface{}, observer func(*Change), opts ...DiffOption) Changes {
	cfg := &DiffConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	d := &diff{cfg: cfg, changes: Changes{}}
	d.walk(nil, lhs, rhs, false, false, nil, false)

	if observer != nil {
		for _, c := range d.changes {
			observer(c)
		}
	}
	if cfg.Stats != nil {
		cfg.Stats.count(lhs, rhs, d.changes)
	}
	return d.changes
}

// Prefilter reports whether the key at path should be skipped. path is the
// path of the container holding key
type Prefilter func(path Path, key interface{}) bool

// Normalizer may swap the values at key for alternates before they're
// compared. Returning ok == false leaves the values as they are
type Normalizer func(path Path, key, lhs, rhs interface{}) (l, r interface{}, ok bool)

// Filter bundles the hooks Diff calls before descending into a key
type Filter struct {
	Prefilter Prefilter
	Normalize Normalizer
}

// DiffConfig are any possible configuration parameters for calculating diffs
type DiffConfig struct {
	Prefilter Prefilter
	Normalize Normalizer
	// If true arrays are compared as multisets, see OptionOrderIndependent
	OrderIndependent bool
	// Provide a non-nil stats pointer & diff will populate it with data from
	// the diff process
	Stats *Stats
}

// DiffOption is a function that adjust a config, zero or more DiffOptions
// can be passed to the Diff function
type DiffOption func(cfg *DiffConfig)

// OptionPrefilter skips every key fn returns true for, along with everything
// beneath it
func OptionPrefilter(fn Prefilter) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.Prefilter = fn
	}
}

// OptionNormalize sets a hook that can substitute the values compared at a key
func OptionNormalize(fn Normalizer) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.Normalize = fn
	}
}

// OptionFilter sets both filter hooks at once. Nil hooks are left unset
func OptionFilter(f Filter) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.Prefilter = f.Prefilter
		cfg.Normalize = f.Normalize
	}
}

// OptionOrderIndependent compares arrays by sorting elements on their structural
// hash first. Input slices aren't modified. Indices in the resulting changes
// refer to positions in hash order, call SortByHash on a target before
// applying them
func OptionOrderIndependent() DiffOption {
	return func(cfg *DiffConfig) {
		cfg.OrderIndependent = true
	}
}

// OptionSetStats will set the passed-in stats pointer when Diff is called
func OptionSetStats(st *Stats) DiffOption {
	return func(cfg *DiffConfig) {
		cfg.Stats = st
	}
}

// diff holds the state of a single pass: accumulated changes & the stack of
// container pairs currently being descended into
type diff struct {
	cfg     *DiffConfig
	changes Changes
	stack   []frame
}

type frame struct {
	lhs, rhs interface{}
}

func (d *diff) emit(c *Change) {
	d.changes = append(d.changes, c)
}

// walk compares lhs & rhs, found under key in the containers at path. lOwned &
// rOwned report whether each parent holds key, which is how a member set to
// Undefined is told apart from a missing one
func (d *diff) walk(path Path, lhs, rhs interface{}, lOwned, rOwned bool, key interface{}, keyed bool) {
	current := path
	if keyed {
		if d.cfg.Prefilter != nil && d.cfg.Prefilter(append(Path{}, path...), key) {
			return
		}
		if d.cfg.Normalize != nil {
			if l, r, ok := d.cfg.Normalize(append(Path{}, path...), key, lhs, rhs); ok {
				lhs, rhs = l, r
			}
		}
		current = path.extend(key)
	}

	lt, rt := TypeOf(lhs), TypeOf(rhs)
	if lt == TypeRegexp && rt == TypeRegexp {
		lhs, rhs = patternString(lhs), patternString(rhs)
		lt, rt = TypeString, TypeString
	}

	ldefined := lt != TypeUndefined || lOwned
	rdefined := rt != TypeUndefined || rOwned

	switch {
	case !ldefined && rdefined:
		d.emit(NewChange(current, rhs))
	case ldefined && !rdefined:
		d.emit(DeletedChange(current, lhs))
	case lt != rt:
		d.emit(EditedChange(current, lhs, rhs))
	case lt == TypeDate:
		if !valuesEqual(lt, lhs, rhs) {
			d.emit(EditedChange(current, lhs, rhs))
		}
	case isContainer(lt):
		d.container(current, lt, lhs, rhs)
	case !valuesEqual(lt, lhs, rhs):
		d.emit(EditedChange(current, lhs, rhs))
	}
}

func (d *diff) container(path Path, t ValueType, lhs, rhs interface{}) {
	for i := len(d.stack) - 1; i >= 0; i-- {
		if sameRef(d.stack[i].lhs, lhs) {
			// lhs refers back to one of its own ancestors. if rhs does too
			// there's nothing new below, otherwise report the whole value
			if !sameRef(lhs, rhs) {
				d.emit(EditedChange(path, lhs, rhs))
			}
			return
		}
	}

	d.stack = append(d.stack, frame{lhs: lhs, rhs: rhs})
	if t == TypeArray {
		d.array(path, lhs.([]interface{}), rhs.([]interface{}))
	} else {
		d.object(path, lhs, rhs)
	}
	d.stack = d.stack[:len(d.stack)-1]
}

// array emits wrapped array changes for indices past the end of the shorter
// side, then walks the shared indices from the highest down
func (d *diff) array(path Path, lhs, rhs []interface{}) {
	if d.cfg.OrderIndependent {
		lhs, rhs = hashOrder(lhs), hashOrder(rhs)
	}

	i, j := len(rhs)-1, len(lhs)-1
	for ; i > j; i-- {
		d.emit(ArrayChange(path, i, NewChange(nil, rhs[i])))
	}
	for ; j > i; j-- {
		d.emit(ArrayChange(path, j, DeletedChange(nil, lhs[j])))
	}
	for ; i >= 0; i-- {
		d.walk(path, lhs[i], rhs[i], true, true, i, true)
	}
}

func (d *diff) object(path Path, lhs, rhs interface{}) {
	consumed := map[interface{}]bool{}
	for _, key := range objectKeys(lhs) {
		lv, _ := objectGet(lhs, key)
		if rv, ok := objectGet(rhs, key); ok {
			consumed[key] = true
			d.walk(path, lv, rv, true, true, key, true)
		} else {
			d.walk(path, lv, Undefined, true, false, key, true)
		}
	}

	for _, key := range objectKeys(rhs) {
		if consumed[key] {
			continue
		}
		rv, _ := objectGet(rhs, key)
		d.walk(path, Undefined, rv, false, true, key, true)
	}
}

// hashOrder returns a copy of items stably sorted by structural hash
func hashOrder(items []interface{}) []interface{} {
	hashes := make([]int64, len(items))
	order := make([]int, len(items))
	for i, item := range items {
		hashes[i] = Hash(item)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return hashes[order[a]] < hashes[order[b]]
	})

	sorted := make([]interface{}, len(items))
	for i, idx := range order {
		sorted[i] = items[idx]
	}
	return sorted
}

// SortByHash sorts every array within v, in place, into the order an
// order-independent diff compares arrays in. Changes from OrderIndependentDiff
// apply to their lhs once it has been sorted
func SortByHash(v interface{}) {
	sortByHash(v, map[ref]bool{})
}

func sortByHash(v interface{}, seen map[ref]bool) {
	if !isContainer(TypeOf(v)) {
		return
	}
	if r, ok := refOf(v); ok {
		if seen[r] {
			return
		}
		seen[r] = true
	}

	if arr, ok := v.([]interface{}); ok {
		// hashes ignore element order, so sorting parents first is safe
		copy(arr, hashOrder(arr))
		for _, el := range arr {
			sortByHash(el, seen)
		}
		return
	}
	for _, key := range objectKeys(v) {
		el, _ := objectGet(v, key)
		sortByHash(el, seen)
	}
}
