package treediff

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Kind defines the kind of a Change
type Kind string

const (
	// KindNew is a key or index present only on the right side
	KindNew = Kind("N")
	// KindDeleted is a key or index present only on the left side
	KindDeleted = Kind("D")
	// KindEdited is a key or index present on both sides with differing values
	KindEdited = Kind("E")
	// KindArray wraps a change to an array element that lies past the end of
	// the shorter of the two arrays
	KindArray = Kind("A")
)

var (
	// ErrUnknownKind is returned when decoding a change with an unrecognized kind
	ErrUnknownKind = errors.New("unknown change kind")
	// ErrMissingItem is returned when decoding an array change without an item
	ErrMissingItem = errors.New("array change has no item")
	// ErrCycle is returned when encoding a value that contains itself
	ErrCycle = errors.New("value contains a cycle")
)

// Path locates a node relative to the roots being compared. Elements are
// mapping keys or int array indices. A nil path means the change concerns the
// root value itself
type Path []interface{}

// String renders the path as a slash-separated pointer. The root path renders
// as the empty string
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, seg := range p {
		b.WriteByte('/')
		s := fmt.Sprint(seg)
		s = strings.ReplaceAll(s, "~", "~0")
		s = strings.ReplaceAll(s, "/", "~1")
		b.WriteString(s)
	}
	return b.String()
}

// extend returns a copy of p with key appended
func (p Path) extend(key interface{}) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, key)
}

// pathOf keeps the absent-vs-empty distinction: an empty path is absent
func pathOf(p Path) Path {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Change is a single difference between two values. LHS is set for Deleted &
// Edited changes, RHS for New & Edited changes. Array changes carry the index
// of the element they concern and the change to that element in Item
type Change struct {
	Kind Kind
	Path Path
	LHS  interface{}
	RHS  interface{}

	Index int
	Item  *Change
}

// NewChange creates a change for a value present only on the right
func NewChange(path Path, rhs interface{}) *Change {
	return &Change{Kind: KindNew, Path: pathOf(path), RHS: rhs}
}

// DeletedChange creates a change for a value present only on the left
func DeletedChange(path Path, lhs interface{}) *Change {
	return &Change{Kind: KindDeleted, Path: pathOf(path), LHS: lhs}
}

// EditedChange creates a change for a value that differs between sides
func EditedChange(path Path, lhs, rhs interface{}) *Change {
	return &Change{Kind: KindEdited, Path: pathOf(path), LHS: lhs, RHS: rhs}
}

// ArrayChange wraps item, a change to the element at index of the array at path
func ArrayChange(path Path, index int, item *Change) *Change {
	return &Change{Kind: KindArray, Path: pathOf(path), Index: index, Item: item}
}

// String gives a one-line description of the change. Array changes describe
// the wrapped change at its full path
func (c *Change) String() string {
	path := displayPath(c.Path)
	switch c.Kind {
	case KindNew:
		return fmt.Sprintf("N %s: %s", path, valueString(c.RHS))
	case KindDeleted:
		return fmt.Sprintf("D %s: %s", path, valueString(c.LHS))
	case KindEdited:
		return fmt.Sprintf("E %s: %s -> %s", path, valueString(c.LHS), valueString(c.RHS))
	case KindArray:
		if c.Item == nil {
			return fmt.Sprintf("A %s", displayPath(c.Path.extend(c.Index)))
		}
		item := *c.Item
		item.Path = append(c.Path.extend(c.Index), c.Item.Path...)
		return "A " + item.String()
	}
	return fmt.Sprintf("%s %s", c.Kind, path)
}

// displayPath is the path as shown to people, where the root reads "/"
func displayPath(p Path) string {
	if len(p) == 0 {
		return "/"
	}
	return p.String()
}

func valueString(v interface{}) string {
	if v == Undefined {
		return "undefined"
	}
	data, err := json.Marshal(v)
	if err != nil {
		// fmt would recurse forever on a cyclic value
		return fmt.Sprintf("<%T>", v)
	}
	return string(data)
}

// Changes is an ordered list of changes, as emitted by Diff
type Changes []*Change

// String lists one change per line
func (cs Changes) String() string {
	lines := make([]string, len(cs))
	for i, c := range cs {
		lines[i] = c.String()
	}
	return strings.Join(lines, "\n")
}

type changeJSON struct {
	Kind  Kind            `json:"kind"`
	Path  []interface{}   `json:"path,omitempty"`
	LHS   json.RawMessage `json:"lhs,omitempty"`
	RHS   json.RawMessage `json:"rhs,omitempty"`
	Index *int            `json:"index,omitempty"`
	Item  *Change         `json:"item,omitempty"`
}

// MarshalJSON implements a custom JSON Marshaller. The path is left out for
// root changes, and Undefined lhs or rhs values are left out entirely
func (c *Change) MarshalJSON() ([]byte, error) {
	cj := changeJSON{Kind: c.Kind, Path: c.Path}
	var err error
	switch c.Kind {
	case KindNew:
		cj.RHS, err = rawValue(c.RHS)
	case KindDeleted:
		cj.LHS, err = rawValue(c.LHS)
	case KindEdited:
		if cj.LHS, err = rawValue(c.LHS); err == nil {
			cj.RHS, err = rawValue(c.RHS)
		}
	case KindArray:
		idx := c.Index
		cj.Index = &idx
		cj.Item = c.Item
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s change at %q", c.Kind, c.Path)
	}
	return json.Marshal(cj)
}

func rawValue(v interface{}) (json.RawMessage, error) {
	if v == Undefined {
		return nil, nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes a change written by MarshalJSON. Whole-number path
// elements become int indices
func (c *Change) UnmarshalJSON(data []byte) error {
	cj := changeJSON{}
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}

	switch cj.Kind {
	case KindNew, KindDeleted, KindEdited:
	case KindArray:
		if cj.Item == nil {
			return ErrMissingItem
		}
		if cj.Index == nil {
			return errors.Errorf("array change at %q has no index", Path(cj.Path))
		}
	default:
		return errors.Wrapf(ErrUnknownKind, "%q", cj.Kind)
	}

	*c = Change{Kind: cj.Kind, Item: cj.Item}
	var err error
	if cj.Kind == KindDeleted || cj.Kind == KindEdited {
		if c.LHS, err = decodeValue(cj.LHS); err != nil {
			return errors.Wrap(err, "decoding lhs")
		}
	}
	if cj.Kind == KindNew || cj.Kind == KindEdited {
		if c.RHS, err = decodeValue(cj.RHS); err != nil {
			return errors.Wrap(err, "decoding rhs")
		}
	}
	if cj.Index != nil {
		c.Index = *cj.Index
	}
	if len(cj.Path) > 0 {
		c.Path = make(Path, len(cj.Path))
		for i, seg := range cj.Path {
			c.Path[i] = pathSegment(seg)
		}
	}
	return nil
}

func decodeValue(raw json.RawMessage) (interface{}, error) {
	if len(raw) == 0 {
		return Undefined, nil
	}
	var v interface{}
	err := json.Unmarshal(raw, &v)
	return v, err
}

func pathSegment(seg interface{}) interface{} {
	if f, ok := seg.(float64); ok && f == math.Trunc(f) && f >= 0 && f <= math.MaxInt32 {
		return int(f)
	}
	return seg
}
