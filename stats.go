package treediff

// Stats holds statistical metadata about a diff
type Stats struct {
	Left  int `json:"leftNodes"`  // count of nodes in the left tree
	Right int `json:"rightNodes"` // count of nodes in the right tree

	Inserts    int `json:"inserts,omitempty"`    // number of nodes inserted
	Updates    int `json:"updates,omitempty"`    // number of nodes updated
	Deletes    int `json:"deletes,omitempty"`    // number of nodes deleted
	ArrayEdits int `json:"arrayEdits,omitempty"` // number of wrapped array changes
}

// NodeChange returns a count of the shift between left & right trees
func (s Stats) NodeChange() int {
	return s.Right - s.Left
}

// count fills s from a finished diff. Array changes count once as an array
// edit & once more for the kind of change they wrap
func (s *Stats) count(lhs, rhs interface{}, changes Changes) {
	*s = Stats{
		Left:  countNodes(lhs),
		Right: countNodes(rhs),
	}
	for _, c := range changes {
		s.tally(c)
	}
}

func (s *Stats) tally(c *Change) {
	switch c.Kind {
	case KindNew:
		s.Inserts++
	case KindDeleted:
		s.Deletes++
	case KindEdited:
		s.Updates++
	case KindArray:
		s.ArrayEdits++
		if c.Item != nil {
			s.tally(c.Item)
		}
	}
}

// countNodes counts every value in a tree, containers included. Undefined
// counts for nothing, and a container reached again through a cycle isn't
// counted twice
func countNodes(v interface{}) int {
	return (&counter{seen: map[ref]bool{}}).count(v)
}

type counter struct {
	seen map[ref]bool
}

func (c *counter) count(v interface{}) int {
	t := TypeOf(v)
	if t == TypeUndefined {
		return 0
	}
	if !isContainer(t) {
		return 1
	}
	if r, ok := refOf(v); ok {
		if c.seen[r] {
			return 0
		}
		c.seen[r] = true
	}

	n := 1
	if arr, ok := v.([]interface{}); ok {
		for _, el := range arr {
			n += c.count(el)
		}
		return n
	}
	for _, key := range objectKeys(v) {
		el, _ := objectGet(v, key)
		n += c.count(el)
	}
	return n
}
