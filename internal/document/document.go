// Package document reads JSON & YAML files into values treediff can compare,
// and writes them back out
package document

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/qri-io/treediff"
)

// Format is a document encoding
type Format string

const (
	// JSON documents. Output is indented, object keys keep their order
	JSON = Format("json")
	// YAML documents
	YAML = Format("yaml")
)

// ErrUnknownFormat is returned for format names other than json & yaml
var ErrUnknownFormat = errors.New("unknown document format")

// ParseFormat reads a format name, ignoring case
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", name)
}

// FormatOf picks a format from a file extension. Anything that isn't YAML is
// treated as JSON
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

// Load reads the document at path
func Load(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", path)
	}
	v, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", path)
	}
	return v, nil
}

// Decode parses a JSON or YAML document. JSON is read as YAML, which it's a
// subset of. Mappings become *treediff.Map so keys keep their document order.
// An empty document decodes to treediff.Undefined
func Decode(data []byte) (interface{}, error) {
	root := &yaml.Node{}
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return treediff.Undefined, nil
	}
	d := &decoder{aliases: map[*yaml.Node]bool{}}
	return d.value(root)
}

type decoder struct {
	aliases map[*yaml.Node]bool
}

func (d *decoder) value(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return treediff.Undefined, nil
		}
		return d.value(n.Content[0])
	case yaml.AliasNode:
		if d.aliases[n] {
			return nil, errors.Errorf("line %d: alias %q refers to itself", n.Line, n.Value)
		}
		d.aliases[n] = true
		defer delete(d.aliases, n)
		return d.value(n.Alias)
	case yaml.SequenceNode:
		items := make([]interface{}, 0, len(n.Content))
		for _, el := range n.Content {
			v, err := d.value(el)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.MappingNode:
		m := treediff.NewMap()
		if err := d.mapping(m, n); err != nil {
			return nil, err
		}
		return m, nil
	case yaml.ScalarNode:
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, errors.Wrapf(err, "line %d", n.Line)
		}
		return v, nil
	}
	return nil, errors.Errorf("line %d: unexpected node kind %d", n.Line, n.Kind)
}

// mapping copies the key, value pairs of n into m. Merge keys (<<) bring in
// the members of the mappings they refer to without overriding keys set
// directly
func (d *decoder) mapping(m *treediff.Map, n *yaml.Node) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if kn.Kind == yaml.ScalarNode && kn.ShortTag() == "!!merge" {
			merges = append(merges, vn)
			continue
		}

		key, err := d.value(kn)
		if err != nil {
			return err
		}
		if key != nil && !reflect.TypeOf(key).Comparable() {
			return errors.Errorf("line %d: mapping keys must be scalars", kn.Line)
		}
		v, err := d.value(vn)
		if err != nil {
			return err
		}
		m.Set(key, v)
	}

	for _, mn := range merges {
		if mn.Kind == yaml.SequenceNode {
			for _, el := range mn.Content {
				if err := d.merge(m, el); err != nil {
					return err
				}
			}
			continue
		}
		if err := d.merge(m, mn); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) merge(m *treediff.Map, n *yaml.Node) error {
	v, err := d.value(n)
	if err != nil {
		return err
	}
	src, ok := v.(*treediff.Map)
	if !ok {
		return errors.Errorf("line %d: merge value must be a mapping", n.Line)
	}
	for _, key := range src.Keys() {
		if _, exists := m.Get(key); exists {
			continue
		}
		val, _ := src.Get(key)
		m.Set(key, val)
	}
	return nil
}

// Encode writes v to w in the given format
func Encode(w io.Writer, v interface{}, f Format) error {
	switch f {
	case JSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return errors.Wrap(err, "encoding json")
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case YAML:
		n, err := node(v)
		if err != nil {
			return errors.Wrap(err, "encoding yaml")
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(n); err != nil {
			return errors.Wrap(err, "encoding yaml")
		}
		return enc.Close()
	}
	return errors.Wrapf(ErrUnknownFormat, "%q", f)
}

// Write encodes v to the file at path, choosing a format from its extension
func Write(path string, v interface{}) error {
	buf := &bytes.Buffer{}
	if err := Encode(buf, v, FormatOf(path)); err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0644), "writing %q", path)
}

// node builds a yaml tree for v. Ordered maps are written in key order
func node(v interface{}) (*yaml.Node, error) {
	switch x := v.(type) {
	case *treediff.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range x.Keys() {
			val, _ := x.Get(key)
			if err := appendPair(n, key, val); err != nil {
				return nil, err
			}
		}
		return n, nil
	case map[string]interface{}:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, key := range sortedKeys(x) {
			if err := appendPair(n, key, x[key]); err != nil {
				return nil, err
			}
		}
		return n, nil
	case []interface{}:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, el := range x {
			en, err := node(el)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	}

	if v == treediff.Undefined {
		v = nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func appendPair(n *yaml.Node, key, val interface{}) error {
	kn, err := node(key)
	if err != nil {
		return err
	}
	vn, err := node(val)
	if err != nil {
		return err
	}
	n.Content = append(n.Content, kn, vn)
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
