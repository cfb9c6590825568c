package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qri-io/treediff"
)

func TestIgnore(t *testing.T) {
	cases := []struct {
		expression string
		path       treediff.Path
		key        interface{}
		expect     bool
	}{
		{`All()`, nil, "a", true},
		{`None()`, nil, "a", false},
		{`Key == "updatedAt"`, treediff.Path{"meta"}, "updatedAt", true},
		{`Key == "updatedAt"`, treediff.Path{"meta"}, "createdAt", false},
		{`Keys("id", "uuid")`, treediff.Path{"items", 0}, "uuid", true},
		{`Keys("0")`, treediff.Path{"items"}, 0, true},
		{`Keys()`, nil, "anything", true},
		{`Under("/meta")`, treediff.Path{"meta"}, "title", true},
		{`Under("/meta")`, nil, "meta", true},
		{`Under("/meta/")`, treediff.Path{"meta"}, "title", true},
		{`Under("/meta")`, nil, "metadata", false},
		{`Under("/a", "/b")`, treediff.Path{"b", "c"}, "d", true},
		{`Pointer == "/items/2/name"`, treediff.Path{"items", 2}, "name", true},
		{`Pointer matches "^/items/[0-9]+/etag$"`, treediff.Path{"items", 12}, "etag", true},
		{`Pointer matches "^/items/[0-9]+/etag$"`, treediff.Path{"other", 12}, "etag", false},
		{`Depth > 1 && Keys("id")`, treediff.Path{"a", "b"}, "id", true},
		{`Depth > 1 && Keys("id")`, treediff.Path{"a"}, "id", false},
		{`len(Path) > 0 && Path[0] == "meta"`, treediff.Path{"meta"}, "x", true},
	}

	for _, c := range cases {
		t.Run(c.expression, func(t *testing.T) {
			e, err := Compile(c.expression)
			require.NoError(t, err)
			got, err := e.Ignore(c.path, c.key)
			require.NoError(t, err)
			assert.Equal(t, c.expect, got, "path %s key %v", c.path, c.key)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, source := range []string{
		`Key ==`,
		`1 + 1`,
		`Unknown()`,
	} {
		t.Run(source, func(t *testing.T) {
			_, err := Compile(source)
			assert.Error(t, err)
		})
	}
}

func TestPrefilter(t *testing.T) {
	ts, err := Compile(`Keys("updatedAt")`)
	require.NoError(t, err)
	meta, err := Compile(`Under("/meta")`)
	require.NoError(t, err)

	lhs := map[string]interface{}{
		"name":      "a",
		"updatedAt": 1,
		"meta":      map[string]interface{}{"title": "x"},
		"list":      []interface{}{map[string]interface{}{"updatedAt": 1}},
	}
	rhs := map[string]interface{}{
		"name":      "b",
		"updatedAt": 2,
		"meta":      map[string]interface{}{"title": "y"},
		"list":      []interface{}{map[string]interface{}{"updatedAt": 2}},
	}

	changes := treediff.Diff(lhs, rhs, treediff.OptionPrefilter(Prefilter(nil, ts, meta)))
	require.Len(t, changes, 1, "changes: %s", changes)
	assert.Equal(t, treediff.Path{"name"}, changes[0].Path)
}

func TestPrefilterErrors(t *testing.T) {
	e, err := Compile(`Key > 1`)
	require.NoError(t, err)

	var errs []error
	filter := Prefilter(func(err error) { errs = append(errs, err) }, e)

	assert.False(t, filter(nil, "a"))
	assert.True(t, filter(nil, 2))
	assert.Len(t, errs, 1)
}
