// Package ignore compiles user-written expressions into diff prefilters.
// Expressions are evaluated once per object key or array index with Env as
// their environment, and the key is skipped when the expression is true:
//
//   Key == "updatedAt"
//   Under("/metadata/annotations")
//   Depth > 3 && Keys("id", "uuid")
//   Pointer matches "^/items/[0-9]+/etag$"
package ignore

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"

	"github.com/qri-io/treediff"
)

// Env is the environment of an ignore expression
type Env struct {
	// Path of the container holding Key
	Path []interface{}
	// Key is the object key or array index being considered
	Key interface{}
	// Pointer is the slash-separated location of Key, eg: /items/0/name
	Pointer string
	// Depth is the number of containers above Key
	Depth int
}

// All is true for every key
func (e Env) All() bool {
	return true
}

// None is false for every key
func (e Env) None() bool {
	return false
}

// Keys is true when Key is one of vals. Keys that aren't strings are compared
// by their printed form. With no vals Keys is always true
func (e Env) Keys(vals ...string) bool {
	if len(vals) == 0 {
		return true
	}
	key := fmt.Sprint(e.Key)
	for _, val := range vals {
		if val == key {
			return true
		}
	}
	return false
}

// Under is true when Pointer is one of prefixes, or lies beneath one of them
func (e Env) Under(prefixes ...string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" || e.Pointer == prefix || strings.HasPrefix(e.Pointer, prefix+"/") {
			return true
		}
	}
	return false
}

func newEnv(path treediff.Path, key interface{}) Env {
	full := make(treediff.Path, 0, len(path)+1)
	full = append(append(full, path...), key)
	return Env{
		Path:    []interface{}(path),
		Key:     key,
		Pointer: full.String(),
		Depth:   len(path),
	}
}

// Expression is a compiled ignore expression
type Expression struct {
	source  string
	program *vm.Program
}

// Compile parses & type-checks an ignore expression, which must evaluate to
// a boolean
func Compile(source string) (*Expression, error) {
	prog, err := expr.Compile(source, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, "compiling ignore expression %q", source)
	}
	return &Expression{source: source, program: prog}, nil
}

// String returns the expression's source text
func (e *Expression) String() string {
	return e.source
}

// Ignore evaluates the expression for key, found in the container at path
func (e *Expression) Ignore(path treediff.Path, key interface{}) (bool, error) {
	out, err := expr.Run(e.program, newEnv(path, key))
	if err != nil {
		return false, errors.Wrapf(err, "evaluating %q", e.source)
	}
	ignore, ok := out.(bool)
	if !ok {
		return false, errors.Errorf("evaluating %q: expected a bool, got %T", e.source, out)
	}
	return ignore, nil
}

// Prefilter combines expressions into a diff prefilter that skips a key when
// any of them is true. Evaluation errors are passed to onErr when it's non-nil,
// and leave the key in place
func Prefilter(onErr func(error), exprs ...*Expression) treediff.Prefilter {
	return func(path treediff.Path, key interface{}) bool {
		for _, e := range exprs {
			ignore, err := e.Ignore(path, key)
			if err != nil {
				if onErr != nil {
					onErr(err)
				}
				continue
			}
			if ignore {
				return true
			}
		}
		return false
	}
}
