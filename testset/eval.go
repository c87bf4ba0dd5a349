/*
 *
 * typst-test - a visual regression test engine for typst
 * Copyright (C) 2026 The typst-test Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package testset

import (
	"sort"

	"github.com/schollz/closestmatch"

	"go.typst-test.dev/typst-test/errext"
	"go.typst-test.dev/typst-test/errext/exitcodes"
	"go.typst-test.dev/typst-test/id"
)

// Context maps identifiers to values during evaluation. The zero value is
// not usable; construct one with NewContext.
type Context struct {
	bindings map[string]Value
}

// NewContext returns a Context with the default built-in bindings
// installed.
func NewContext() *Context {
	ctx := &Context{bindings: map[string]Value{}}
	bindBuiltIns(ctx)
	return ctx
}

// Bind installs an additional or overriding binding. Callers use this to
// expose suite-specific bindings before evaluation.
func (c *Context) Bind(name string, v Value) {
	c.bind(name, v)
}

func (c *Context) bind(name string, v Value) {
	c.bindings[name] = v
}

func (c *Context) lookup(name string) (Value, bool) {
	v, ok := c.bindings[name]
	return v, ok
}

func (c *Context) names() []string {
	names := make([]string, 0, len(c.bindings))
	for name := range c.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// unknownBinding builds an UnknownBindingError for name, including a
// similarity-ranked suggestion list drawn from the context's own bound
// names.
func (c *Context) unknownBinding(name string) error {
	names := c.names()
	if len(names) == 0 {
		return &UnknownBindingError{Name: name}
	}

	cm := closestmatch.New(names, []int{2, 3, 4})
	suggestions := cm.ClosestN(name, 3)

	filtered := suggestions[:0]
	for _, s := range suggestions {
		if s != "" && s != name {
			filtered = append(filtered, s)
		}
	}

	return &UnknownBindingError{Name: name, Suggestions: filtered}
}

// Eval evaluates expr against ctx, producing a dynamically-typed Value.
func Eval(expr Expr, ctx *Context) (Value, error) {
	switch e := expr.(type) {
	case NumLit:
		return numValue(e.Value), nil

	case StrLit:
		return strValue(e.Value), nil

	case PatLit:
		pat, err := id.Compile(e.Kind, e.Raw)
		if err != nil {
			return Value{}, err
		}
		return patValue(pat), nil

	case Ident:
		v, ok := ctx.lookup(e.Name)
		if !ok {
			return Value{}, ctx.unknownBinding(e.Name)
		}
		return v, nil

	case Call:
		return evalCall(e, ctx)

	case Not:
		x, err := Eval(e.X, ctx)
		if err != nil {
			return Value{}, err
		}
		xs, err := coerceSet(x)
		if err != nil {
			return Value{}, err
		}
		return setValue(func(t Test) bool { return !xs(t) }), nil

	case Binary:
		return evalBinary(e, ctx)

	default:
		panic("testset: unhandled expression node")
	}
}

func evalCall(e Call, ctx *Context) (Value, error) {
	callee, ok := ctx.lookup(e.Func)
	if !ok {
		return Value{}, ctx.unknownBinding(e.Func)
	}
	if callee.Kind != ValueFunc {
		return Value{}, &NotCallableError{Name: e.Func, Kind: callee.Kind}
	}

	args := make([]Value, len(e.Args))
	for i, argExpr := range e.Args {
		v, err := Eval(argExpr, ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}

	fn := callee.Func
	if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
		expected := fn.MinArgs
		isMin := fn.MaxArgs < 0 || fn.MaxArgs != fn.MinArgs
		return Value{}, &InvalidArgumentCountError{Func: e.Func, Expected: expected, IsMin: isMin, Found: len(args)}
	}

	return fn.Apply(args)
}

func evalBinary(e Binary, ctx *Context) (Value, error) {
	lv, err := Eval(e.Left, ctx)
	if err != nil {
		return Value{}, err
	}
	ls, err := coerceSet(lv)
	if err != nil {
		return Value{}, err
	}

	rv, err := Eval(e.Right, ctx)
	if err != nil {
		return Value{}, err
	}
	rs, err := coerceSet(rv)
	if err != nil {
		return Value{}, err
	}

	switch e.Op {
	case OpUnion:
		return setValue(func(t Test) bool { return ls(t) || rs(t) }), nil
	case OpIntersect:
		return setValue(func(t Test) bool { return ls(t) && rs(t) }), nil
	case OpDiff:
		return setValue(func(t Test) bool { return ls(t) && !rs(t) }), nil
	case OpXor:
		return setValue(func(t Test) bool { return ls(t) != rs(t) }), nil
	default:
		panic("testset: unhandled binary operator")
	}
}

// coerceSet implements the implicit Pat -> Set coercion: a pattern used
// where a set is required becomes the set of tests whose id matches it.
func coerceSet(v Value) (Set, error) {
	switch v.Kind {
	case ValueSet:
		return v.Set, nil
	case ValuePat:
		pat := v.Pat
		return func(t Test) bool { return pat.Matches(t.ID().String()) }, nil
	default:
		return nil, &TypeMismatchError{Expected: ValueSet, Found: v.Kind}
	}
}

// EvalSet parses and evaluates src, coercing the top-level result to a Set
// and, unless disableImplicitSkip is set, excluding skipped tests by
// wrapping it as `(user) ~ skip()`.
func EvalSet(src string, ctx *Context, disableImplicitSkip bool) (Set, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	v, err := Eval(expr, ctx)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	set, err := coerceSet(v)
	if err != nil {
		return nil, errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	if disableImplicitSkip {
		return set, nil
	}

	return func(t Test) bool { return set(t) && !t.Skip() }, nil
}
