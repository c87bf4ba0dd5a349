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

import "go.typst-test.dev/typst-test/id"

// bindBuiltIns installs the default bindings into ctx: the nullary set
// constructors plus the optional pattern-coercing functions operating on a
// test's id, module, name and custom annotation.
func bindBuiltIns(ctx *Context) {
	ctx.bind("all", funcValue(nullarySet("all", func(Test) bool { return true })))
	ctx.bind("none", funcValue(nullarySet("none", func(Test) bool { return false })))
	ctx.bind("skip", funcValue(nullarySet("skip", func(t Test) bool { return t.Skip() })))
	ctx.bind("compile-only", funcValue(nullarySet("compile-only", func(t Test) bool { return t.CompileOnly() })))
	ctx.bind("ephemeral", funcValue(nullarySet("ephemeral", func(t Test) bool { return t.Ephemeral() })))
	ctx.bind("persistent", funcValue(nullarySet("persistent", func(t Test) bool { return t.Persistent() })))

	ctx.bind("id", funcValue(patternSet("id", func(t Test) string { return t.ID().String() })))
	ctx.bind("mod", funcValue(patternSet("mod", func(t Test) string { return t.ID().Module() })))
	ctx.bind("name", funcValue(patternSet("name", func(t Test) string { return t.ID().Name() })))
	ctx.bind("custom", funcValue(patternSet("custom", func(t Test) string {
		custom, ok := t.Custom()
		if !ok {
			return ""
		}
		return custom.String()
	})))
}

func nullarySet(name string, pred func(Test) bool) Func {
	return Func{
		Name:    name,
		MinArgs: 0,
		MaxArgs: 0,
		Apply: func(args []Value) (Value, error) {
			if len(args) != 0 {
				return Value{}, &InvalidArgumentCountError{Func: name, Expected: 0, Found: len(args)}
			}
			return setValue(Set(pred)), nil
		},
	}
}

// patternSet builds a unary built-in that matches a pattern argument
// against the string field extracted from accessor.
func patternSet(name string, accessor func(Test) string) Func {
	return Func{
		Name:    name,
		MinArgs: 1,
		MaxArgs: 1,
		Apply: func(args []Value) (Value, error) {
			if len(args) != 1 {
				return Value{}, &InvalidArgumentCountError{Func: name, Expected: 1, Found: len(args)}
			}
			pat, err := asPattern(args[0])
			if err != nil {
				return Value{}, err
			}
			return setValue(func(t Test) bool {
				return pat.Matches(accessor(t))
			}), nil
		},
	}
}

func asPattern(v Value) (id.Pattern, error) {
	if v.Kind != ValuePat {
		return id.Pattern{}, &TypeMismatchError{Expected: ValuePat, Found: v.Kind}
	}
	return v.Pat, nil
}
