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

package id

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/gobwas/glob"
)

// Kind identifies which matcher a Pattern compiled to.
type Kind int

const (
	// Glob matches via shell-style globbing, including "**".
	Glob Kind = iota
	// Regex matches the full id string against a regular expression.
	Regex
	// Contains matches if the id string contains the pattern as a substring.
	Contains
	// Exact matches if the id string equals the pattern exactly.
	Exact
	// Path matches the id itself or any of its descendants.
	Path
)

func (k Kind) String() string {
	switch k {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Contains:
		return "contains"
	case Exact:
		return "exact"
	case Path:
		return "path"
	default:
		return "unknown"
	}
}

// Pattern is a compiled matcher over id strings.
type Pattern struct {
	kind Kind
	raw  string

	glob  glob.Glob
	regex *regexp2.Regexp
}

// Compile compiles raw as a pattern of the given kind.
func Compile(kind Kind, raw string) (Pattern, error) {
	p := Pattern{kind: kind, raw: raw}

	switch kind {
	case Glob:
		g, err := glob.Compile(raw, '/')
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid glob pattern %q: %w", raw, err)
		}
		p.glob = g
	case Regex:
		re, err := regexp2.Compile(raw, regexp2.None)
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid regex pattern %q: %w", raw, err)
		}
		re.MatchTimeout = 0
		p.regex = re
	case Contains, Exact, Path:
		// raw is used as-is.
	default:
		return Pattern{}, fmt.Errorf("unknown pattern kind %v", kind)
	}

	return p, nil
}

// Kind returns the pattern's matcher kind.
func (p Pattern) Kind() Kind {
	return p.kind
}

// Raw returns the pattern's original, uncompiled source text.
func (p Pattern) Raw() string {
	return p.raw
}

// Matches reports whether haystack (an id's string form) matches the
// pattern.
func (p Pattern) Matches(haystack string) bool {
	switch p.kind {
	case Glob:
		return p.glob.Match(haystack)
	case Regex:
		ok, err := p.regex.MatchString(haystack)
		return err == nil && ok
	case Contains:
		return strings.Contains(haystack, p.raw)
	case Exact:
		return haystack == p.raw
	case Path:
		if haystack == p.raw {
			return true
		}
		return strings.HasPrefix(haystack, p.raw+Separator)
	default:
		return false
	}
}

// ParseKind resolves a pattern-kind shorthand, as accepted by the test-set
// language's "<kind>:<raw>" production (g|glob, r|regex, c|contains,
// e|exact, p|path).
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "g", "glob":
		return Glob, true
	case "r", "regex":
		return Regex, true
	case "c", "contains":
		return Contains, true
	case "e", "exact":
		return Exact, true
	case "p", "path":
		return Path, true
	default:
		return 0, false
	}
}
