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

package runner

import "sync/atomic"

// CancelFlag is the cooperative cancellation signal shared between a
// Runner and whatever observes it (a signal handler, an embedding CLI, or
// the runner's own fail-fast path). It has a single writer in the common
// case but is safe for any number of concurrent readers and writers (spec
// section 5: "single-writer OK; many readers").
type CancelFlag struct {
	flag atomic.Bool
}

// Set marks the flag. Idempotent.
func (c *CancelFlag) Set() {
	c.flag.Store(true)
}

// IsSet reports whether the flag has been set.
func (c *CancelFlag) IsSet() bool {
	return c.flag.Load()
}
