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

package errext

import "github.com/sirupsen/logrus"

// Fprint logs err at error level on logger, with any hint attached as a
// field. Fprint is a no-op for a nil error.
func Fprint(logger logrus.FieldLogger, err error) {
	if err == nil {
		return
	}

	message, fields := Format(err)
	logger.WithFields(logrus.Fields(fields)).Error(message)
}
