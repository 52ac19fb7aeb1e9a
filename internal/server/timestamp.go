/*
Copyright (C) 2023, 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package server

import (
	"time"

	"github.com/launix-de/cmdlogd/internal/cmdlog"
)

// DefaultTimestampInterval is how often the timestamp producer appends a
// "timestamp:" line to the shared log (spec §4.7).
const DefaultTimestampInterval = 10 * time.Second

// timestampLayout mirrors the original's "%a, %d %b %Y %T %z" strftime
// format using Go's reference-time layout.
const timestampLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// appendTimestamp writes one "timestamp:<rfc-ish date>\n" entry through the
// guard, exactly like any other appended command.
func appendTimestamp(guard *cmdlog.Guard, now time.Time) {
	line := "timestamp:" + now.Format(timestampLayout) + "\n"
	guard.AppendAndAdvance([]byte(line))
}
