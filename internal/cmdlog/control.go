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

package cmdlog

import (
	"strconv"
	"strings"

	packrat "github.com/launix-de/go-packrat/v2"
)

// ControlPrefix is the literal prefix that distinguishes a control line
// from a data line (spec §6).
const ControlPrefix = "AESDCHAR_IOCSEEKTO:"

// controlGrammar is built once: prefix, then two unsigned integers
// separated by a comma. No whitespace skipping — the grammar is anchored
// and the remainder of the line (if any) is ignored by the caller, not by
// the grammar itself.
var controlGrammar = packrat.NewAndParser(
	packrat.NewRegexParser(`AESDCHAR_IOCSEEKTO:`, false, false),
	packrat.NewRegexParser(`[0-9]+`, false, false),
	packrat.NewRegexParser(`,`, false, false),
	packrat.NewRegexParser(`[0-9]+`, false, false),
)

// ParseControl recognizes a line against the AESDCHAR_IOCSEEKTO:X,Y
// grammar (spec §6). line may include its trailing newline and any
// trailing bytes after Y; those are ignored. Returns ok=false (not an
// error) for anything that isn't a control line, including malformed
// numerics that overflow uint32 — such lines are treated as ordinary data.
func ParseControl(line []byte) (x, y uint32, ok bool) {
	s := strings.TrimRight(string(line), "\n")
	if !strings.HasPrefix(s, ControlPrefix) {
		return 0, 0, false
	}

	scanner := packrat.NewScanner(s, nil)
	node, err := packrat.Parse(controlGrammar, scanner)
	if err != nil || node == nil || len(node.Children) != 4 {
		return 0, 0, false
	}

	xStr, xOk := node.Children[1].Matched.(string)
	yStr, yOk := node.Children[3].Matched.(string)
	if !xOk || !yOk {
		return 0, 0, false
	}

	xv, err := strconv.ParseUint(xStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	yv, err := strconv.ParseUint(yStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return uint32(xv), uint32(yv), true
}
