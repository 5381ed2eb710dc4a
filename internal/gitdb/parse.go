// Copyright 2016 Aaron Wilson and Habla, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gitdb

import "strings"

// parseNameStatusLog turns the text output of
// `git log --follow --name-status --pretty=%H -- <path>` into a structured
// change sequence, newest first.
//
// The raw output interleaves three kinds of lines: a 40-hex commit hash, a
// blank separator, and one or more tab-separated name-status entries
// belonging to the most recent hash line:
//
//	<hash>
//
//	A\t<path>
//	<hash>
//
//	R100\t<old path>\t<new path>
//
// Rather than chunking by fixed line counts, the parser classifies each
// line, which also tolerates commits carrying several status entries and a
// missing trailing separator.
func parseNameStatusLog(out string) []Change {
	if out == "" {
		return nil
	}

	var changes []Change
	current := ""
	for _, line := range strings.Split(out, "\n") {
		switch {
		case line == "":
			continue
		case isCommitHash(line):
			current = line
		case strings.ContainsRune(line, '\t') && current != "":
			fields := strings.Split(line, "\t")
			status := statusFromToken(fields[0])
			c := Change{CommitID: current, Status: status}
			switch status {
			case StatusRenamed, StatusChanged:
				if len(fields) < 3 {
					continue
				}
				c.OldPath = fields[1]
				c.Path = fields[2]
			default:
				c.Path = fields[1]
			}
			changes = append(changes, c)
		}
	}
	return changes
}

// isCommitHash reports whether a line is a full 40-hex commit id.
func isCommitHash(line string) bool {
	if len(line) != 40 {
		return false
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsFingerprint reports whether s is syntactically a well-formed blob
// fingerprint (40 lowercase hex digits).
func IsFingerprint(s string) bool {
	return isCommitHash(s)
}

// lsTreeEntry is one parsed `git ls-tree` output line:
//
//	<mode> SP <type> SP <sha>\t<name>
//
// Name is the path component after the tab: the asked-for path when
// ls-tree is given an explicit path, or the entry's own name when listing
// a subtree.
type lsTreeEntry struct {
	Mode string
	Type string
	SHA  string
	Name string
}

func parseLsTreeLine(line string) (lsTreeEntry, bool) {
	meta, name, found := strings.Cut(line, "\t")
	if !found {
		return lsTreeEntry{}, false
	}
	fields := strings.Fields(meta)
	if len(fields) != 3 {
		return lsTreeEntry{}, false
	}
	return lsTreeEntry{Mode: fields[0], Type: fields[1], SHA: fields[2], Name: name}, true
}
